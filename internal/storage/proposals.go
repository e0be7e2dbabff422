package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tiendamoda/reclass/internal/common"
	"github.com/tiendamoda/reclass/internal/model"
)

// CountPendingProposals returns the number of proposals awaiting review.
func (s *SQLiteStorage) CountPendingProposals(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reseed_proposals WHERE status = 'pending'`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending proposals: %w", err)
	}
	return count, nil
}

// ReplacePendingProposals atomically replaces the pending proposals for the
// chunk's products: existing pending rows for those product IDs are deleted,
// then the new proposals are inserted, skipping duplicates. Returns the
// number of rows actually written.
func (s *SQLiteStorage) ReplacePendingProposals(ctx context.Context, proposals []model.Proposal) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if len(proposals) == 0 {
		return 0, nil
	}
	for i := range proposals {
		if err := validateProposal(&proposals[i]); err != nil {
			return 0, err
		}
	}

	written := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ids := make([]string, 0, len(proposals))
		for i := range proposals {
			ids = append(ids, proposals[i].ProductID)
		}
		if err := deletePendingByProductsTx(ctx, tx, ids); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO reseed_proposals (
				product_id, from_category, to_category,
				from_subcategory, to_subcategory, clear_subcategory,
				from_gender, to_gender,
				confidence, support, margin, reasons,
				source, run_key, status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare proposal insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		now := time.Now()
		for i := range proposals {
			p := &proposals[i]
			reasons, marshalErr := json.Marshal(p.Reasons)
			if marshalErr != nil {
				return fmt.Errorf("failed to encode reasons for product %s: %w", p.ProductID, marshalErr)
			}

			res, execErr := stmt.ExecContext(ctx,
				p.ProductID, p.FromCategory, p.ToCategory,
				p.FromSubcategory, p.ToSubcategory, p.ClearSubcategory,
				p.FromGender, p.ToGender,
				p.Confidence, p.Support, p.Margin, string(reasons),
				p.Source, p.RunKey, string(p.Status), now, now,
			)
			if execErr != nil {
				return fmt.Errorf("failed to insert proposal for product %s: %w", p.ProductID, execErr)
			}
			n, _ := res.RowsAffected()
			written += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// DeleteStalePending removes pending proposals for products whose current
// evidence no longer supports a change. Runs outside the main chunk loop.
func (s *SQLiteStorage) DeleteStalePending(ctx context.Context, productIDs []string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if len(productIDs) == 0 {
		return 0, nil
	}

	deleted := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := fmt.Sprintf(`
			DELETE FROM reseed_proposals
			WHERE status = 'pending' AND product_id IN (%s)
		`, placeholders(len(productIDs)))

		res, execErr := tx.ExecContext(ctx, query, stringArgs(productIDs)...)
		if execErr != nil {
			return fmt.Errorf("failed to delete stale pending proposals: %w", execErr)
		}
		n, _ := res.RowsAffected()
		deleted = int(n)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// GetPendingProposal returns the pending proposal for a product, if any.
func (s *SQLiteStorage) GetPendingProposal(ctx context.Context, productID string) (*model.Proposal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(productID, "productID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, from_category, to_category,
		       from_subcategory, to_subcategory, clear_subcategory,
		       from_gender, to_gender,
		       confidence, support, margin, reasons,
		       source, run_key, status, created_at, updated_at
		FROM reseed_proposals
		WHERE product_id = ? AND status = 'pending'
	`, productID)

	p, err := scanProposal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: pending proposal for product %s", common.ErrNotFound, productID)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProposalStatus flips a proposal to accepted or rejected. The review
// UI owns this transition; it lives here so the whole contract is in one
// place.
func (s *SQLiteStorage) UpdateProposalStatus(ctx context.Context, id int64, status model.ProposalStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	switch status {
	case model.ProposalAccepted, model.ProposalRejected:
	default:
		return fmt.Errorf("%w: cannot transition to %q", ErrInvalidProposal, status)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE reseed_proposals
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'
	`, string(status), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update proposal %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: pending proposal %d", common.ErrNotFound, id)
	}
	return nil
}

func deletePendingByProductsTx(ctx context.Context, tx *sql.Tx, productIDs []string) error {
	query := fmt.Sprintf(`
		DELETE FROM reseed_proposals
		WHERE status = 'pending' AND product_id IN (%s)
	`, placeholders(len(productIDs)))

	if _, err := tx.ExecContext(ctx, query, stringArgs(productIDs)...); err != nil {
		return fmt.Errorf("failed to delete pending proposals for chunk: %w", err)
	}
	return nil
}

func scanProposal(row rowScanner) (*model.Proposal, error) {
	var (
		p                     model.Proposal
		fromCat, toCat        sql.NullString
		fromSub, toSub        sql.NullString
		fromGender, toGender  sql.NullString
		reasons, source, key  sql.NullString
		status                string
	)

	err := row.Scan(
		&p.ID, &p.ProductID, &fromCat, &toCat,
		&fromSub, &toSub, &p.ClearSubcategory,
		&fromGender, &toGender,
		&p.Confidence, &p.Support, &p.Margin, &reasons,
		&source, &key, &status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan proposal: %w", err)
	}

	p.FromCategory = fromCat.String
	p.ToCategory = toCat.String
	p.FromSubcategory = fromSub.String
	p.ToSubcategory = toSub.String
	p.FromGender = fromGender.String
	p.ToGender = toGender.String
	p.Source = source.String
	p.RunKey = key.String
	p.Status = model.ProposalStatus(status)

	if reasons.Valid && reasons.String != "" {
		if err := json.Unmarshal([]byte(reasons.String), &p.Reasons); err != nil {
			return nil, fmt.Errorf("failed to decode reasons for proposal %d: %w", p.ID, err)
		}
	}
	return &p, nil
}

// placeholders builds a "?, ?, ?" list of length n.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
