package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tiendamoda/reclass/internal/common"
	"github.com/tiendamoda/reclass/internal/model"
)

// GetReseedCandidates returns up to limit eligible products: enriched, with
// no accepted/rejected decision, prioritizing products that already carry a
// pending proposal over most-recently-updated ones.
func (s *SQLiteStorage) GetReseedCandidates(ctx context.Context, limit int) ([]model.Candidate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query, args, err := s.builder().
		Select(
			"p.id", "p.name", "p.description", "p.original_description",
			"p.seo_title", "p.seo_description", "p.seo_tags", "p.source_url",
			"p.category", "p.subcategory", "p.gender", "p.metadata",
			"p.enriched_at", "p.updated_at",
			"pending.id IS NOT NULL AS has_pending",
		).
		From("products p").
		LeftJoin("reseed_proposals pending ON pending.product_id = p.id AND pending.status = 'pending'").
		Where("p.enriched_at IS NOT NULL").
		Where(`NOT EXISTS (
			SELECT 1 FROM reseed_proposals decided
			WHERE decided.product_id = p.id
			  AND decided.status IN ('accepted', 'rejected')
		)`).
		OrderBy("has_pending DESC", "p.updated_at DESC", "p.id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build candidate query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var candidates []model.Candidate
	for rows.Next() {
		c, scanErr := scanCandidate(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candidates: %w", err)
	}

	return candidates, nil
}

// GetProductByID returns a single product.
func (s *SQLiteStorage) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, original_description,
		       seo_title, seo_description, seo_tags, source_url,
		       category, subcategory, gender, metadata,
		       enriched_at, updated_at
		FROM products WHERE id = ?
	`, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: product %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SaveProducts upserts product rows. The engine itself never mutates
// products; this exists for fixtures and operational seeding in the shared
// schema.
func (s *SQLiteStorage) SaveProducts(ctx context.Context, products []model.Product) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProducts(products); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO products (
				id, name, description, original_description,
				seo_title, seo_description, seo_tags, source_url,
				category, subcategory, gender, metadata,
				enriched_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				description = excluded.description,
				original_description = excluded.original_description,
				seo_title = excluded.seo_title,
				seo_description = excluded.seo_description,
				seo_tags = excluded.seo_tags,
				source_url = excluded.source_url,
				category = excluded.category,
				subcategory = excluded.subcategory,
				gender = excluded.gender,
				metadata = excluded.metadata,
				enriched_at = excluded.enriched_at,
				updated_at = excluded.updated_at
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare product upsert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i := range products {
			p := &products[i]
			tags, metadata, encErr := encodeProductJSON(p)
			if encErr != nil {
				return encErr
			}

			updatedAt := p.UpdatedAt
			if updatedAt.IsZero() {
				updatedAt = time.Now()
			}

			if _, err := stmt.ExecContext(ctx,
				p.ID, p.Name, p.Description, p.OriginalDescription,
				p.SEOTitle, p.SEODescription, tags, p.SourceURL,
				p.Category, p.Subcategory, p.Gender, metadata,
				p.EnrichedAt, updatedAt,
			); err != nil {
				return fmt.Errorf("failed to save product %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

// rowScanner abstracts sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*model.Product, error) {
	var (
		p                     model.Product
		description, origDesc sql.NullString
		seoTitle, seoDesc     sql.NullString
		tags, sourceURL       sql.NullString
		category, subcategory sql.NullString
		gender, metadata      sql.NullString
		enrichedAt            sql.NullTime
	)

	err := row.Scan(
		&p.ID, &p.Name, &description, &origDesc,
		&seoTitle, &seoDesc, &tags, &sourceURL,
		&category, &subcategory, &gender, &metadata,
		&enrichedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	p.Description = description.String
	p.OriginalDescription = origDesc.String
	p.SEOTitle = seoTitle.String
	p.SEODescription = seoDesc.String
	p.SourceURL = sourceURL.String
	p.Category = category.String
	p.Subcategory = subcategory.String
	p.Gender = gender.String
	if enrichedAt.Valid {
		t := enrichedAt.Time
		p.EnrichedAt = &t
	}

	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &p.SEOTags); err != nil {
			return nil, fmt.Errorf("failed to decode seo_tags for product %s: %w", p.ID, err)
		}
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &p.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for product %s: %w", p.ID, err)
		}
	}

	return &p, nil
}

func scanCandidate(rows *sql.Rows) (model.Candidate, error) {
	var (
		c                     model.Candidate
		p                     model.Product
		description, origDesc sql.NullString
		seoTitle, seoDesc     sql.NullString
		tags, sourceURL       sql.NullString
		category, subcategory sql.NullString
		gender, metadata      sql.NullString
		enrichedAt            sql.NullTime
	)

	err := rows.Scan(
		&p.ID, &p.Name, &description, &origDesc,
		&seoTitle, &seoDesc, &tags, &sourceURL,
		&category, &subcategory, &gender, &metadata,
		&enrichedAt, &p.UpdatedAt,
		&c.HasPending,
	)
	if err != nil {
		return model.Candidate{}, fmt.Errorf("failed to scan candidate: %w", err)
	}

	p.Description = description.String
	p.OriginalDescription = origDesc.String
	p.SEOTitle = seoTitle.String
	p.SEODescription = seoDesc.String
	p.SourceURL = sourceURL.String
	p.Category = category.String
	p.Subcategory = subcategory.String
	p.Gender = gender.String
	if enrichedAt.Valid {
		t := enrichedAt.Time
		p.EnrichedAt = &t
	}

	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &p.SEOTags); err != nil {
			return model.Candidate{}, fmt.Errorf("failed to decode seo_tags for product %s: %w", p.ID, err)
		}
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &p.Metadata); err != nil {
			return model.Candidate{}, fmt.Errorf("failed to decode metadata for product %s: %w", p.ID, err)
		}
	}

	c.Product = p
	return c, nil
}

func encodeProductJSON(p *model.Product) (tags, metadata string, err error) {
	if len(p.SEOTags) > 0 {
		b, marshalErr := json.Marshal(p.SEOTags)
		if marshalErr != nil {
			return "", "", fmt.Errorf("failed to encode seo_tags for product %s: %w", p.ID, marshalErr)
		}
		tags = string(b)
	}
	if len(p.Metadata) > 0 {
		b, marshalErr := json.Marshal(p.Metadata)
		if marshalErr != nil {
			return "", "", fmt.Errorf("failed to encode metadata for product %s: %w", p.ID, marshalErr)
		}
		metadata = string(b)
	}
	return tags, metadata, nil
}
