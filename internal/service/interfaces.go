// Package service defines the persistence contracts between the engine and
// its storage layer.
package service

import (
	"context"
	"time"

	"github.com/tiendamoda/reclass/internal/model"
)

// Storage is the full persistence contract the engine and CLI depend on.
type Storage interface {
	ProductReader
	ProposalStore
	RunAuditStore

	Migrate(ctx context.Context) error
	Close() error
}

// ProductReader is the product read contract. Products are read-only to the
// engine; SaveProducts exists for fixtures and operational seeding.
type ProductReader interface {
	GetReseedCandidates(ctx context.Context, limit int) ([]model.Candidate, error)
	GetProductByID(ctx context.Context, id string) (*model.Product, error)
	SaveProducts(ctx context.Context, products []model.Product) error
}

// ProposalStore is the idempotent proposal write contract.
type ProposalStore interface {
	CountPendingProposals(ctx context.Context) (int, error)
	ReplacePendingProposals(ctx context.Context, proposals []model.Proposal) (int, error)
	DeleteStalePending(ctx context.Context, productIDs []string) (int, error)
	GetPendingProposal(ctx context.Context, productID string) (*model.Proposal, error)
	UpdateProposalStatus(ctx context.Context, id int64, status model.ProposalStatus) error
}

// RunAuditStore is the run audit contract: insert-if-not-running plus a
// single finalize, with the watchdog sweep as the only recovery path.
type RunAuditStore interface {
	BeginRun(ctx context.Context, run *model.ReseedRun) (int64, error)
	FinalizeRun(ctx context.Context, id int64, status model.RunStatus, reason string, scanned, proposed, enqueued int, runErr string) error
	RecordSkippedRun(ctx context.Context, run *model.ReseedRun) (int64, error)
	SweepStaleRuns(ctx context.Context, olderThan time.Duration) (int, error)
	LastCompletedAt(ctx context.Context) (time.Time, error)
	GetRun(ctx context.Context, id int64) (*model.ReseedRun, error)
	ListRuns(ctx context.Context, limit int) ([]model.ReseedRun, error)
}
