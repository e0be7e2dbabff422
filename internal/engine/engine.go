// Package engine implements the reseed run lifecycle: admission, watchdog
// recovery, batch scoring and proposal reconciliation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tiendamoda/reclass/internal/common"
	"github.com/tiendamoda/reclass/internal/config"
	"github.com/tiendamoda/reclass/internal/decide"
	"github.com/tiendamoda/reclass/internal/harvest"
	"github.com/tiendamoda/reclass/internal/model"
	"github.com/tiendamoda/reclass/internal/service"
	"github.com/tiendamoda/reclass/internal/taxonomy"
)

// maxStoredErrorLen bounds the error text persisted on a run row.
const maxStoredErrorLen = 500

// Reseeder orchestrates reclassification batch runs. All cross-process
// coordination goes through the run audit store's uniqueness constraint;
// the Reseeder itself holds no locks.
type Reseeder struct {
	storage   service.Storage
	harvester *harvest.Harvester
	decider   *decide.Engine
	settings  config.Settings
}

// New creates a reseeder for a taxonomy index.
func New(storage service.Storage, idx *taxonomy.Index, settings config.Settings) *Reseeder {
	policy := decide.DefaultPolicy()
	policy.RequireNameBacked = settings.RequireNameBacked

	return &Reseeder{
		storage:   storage,
		harvester: harvest.NewHarvester(idx),
		decider:   decide.New(idx, policy),
		settings:  settings,
	}
}

// RunOptions describes one execution request.
type RunOptions struct {
	Trigger model.RunTrigger
	Source  string

	// Force bypasses the pending-count and cooldown admission checks and,
	// for manual runs, shortens the watchdog window to the force-recovery
	// grace period so a merely slow run can be pre-empted.
	Force bool

	// RefreshPending bypasses only the pending-count check, so repeated runs
	// can rescore products that already hold pending proposals.
	RefreshPending bool

	// OnProgress, if set, is called after each product is scored.
	OnProgress func(done, total int)
}

// RunResult summarizes one execution for the caller. Failures inside the run
// body are reported here, not as errors.
type RunResult struct {
	RunID        int64
	RunKey       string
	Status       model.RunStatus
	Reason       string
	PendingCount int
	Scanned      int
	Proposed     int
	Enqueued     int
	StaleDeleted int
	SweptStale   int
	Failures     int

	failReasons []string
}

// scoreOutcome isolates one product's scoring result so a single bad record
// cannot abort the batch.
type scoreOutcome struct {
	proposal *model.Proposal
	err      error
}

// Run executes one batch. The admission sequence is: watchdog sweep, enabled
// check, pending-count check, cooldown check, then the uniqueness-constrained
// run row insert, which is the single authoritative mutual-exclusion point.
func (r *Reseeder) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if opts.Trigger == "" {
		opts.Trigger = model.TriggerCron
	}
	if opts.Source == "" {
		opts.Source = "auto_reseed"
	}
	runKey := uuid.NewString()

	result := &RunResult{RunKey: runKey}

	// Watchdog: recover abandoned runs before any admission decision. A
	// manual forced run may pre-empt a merely slow run after the shorter
	// force-recovery grace period.
	window := r.settings.Staleness
	if opts.Force && opts.Trigger == model.TriggerManual && r.settings.ForceRecovery < window {
		window = r.settings.ForceRecovery
	}
	swept, err := r.storage.SweepStaleRuns(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep stale runs: %w", err)
	}
	result.SweptStale = swept
	if swept > 0 {
		slog.Warn("Recovered stale running rows", "count", swept, "window", window)
	}

	pending, err := r.storage.CountPendingProposals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending proposals: %w", err)
	}
	result.PendingCount = pending

	if reason := r.admissionSkipReason(ctx, pending, opts); reason != "" {
		return r.recordSkip(ctx, result, opts, runKey, reason)
	}

	runID, err := r.storage.BeginRun(ctx, &model.ReseedRun{
		Trigger:      opts.Trigger,
		PendingCount: pending,
		Source:       opts.Source,
		RunKey:       runKey,
	})
	if errors.Is(err, common.ErrRunAlreadyRunning) {
		result.Status = model.RunSkipped
		result.Reason = model.ReasonAlreadyRunning
		slog.Info("Reseed run already in flight, exiting", "trigger", opts.Trigger)
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to begin run: %w", err)
	}
	result.RunID = runID

	slog.Info("Starting reseed run",
		"run_id", runID,
		"run_key", runKey,
		"trigger", opts.Trigger,
		"pending", pending)

	if bodyErr := r.runBody(ctx, opts, result); bodyErr != nil {
		// Body errors terminate the run but are surfaced on the run row and
		// in the result, not as an error to the caller.
		msg := common.Truncate(bodyErr.Error(), maxStoredErrorLen)
		result.Status = model.RunFailed
		result.Reason = ""
		if finErr := r.storage.FinalizeRun(ctx, runID, model.RunFailed, "", result.Scanned, result.Proposed, result.Enqueued, msg); finErr != nil {
			slog.Error("Failed to finalize failed run", "run_id", runID, "error", finErr)
		}
		common.LogError(bodyErr, "Reseed run failed", common.Fields{"run_id": runID})
		return result, nil
	}

	status := model.RunCompleted
	reason := ""
	if result.Proposed == 0 {
		status = model.RunSkipped
		reason = model.ReasonNoCandidates
	}
	result.Status = status
	result.Reason = reason

	if err := r.storage.FinalizeRun(ctx, runID, status, reason, result.Scanned, result.Proposed, result.Enqueued, r.failureSummary(result)); err != nil {
		return nil, fmt.Errorf("failed to finalize run %d: %w", runID, err)
	}

	slog.Info("Reseed run finished",
		"run_id", runID,
		"status", status,
		"scanned", result.Scanned,
		"proposed", result.Proposed,
		"enqueued", result.Enqueued,
		"stale_deleted", result.StaleDeleted,
		"failures", result.Failures)

	return result, nil
}

// admissionSkipReason evaluates the pre-conditions against freshly-read
// state. An empty string means the run may proceed to the insert.
func (r *Reseeder) admissionSkipReason(ctx context.Context, pending int, opts RunOptions) string {
	if !r.settings.Enabled {
		return model.ReasonDisabled
	}

	if pending > r.settings.PendingThreshold && !opts.Force && !opts.RefreshPending {
		return model.ReasonPendingAboveThreshold
	}

	if !opts.Force {
		last, err := r.storage.LastCompletedAt(ctx)
		if err != nil {
			slog.Error("Failed to read last completed run, skipping conservatively", "error", err)
			return model.ReasonCooldownActive
		}
		if !last.IsZero() && time.Since(last) < r.settings.Cooldown {
			return model.ReasonCooldownActive
		}
	}
	return ""
}

// recordSkip persists a terminal skipped row that never passes through the
// running state.
func (r *Reseeder) recordSkip(ctx context.Context, result *RunResult, opts RunOptions, runKey, reason string) (*RunResult, error) {
	result.Status = model.RunSkipped
	result.Reason = reason

	id, err := r.storage.RecordSkippedRun(ctx, &model.ReseedRun{
		Trigger:      opts.Trigger,
		Reason:       reason,
		PendingCount: result.PendingCount,
		Source:       opts.Source,
		RunKey:       runKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record skipped run: %w", err)
	}
	result.RunID = id

	slog.Info("Reseed run skipped", "reason", reason, "pending", result.PendingCount)
	return result, nil
}

// runBody selects candidates, scores them and reconciles proposals. Any
// error returned here is recorded on the run row by the caller.
func (r *Reseeder) runBody(ctx context.Context, opts RunOptions, result *RunResult) error {
	candidates, err := r.storage.GetReseedCandidates(ctx, r.settings.CandidateLimit)
	if err != nil {
		return fmt.Errorf("failed to select candidates: %w", err)
	}
	result.Scanned = len(candidates)
	if len(candidates) == 0 {
		return nil
	}

	outcomes := r.scoreCandidates(ctx, opts, candidates)

	var (
		proposals   []model.Proposal
		proposedIDs = make(map[string]struct{})
		failReasons []string
	)
	for i, out := range outcomes {
		if out.err != nil {
			result.Failures++
			if len(failReasons) < 5 {
				failReasons = append(failReasons,
					fmt.Sprintf("%s: %v", candidates[i].Product.ID, out.err))
			}
			continue
		}
		if out.proposal == nil {
			continue
		}
		out.proposal.Source = opts.Source
		out.proposal.RunKey = result.RunKey
		proposals = append(proposals, *out.proposal)
		proposedIDs[out.proposal.ProductID] = struct{}{}
	}
	result.Proposed = len(proposals)
	result.failReasons = failReasons

	// Chunked writes bound transaction size, not partial-result visibility:
	// scoring is idempotent, so a crash mid-batch just means a future run
	// recomputes the missing chunks. Each chunk write retries on transient
	// database contention before giving up on the run.
	for start := 0; start < len(proposals); start += r.settings.ChunkSize {
		end := start + r.settings.ChunkSize
		if end > len(proposals) {
			end = len(proposals)
		}
		chunk := proposals[start:end]

		var written int
		writeErr := common.WithRetry(ctx, func() error {
			var err error
			written, err = r.storage.ReplacePendingProposals(ctx, chunk)
			return err
		}, common.RetryOptions{MaxAttempts: 3, InitialDelay: 50 * time.Millisecond})
		if writeErr != nil {
			return fmt.Errorf("failed to write proposal chunk [%d:%d]: %w", start, end, writeErr)
		}
		result.Enqueued += written
	}

	// Reconcile outside the chunk loop: a product that held a pending
	// proposal but no longer produces one loses it.
	var stale []string
	for _, c := range candidates {
		if !c.HasPending {
			continue
		}
		if _, stillProposed := proposedIDs[c.Product.ID]; !stillProposed {
			stale = append(stale, c.Product.ID)
		}
	}
	if len(stale) > 0 {
		deleted, delErr := r.storage.DeleteStalePending(ctx, stale)
		if delErr != nil {
			return fmt.Errorf("failed to delete stale pending proposals: %w", delErr)
		}
		result.StaleDeleted = deleted
	}

	return nil
}

// scoreCandidates scores products with bounded parallelism. Products are
// independent, so ordering only matters for determinism of the output slice,
// which indexing by position guarantees.
func (r *Reseeder) scoreCandidates(ctx context.Context, opts RunOptions, candidates []model.Candidate) []scoreOutcome {
	outcomes := make([]scoreOutcome, len(candidates))

	var (
		g, _       = errgroup.WithContext(ctx)
		progressMu sync.Mutex
		done       int
	)
	g.SetLimit(r.settings.Concurrency)

	for i := range candidates {
		i := i
		g.Go(func() error {
			outcomes[i] = r.scoreProduct(candidates[i].Product)
			if opts.OnProgress != nil {
				progressMu.Lock()
				done++
				opts.OnProgress(done, len(candidates))
				progressMu.Unlock()
			}
			return nil
		})
	}
	// Goroutines never return errors; failures live in the outcomes.
	_ = g.Wait()

	return outcomes
}

// scoreProduct harvests and decides one product, converting panics from a
// malformed record into a per-product failure.
func (r *Reseeder) scoreProduct(p model.Product) (out scoreOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			out = scoreOutcome{err: fmt.Errorf("scoring panicked: %v", rec)}
		}
	}()

	sig := r.harvester.Harvest(p)
	return scoreOutcome{proposal: r.decider.Decide(p, sig)}
}

// failureSummary renders aggregated per-product failures for the run row's
// error column without marking the run failed.
func (r *Reseeder) failureSummary(result *RunResult) string {
	if result.Failures == 0 {
		return ""
	}
	summary := fmt.Sprintf("%d products failed scoring: %s",
		result.Failures, strings.Join(result.failReasons, "; "))
	return common.Truncate(summary, maxStoredErrorLen)
}
