package model

import (
	"fmt"
	"time"
)

// RunTrigger identifies what started a reseed run.
type RunTrigger string

// Run triggers.
const (
	TriggerDecision RunTrigger = "decision"
	TriggerCron     RunTrigger = "cron"
	TriggerManual   RunTrigger = "manual"
)

// RunStatus is the lifecycle state of a reseed run.
type RunStatus string

// Run statuses. A run transitions running -> completed|skipped|failed;
// skipped rows created by admission pre-checks never pass through running.
const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunSkipped   RunStatus = "skipped"
	RunFailed    RunStatus = "failed"
)

// Run skip/failure reasons.
const (
	ReasonAlreadyRunning        = "already_running"
	ReasonNoCandidates          = "no_candidates"
	ReasonPendingAboveThreshold = "pending_above_threshold"
	ReasonCooldownActive        = "cooldown_active"
	ReasonDisabled              = "disabled"
	ReasonStaleRunningTimeout   = "stale_running_timeout"
)

// ReseedRun is the persisted audit row for one batch execution.
type ReseedRun struct {
	ID      int64
	Trigger RunTrigger
	Status  RunStatus
	Reason  string

	StartedAt   time.Time
	CompletedAt *time.Time

	PendingCount int
	Scanned      int
	Proposed     int
	Enqueued     int

	Source string
	RunKey string
	Error  string
}

// Terminal reports whether the run has reached a final state.
func (r *ReseedRun) Terminal() bool {
	switch r.Status {
	case RunCompleted, RunSkipped, RunFailed:
		return true
	}
	return false
}

// Validate ensures the run row has valid data.
func (r *ReseedRun) Validate() error {
	switch r.Trigger {
	case TriggerDecision, TriggerCron, TriggerManual:
	default:
		return fmt.Errorf("invalid run trigger %q", r.Trigger)
	}
	switch r.Status {
	case RunRunning, RunCompleted, RunSkipped, RunFailed:
	default:
		return fmt.Errorf("invalid run status %q", r.Status)
	}
	return nil
}
