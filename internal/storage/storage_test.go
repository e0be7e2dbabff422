package storage_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendamoda/reclass/internal/common"
	"github.com/tiendamoda/reclass/internal/model"
	"github.com/tiendamoda/reclass/internal/storage"
	"github.com/tiendamoda/reclass/internal/testutil"
)

func pendingProposal(productID string) model.Proposal {
	return model.Proposal{
		ProductID:       productID,
		FromSubcategory: "blusa_de_seda",
		ToSubcategory:   "camisa_de_lino",
		Confidence:      0.88,
		Support:         2,
		Margin:          3,
		Reasons:         []string{"subcategory:accepted:camisa_de_lino"},
		Source:          "auto_reseed",
		RunKey:          "run-1",
		Status:          model.ProposalPending,
	}
}

func TestReplacePendingProposalsIsIdempotent(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()
	testutil.SeedProducts(t, store, testutil.NewProduct("p1", "Blusa de lino").Build())

	written, err := store.ReplacePendingProposals(ctx, []model.Proposal{pendingProposal("p1")})
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	// Replacing with the same proposal keeps exactly one pending row.
	written, err = store.ReplacePendingProposals(ctx, []model.Proposal{pendingProposal("p1")})
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	count, err := store.CountPendingProposals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReplacePendingProposalsOverwritesPrevious(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()
	testutil.SeedProducts(t, store, testutil.NewProduct("p1", "Blusa de lino").Build())

	_, err := store.ReplacePendingProposals(ctx, []model.Proposal{pendingProposal("p1")})
	require.NoError(t, err)

	updated := pendingProposal("p1")
	updated.ToSubcategory = "camisa_denim"
	updated.RunKey = "run-2"
	_, err = store.ReplacePendingProposals(ctx, []model.Proposal{updated})
	require.NoError(t, err)

	got, err := store.GetPendingProposal(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "camisa_denim", got.ToSubcategory)
	assert.Equal(t, "run-2", got.RunKey)
}

func TestReplacePendingProposalsRejectsNoopChange(t *testing.T) {
	store := testutil.SetupTestDB(t)

	noop := model.Proposal{
		ProductID:     "p1",
		ToSubcategory: "",
		Status:        model.ProposalPending,
	}
	_, err := store.ReplacePendingProposals(context.Background(), []model.Proposal{noop})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrInvalidProposal)
}

func TestUpdateProposalStatus(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()
	testutil.SeedProducts(t, store, testutil.NewProduct("p1", "Blusa de lino").Build())

	_, err := store.ReplacePendingProposals(ctx, []model.Proposal{pendingProposal("p1")})
	require.NoError(t, err)

	got, err := store.GetPendingProposal(ctx, "p1")
	require.NoError(t, err)

	require.NoError(t, store.UpdateProposalStatus(ctx, got.ID, model.ProposalAccepted))

	_, err = store.GetPendingProposal(ctx, "p1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Already decided; the transition must not apply twice.
	err = store.UpdateProposalStatus(ctx, got.ID, model.ProposalRejected)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateProposalStatusRejectsPendingTarget(t *testing.T) {
	store := testutil.SetupTestDB(t)

	err := store.UpdateProposalStatus(context.Background(), 1, model.ProposalPending)
	assert.ErrorIs(t, err, storage.ErrInvalidProposal)
}

func TestDeleteStalePending(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()
	testutil.SeedProducts(t, store,
		testutil.NewProduct("p1", "Blusa de lino").Build(),
		testutil.NewProduct("p2", "Falda midi").Build(),
	)

	_, err := store.ReplacePendingProposals(ctx, []model.Proposal{
		pendingProposal("p1"),
		pendingProposal("p2"),
	})
	require.NoError(t, err)

	deleted, err := store.DeleteStalePending(ctx, []string{"p1", "p3"})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	count, err := store.CountPendingProposals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetReseedCandidates(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	now := time.Now()
	testutil.SeedProducts(t, store,
		testutil.NewProduct("old", "Blusa vieja").UpdatedAt(now.Add(-48*time.Hour)).Build(),
		testutil.NewProduct("fresh", "Blusa nueva").UpdatedAt(now).Build(),
		testutil.NewProduct("unenriched", "Sin enriquecer").NotEnriched().Build(),
		testutil.NewProduct("decided", "Ya revisada").UpdatedAt(now).Build(),
		testutil.NewProduct("pending", "Con propuesta").UpdatedAt(now.Add(-24*time.Hour)).Build(),
	)

	_, err := store.ReplacePendingProposals(ctx, []model.Proposal{pendingProposal("pending")})
	require.NoError(t, err)

	decided := pendingProposal("decided")
	_, err = store.ReplacePendingProposals(ctx, []model.Proposal{decided})
	require.NoError(t, err)
	got, err := store.GetPendingProposal(ctx, "decided")
	require.NoError(t, err)
	require.NoError(t, store.UpdateProposalStatus(ctx, got.ID, model.ProposalRejected))

	candidates, err := store.GetReseedCandidates(ctx, 10)
	require.NoError(t, err)

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.Product.ID)
	}

	// Products with a pending proposal come first, then freshest updates;
	// unenriched and already-decided products never qualify.
	assert.Equal(t, []string{"pending", "fresh", "old"}, ids)
	assert.True(t, candidates[0].HasPending)
	assert.False(t, candidates[1].HasPending)
}

func TestGetReseedCandidatesHonorsLimit(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()
	testutil.SeedProducts(t, store,
		testutil.NewProduct("p1", "Uno").Build(),
		testutil.NewProduct("p2", "Dos").Build(),
		testutil.NewProduct("p3", "Tres").Build(),
	)

	candidates, err := store.GetReseedCandidates(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)

	_, err = store.GetReseedCandidates(ctx, 0)
	assert.Error(t, err)
}

func TestSaveProductsRoundTrip(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	p := testutil.NewProduct("p1", "Gafas de sol").
		WithSEO("Gafas de sol polarizadas", "Protección UV400", "gafas", "verano").
		WithTaxonomy("gafas_y_accesorios_opticos", "gafas_de_sol", "no_binario_unisex").
		WithSourceURL("https://tienda.example/gafas/p1").
		Build()
	p.Metadata = map[string]string{"temporada": "verano"}

	testutil.SeedProducts(t, store, p)

	got, err := store.GetProductByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Gafas de sol", got.Name)
	assert.Equal(t, []string{"gafas", "verano"}, got.SEOTags)
	assert.Equal(t, "gafas_de_sol", got.Subcategory)
	assert.Equal(t, map[string]string{"temporada": "verano"}, got.Metadata)
	assert.True(t, got.Enriched())

	_, err = store.GetProductByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestBeginRunMutualExclusion(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	id, err := store.BeginRun(ctx, &model.ReseedRun{
		Trigger: model.TriggerCron,
		Source:  "auto_reseed",
		RunKey:  "run-a",
	})
	require.NoError(t, err)

	_, err = store.BeginRun(ctx, &model.ReseedRun{
		Trigger: model.TriggerManual,
		Source:  "auto_reseed",
		RunKey:  "run-b",
	})
	assert.ErrorIs(t, err, common.ErrRunAlreadyRunning)

	// Finalizing releases the slot.
	require.NoError(t, store.FinalizeRun(ctx, id, model.RunCompleted, "", 5, 2, 2, ""))

	_, err = store.BeginRun(ctx, &model.ReseedRun{
		Trigger: model.TriggerManual,
		Source:  "auto_reseed",
		RunKey:  "run-c",
	})
	assert.NoError(t, err)
}

func TestBeginRunConcurrent(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.BeginRun(ctx, &model.ReseedRun{
				Trigger: model.TriggerCron,
				Source:  "auto_reseed",
				RunKey:  "concurrent",
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, common.ErrRunAlreadyRunning) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}

func TestFinalizeRunRequiresRunningRow(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	err := store.FinalizeRun(ctx, 42, model.RunCompleted, "", 0, 0, 0, "")
	assert.ErrorIs(t, err, common.ErrNotFound)

	id, err := store.BeginRun(ctx, &model.ReseedRun{
		Trigger: model.TriggerCron,
		Source:  "auto_reseed",
		RunKey:  "run-a",
	})
	require.NoError(t, err)

	err = store.FinalizeRun(ctx, id, model.RunRunning, "", 0, 0, 0, "")
	assert.ErrorIs(t, err, storage.ErrInvalidRun)

	require.NoError(t, store.FinalizeRun(ctx, id, model.RunFailed, "", 3, 0, 0, "boom"))

	run, err := store.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.RunFailed, run.Status)
	assert.Equal(t, "boom", run.Error)
	assert.Equal(t, 3, run.Scanned)
	require.NotNil(t, run.CompletedAt)

	// A second finalize finds no running row.
	err = store.FinalizeRun(ctx, id, model.RunCompleted, "", 0, 0, 0, "")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSweepStaleRuns(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	_, err := store.BeginRun(ctx, &model.ReseedRun{
		Trigger:   model.TriggerCron,
		StartedAt: time.Now().Add(-time.Hour),
		Source:    "auto_reseed",
		RunKey:    "abandoned",
	})
	require.NoError(t, err)

	// The row is older than the window, so it gets flipped to failed.
	swept, err := store.SweepStaleRuns(ctx, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunFailed, runs[0].Status)
	assert.Equal(t, model.ReasonStaleRunningTimeout, runs[0].Reason)

	// After the sweep a new run can start.
	_, err = store.BeginRun(ctx, &model.ReseedRun{
		Trigger: model.TriggerCron,
		Source:  "auto_reseed",
		RunKey:  "fresh",
	})
	assert.NoError(t, err)
}

func TestSweepStaleRunsLeavesFreshRows(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	_, err := store.BeginRun(ctx, &model.ReseedRun{
		Trigger: model.TriggerCron,
		Source:  "auto_reseed",
		RunKey:  "active",
	})
	require.NoError(t, err)

	swept, err := store.SweepStaleRuns(ctx, 15*time.Minute)
	require.NoError(t, err)
	assert.Zero(t, swept)
}

func TestLastCompletedAt(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	last, err := store.LastCompletedAt(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	id, err := store.BeginRun(ctx, &model.ReseedRun{
		Trigger: model.TriggerCron,
		Source:  "auto_reseed",
		RunKey:  "run-a",
	})
	require.NoError(t, err)
	require.NoError(t, store.FinalizeRun(ctx, id, model.RunCompleted, "", 1, 1, 1, ""))

	last, err = store.LastCompletedAt(ctx)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), last, time.Minute)

	id, err = store.BeginRun(ctx, &model.ReseedRun{
		Trigger: model.TriggerCron,
		Source:  "auto_reseed",
		RunKey:  "run-b",
	})
	require.NoError(t, err)
	require.NoError(t, store.FinalizeRun(ctx, id, model.RunCompleted, "", 2, 0, 0, ""))

	newest, err := store.LastCompletedAt(ctx)
	require.NoError(t, err)
	assert.False(t, newest.Before(last))

	// Skipped rows carry a completed_at too, but only completed runs count.
	_, err = store.RecordSkippedRun(ctx, &model.ReseedRun{
		Trigger: model.TriggerCron,
		Reason:  model.ReasonCooldownActive,
		Source:  "auto_reseed",
		RunKey:  "skip-after",
	})
	require.NoError(t, err)

	unchanged, err := store.LastCompletedAt(ctx)
	require.NoError(t, err)
	assert.True(t, unchanged.Equal(newest))
}

func TestRecordSkippedRun(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	id, err := store.RecordSkippedRun(ctx, &model.ReseedRun{
		Trigger:      model.TriggerCron,
		Reason:       model.ReasonCooldownActive,
		PendingCount: 3,
		Source:       "auto_reseed",
		RunKey:       "skip-1",
	})
	require.NoError(t, err)

	run, err := store.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.RunSkipped, run.Status)
	assert.Equal(t, model.ReasonCooldownActive, run.Reason)
	assert.Equal(t, 3, run.PendingCount)
	assert.True(t, run.Terminal())
	require.NotNil(t, run.CompletedAt)

	// Skipped rows never hold the running slot.
	_, err = store.BeginRun(ctx, &model.ReseedRun{
		Trigger: model.TriggerCron,
		Source:  "auto_reseed",
		RunKey:  "run-a",
	})
	assert.NoError(t, err)
}

func TestListRunsNewestFirst(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	for i, key := range []string{"first", "second", "third"} {
		_, err := store.RecordSkippedRun(ctx, &model.ReseedRun{
			Trigger:   model.TriggerCron,
			Reason:    model.ReasonDisabled,
			StartedAt: time.Now().Add(time.Duration(i) * time.Second),
			Source:    "auto_reseed",
			RunKey:    key,
		})
		require.NoError(t, err)
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "third", runs[0].RunKey)
	assert.Equal(t, "second", runs[1].RunKey)
}
