package testkit

import (
	"context"
	"testing"
	"time"

	"stagegate/domain/core"
	"stagegate/domain/stage"
	"stagegate/domain/transition"
	"stagegate/ports"
)

func dayOffset(days int) time.Time {
	return time.Now().AddDate(0, 0, days)
}

func TestGeneratorIsDeterministic(t *testing.T) {
	catalog := stage.SalesPipelineCatalog()

	a, recsA := NewHistoryGenerator(catalog, 7).Generate("e1")
	b, recsB := NewHistoryGenerator(catalog, 7).Generate("e1")

	if !core.StageIDEqual(a.StageID, b.StageID) || !core.StageIDEqual(a.TargetStageID, b.TargetStageID) {
		t.Fatal("same seed must generate the same state")
	}
	if len(recsA) != len(recsB) {
		t.Fatalf("same seed generated %d vs %d records", len(recsA), len(recsB))
	}
	for i := range recsA {
		if recsA[i].Type != recsB[i].Type {
			t.Fatal("same seed must generate the same event sequence")
		}
	}
}

func TestGeneratorProducesConsistentHistory(t *testing.T) {
	catalog := stage.SalesPipelineCatalog()
	state, records := NewHistoryGenerator(catalog, 11).Generate("e1")

	if state.StageID == nil {
		t.Fatal("generated entities always have a stage")
	}
	if len(records) == 0 {
		t.Fatal("generated entities always have history")
	}

	// Records arrive oldest first and the last movement lands on the
	// current stage.
	var lastMove *transition.HistoryRecord
	for i := range records {
		if i > 0 && records[i].RecordedAt.Before(records[i-1].RecordedAt) {
			t.Fatal("records must be in chronological order")
		}
		if records[i].Type == transition.EventProgress {
			lastMove = &records[i]
		}
	}
	if lastMove == nil || !core.StageIDEqual(lastMove.ToStageID, state.StageID) {
		t.Fatal("the last movement must match the current stage")
	}

	// Any committed target sits strictly ahead of the current stage.
	if state.TargetStageID != nil {
		delta, ok := catalog.OrderDelta(state.StageID, state.TargetStageID)
		if !ok || delta <= 0 {
			t.Fatalf("target must be ahead of the stage, delta=%d ok=%v", delta, ok)
		}
	}
}

func TestInMemoryStoreStaleSnapshot(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	initial := ports.EntityState{
		EntityID: "e1",
		Domain:   stage.DomainPipeline,
		StageID:  core.StageIDPtr("lead"),
	}
	store.Put(initial, nil)

	// A commit based on a different snapshot than what is stored.
	stale := initial
	stale.StageID = core.StageIDPtr("proposal")
	next := initial
	next.StageID = core.StageIDPtr("qualified")

	err := store.CommitTransition(ctx, stale, next, nil)
	if err != core.ErrStaleSnapshot {
		t.Fatalf("err = %v, want ErrStaleSnapshot", err)
	}

	// The matching snapshot goes through.
	if err := store.CommitTransition(ctx, initial, next, nil); err != nil {
		t.Fatalf("matching snapshot should commit: %v", err)
	}
	state, _ := store.CurrentState(ctx, "e1")
	if state.StageID.String() != "qualified" {
		t.Fatalf("stage = %s, want qualified", state.StageID.String())
	}
}

func TestRecentWindowFiltering(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	rows := []transition.HistoryRecord{
		{ID: "r1", EntityID: "e1", Type: transition.EventProgress, RecordedAt: core.NewTimestamp(dayOffset(-3))},
		{ID: "r2", EntityID: "e1", Type: transition.EventReasonUpdated, RecordedAt: core.NewTimestamp(dayOffset(-2))},
		{ID: "r3", EntityID: "e1", Type: transition.EventCommit, RecordedAt: core.NewTimestamp(dayOffset(-1))},
	}
	if err := store.Append(ctx, rows); err != nil {
		t.Fatal(err)
	}
	if err := store.Void(ctx, "r3", "auditor"); err != nil {
		t.Fatal(err)
	}
	if err := store.Void(ctx, "r3", "auditor"); err != core.ErrRecordVoided {
		t.Fatalf("double void: err = %v, want ErrRecordVoided", err)
	}

	window, err := store.RecentWindow(ctx, "e1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(window) != 1 || window[0].ID != "r1" {
		t.Fatalf("window should hold only the plain progress row, got %v", window)
	}
}

func TestSeedDemoEntitiesCoversAllDomains(t *testing.T) {
	kit := NewTestKit()
	if err := kit.SeedDemoEntities(3, 42); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for domain := range stage.SeedCatalogs() {
		ids, err := kit.Store().ListEntities(ctx, domain, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(ids) != 3 {
			t.Fatalf("domain %s seeded %d entities, want 3", domain, len(ids))
		}
	}
}
