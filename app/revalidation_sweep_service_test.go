package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stagegate/domain/alert"
	"stagegate/domain/core"
	"stagegate/domain/stage"
	"stagegate/domain/transition"
	"stagegate/internal/testkit"
	"stagegate/ports"
)

func seedSweepEntity(store *testkit.InMemoryStore, id string, targetDate *core.Timestamp) {
	store.Put(ports.EntityState{
		EntityID:      core.EntityID(id),
		Domain:        stage.DomainPipeline,
		StageID:       stageRef("qualified"),
		TargetStageID: stageRef("negotiation"),
		TargetDate:    targetDate,
	}, []transition.HistoryRecord{{
		ID:         core.RecordID(core.NewID()),
		EntityID:   core.EntityID(id),
		Type:       transition.EventProgress,
		ToStageID:  stageRef("qualified"),
		RecordedAt: core.NewTimestamp(serviceNow.AddDate(0, 0, -20)),
	}})
}

func TestSweepFlagsStaleTargets(t *testing.T) {
	store := testkit.NewInMemoryStore()
	catalogs := testkit.NewInMemoryCatalogAdapter(stage.SeedCatalogs())

	// One healthy entity, two whose committed dates have gone stale.
	seedSweepEntity(store, "fresh", dateIn(20))
	seedSweepEntity(store, "stale-1", dateIn(-5))
	seedSweepEntity(store, "stale-2", dateIn(-40))

	svc := NewTransitionServiceAt(catalogs, store, store, func() time.Time { return serviceNow })
	sweeps := NewRevalidationSweepService(svc, store, store, 2)

	report, err := sweeps.Run(context.Background(), stage.DomainPipeline, 0)
	assert.NoError(t, err)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 2, report.Flagged)

	for _, finding := range report.Findings {
		assert.Contains(t, []core.EntityID{"stale-1", "stale-2"}, finding.EntityID)
		found := false
		for _, a := range finding.Result.Alerts {
			if a.ID == alert.TargetDatePast {
				found = true
			}
		}
		assert.True(t, found, "stale entities should be flagged for the past date")
	}
}

func TestSweepEmptyDomain(t *testing.T) {
	store := testkit.NewInMemoryStore()
	catalogs := testkit.NewInMemoryCatalogAdapter(stage.SeedCatalogs())

	svc := NewTransitionServiceAt(catalogs, store, store, func() time.Time { return serviceNow })
	sweeps := NewRevalidationSweepService(svc, store, store, 4)

	report, err := sweeps.Run(context.Background(), stage.DomainContract, 0)
	assert.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)
	assert.Equal(t, 0, report.Flagged)
}
