package testkit

import (
	"math/rand"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"stagegate/domain/core"
	"stagegate/domain/stage"
	"stagegate/domain/transition"
	"stagegate/ports"
)

// HistoryGenerator produces plausible entity histories for the demo
// server and load fixtures. Dwell times between stage moves follow a
// log-normal distribution, which matches the long-tailed stay durations
// seen in real pipelines.
type HistoryGenerator struct {
	catalog *stage.Catalog
	rng     *rand.Rand
	dwell   distuv.LogNormal
}

// NewHistoryGenerator creates a deterministic generator for one catalog.
func NewHistoryGenerator(catalog *stage.Catalog, seed int64) *HistoryGenerator {
	return &HistoryGenerator{
		catalog: catalog,
		rng:     rand.New(rand.NewSource(seed)),
		dwell:   distuv.LogNormal{Mu: 2.0, Sigma: 0.7},
	}
}

// dwellDays samples a stay duration in whole days, at least one.
func (g *HistoryGenerator) dwellDays() int {
	d := int(g.dwell.Quantile(g.rng.Float64()))
	if d < 1 {
		d = 1
	}
	return d
}

func (g *HistoryGenerator) progressStages() []stage.Definition {
	var out []stage.Definition
	for _, def := range g.catalog.Definitions() {
		if def.Type == stage.TypeProgress {
			out = append(out, def)
		}
	}
	return out
}

// Generate walks an entity forward through the catalog's progress
// stages from a random start in the past, committing targets along the
// way, and returns the resulting current state plus its history rows in
// recorded order.
func (g *HistoryGenerator) Generate(entityID core.EntityID) (ports.EntityState, []transition.HistoryRecord) {
	progress := g.progressStages()
	if len(progress) == 0 {
		return ports.EntityState{EntityID: entityID, Domain: g.catalog.Domain(), IsNew: true}, nil
	}

	steps := 1 + g.rng.Intn(len(progress))
	at := time.Now().AddDate(0, 0, -(g.dwellDays()*steps + 30))

	var (
		records []transition.HistoryRecord
		current *core.StageID
	)
	emit := func(ev transition.DetectedEvent, when time.Time) {
		records = append(records, transition.NewHistoryRecord(
			entityID, ev, "seed", "", false, core.NewTimestamp(when)))
	}

	for i := 0; i < steps; i++ {
		def := progress[i]
		next := def.ID
		emit(transition.DetectedEvent{
			Type:        transition.EventProgress,
			FromStageID: current,
			ToStageID:   core.StageIDPtr(next.String()),
		}, at)
		current = core.StageIDPtr(next.String())
		at = at.AddDate(0, 0, g.dwellDays())
	}

	// Commit a target a couple of stages ahead when one exists.
	var (
		targetStage *core.StageID
		targetDate  *core.Timestamp
	)
	if next := g.targetAhead(progress, current); next != nil {
		targetStage = next
		targetDate = core.TimestampPtr(at.AddDate(0, 0, g.dwellDays()+7))
		emit(transition.DetectedEvent{
			Type:       transition.EventCommit,
			ToStageID:  targetStage,
			TargetDate: targetDate,
		}, at)
	}

	state := ports.EntityState{
		EntityID:      entityID,
		Domain:        g.catalog.Domain(),
		StageID:       current,
		TargetStageID: targetStage,
		TargetDate:    targetDate,
	}
	return state, records
}

// targetAhead picks a progress stage strictly after the current one.
func (g *HistoryGenerator) targetAhead(progress []stage.Definition, current *core.StageID) *core.StageID {
	currentOrder, ok := g.catalog.OrderOf(current)
	if !ok {
		return nil
	}
	var candidates []core.StageID
	for _, def := range progress {
		if def.DisplayOrder != nil && *def.DisplayOrder > currentOrder {
			candidates = append(candidates, def.ID)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return core.StageIDPtr(candidates[g.rng.Intn(len(candidates))].String())
}
