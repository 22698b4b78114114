package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"stagegate/domain/alert"
	"stagegate/domain/core"
	"stagegate/domain/transition"
	"stagegate/internal"
	"stagegate/ports"
)

// RevalidationSweepService re-validates the standing state of many
// entities concurrently. It is read-only: each entity is evaluated with
// its proposed state equal to its current state, which makes the
// detector a no-op but still runs the temporal rules, so stale targets
// (dates now in the past, targets more than a year out) surface in a
// nightly audit.
type RevalidationSweepService struct {
	service  *TransitionService
	entities ports.EntityStatePort
	history  ports.HistoryReaderPort
	capacity int64
	logger   *internal.Logger
}

// SweepFinding is one entity whose standing state raised alerts.
type SweepFinding struct {
	EntityID core.EntityID          `json:"entity_id"`
	Domain   string                 `json:"domain"`
	Result   alert.ValidationResult `json:"result"`
}

// SweepReport summarizes one sweep run.
type SweepReport struct {
	Domain    string         `json:"domain"`
	Scanned   int            `json:"scanned"`
	Flagged   int            `json:"flagged"`
	Findings  []SweepFinding `json:"findings"`
	RuntimeMs int64          `json:"runtime_ms"`
}

// NewRevalidationSweepService creates a sweep service. Capacity bounds
// how many entities are evaluated concurrently.
func NewRevalidationSweepService(service *TransitionService, entities ports.EntityStatePort, history ports.HistoryReaderPort, capacity int64) *RevalidationSweepService {
	if capacity < 1 {
		capacity = 1
	}
	return &RevalidationSweepService{
		service:  service,
		entities: entities,
		history:  history,
		capacity: capacity,
		logger:   internal.NewDefaultLogger().WithComponent("RevalidationSweep"),
	}
}

// Run sweeps every entity in a domain and reports the ones whose
// standing state raises alerts.
func (s *RevalidationSweepService) Run(ctx context.Context, domain string, limit int) (*SweepReport, error) {
	start := time.Now()

	ids, err := s.entities.ListEntities(ctx, domain, limit)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}

	engine, err := s.service.engineFor(ctx, domain)
	if err != nil {
		return nil, err
	}

	sem := semaphore.NewWeighted(s.capacity)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		findings []SweepFinding
		scanned  int
	)

	for _, id := range ids {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("sweep interrupted: %w", err)
		}
		wg.Add(1)
		go func(entityID core.EntityID) {
			defer wg.Done()
			defer sem.Release(1)

			result, ok := s.revalidate(ctx, engine, entityID)
			mu.Lock()
			defer mu.Unlock()
			scanned++
			if ok && len(result.Alerts) > 0 {
				findings = append(findings, SweepFinding{EntityID: entityID, Domain: domain, Result: result})
			}
		}(id)
	}
	wg.Wait()

	report := &SweepReport{
		Domain:    domain,
		Scanned:   scanned,
		Flagged:   len(findings),
		Findings:  findings,
		RuntimeMs: time.Since(start).Milliseconds(),
	}
	s.logger.Info("domain=%s scanned=%d flagged=%d in %dms",
		domain, report.Scanned, report.Flagged, report.RuntimeMs)
	return report, nil
}

// revalidate evaluates one entity's standing state. Failures are logged
// and skipped rather than aborting the whole sweep.
func (s *RevalidationSweepService) revalidate(ctx context.Context, engine *transition.Engine, entityID core.EntityID) (alert.ValidationResult, bool) {
	state, err := s.entities.CurrentState(ctx, entityID)
	if err != nil {
		s.logger.Warn("skip %s: %v", entityID, err)
		return alert.ValidationResult{}, false
	}

	history, err := s.history.RecentWindow(ctx, entityID, historyWindowLimit)
	if err != nil {
		s.logger.Warn("skip %s: %v", entityID, err)
		return alert.ValidationResult{}, false
	}

	input := transition.TransitionInput{
		CurrentStageID:       state.StageID,
		CurrentTargetStageID: state.TargetStageID,
		CurrentTargetDate:    state.TargetDate,
		NewStageID:           state.StageID,
		NewTargetStageID:     state.TargetStageID,
		NewTargetDate:        state.TargetDate,
	}
	eval := engine.Evaluate(input, history, state.IsNew)
	return eval.Validation, true
}
