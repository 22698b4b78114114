package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stagegate/domain/alert"
	"stagegate/domain/core"
	"stagegate/domain/stage"
	"stagegate/domain/transition"
	"stagegate/internal"
	"stagegate/ports"
)

// historyWindowLimit bounds how many history rows feed the
// goal-management rules and statistics.
const historyWindowLimit = 200

// TransitionService orchestrates the transition engine against the
// persistence ports: load authoritative state, evaluate, gate, and
// commit one history row per detected event.
type TransitionService struct {
	catalogs ports.StageCatalogPort
	entities ports.EntityStatePort
	history  ports.HistoryPort
	now      func() time.Time
	logger   *internal.Logger

	mu      sync.Mutex
	engines map[string]*transition.Engine
}

// TransitionRequest is one proposed transition for one entity.
// Domain is consulted only for brand-new entities; existing entities
// keep the domain they were stored under.
type TransitionRequest struct {
	EntityID     core.EntityID
	Domain       string
	Input        transition.TransitionInput
	ChangedBy    string
	Acknowledged bool
}

// TransitionOutcome is the full result of a preview or commit call.
type TransitionOutcome struct {
	EntityID   core.EntityID              `json:"entity_id"`
	Events     []transition.DetectedEvent `json:"events"`
	HasChanges bool                       `json:"has_changes"`
	Validation alert.ValidationResult     `json:"validation"`
	Committed  bool                       `json:"committed"`
	Records    []transition.HistoryRecord `json:"records,omitempty"`
}

// NewTransitionService creates a transition service.
func NewTransitionService(catalogs ports.StageCatalogPort, entities ports.EntityStatePort, history ports.HistoryPort) *TransitionService {
	return &TransitionService{
		catalogs: catalogs,
		entities: entities,
		history:  history,
		now:      time.Now,
		logger:   internal.NewDefaultLogger().WithComponent("TransitionService"),
		engines:  make(map[string]*transition.Engine),
	}
}

// NewTransitionServiceAt creates a transition service with an injected
// clock for deterministic tests.
func NewTransitionServiceAt(catalogs ports.StageCatalogPort, entities ports.EntityStatePort, history ports.HistoryPort, now func() time.Time) *TransitionService {
	s := NewTransitionService(catalogs, entities, history)
	s.now = now
	return s
}

// Preview evaluates a proposed transition without committing anything.
// This is round one of the two-round interaction: the caller displays
// the returned alerts and resubmits with acknowledgment if needed.
func (s *TransitionService) Preview(ctx context.Context, req TransitionRequest) (*TransitionOutcome, error) {
	state, input, err := s.loadState(ctx, req)
	if err != nil {
		return nil, err
	}

	engine, err := s.engineFor(ctx, state.Domain)
	if err != nil {
		return nil, err
	}

	history, err := s.historyWindow(ctx, req.EntityID, state.IsNew)
	if err != nil {
		return nil, err
	}

	eval := engine.Evaluate(input, history, state.IsNew)
	return &TransitionOutcome{
		EntityID:   req.EntityID,
		Events:     eval.Events,
		HasChanges: eval.HasChanges,
		Validation: eval.Validation,
	}, nil
}

// Commit evaluates, gates, and persists a proposed transition. On
// success the new state and one history row per detected event are
// written inside the entity port's atomicity boundary, in emission order.
func (s *TransitionService) Commit(ctx context.Context, req TransitionRequest) (*TransitionOutcome, error) {
	state, input, err := s.loadState(ctx, req)
	if err != nil {
		return nil, err
	}

	engine, err := s.engineFor(ctx, state.Domain)
	if err != nil {
		return nil, err
	}

	history, err := s.historyWindow(ctx, req.EntityID, state.IsNew)
	if err != nil {
		return nil, err
	}

	eval := engine.Evaluate(input, history, state.IsNew)
	outcome := &TransitionOutcome{
		EntityID:   req.EntityID,
		Events:     eval.Events,
		HasChanges: eval.HasChanges,
		Validation: eval.Validation,
	}

	if !eval.HasChanges {
		return outcome, core.ErrNothingToCommit
	}

	noteProvided := input.Note != ""
	if !transition.CanProceed(eval.Validation, noteProvided, req.Acknowledged) {
		return outcome, gateError(eval.Validation, noteProvided, req.Acknowledged)
	}

	at := core.NewTimestamp(s.now())
	records := make([]transition.HistoryRecord, 0, len(eval.Events))
	for _, ev := range eval.Events {
		records = append(records, transition.NewHistoryRecord(
			req.EntityID, ev, req.ChangedBy, input.Note, req.Acknowledged, at))
	}

	next := ports.EntityState{
		EntityID:      req.EntityID,
		Domain:        state.Domain,
		StageID:       input.NewStageID,
		TargetStageID: input.NewTargetStageID,
		TargetDate:    input.NewTargetDate,
	}
	if err := s.entities.CommitTransition(ctx, state, next, records); err != nil {
		return outcome, fmt.Errorf("commit transition: %w", err)
	}

	s.logger.Info("committed %d event(s) for entity %s", len(records), req.EntityID)
	outcome.Committed = true
	outcome.Records = records
	return outcome, nil
}

// UpdateReason edits only the reason text on an entity parked in a
// terminal stage, recording a reason_updated history row. The entity's
// stage and target are untouched.
func (s *TransitionService) UpdateReason(ctx context.Context, entityID core.EntityID, reason, changedBy string) (*transition.HistoryRecord, error) {
	state, err := s.entities.CurrentState(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("load entity state: %w", err)
	}

	engine, err := s.engineFor(ctx, state.Domain)
	if err != nil {
		return nil, err
	}
	if !engine.Catalog().TypeOf(state.StageID).IsTerminal() {
		return nil, core.NewValidationError("reason", "entity is not in a terminal stage")
	}

	ev := transition.NewReasonUpdatedEvent(state.StageID, reason)
	record := transition.NewHistoryRecord(entityID, ev, changedBy, reason, false, core.NewTimestamp(s.now()))
	if err := s.history.Append(ctx, []transition.HistoryRecord{record}); err != nil {
		return nil, fmt.Errorf("append reason update: %w", err)
	}
	return &record, nil
}

// Statistics derives the audit metrics for one entity from its
// pre-filtered history window.
func (s *TransitionService) Statistics(ctx context.Context, entityID core.EntityID) (transition.Statistics, error) {
	history, err := s.history.RecentWindow(ctx, entityID, historyWindowLimit)
	if err != nil {
		return transition.Statistics{}, fmt.Errorf("load history: %w", err)
	}
	return transition.CalculateStatistics(history, s.now()), nil
}

// HistoryWindow returns the recent non-voided history for one entity,
// most recent first, for report rendering.
func (s *TransitionService) HistoryWindow(ctx context.Context, entityID core.EntityID) ([]transition.HistoryRecord, error) {
	return s.history.RecentWindow(ctx, entityID, historyWindowLimit)
}

// EntityState exposes the stored state for one entity.
func (s *TransitionService) EntityState(ctx context.Context, entityID core.EntityID) (ports.EntityState, error) {
	return s.entities.CurrentState(ctx, entityID)
}

// loadState reads the authoritative current state and overlays it on
// the request input, so the engine always compares the proposal against
// what is actually stored rather than a possibly stale form snapshot.
func (s *TransitionService) loadState(ctx context.Context, req TransitionRequest) (ports.EntityState, transition.TransitionInput, error) {
	state, err := s.entities.CurrentState(ctx, req.EntityID)
	if err != nil {
		return ports.EntityState{}, transition.TransitionInput{}, fmt.Errorf("load entity state: %w", err)
	}
	if state.IsNew && state.Domain == "" {
		state.Domain = req.Domain
	}

	input := req.Input
	input.CurrentStageID = state.StageID
	input.CurrentTargetStageID = state.TargetStageID
	input.CurrentTargetDate = state.TargetDate
	return state, input, nil
}

func (s *TransitionService) historyWindow(ctx context.Context, entityID core.EntityID, isNew bool) ([]transition.HistoryRecord, error) {
	if isNew {
		return nil, nil
	}
	history, err := s.history.RecentWindow(ctx, entityID, historyWindowLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return history, nil
}

// engineFor returns the cached engine for a domain, building it from
// the catalog port on first use.
func (s *TransitionService) engineFor(ctx context.Context, domain string) (*transition.Engine, error) {
	s.mu.Lock()
	if engine, ok := s.engines[domain]; ok {
		s.mu.Unlock()
		return engine, nil
	}
	s.mu.Unlock()

	catalog, err := s.catalogs.Catalog(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("load catalog for domain %q: %w", domain, err)
	}
	engine := transition.NewEngineAt(catalog, s.now)

	s.mu.Lock()
	s.engines[domain] = engine
	s.mu.Unlock()
	return engine, nil
}

// gateError maps a blocked gate to the specific reason.
func gateError(v alert.ValidationResult, noteProvided, acknowledged bool) error {
	switch {
	case v.HasErrors:
		return core.ErrCommitBlocked
	case v.AnyRequiresNote() && !noteProvided:
		return core.ErrNoteRequired
	case !acknowledged:
		return core.ErrAckRequired
	default:
		return core.ErrCommitBlocked
	}
}

// StageCatalog exposes the catalog for a domain, for callers rendering
// stage pickers.
func (s *TransitionService) StageCatalog(ctx context.Context, domain string) (*stage.Catalog, error) {
	return s.catalogs.Catalog(ctx, domain)
}
