package testkit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"stagegate/domain/core"
	"stagegate/domain/stage"
	"stagegate/domain/transition"
	"stagegate/ports"
)

// TestKit provides in-memory adapters and demo fixtures. It backs the
// demo server and keeps domain/app tests free of a database.
type TestKit struct {
	store    *InMemoryStore
	catalogs *InMemoryCatalogAdapter
}

// NewTestKit creates a test kit with the shipped seed catalogs and an
// empty store.
func NewTestKit() *TestKit {
	return &TestKit{
		store:    NewInMemoryStore(),
		catalogs: NewInMemoryCatalogAdapter(stage.SeedCatalogs()),
	}
}

// Store returns the in-memory entity/history store.
func (k *TestKit) Store() *InMemoryStore { return k.store }

// Catalogs returns the in-memory catalog adapter.
func (k *TestKit) Catalogs() ports.StageCatalogPort { return k.catalogs }

// SeedDemoEntities populates the store with generated entities and
// histories for each domain, deterministically from the seed.
func (k *TestKit) SeedDemoEntities(perDomain int, seed int64) error {
	for domain, catalog := range stage.SeedCatalogs() {
		for i := 0; i < perDomain; i++ {
			entityID := core.EntityID(fmt.Sprintf("%s-demo-%03d", domain, i+1))
			gen := NewHistoryGenerator(catalog, seed+int64(i))
			state, records := gen.Generate(entityID)
			k.store.Put(state, records)
		}
	}
	return nil
}

// InMemoryCatalogAdapter implements StageCatalogPort over a fixed map.
type InMemoryCatalogAdapter struct {
	catalogs map[string]*stage.Catalog
}

// NewInMemoryCatalogAdapter creates a catalog adapter over the given catalogs.
func NewInMemoryCatalogAdapter(catalogs map[string]*stage.Catalog) *InMemoryCatalogAdapter {
	return &InMemoryCatalogAdapter{catalogs: catalogs}
}

// Catalog resolves one domain catalog.
func (a *InMemoryCatalogAdapter) Catalog(_ context.Context, domain string) (*stage.Catalog, error) {
	c, ok := a.catalogs[domain]
	if !ok {
		return nil, core.NewNotFoundError("stage catalog", domain)
	}
	return c, nil
}

// InMemoryStore implements EntityStatePort and HistoryPort in memory,
// with the same stale-snapshot and append-only semantics as the
// PostgreSQL adapters.
type InMemoryStore struct {
	mu      sync.RWMutex
	states  map[core.EntityID]ports.EntityState
	history map[core.EntityID][]transition.HistoryRecord
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		states:  make(map[core.EntityID]ports.EntityState),
		history: make(map[core.EntityID][]transition.HistoryRecord),
	}
}

// Put inserts or replaces an entity and its history wholesale (fixtures only).
func (s *InMemoryStore) Put(state ports.EntityState, records []transition.HistoryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.EntityID] = state
	s.history[state.EntityID] = records
}

// CurrentState reads an entity's state; unknown ids come back as new.
func (s *InMemoryStore) CurrentState(_ context.Context, entityID core.EntityID) (ports.EntityState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[entityID]
	if !ok {
		return ports.EntityState{EntityID: entityID, IsNew: true}, nil
	}
	return state, nil
}

// ListEntities returns the ids stored for one domain, sorted.
func (s *InMemoryStore) ListEntities(_ context.Context, domain string, limit int) ([]core.EntityID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []core.EntityID
	for id, state := range s.states {
		if state.Domain == domain {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// CommitTransition applies the new state and appends the records, with
// the same stale-snapshot guard as the database adapter.
func (s *InMemoryStore) CommitTransition(_ context.Context, prev ports.EntityState, next ports.EntityState, records []transition.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.states[next.EntityID]
	if prev.IsNew {
		if exists {
			return core.ErrStaleSnapshot
		}
	} else {
		if !exists ||
			!core.StageIDEqual(stored.StageID, prev.StageID) ||
			!core.StageIDEqual(stored.TargetStageID, prev.TargetStageID) ||
			!core.DateEqual(stored.TargetDate, prev.TargetDate) {
			return core.ErrStaleSnapshot
		}
	}

	s.states[next.EntityID] = next
	s.history[next.EntityID] = append(s.history[next.EntityID], records...)
	return nil
}

// Append adds history rows outside a state commit (reason updates).
func (s *InMemoryStore) Append(_ context.Context, records []transition.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		s.history[rec.EntityID] = append(s.history[rec.EntityID], rec)
	}
	return nil
}

// Void marks one record voided.
func (s *InMemoryStore) Void(_ context.Context, recordID core.RecordID, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for entityID, records := range s.history {
		for i := range records {
			if records[i].ID == recordID {
				if records[i].Voided {
					return core.ErrRecordVoided
				}
				records[i].Voided = true
				s.history[entityID] = records
				return nil
			}
		}
	}
	return core.NewNotFoundError("history record", recordID.String())
}

// RecentWindow returns the newest non-voided rows, excluding
// reason_updated, most recent first.
func (s *InMemoryStore) RecentWindow(_ context.Context, entityID core.EntityID, limit int) ([]transition.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []transition.HistoryRecord
	for _, rec := range s.history[entityID] {
		if rec.Voided || rec.Type == transition.EventReasonUpdated {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
