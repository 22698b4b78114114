package ports

import (
	"context"

	"stagegate/domain/core"
	"stagegate/domain/stage"
	"stagegate/domain/transition"
)

// EntityState is the authoritative current stage/target of one tracked
// entity, as read inside the same boundary used to commit a change.
type EntityState struct {
	EntityID      core.EntityID   `json:"entity_id"`
	Domain        string          `json:"domain"`
	StageID       *core.StageID   `json:"stage_id"`
	TargetStageID *core.StageID   `json:"target_stage_id"`
	TargetDate    *core.Timestamp `json:"target_date"`
	IsNew         bool            `json:"is_new"`
}

// HistoryReaderPort provides read-only access to history rows,
// pre-filtered the way the engine expects: voided and reason_updated
// rows excluded, most recent first.
type HistoryReaderPort interface {
	RecentWindow(ctx context.Context, entityID core.EntityID, limit int) ([]transition.HistoryRecord, error)
}

// HistoryWriterPort provides append-only write access to history rows.
// Voiding is the only mutation; rows are never physically deleted.
type HistoryWriterPort interface {
	Append(ctx context.Context, records []transition.HistoryRecord) error
	Void(ctx context.Context, recordID core.RecordID, voidedBy string) error
}

// HistoryPort combines read and write access to history rows.
type HistoryPort interface {
	HistoryReaderPort
	HistoryWriterPort
}

// EntityStatePort reads and commits entity state. CommitTransition must
// write the new state and append the history rows inside one atomicity
// boundary, rejecting commits made from a stale snapshot.
type EntityStatePort interface {
	CurrentState(ctx context.Context, entityID core.EntityID) (EntityState, error)
	ListEntities(ctx context.Context, domain string, limit int) ([]core.EntityID, error)
	CommitTransition(ctx context.Context, prev EntityState, next EntityState, records []transition.HistoryRecord) error
}

// StageCatalogPort resolves the per-domain stage catalog.
type StageCatalogPort interface {
	Catalog(ctx context.Context, domain string) (*stage.Catalog, error)
}
