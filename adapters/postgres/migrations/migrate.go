package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"stagegate/domain/stage"
)

// Migrator handles database schema migrations
type Migrator struct {
	db *sql.DB
}

// NewMigrator creates a new migrator
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

// statements are applied in order; each is idempotent.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS stage_definitions (
		domain        TEXT NOT NULL,
		id            TEXT NOT NULL,
		name          TEXT NOT NULL,
		display_order INTEGER,
		stage_type    TEXT NOT NULL,
		active        BOOLEAN NOT NULL DEFAULT true,
		PRIMARY KEY (domain, id)
	)`,
	`CREATE TABLE IF NOT EXISTS entity_states (
		id              TEXT PRIMARY KEY,
		domain          TEXT NOT NULL,
		stage_id        TEXT,
		target_stage_id TEXT,
		target_date     TIMESTAMPTZ,
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS transition_history (
		id                 TEXT PRIMARY KEY,
		entity_id          TEXT NOT NULL,
		event_type         TEXT NOT NULL,
		from_stage_id      TEXT,
		to_stage_id        TEXT,
		target_date        TIMESTAMPTZ,
		tone               TEXT NOT NULL DEFAULT '',
		note               TEXT NOT NULL DEFAULT '',
		changed_by         TEXT NOT NULL DEFAULT '',
		alert_acknowledged BOOLEAN NOT NULL DEFAULT false,
		voided             BOOLEAN NOT NULL DEFAULT false,
		voided_by          TEXT,
		recorded_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_history_entity_recorded
		ON transition_history (entity_id, recorded_at DESC)`,
}

// Up creates the schema and seeds the shipped stage catalogs.
func (m *Migrator) Up(ctx context.Context) error {
	for i, stmt := range statements {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration statement %d: %w", i+1, err)
		}
	}
	return m.seedCatalogs(ctx)
}

// seedCatalogs upserts the shipped per-domain stage definitions. The
// concrete ids are seed data, not engine logic.
func (m *Migrator) seedCatalogs(ctx context.Context) error {
	for domain, catalog := range stage.SeedCatalogs() {
		for _, def := range catalog.Definitions() {
			var order sql.NullInt64
			if def.DisplayOrder != nil {
				order = sql.NullInt64{Int64: int64(*def.DisplayOrder), Valid: true}
			}
			_, err := m.db.ExecContext(ctx, `
				INSERT INTO stage_definitions (domain, id, name, display_order, stage_type, active)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (domain, id) DO UPDATE SET
					name = EXCLUDED.name,
					display_order = EXCLUDED.display_order,
					stage_type = EXCLUDED.stage_type,
					active = EXCLUDED.active`,
				domain, def.ID.String(), def.Name, order, string(def.Type), def.Active)
			if err != nil {
				return fmt.Errorf("seed stage %s/%s: %w", domain, def.ID, err)
			}
		}
	}
	return nil
}
