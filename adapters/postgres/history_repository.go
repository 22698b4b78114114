package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"stagegate/domain/core"
	"stagegate/domain/transition"
	"stagegate/ports"
)

// HistoryRepositoryImpl implements HistoryPort for PostgreSQL.
// History rows are append-only; voiding is the only mutation.
type HistoryRepositoryImpl struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a new PostgreSQL history repository
func NewHistoryRepository(db *sqlx.DB) ports.HistoryPort {
	return &HistoryRepositoryImpl{db: db}
}

// Append inserts one row per record, in the given order.
func (r *HistoryRepositoryImpl) Append(ctx context.Context, records []transition.HistoryRecord) error {
	for _, rec := range records {
		if err := appendRecord(ctx, r.db, rec); err != nil {
			return err
		}
	}
	return nil
}

// appendRecord inserts a single history row on any sqlx execer, so the
// entity repository can reuse it inside its commit transaction.
func appendRecord(ctx context.Context, ex sqlx.ExtContext, rec transition.HistoryRecord) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO transition_history (
			id, entity_id, event_type, from_stage_id, to_stage_id,
			target_date, tone, note, changed_by, alert_acknowledged,
			voided, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, false, $11)`,
		rec.ID.String(), rec.EntityID.String(), string(rec.Type),
		nullStageID(rec.FromStageID), nullStageID(rec.ToStageID),
		nullTimestamp(rec.TargetDate), string(rec.Tone), rec.Note,
		rec.ChangedBy, rec.AlertAcknowledged, rec.RecordedAt.Time())
	if err != nil {
		return fmt.Errorf("insert history record %s: %w", rec.ID, err)
	}
	return nil
}

// Void soft-deletes a history row. Rows are never physically removed.
func (r *HistoryRepositoryImpl) Void(ctx context.Context, recordID core.RecordID, voidedBy string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transition_history
		SET voided = true, voided_by = $2
		WHERE id = $1 AND voided = false`,
		recordID.String(), voidedBy)
	if err != nil {
		return fmt.Errorf("void history record %s: %w", recordID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.NewNotFoundError("history record", recordID.String())
	}
	return nil
}

// RecentWindow returns the newest non-voided rows for an entity,
// excluding reason_updated rows, most recent first. This is exactly the
// pre-filtered shape the engine's history-backed rules expect.
func (r *HistoryRepositoryImpl) RecentWindow(ctx context.Context, entityID core.EntityID, limit int) ([]transition.HistoryRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, entity_id, event_type, from_stage_id, to_stage_id,
		       target_date, tone, note, changed_by, alert_acknowledged,
		       voided, recorded_at
		FROM transition_history
		WHERE entity_id = $1
		  AND voided = false
		  AND event_type <> 'reason_updated'
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2`,
		entityID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("query history window: %w", err)
	}
	defer rows.Close()

	var records []transition.HistoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (transition.HistoryRecord, error) {
	var (
		rec                    transition.HistoryRecord
		id, entityID, evType   string
		fromStage, toStage     sql.NullString
		targetDate, recordedAt sql.NullTime
		tone                   string
	)
	err := rows.Scan(&id, &entityID, &evType, &fromStage, &toStage,
		&targetDate, &tone, &rec.Note, &rec.ChangedBy, &rec.AlertAcknowledged,
		&rec.Voided, &recordedAt)
	if err != nil {
		return rec, fmt.Errorf("scan history record: %w", err)
	}

	rec.ID = core.RecordID(id)
	rec.EntityID = core.EntityID(entityID)
	rec.Type = transition.EventType(evType)
	rec.FromStageID = stageIDFromNull(fromStage)
	rec.ToStageID = stageIDFromNull(toStage)
	rec.TargetDate = timestampFromNull(targetDate)
	rec.Tone = transition.RecommitTone(tone)
	if recordedAt.Valid {
		rec.RecordedAt = core.NewTimestamp(recordedAt.Time)
	}
	return rec, nil
}
