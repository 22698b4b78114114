package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"stagegate/domain/core"
	"stagegate/domain/transition"
	"stagegate/ports"
)

// EntityStateRepositoryImpl implements EntityStatePort for PostgreSQL.
type EntityStateRepositoryImpl struct {
	db *sqlx.DB
}

// NewEntityStateRepository creates a new PostgreSQL entity state repository
func NewEntityStateRepository(db *sqlx.DB) ports.EntityStatePort {
	return &EntityStateRepositoryImpl{db: db}
}

// CurrentState reads an entity's authoritative stage/target. Unknown
// entities come back as new records rather than an error, matching the
// engine's treatment of first-time transitions.
func (r *EntityStateRepositoryImpl) CurrentState(ctx context.Context, entityID core.EntityID) (ports.EntityState, error) {
	state := ports.EntityState{EntityID: entityID}

	var (
		domain               sql.NullString
		stageID, targetStage sql.NullString
		targetDate           sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT domain, stage_id, target_stage_id, target_date
		FROM entity_states
		WHERE id = $1`,
		entityID.String()).Scan(&domain, &stageID, &targetStage, &targetDate)
	if errors.Is(err, sql.ErrNoRows) {
		state.IsNew = true
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("query entity state: %w", err)
	}

	state.Domain = domain.String
	state.StageID = stageIDFromNull(stageID)
	state.TargetStageID = stageIDFromNull(targetStage)
	state.TargetDate = timestampFromNull(targetDate)
	return state, nil
}

// ListEntities returns entity ids for one domain.
func (r *EntityStateRepositoryImpl) ListEntities(ctx context.Context, domain string, limit int) ([]core.EntityID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM entity_states
		WHERE domain = $1
		ORDER BY id
		LIMIT $2`,
		domain, limit)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var ids []core.EntityID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, core.EntityID(id))
	}
	return ids, rows.Err()
}

// CommitTransition writes the new state and appends one history row per
// detected event inside one transaction. The UPDATE is guarded by the
// previously read state so a concurrent transition from a stale
// snapshot fails with ErrStaleSnapshot instead of silently losing it.
func (r *EntityStateRepositoryImpl) CommitTransition(ctx context.Context, prev ports.EntityState, next ports.EntityState, records []transition.HistoryRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit transaction: %w", err)
	}
	defer tx.Rollback()

	if prev.IsNew {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO entity_states (id, domain, stage_id, target_stage_id, target_date, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW())`,
			next.EntityID.String(), next.Domain,
			nullStageID(next.StageID), nullStageID(next.TargetStageID), nullTimestamp(next.TargetDate))
		if err != nil {
			return fmt.Errorf("insert entity state: %w", err)
		}
	} else {
		res, err := tx.ExecContext(ctx, `
			UPDATE entity_states
			SET stage_id = $2, target_stage_id = $3, target_date = $4, updated_at = NOW()
			WHERE id = $1
			  AND stage_id IS NOT DISTINCT FROM $5
			  AND target_stage_id IS NOT DISTINCT FROM $6
			  AND target_date IS NOT DISTINCT FROM $7`,
			next.EntityID.String(),
			nullStageID(next.StageID), nullStageID(next.TargetStageID), nullTimestamp(next.TargetDate),
			nullStageID(prev.StageID), nullStageID(prev.TargetStageID), nullTimestamp(prev.TargetDate))
		if err != nil {
			return fmt.Errorf("update entity state: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return core.ErrStaleSnapshot
		}
	}

	for _, rec := range records {
		if err := appendRecord(ctx, tx, rec); err != nil {
			return err
		}
	}

	return tx.Commit()
}
