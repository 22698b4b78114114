package postgres

import (
	"database/sql"

	"stagegate/domain/core"
)

// Nullable column helpers shared by the repositories.

func nullStageID(id *core.StageID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func stageIDFromNull(v sql.NullString) *core.StageID {
	if !v.Valid {
		return nil
	}
	return core.StageIDPtr(v.String)
}

func nullTimestamp(t *core.Timestamp) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.Time(), Valid: true}
}

func timestampFromNull(v sql.NullTime) *core.Timestamp {
	if !v.Valid {
		return nil
	}
	return core.TimestampPtr(v.Time)
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
