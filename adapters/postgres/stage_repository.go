package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"stagegate/domain/core"
	"stagegate/domain/stage"
	"stagegate/ports"
)

// StageCatalogRepositoryImpl implements StageCatalogPort for PostgreSQL.
// Catalogs change rarely; callers cache the built Catalog per domain.
type StageCatalogRepositoryImpl struct {
	db *sqlx.DB
}

// NewStageCatalogRepository creates a new PostgreSQL stage catalog repository
func NewStageCatalogRepository(db *sqlx.DB) ports.StageCatalogPort {
	return &StageCatalogRepositoryImpl{db: db}
}

// Catalog loads and builds the stage catalog for one domain.
func (r *StageCatalogRepositoryImpl) Catalog(ctx context.Context, domain string) (*stage.Catalog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, display_order, stage_type, active
		FROM stage_definitions
		WHERE domain = $1
		ORDER BY display_order NULLS LAST, id`,
		domain)
	if err != nil {
		return nil, fmt.Errorf("query stage definitions: %w", err)
	}
	defer rows.Close()

	var defs []stage.Definition
	for rows.Next() {
		var (
			def       stage.Definition
			id        string
			order     sql.NullInt64
			stageType string
		)
		if err := rows.Scan(&id, &def.Name, &order, &stageType, &def.Active); err != nil {
			return nil, fmt.Errorf("scan stage definition: %w", err)
		}
		def.ID = core.StageID(id)
		def.DisplayOrder = intFromNull(order)
		def.Type = stage.Type(stageType)
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, core.NewNotFoundError("stage catalog", domain)
	}

	return stage.NewCatalog(domain, defs)
}
