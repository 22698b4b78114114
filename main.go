package main

import (
	"context"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"stagegate/adapters/postgres"
	"stagegate/adapters/postgres/migrations"
	"stagegate/app"
	"stagegate/internal/config"
	"stagegate/internal/errors"
	"stagegate/ui"
)

// initDatabase connects to PostgreSQL and applies migrations.
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrations.NewMigrator(db.DB).Up(ctx); err != nil {
		return nil, errors.Wrap(err, "migrations failed")
	}
	return db, nil
}

func main() {
	// Load .env if present; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	defer db.Close()

	catalogs := postgres.NewStageCatalogRepository(db)
	entities := postgres.NewEntityStateRepository(db)
	history := postgres.NewHistoryRepository(db)

	service := app.NewTransitionService(catalogs, entities, history)
	sweeps := app.NewRevalidationSweepService(service, entities, history, int64(appConfig.Sweep.Capacity))

	httpApp := ui.NewApp(service, sweeps, ui.Config{
		Port:      appConfig.Server.Port,
		ExportDir: appConfig.Export.Dir,
	})
	if err := httpApp.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
