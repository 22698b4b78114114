package ui

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"stagegate/app"
)

// App is the back-office HTTP application: preview/commit transitions,
// entity statistics and reports, sweeps, and the alert reference page.
type App struct {
	router    *chi.Mux
	service   *app.TransitionService
	sweeps    *app.RevalidationSweepService
	port      string
	exportDir string
}

// Config holds HTTP application configuration
type Config struct {
	Port      string
	ExportDir string
}

// NewApp creates the HTTP application over the given services.
func NewApp(service *app.TransitionService, sweeps *app.RevalidationSweepService, config Config) *App {
	a := &App{
		router:    chi.NewRouter(),
		service:   service,
		sweeps:    sweeps,
		port:      config.Port,
		exportDir: config.ExportDir,
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	// Transition endpoints: preview is round one, commit is round two.
	a.router.Post("/api/transitions/preview", a.handlePreview)
	a.router.Post("/api/transitions/commit", a.handleCommit)

	// Entity endpoints
	a.router.Get("/api/entities/{id}/statistics", a.handleStatistics)
	a.router.Get("/api/entities/{id}/report.xlsx", a.handleReport)
	a.router.Post("/api/entities/{id}/reason", a.handleUpdateReason)

	// Catalog and sweep endpoints
	a.router.Get("/api/catalogs/{domain}", a.handleCatalog)
	a.router.Post("/api/sweeps/{domain}", a.handleSweep)

	// Reference pages
	a.router.Get("/help/alerts", a.handleAlertReference)
}

// Router exposes the configured router for tests and embedding.
func (a *App) Router() http.Handler { return a.router }

// Start starts the HTTP server
func (a *App) Start() error {
	addr := ":" + a.port
	log.Printf("Starting stagegate API server on %s", addr)
	return http.ListenAndServe(addr, a.router)
}
