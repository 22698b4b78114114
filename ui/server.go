package ui

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"stagegate/app"
	"stagegate/domain/core"
	"stagegate/domain/stage"
	"stagegate/internal/testkit"
)

// Server is the demo web server. It runs entirely on the in-memory
// test kit with generated histories, so the transition flow can be
// exercised without a database.
type Server struct {
	router  *gin.Engine
	kit     *testkit.TestKit
	service *app.TransitionService
	sweeps  *app.RevalidationSweepService
}

// NewServer creates a demo server with seeded entities.
func NewServer(perDomain int, seed int64) (*Server, error) {
	kit := testkit.NewTestKit()
	if err := kit.SeedDemoEntities(perDomain, seed); err != nil {
		return nil, fmt.Errorf("seed demo entities: %w", err)
	}

	service := app.NewTransitionService(kit.Catalogs(), kit.Store(), kit.Store())
	sweeps := app.NewRevalidationSweepService(service, kit.Store(), kit.Store(), 4)

	s := &Server{
		router:  gin.Default(),
		kit:     kit,
		service: service,
		sweeps:  sweeps,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/demo/domains", s.handleDomains)
	s.router.GET("/demo/entities/:domain", s.handleEntities)
	s.router.GET("/demo/entities/:domain/:id", s.handleEntityDetail)
	s.router.POST("/demo/transitions/preview", s.handleDemoPreview)
	s.router.POST("/demo/transitions/commit", s.handleDemoCommit)
	s.router.POST("/demo/sweeps/:domain", s.handleDemoSweep)
}

func (s *Server) handleDomains(c *gin.Context) {
	domains := make([]string, 0, len(stage.SeedCatalogs()))
	for domain := range stage.SeedCatalogs() {
		domains = append(domains, domain)
	}
	c.JSON(http.StatusOK, gin.H{"domains": domains})
}

func (s *Server) handleEntities(c *gin.Context) {
	domain := c.Param("domain")
	ids, err := s.kit.Store().ListEntities(c.Request.Context(), domain, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"domain": domain, "entities": ids})
}

func (s *Server) handleEntityDetail(c *gin.Context) {
	entityID := core.EntityID(c.Param("id"))

	state, err := s.kit.Store().CurrentState(c.Request.Context(), entityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if state.IsNew {
		c.JSON(http.StatusNotFound, gin.H{"error": "entity not found"})
		return
	}

	history, err := s.service.HistoryWindow(c.Request.Context(), entityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	stats, err := s.service.Statistics(c.Request.Context(), entityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":      state,
		"history":    history,
		"statistics": stats,
	})
}

func (s *Server) handleDemoPreview(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	outcome, err := s.service.Preview(c.Request.Context(), req.toServiceRequest())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) handleDemoCommit(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	outcome, err := s.service.Commit(c.Request.Context(), req.toServiceRequest())
	if err != nil {
		if outcome != nil && core.IsGateError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "outcome": outcome})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) handleDemoSweep(c *gin.Context) {
	report, err := s.sweeps.Run(c.Request.Context(), c.Param("domain"), 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// Run starts the demo server.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
