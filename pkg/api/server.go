// Package api exposes the query surface: alerts, suppliers with their
// risk history, the pipeline summary, health and metrics.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chainwatch/chainwatch/pkg/database"
	"github.com/chainwatch/chainwatch/pkg/store"
)

// Server is the HTTP query surface. It reads through the store; all
// writes happen in the pipeline stages.
type Server struct {
	store store.Store
	db    *database.Client
	http  *http.Server
}

// NewServer creates the API server. db may be nil when no Postgres
// backend is wired (health then skips the database probe). registry
// backs the /metrics endpoint.
func NewServer(st store.Store, db *database.Client, registry *prometheus.Registry, port int) *Server {
	s := &Server{store: st, db: db}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.Health)
	if registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/alerts", s.ListAlerts)
		v1.GET("/alerts/:id", s.GetAlert)
		v1.POST("/alerts/:id/acknowledge", s.AcknowledgeAlert)
		v1.GET("/suppliers", s.ListSuppliers)
		v1.GET("/suppliers/:id", s.GetSupplier)
		v1.GET("/suppliers/:id/history", s.SupplierHistory)
		v1.GET("/summary", s.Summary)
	}

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router returns the underlying handler, for tests.
func (s *Server) Router() http.Handler { return s.http.Handler }

// Start serves until Shutdown or a listener error.
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Health handles GET /healthz.
func (s *Server) Health(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbHealth, err := database.Health(ctx, s.db.DB().DB)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": dbHealth,
			"error":    err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": dbHealth,
	})
}
