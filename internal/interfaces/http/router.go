// Package http assembles the local REST API consumed by the CLI and by
// anything else on the loopback interface.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uspto-tools/pairwatch/internal/infrastructure/monitoring/logging"
	"github.com/uspto-tools/pairwatch/internal/interfaces/http/handlers"
	"github.com/uspto-tools/pairwatch/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and infrastructure the route tree
// needs.  Nil handlers simply leave their routes unregistered, which keeps
// partial wiring in tests cheap.
type RouterConfig struct {
	PatentHandler   *handlers.PatentHandler
	UpdatesHandler  *handlers.UpdatesHandler
	PollHandler     *handlers.PollHandler
	SettingsHandler *handlers.SettingsHandler
	APIKeyHandler   *handlers.APIKeyHandler
	HealthHandler   *handlers.HealthHandler

	// MetricsHandler serves the Prometheus registry at /metrics.
	MetricsHandler http.Handler

	Logger logging.Logger
}

// NewRouter constructs the complete route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group("/api/v1")

	if h := cfg.PatentHandler; h != nil {
		api.GET("/patents", h.List)
		api.POST("/patents", h.Add)
		api.GET("/patents/:number", h.Get)
		api.DELETE("/patents/:number", h.Remove)
		api.GET("/patents/:number/events", h.Events)
	}
	if h := cfg.UpdatesHandler; h != nil {
		api.GET("/updates", h.Recent)
		api.GET("/updates/codes", h.Codes)
	}
	if h := cfg.PollHandler; h != nil {
		api.POST("/refresh", h.Refresh)
		api.GET("/poller", h.Status)
	}
	if h := cfg.SettingsHandler; h != nil {
		api.GET("/settings/:key", h.Get)
		api.PUT("/settings/:key", h.Put)
	}
	if h := cfg.APIKeyHandler; h != nil {
		api.GET("/apikey", h.Get)
		api.PUT("/apikey", h.Put)
		api.DELETE("/apikey", h.Delete)
	}

	return r
}
