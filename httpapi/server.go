// Package httpapi exposes the alarm collection over a small REST API. It is
// the owning layer from the scheduler's point of view: every mutation ends
// with a reconcile that brings the pending-timer set back in sync with the
// stored collection.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"bsid.es/despertador"
)

// Config tunes the API server.
type Config struct {
	// Debug keeps gin in debug mode and enables request logging.
	Debug bool

	// EnableCORS allows cross-origin requests (the web UI is usually
	// served from a different origin during development).
	EnableCORS bool

	// DefaultSnooze is used when a snooze request doesn't carry a
	// duration. Zero means 5 minutes.
	DefaultSnooze time.Duration
}

// Server wires the store, the scheduler and the HTTP routes together.
type Server struct {
	store  despertador.Store
	sched  despertador.Scheduler
	logger *slog.Logger

	now           func() time.Time
	defaultSnooze time.Duration

	engine *gin.Engine
}

func NewServer(store despertador.Store, sched despertador.Scheduler, logger *slog.Logger, cfg Config) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	if cfg.Debug {
		engine.Use(gin.Logger())
	}
	if cfg.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
		engine.Use(cors.New(corsConfig))
	}

	defaultSnooze := cfg.DefaultSnooze
	if defaultSnooze <= 0 {
		defaultSnooze = 5 * time.Minute
	}

	s := &Server{
		store:         store,
		sched:         sched,
		logger:        logger,
		now:           time.Now,
		defaultSnooze: defaultSnooze,
		engine:        engine,
	}
	s.routes()
	return s
}

// Handler returns the http.Handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)

	api := s.engine.Group("/api")
	api.GET("/alarms", s.listAlarms)
	api.POST("/alarms", s.createAlarm)
	api.GET("/alarms.ics", s.exportICS)
	api.GET("/alarms/:id", s.getAlarm)
	api.PUT("/alarms/:id", s.updateAlarm)
	api.DELETE("/alarms/:id", s.deleteAlarm)
	api.POST("/alarms/:id/toggle", s.toggleAlarm)
	api.POST("/alarms/:id/snooze", s.snoozeAlarm)
	api.GET("/alarms/:id/occurrences", s.occurrences)
}

// reconcile reloads the collection and syncs the scheduler with it. Called
// after every mutation; safe to repeat because Arm is idempotent per id.
func (s *Server) reconcile(ctx context.Context) {
	alarms, err := s.store.Alarms(ctx)
	if err != nil {
		s.logger.Error("reconcile: list alarms", "err", err)
		return
	}
	despertador.Reconcile(s.sched, alarms)
}
