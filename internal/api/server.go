package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/seatwise/seatwise/internal/auth"
	"github.com/seatwise/seatwise/internal/config"
	"github.com/seatwise/seatwise/internal/model"
	"github.com/seatwise/seatwise/internal/predlog"
)

const version = "0.1.0"

// Server is the inference HTTP server. The model handle is injected at
// construction, read-only for the process lifetime and possibly nil
// when no artifact was available at startup — every scoring request
// then reports "model unavailable" instead of crashing.
type Server struct {
	config     *config.Config
	logger     *zap.Logger
	router     *mux.Router
	httpServer *http.Server
	metrics    *Metrics
	limiter    *RateLimiter

	authSvc *auth.Service
	model   *model.WasteModel
	logs    predlog.Store

	startTime time.Time
}

// NewServer wires the inference service. logs may be nil to disable
// the prediction log.
func NewServer(cfg *config.Config, logger *zap.Logger, authSvc *auth.Service, m *model.WasteModel, logs predlog.Store) *Server {
	s := &Server{
		config:    cfg,
		logger:    logger,
		router:    mux.NewRouter(),
		metrics:   NewMetrics(),
		limiter:   NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		authSvc:   authSvc,
		model:     m,
		logs:      logs,
		startTime: time.Now(),
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.recoverMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/ready", s.handleReady).Methods("GET")
	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	s.router.HandleFunc("/api/v1/auth/register", s.handleRegister).Methods("POST")
	s.router.HandleFunc("/api/v1/auth/login", s.handleLogin).Methods("POST")

	protected := s.router.PathPrefix("/api/v1").Subrouter()
	protected.Use(s.authMiddleware)
	protected.Use(s.rateLimitMiddleware)
	protected.HandleFunc("/predict/waste", s.handlePredict).Methods("POST")
	protected.HandleFunc("/predictions", s.handleRecentPredictions).Methods("GET")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":  "healthy",
		"version": version,
		"uptime":  time.Since(s.startTime).Seconds(),
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ready := map[string]interface{}{
		"ready":        true,
		"model_loaded": s.model != nil,
	}
	if s.model != nil {
		ready["model_version"] = s.model.Version
	}
	writeJSON(w, http.StatusOK, ready)
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.Int("port", s.config.Server.Port))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
