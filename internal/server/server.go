package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackzampolin/firscan/internal/api"
	"github.com/jackzampolin/firscan/internal/config"
	"github.com/jackzampolin/firscan/internal/corpus"
	"github.com/jackzampolin/firscan/internal/home"
	"github.com/jackzampolin/firscan/internal/learner"
	"github.com/jackzampolin/firscan/internal/metrics"
	"github.com/jackzampolin/firscan/internal/normalize"
	"github.com/jackzampolin/firscan/internal/ocr"
	"github.com/jackzampolin/firscan/internal/rules"
	"github.com/jackzampolin/firscan/internal/server/endpoints"
	"github.com/jackzampolin/firscan/internal/store"
	"github.com/jackzampolin/firscan/internal/svcctx"
)

// Server is the main firscan HTTP server.
// It opens the store and loads the active rule set on start, and closes
// the store on shutdown.
type Server struct {
	httpServer *http.Server
	home       *home.Dir
	configMgr  *config.Manager
	provider   ocr.Provider
	limiter    *limiter
	logger     *slog.Logger

	db *sql.DB

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// Home is the firscan home directory holding the database and uploads
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// OCRProvider overrides the provider named in the ocr config
	OCRProvider ocr.Provider
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Home == nil {
		return nil, errors.New("home directory is required")
	}
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	current := cfg.ConfigManager.Get()
	if cfg.Host == "" {
		cfg.Host = current.Server.Host
	}
	if cfg.Port == "" {
		cfg.Port = current.Server.Port
	}

	s := &Server{
		home:      cfg.Home,
		configMgr: cfg.ConfigManager,
		provider:  cfg.OCRProvider,
		limiter:   newLimiter(current.Server.RateLimit, current.Server.RateBurst),
		logger:    cfg.Logger,
	}

	cfg.ConfigManager.OnChange(func(c *config.Config) {
		s.limiter.set(c.Server.RateLimit, c.Server.RateBurst)
	})

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(s.limiter.middleware(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // uploads wait for OCR
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start opens the store, loads the active rule set and serves HTTP.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	services, err := s.initServices(ctx)
	if err != nil {
		s.closeStore()
		s.setNotRunning()
		return err
	}
	s.mu.Lock()
	s.services = services
	s.mu.Unlock()

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// initServices builds everything the endpoints need. Any error here is a
// configuration problem and stops startup.
func (s *Server) initServices(ctx context.Context) (*svcctx.Services, error) {
	cfg := s.configMgr.Get()

	if err := s.home.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}

	dbPath := cfg.Store.Path
	if dbPath == "" {
		dbPath = s.home.DatabasePath()
	}
	db, err := store.Open(ctx, dbPath, store.Options{Attempts: cfg.Store.OpenAttempts, Logger: s.logger})
	if err != nil {
		return nil, err
	}
	s.db = db
	s.logger.Info("store opened", "path", dbPath)

	table := normalize.DefaultTable()
	if path := cfg.Normalizer.SubstitutionsFile; path != "" {
		if table, err = normalize.LoadTable(path); err != nil {
			return nil, err
		}
	}
	normalizer := normalize.New(table)

	seed := rules.Bootstrap()
	if path := cfg.Extraction.RulesFile; path != "" {
		if seed, err = rules.LoadFile(path); err != nil {
			return nil, err
		}
	}
	repo := rules.NewRepository(db, s.logger)
	rs, err := repo.LoadActive(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to load active rule set: %w", err)
	}
	active := rules.NewActive(rs)
	s.logger.Info("rule set loaded", "version", rs.Version(), "rules", rs.Len())

	samples := corpus.NewSQLStore(db, s.logger)
	l := learner.New(normalizer, LearnerOptions(cfg), s.logger)
	trainer := learner.NewTrainer(l, samples, repo, active, s.logger)

	s.configMgr.OnChange(func(c *config.Config) {
		l.SetOptions(LearnerOptions(c))
		s.logger.Info("training options reloaded from config",
			"min_samples", c.Training.MinSamples,
			"threshold", c.Extraction.ConfidenceThreshold)
	})

	return &svcctx.Services{
		DB:            db,
		Normalizer:    normalizer,
		Rules:         active,
		RuleRepo:      repo,
		Corpus:        samples,
		Trainer:       trainer,
		OCR:           s.buildOCR(cfg),
		Metrics:       metrics.NewRecorder(db, s.logger),
		ConfigManager: s.configMgr,
		Logger:        s.logger,
		Home:          s.home,
	}, nil
}

// buildOCR returns the upload pipeline, or nil when OCR is disabled or the
// configured provider is not available in this build.
func (s *Server) buildOCR(cfg *config.Config) *ocr.Pipeline {
	if !cfg.OCR.Enabled {
		s.logger.Info("ocr disabled, uploads will be rejected")
		return nil
	}
	provider := s.provider
	if provider == nil {
		var err error
		provider, err = ocr.NewProvider(cfg.OCR.Provider, cfg.OCR.ProviderOptions())
		if err != nil {
			s.logger.Warn("ocr provider unavailable, uploads will be rejected", "provider", cfg.OCR.Provider, "error", err)
			return nil
		}
	}
	return ocr.NewPipeline(provider, ocr.Options{
		Preprocess: cfg.OCR.Preprocess,
		MaxPages:   cfg.OCR.MaxPages,
		Workers:    cfg.OCR.Workers,
	}, s.logger)
}

// LearnerOptions maps configuration onto learner options.
func LearnerOptions(c *config.Config) learner.Options {
	return learner.Options{
		MinSamples:  c.Training.MinSamples,
		MaxPasses:   c.Training.MaxPasses,
		Threshold:   c.Extraction.ConfidenceThreshold,
		Parallelism: c.Extraction.Parallelism,
	}
}

// shutdown performs graceful shutdown of the HTTP server and closes the store.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.closeStore()
	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) closeStore() {
	if s.db == nil {
		return
	}
	if err := s.db.Close(); err != nil {
		s.logger.Error("store close error", "error", err)
	}
	s.db = nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.services = nil
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Services returns the services built on start.
// Returns nil if the server hasn't started yet.
func (s *Server) Services() *svcctx.Services {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.services
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if services := s.Services(); services != nil {
			ctx = svcctx.WithServices(ctx, services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until the store is open and a rule set is
// active.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := s.Services()
		if services == nil || services.DB == nil || services.Rules == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
