// Package server wires the HTTP surface: home directory, template store,
// layout intelligence pipeline, deck generation, extraction, and the cleanup
// sweeper, all exposed through the endpoint registry.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/slidesmith/slidesmith/internal/api"
	"github.com/slidesmith/slidesmith/internal/catalog"
	"github.com/slidesmith/slidesmith/internal/cleanup"
	"github.com/slidesmith/slidesmith/internal/config"
	"github.com/slidesmith/slidesmith/internal/extract"
	"github.com/slidesmith/slidesmith/internal/generator"
	"github.com/slidesmith/slidesmith/internal/home"
	"github.com/slidesmith/slidesmith/internal/intelligence"
	"github.com/slidesmith/slidesmith/internal/layoutmap"
	"github.com/slidesmith/slidesmith/internal/markdown"
	"github.com/slidesmith/slidesmith/internal/prompts"
	"github.com/slidesmith/slidesmith/internal/prompts/structuring"
	"github.com/slidesmith/slidesmith/internal/providers"
	"github.com/slidesmith/slidesmith/internal/research"
	"github.com/slidesmith/slidesmith/internal/server/endpoints"
	"github.com/slidesmith/slidesmith/internal/svcctx"
	"github.com/slidesmith/slidesmith/internal/template"
)

// Server is the main Slidesmith HTTP server.
type Server struct {
	httpServer *http.Server
	configMgr  *config.Manager
	registry   *providers.Registry
	home       *home.Dir
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// llm bridges let provider reconfiguration swap invokers without
	// rebuilding the services that hold them
	pipelineLLM *llmBridge
	researchLLM *llmBridge

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	sweeper     *cleanup.Sweeper
	sweeperStop chan struct{}

	mu          sync.RWMutex
	running     bool
	initialized bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// Home is the application home directory
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Home == nil {
		return nil, errors.New("home directory is required")
	}
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}

	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)

	s := &Server{
		configMgr:   cfg.ConfigManager,
		registry:    registry,
		home:        cfg.Home,
		logger:      cfg.Logger,
		pipelineLLM: &llmBridge{},
		researchLLM: &llmBridge{},
	}

	appCfg := cfg.ConfigManager.Get()

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{
		RateLimits:     appCfg.Limits.RateLimits,
		MaxUploadBytes: appCfg.Limits.MaxUploadBytes,
	}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the server. It blocks until the context is cancelled or an
// error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.initServices(); err != nil {
		s.setNotRunning()
		return err
	}

	// Reconfigure providers when the config file changes
	s.configMgr.OnChange(func(c *config.Config) {
		s.reloadProviders(c)
		s.logger.Info("provider registry reloaded from config")
	})

	// Start the retention sweeper
	s.sweeperStop = make(chan struct{})
	go s.sweeper.Run(s.sweeperStop)

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

// initServices builds the service graph: home layout, template store,
// providers, pipeline, generator, extractor, research agent, and sweeper.
func (s *Server) initServices() error {
	if err := s.home.EnsureExists(); err != nil {
		return fmt.Errorf("failed to prepare home directory: %w", err)
	}

	appCfg := s.configMgr.Get()

	store := template.NewStore(s.home, template.NewCache(), s.logger)
	if err := store.EnsureDefault(); err != nil {
		return fmt.Errorf("failed to install default template: %w", err)
	}

	resolver := prompts.NewResolver(s.logger)
	if err := resolver.LoadOverrides(s.home.Path()); err != nil {
		s.logger.Warn("failed to load prompt overrides", "error", err)
	}

	pipeline := intelligence.NewService(
		catalog.New(),
		layoutmap.New(s.logger),
		intelligence.NewOverflowValidator(s.logger),
		s.pipelineLLM,
		resolver,
		s.logger,
	)

	agent := research.NewAgent(nil, research.NewHTTPPageFetcher(), s.researchLLM, resolver, s.logger)

	s.sweeper = cleanup.NewSweeper(
		s.home,
		time.Duration(appCfg.Cleanup.RetentionHours)*time.Hour,
		time.Duration(appCfg.Cleanup.IntervalMinutes)*time.Minute,
		s.logger,
	)

	baseURL := appCfg.Server.BaseURL
	if baseURL == "" {
		baseURL = "http://" + s.httpServer.Addr
	}
	retention := time.Duration(appCfg.Cleanup.RetentionHours) * time.Hour

	s.services = &svcctx.Services{
		ConfigMgr: s.configMgr,
		Logger:    s.logger,
		Home:      s.home,
		Registry:  s.registry,
		Templates: store,
		Pipeline:  pipeline,
		Markdown:  markdown.NewParser(s.logger),
		Generator: generator.NewGenerator(generator.NewImageFetcher(s.logger), s.logger),
		Extractor: extract.NewExtractor(s.home, baseURL, retention, s.logger),
		Research:  agent,
		Prompts:   resolver,
	}

	s.reloadProviders(appCfg)

	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
	return nil
}

// reloadProviders rebuilds LLM clients from config: every enabled provider
// is registered, and the default provider backs the pipeline and research
// invokers.
func (s *Server) reloadProviders(cfg *config.Config) {
	enabled := cfg.EnabledLLMProviders()
	for name, providerCfg := range enabled {
		client, err := providers.BuildClient(providerCfg.ToLLMSettings())
		if err != nil {
			s.logger.Error("failed to build LLM client", "provider", name, "error", err)
			continue
		}
		s.registry.Register(name, client)
	}
	for _, name := range s.registry.List() {
		if _, ok := enabled[name]; !ok {
			s.registry.Unregister(name)
		}
	}

	active := cfg.Defaults.LLMProvider
	providerCfg, ok := cfg.GetLLMProvider(active)
	if !ok || !providerCfg.Enabled {
		s.logger.Warn("no usable default LLM provider; pipeline will reject requests", "provider", active)
		s.pipelineLLM.set(nil)
		s.researchLLM.set(nil)
		return
	}
	if err := s.registry.SetActive(active); err != nil {
		s.logger.Error("failed to activate LLM provider", "provider", active, "error", err)
		return
	}

	client, err := s.registry.Get(active)
	if err != nil {
		s.logger.Error("failed to resolve active LLM provider", "provider", active, "error", err)
		return
	}

	limiter := providers.NewRateLimiter(providerCfg.RequestsPerMinute)

	pipelineInvoker, err := providers.NewInvoker(providers.InvokerConfig{
		Client:  client,
		Limiter: limiter,
		Schema:  structuring.PlanSchema,
		Model:   providerCfg.Model,
		Logger:  s.logger,
	})
	if err != nil {
		s.logger.Error("failed to build pipeline invoker", "provider", active, "error", err)
		return
	}

	researchInvoker, err := providers.NewInvoker(providers.InvokerConfig{
		Client:  client,
		Limiter: limiter,
		Model:   providerCfg.Model,
		Logger:  s.logger,
	})
	if err != nil {
		s.logger.Error("failed to build research invoker", "provider", active, "error", err)
		return
	}

	s.pipelineLLM.set(pipelineInvoker)
	s.researchLLM.set(researchInvoker)
	s.logger.Info("LLM provider configured", "provider", active, "model", providerCfg.Model)
}

// shutdown performs graceful shutdown of the HTTP server and sweeper.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	if s.sweeperStop != nil {
		close(s.sweeperStop)
		s.sweeperStop = nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// Handler returns the fully wired HTTP handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until the service graph is built.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		ready := s.initialized
		s.mu.RUnlock()
		if !ready {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}

// llmBridge is a swappable indirection over the active provider's invoker.
// Pipeline and research services hold the bridge; provider reloads replace
// the invoker underneath.
type llmBridge struct {
	mu      sync.RWMutex
	invoker *providers.Invoker
}

func (b *llmBridge) set(iv *providers.Invoker) {
	b.mu.Lock()
	b.invoker = iv
	b.mu.Unlock()
}

// Invoke delegates to the current invoker.
func (b *llmBridge) Invoke(ctx context.Context, prompt string) (string, error) {
	b.mu.RLock()
	iv := b.invoker
	b.mu.RUnlock()
	if iv == nil {
		return "", errors.New("no LLM provider configured")
	}
	return iv.Invoke(ctx, prompt)
}
