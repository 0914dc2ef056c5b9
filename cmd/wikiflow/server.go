package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/wikiflow/agent"
	"github.com/BaSui01/wikiflow/api/handlers"
	"github.com/BaSui01/wikiflow/auth"
	"github.com/BaSui01/wikiflow/config"
	"github.com/BaSui01/wikiflow/confluence"
	"github.com/BaSui01/wikiflow/internal/metrics"
	"github.com/BaSui01/wikiflow/internal/server"
	"github.com/BaSui01/wikiflow/internal/telemetry"
	"github.com/BaSui01/wikiflow/llm"
)

// Server wires the invocation pipeline and runs the HTTP listeners.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	httpManager    *server.Manager
	metricsManager *server.Manager

	healthHandler     *handlers.HealthHandler
	invocationHandler *handlers.InvocationHandler
	wsHandler         *handlers.WSHandler

	collector *metrics.Collector
	otel      *telemetry.Providers

	rateLimiterCancel context.CancelFunc
}

// NewServer creates the server from resolved configuration.
func NewServer(cfg *config.Config, logger *zap.Logger, otel *telemetry.Providers) *Server {
	return &Server{cfg: cfg, logger: logger, otel: otel}
}

// Start builds the invocation pipeline and starts both listeners.
func (s *Server) Start() error {
	s.collector = metrics.NewCollector("wikiflow", nil, s.logger)

	if err := s.initPipeline(); err != nil {
		return fmt.Errorf("failed to init pipeline: %w", err)
	}
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
	)
	return nil
}

// initPipeline builds credential store, auth gate, Confluence tools,
// LLM task, and the invocation service, then the handlers on top.
func (s *Server) initPipeline() error {
	store := auth.NewStore()

	confluenceClient := confluence.NewClient(confluence.Config{
		DiscoveryURL: s.cfg.Confluence.DiscoveryURL,
		APIBase:      s.cfg.Confluence.APIBase,
		Timeout:      s.cfg.Confluence.Timeout,
		Collector:    s.collector,
	}, store, s.logger)

	flow := auth.NewProviderFlow(auth.ProviderFlowConfig{
		BaseURL:        s.cfg.Auth.ProviderURL,
		Provider:       s.cfg.Auth.Provider,
		PollInterval:   s.cfg.Auth.PollInterval,
		RequestTimeout: s.cfg.Auth.Timeout,
	}, s.logger)

	gate := auth.NewGate(auth.GateConfig{
		Scopes:   s.cfg.Auth.Scopes,
		FlowType: s.cfg.Auth.FlowType,
		Force:    s.cfg.Auth.Force,
	}, store, flow, confluenceClient, s.logger)

	registry := agent.NewRegistry()
	agent.RegisterConfluenceTools(registry, confluenceClient)

	provider := llm.NewOpenAIProvider(llm.OpenAIConfig{
		APIKey:  s.cfg.LLM.APIKey,
		BaseURL: s.cfg.LLM.BaseURL,
		Model:   s.cfg.Agent.Model,
		Timeout: s.cfg.LLM.Timeout,
	}, s.logger)

	task := agent.NewLLMTask(provider, registry, agent.LLMTaskConfig{
		Model:         s.cfg.Agent.Model,
		SystemPrompt:  s.cfg.Agent.SystemPrompt,
		MaxIterations: s.cfg.Agent.MaxIterations,
		MaxTokens:     s.cfg.Agent.MaxTokens,
		Temperature:   float32(s.cfg.Agent.Temperature),
	}, s.logger)

	orch := agent.NewOrchestrator(task, gate, s.collector, s.logger)
	service := agent.NewService(orch, s.logger)

	s.healthHandler = handlers.NewHealthHandler(s.logger)
	if s.cfg.LLM.APIKey != "" {
		s.healthHandler.RegisterCheck(handlers.NewNamedCheck("llm", func(ctx context.Context) error {
			status, err := provider.HealthCheck(ctx)
			if err != nil {
				return err
			}
			if !status.Healthy {
				return fmt.Errorf("llm provider unhealthy")
			}
			return nil
		}))
	}

	s.invocationHandler = handlers.NewInvocationHandler(service, s.logger)
	s.wsHandler = handlers.NewWSHandler(service, s.logger)

	s.logger.Info("Invocation pipeline initialized",
		zap.String("model", s.cfg.Agent.Model),
		zap.String("auth_provider", s.cfg.Auth.Provider),
	)
	return nil
}

func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealth)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	mux.HandleFunc("POST /v1/invocations", s.invocationHandler.HandleInvoke)
	mux.HandleFunc("GET /v1/invocations/ws", s.wsHandler.HandleWS)

	rateLimiterCtx, cancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = cancel

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.collector),
	}
	if s.cfg.Telemetry.Enabled {
		middlewares = append(middlewares, OTelTracing())
	}
	if s.cfg.Server.RateLimit > 0 {
		middlewares = append(middlewares,
			RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimit, s.cfg.Server.RateBurst, s.logger))
	}
	handler := Chain(mux, middlewares...)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)
	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.ReadTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)
	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// WaitForShutdown blocks until a termination signal, then shuts
// everything down.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown stops the listeners and flushes telemetry.
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")
	ctx := context.Background()

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}
	if err := s.otel.Shutdown(ctx); err != nil {
		s.logger.Error("Telemetry shutdown error", zap.Error(err))
	}

	s.logger.Info("Graceful shutdown completed")
}
