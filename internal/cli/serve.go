package cli

import (
	"context"
	"fmt"
	"time"

	"resumeforge/internal/ai"
	"resumeforge/internal/analyzer"
	"resumeforge/internal/assistant"
	"resumeforge/internal/cache"
	"resumeforge/internal/config"
	"resumeforge/internal/extract"
	"resumeforge/internal/observability"
	"resumeforge/internal/optimizer"
	"resumeforge/internal/parser"
	"resumeforge/internal/server"
	"resumeforge/internal/store"
	"resumeforge/internal/tailoring"
	"resumeforge/internal/vector"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for the tailoring pipeline",
	Long: `Start an HTTP server exposing the tailoring pipeline as a REST API.

Available endpoints:
- POST /api/v1/analyze: Analyze a job posting (cache-backed)
- POST /api/v1/tailor: Tailor a stored resume to a stored analysis
- POST /api/v1/resumes: Save a master resume
- PATCH /api/v1/tailored/{id}/bullets/{bulletId}: Accept or reject a rewrite
- POST /api/v1/assistant: Ask the resume assistant
- GET /health, /ready, /stats: Service status

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server
- Use --cert-file and --key-file for TLS certificates`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("server.tls.mode", "tls-mode")
	bindFlag("server.tls.certfile", "cert-file")
	bindFlag("server.tls.keyfile", "key-file")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	// Flag overrides are already bound into the loaded config via viper
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, err := observability.NewManager(observability.GetObservabilityConfig(cfg, Version), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := om.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to shut down observability", "error", err)
		}
	}()

	// Process-wide singletons, constructed once and injected
	gateway, err := ai.NewManagerFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI gateway: %w", err)
	}
	defer func() {
		if err := gateway.Close(); err != nil {
			logger.Warn("Failed to close AI gateway", "error", err)
		}
	}()
	gateway.SetFailoverHook(func(operation, from, to string) {
		om.GetMetrics().RecordFailover(ctx, operation, from, to, om)
	})

	analysisCache, err := cache.New(cfg.Cache, logger)
	if err != nil {
		return fmt.Errorf("failed to create analysis cache: %w", err)
	}
	defer func() {
		if err := analysisCache.Close(); err != nil {
			logger.Warn("Failed to close analysis cache", "error", err)
		}
	}()

	st, err := store.New(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("Failed to close store", "error", err)
		}
	}()

	// Generation calls made while serving go through the instrumented
	// gateway so every operation lands in the metrics and traces.
	instrumented := observability.NewInstrumentedGateway(gateway, om)

	service := tailoring.New(
		analyzer.New(instrumented, cfg, logger),
		optimizer.New(instrumented, cfg, logger),
		st,
		analysisCache,
		cfg,
		logger,
	)
	resumeAssistant := assistant.New(instrumented, vector.NewStore(), cfg, logger)
	resumeParser := parser.New(instrumented, cfg, logger)

	// Prompt file hot reload
	if cfg.AI.PromptReload.Enabled {
		if files := cfg.PromptFiles(); len(files) > 0 {
			watcher := config.NewPromptWatcher(files, cfg.AI.PromptReload.DebounceDelay, func() {
				if err := cfg.ReloadPrompts(); err != nil {
					logger.LogError(err, "Failed to reload prompt files")
					return
				}
				logger.Info("Prompt files reloaded")
			})
			if err := watcher.Start(); err != nil {
				return fmt.Errorf("failed to start prompt watcher: %w", err)
			}
			defer func() {
				if err := watcher.Stop(); err != nil {
					logger.Warn("Failed to stop prompt watcher", "error", err)
				}
			}()
		}
	}

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
	deps := server.Deps{
		Tailoring:     service,
		Gateway:       gateway,
		Cache:         analysisCache,
		Store:         st,
		Assistant:     resumeAssistant,
		Extractor:     extract.NewTextExtractor(),
		Parser:        resumeParser,
		Observability: om,
	}
	return server.NewServer(cfg, serverCfg, deps, logger).Start(ctx)
}
