package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/marceloacosta/un-translator/internal/config"
	"github.com/marceloacosta/un-translator/internal/metrics"
	"github.com/marceloacosta/un-translator/internal/server"
	"github.com/marceloacosta/un-translator/internal/session"
	"github.com/marceloacosta/un-translator/internal/upstream"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "un-translator"
	serviceVersion    = "1.0.0"
)

func main() {
	// Load .env for local development; AWS credentials usually live there.
	// Missing file is fine in deployed environments.
	_ = godotenv.Load()

	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("address", cfg.Server.Address),
		slog.Int("max_concurrent_sessions", cfg.Server.MaxConcurrentSessions),
		slog.String("region", cfg.Upstream.Region),
		slog.String("model_id", cfg.Upstream.ModelID),
		slog.Int("input_sample_rate", cfg.Audio.InputSampleRate),
		slog.Int("output_sample_rate", cfg.Audio.OutputSampleRate),
		slog.String("voice_id", cfg.Inference.VoiceID),
		slog.String("log_level", cfg.Logging.Level),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Initialize the upstream model client
	upstreamClient, err := upstream.NewClient(ctx, upstream.Config{
		Region:  cfg.Upstream.Region,
		ModelID: cfg.Upstream.ModelID,
	}, logger)
	if err != nil {
		logger.Error("Failed to create upstream client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Upstream client initialized",
		slog.String("region", cfg.Upstream.Region),
		slog.String("model_id", cfg.Upstream.ModelID),
	)

	// Initialize session manager
	sessionMgr := session.NewManager(logger, session.ManagerConfig{
		Opener: upstreamClient,
		SessionOpts: session.Options{
			Logger:  logger,
			Metrics: appMetrics,
			Inference: upstream.InferenceConfiguration{
				MaxTokens:   cfg.Inference.MaxTokens,
				TopP:        cfg.Inference.TopP,
				Temperature: cfg.Inference.Temperature,
			},
			VoiceID:          cfg.Inference.VoiceID,
			SendTimeout:      cfg.Upstream.GetSendTimeoutDuration(),
			CaptureDir:       cfg.Audio.CaptureDir,
			InputSampleRate:  cfg.Audio.InputSampleRate,
			OutputSampleRate: cfg.Audio.OutputSampleRate,
		},
		MaxSessions: cfg.Server.MaxConcurrentSessions,
		IdleTimeout: cfg.Audio.GetSessionTimeoutDuration(),
		OpenTimeout: cfg.Upstream.GetOpenTimeoutDuration(),
		Metrics:     appMetrics,
	})
	logger.Info("Session manager initialized",
		slog.Duration("idle_timeout", cfg.Audio.GetSessionTimeoutDuration()),
	)

	// Initialize and start the combined WebSocket/HTTP server
	httpServer := server.NewHTTPServer(logger, cfg, sessionMgr, appMetrics)
	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("ws_endpoint", fmt.Sprintf("ws://%s:%d/ws/translate", cfg.Server.Address, cfg.Server.Port)),
	)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	// Stop accepting new connections first
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping server", slog.String("error", err.Error()))
	}

	// End live sessions and stop background routines
	activeAtShutdown := sessionMgr.GetActiveSessionCount()
	sessionMgr.Stop()

	logger.Info("Final server statistics",
		slog.Int("sessions_active_at_shutdown", activeAtShutdown),
	)

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
