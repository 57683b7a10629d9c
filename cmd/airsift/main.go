// AirSift server — conversational air-quality assistant with proactive
// tool orchestration over external air-quality data providers.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/airsift/airsift/pkg/agent"
	"github.com/airsift/airsift/pkg/api"
	"github.com/airsift/airsift/pkg/cache"
	"github.com/airsift/airsift/pkg/config"
	"github.com/airsift/airsift/pkg/cost"
	"github.com/airsift/airsift/pkg/health"
	"github.com/airsift/airsift/pkg/history"
	"github.com/airsift/airsift/pkg/llm"
	"github.com/airsift/airsift/pkg/orchestrator"
	"github.com/airsift/airsift/pkg/safety"
	"github.com/airsift/airsift/pkg/session"
	"github.com/airsift/airsift/pkg/tokens"
	"github.com/airsift/airsift/pkg/tools"
	"github.com/airsift/airsift/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	slog.Info("Starting AirSift",
		"version", version.GitCommit,
		"http_port", httpPort,
		"config_dir", *configDir)

	ctx := context.Background()

	// 1. Configuration.
	cfg, err := config.Initialize(*configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	// 2. Cache store (memory by default, Redis when configured).
	var store cache.Store
	redisAddr := cfg.Cache.RedisAddr
	if redisAddr == "" {
		redisAddr = os.Getenv("REDIS_ADDR")
	}
	if cfg.Cache.Backend == "redis" || redisAddr != "" {
		redisStore, err := cache.NewRedisStore(ctx, redisAddr)
		if err != nil {
			slog.Error("Failed to connect to Redis", "addr", redisAddr, "error", err)
			os.Exit(1)
		}
		store = redisStore
		slog.Info("Cache backend: redis", "addr", redisAddr)
	} else {
		store = cache.NewMemoryStore(cache.MemoryStoreOptions{
			NamespaceCap:  cfg.Cache.NamespaceCap,
			HardWall:      cfg.Cache.HardWall,
			SweepInterval: cfg.Cache.SweepInterval,
		})
		slog.Info("Cache backend: memory")
	}
	responseCache := cache.New(store)
	defer func() {
		if err := responseCache.Close(); err != nil {
			slog.Error("Error closing cache", "error", err)
		}
	}()

	// 3. Tool registry with the built-in data-provider adapters.
	registry := tools.NewRegistry()
	tools.RegisterBuiltins(registry, tools.ProviderOptions{
		WAQIToken:         os.Getenv(cfg.Tools.WAQITokenEnv),
		AirQoToken:        os.Getenv(cfg.Tools.AirQoTokenEnv),
		SearchEndpoint:    cfg.Tools.SearchEndpoint,
		OpenMeteoEndpoint: cfg.Tools.OpenMeteoEndpoint,
	}, cfg.Tools.Enabled)
	executor := tools.NewExecutor(registry, cfg.Orchestrator.ToolTimeout)
	slog.Info("Tools registered", "tools", registry.Names())

	// 4. LLM provider.
	provider, err := llm.New(cfg.LLM, registry, executor)
	if err != nil {
		slog.Error("Failed to create LLM provider", "error", err)
		os.Exit(1)
	}
	setupCtx, setupCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := provider.Setup(setupCtx); err != nil {
		setupCancel()
		slog.Error("LLM provider setup failed", "backend", cfg.LLM.Backend, "error", err)
		os.Exit(1)
	}
	setupCancel()
	defer func() {
		if err := provider.Cleanup(); err != nil {
			slog.Error("Error cleaning up LLM provider", "error", err)
		}
	}()
	slog.Info("LLM provider ready", "backend", cfg.LLM.Backend, "model", cfg.LLM.Model)

	// 5. Optional PostgreSQL turn archive.
	var archive *history.Store
	if dsn := os.Getenv(cfg.History.DatabaseURLEnv); dsn != "" {
		archive, err = history.NewStore(ctx, dsn, cfg.History)
		if err != nil {
			slog.Error("Failed to connect to history archive", "error", err)
			os.Exit(1)
		}
		defer archive.Close()
	} else {
		slog.Info("History archive disabled", "env", cfg.History.DatabaseURLEnv)
	}

	// 6. Core services and the agent.
	monitor := health.NewMonitor()
	sessions := session.NewManager(cfg.Session)
	defer sessions.Close()

	filter := safety.NewFilter(safety.Options{
		MaxInputBytes:     cfg.Limits.MaxInputBytes,
		HardMaxInputBytes: cfg.Limits.HardMaxInputBytes,
	})

	ag := agent.New(agent.Deps{
		Config:   cfg,
		Filter:   filter,
		Cache:    responseCache,
		Sessions: sessions,
		Counter:  tokens.NewCounter(cfg.LLM.Model),
		Provider: provider,
		Orch:     orchestrator.New(cfg.Orchestrator, executor, monitor),
		Executor: executor,
		Costs:    cost.NewTracker(cfg.Limits),
		Monitor:  monitor,
		Archive:  archive,
	})

	// 7. HTTP server (non-blocking start).
	httpServer := api.NewServer(cfg, ag, archive)
	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(":" + httpPort); err != nil {
			errCh <- err
		}
	}()
	slog.Info("AirSift started")

	// 8. Wait for shutdown signal or server error.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	exitCode := 0
	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
		exitCode = 1
	}

	// 9. Graceful shutdown: drain HTTP first so no new turns start, then
	// the deferred closes stop the sweepers and release the provider.
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		exitCode = 1
	}

	slog.Info("Shutdown complete")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
