package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/analysis"
	"fintrack/internal/auth"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	apphttp "fintrack/internal/http"
	"fintrack/internal/services"
	"fintrack/internal/storage/memory"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	// Choose data backend (default: sqlite).
	var store services.Store
	var closeStore func() error

	switch cfg.DataBackend {
	case "memory":
		mem := memory.New()
		mem.Seed(core.DefaultCategories())
		store = mem
		logger.Info("Initialized memory backend", "backend", cfg.DataBackend)
	default:
		repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
		store = repo
		closeStore = repo.Close
		logger.Info("Initialized SQLite backend", "backend", cfg.DataBackend, "path", cfg.SQLiteDBPath)
	}

	// AMQP is best-effort: the ledger works without a broker, events
	// are simply not published.
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events disabled", "error", err)
		} else {
			events = client
			defer func() { _ = client.Close() }()
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	categories := services.NewCategoryService(store, store)
	transactions := services.NewTransactionService(store, events)
	engine := analysis.NewEngine(store)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:      ":" + cfg.Port,
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
	}, categories, transactions, engine, verifier)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if closeStore != nil {
			if err := closeStore(); err != nil {
				logger.Error("Store close error", "error", err)
			}
		}
	})

	logger.Info("Starting fintrack server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		return
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
