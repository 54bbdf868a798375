package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting fintrack-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	// The worker records the audit trail in the same SQLite database
	// the API serves from.
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer func() { _ = repo.Close() }()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer func() { _ = amqpClient.Close() }()

	auditWorker := worker.NewAuditWorker(repo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := amqpClient.ConsumeLedgerEvents(gctx, func(msg *amqp.LedgerEventMessage) error {
			return auditWorker.HandleLedgerEvent(gctx, msg)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	logger.Info("Consuming ledger events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker shutdown complete")
}
