package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"nummus/internal/amqp"
	"nummus/internal/config"
	"nummus/internal/importer/google"
	applog "nummus/internal/log"
	"nummus/internal/services"
	"nummus/internal/storage"
	"nummus/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP broker", "error", err, "exchange", cfg.AMQPExchange)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	consumer := worker.NewImportWorker(services.NewImportService(repo), client)

	var poller *worker.Poller
	if cfg.SheetsConfigured() {
		source, err := google.NewClient(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName,
			cfg.GoogleCredentialsFile, cfg.GoogleCredentialsJSON)
		if err != nil {
			logger.Error("Failed to initialize spreadsheet source", "error", err)
			os.Exit(1)
		}
		poller = worker.NewPoller(source, client, cfg.ImportBatchSize, cfg.ImportInterval)
		logger.Info("Spreadsheet polling enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName,
			"interval", cfg.ImportInterval.String())
	} else {
		logger.Info("No spreadsheet source configured, consuming queue only")
	}

	logger.Info("Starting import worker", "queue", cfg.AMQPQueue)
	if err := worker.Run(ctx, consumer, poller); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
