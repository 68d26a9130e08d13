package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"nummus/internal/cache"
	"nummus/internal/config"
	apphttp "nummus/internal/http"
	applog "nummus/internal/log"
	"nummus/internal/services"
	"nummus/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
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

	manager := cache.NewManager()
	manager.StartCleanup(time.Minute)

	svcs := apphttp.Services{
		Accounts:     services.NewAccountService(repo),
		Transactions: services.NewTransactionService(repo),
		Categories:   services.NewCategoryService(repo),
		Assets:       services.NewAssetService(repo),
		Budget:       services.NewBudgetService(repo),
		Reports:      services.NewReportService(repo, manager),
	}

	srv := apphttp.NewServer(":"+cfg.Port, svcs, cfg.EmergencyFundMonths)
	requestID := applog.RequestIDMiddleware(func(r *http.Request) string {
		return r.Header.Get("X-Request-Id")
	})
	srv.Handler = applog.Middleware(logger.WithComponent(applog.ComponentHTTP))(requestID(srv.Handler))
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		manager.Stop()
		cancel()
	}()

	logger.Info("Starting nummus server", "port", cfg.Port, "db_path", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
