package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/username/pagbank-analyzer/backend/src/config"
	"github.com/username/pagbank-analyzer/backend/src/database"
	"github.com/username/pagbank-analyzer/backend/src/handlers"
	"github.com/username/pagbank-analyzer/backend/src/logger"
	"github.com/username/pagbank-analyzer/backend/src/model"
	_ "github.com/username/pagbank-analyzer/backend/src/parsers/pagbank"
	"github.com/username/pagbank-analyzer/backend/src/processors"
	"github.com/username/pagbank-analyzer/backend/src/services"
)

func main() {
	config.LoadConfig()
	cfg := config.Cfg
	logger.InitLogger(cfg.LogLevel)

	logger.L.Info("PagBank Analyzer backend server starting...")

	logger.L.Info("Initializing database...", "path", cfg.DatabasePath)
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		stdlog.Fatalf("%v", err)
	}
	defer db.Close()
	if err := database.RunMigrations(db); err != nil {
		stdlog.Fatalf("%v", err)
	}

	store := model.NewStore(db)
	reportCache := services.NewReportCache(cfg.ReportCacheTTL)

	uploadService := services.NewUploadService(store, processors.NewBatchProcessor(store), reportCache)
	machineService := services.NewMachineService(store, processors.NewProfitProcessor(), reportCache)

	router := handlers.NewRouter(handlers.Handlers{
		Upload:      handlers.NewUploadHandler(uploadService, cfg.MaxUploadSizeBytes),
		Fee:         handlers.NewFeeHandler(machineService),
		Transaction: handlers.NewTransactionHandler(machineService),
		Machine:     handlers.NewMachineHandler(machineService),
	}, handlers.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Limiter:        rate.NewLimiter(rate.Every(cfg.RateLimitInterval), cfg.RateLimitBurst),
	})

	serverAddr := ":" + cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.L.Info("Server starting", "address", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			stdlog.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.L.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.L.Error("Graceful shutdown failed", "error", err)
	}
}
