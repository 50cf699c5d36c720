package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/macrolens/allergenscan/config"
	httpDelivery "github.com/macrolens/allergenscan/internal/delivery/http"
	"github.com/macrolens/allergenscan/internal/infrastructure/usda"
	"github.com/macrolens/allergenscan/internal/logging"
	"github.com/macrolens/allergenscan/internal/observability"
	"github.com/macrolens/allergenscan/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting AllergenScan backend",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"usda_base_url", cfg.USDA.BaseURL,
		"page_size", cfg.USDA.PageSize,
		"rate_limit_per_ip", cfg.RateLimit.PerIP)

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	// Initialize infrastructure dependencies
	usdaClient := usda.NewClient(cfg.USDA.APIKey, cfg.USDA.BaseURL,
		usda.WithTimeout(cfg.USDA.Timeout),
		usda.WithLogger(logger),
		usda.WithObserver(metrics),
	)

	// Initialize usecase layer
	reportService := usecase.NewReportService(usdaClient, usecase.ReportServiceConfig{
		PageSize: cfg.USDA.PageSize,
		Logger:   logger,
		Recorder: metrics,
	})

	handler := httpDelivery.NewHandler(reportService, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger, metrics.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
