package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/macrolens/allergenscan/config"
	"github.com/macrolens/allergenscan/internal/infrastructure/usda"
	"github.com/macrolens/allergenscan/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newLookupCommand(os.Stdin, os.Stdout, newReportService)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}

// newReportService wires the USDA client into a report service
func newReportService(cfg *config.Config, logger *slog.Logger) reportBuilder {
	client := usda.NewClient(cfg.USDA.APIKey, cfg.USDA.BaseURL,
		usda.WithTimeout(cfg.USDA.Timeout),
		usda.WithLogger(logger),
	)
	return usecase.NewReportService(client, usecase.ReportServiceConfig{
		PageSize: cfg.USDA.PageSize,
		Logger:   logger,
	})
}
