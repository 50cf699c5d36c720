package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/macrolens/allergenscan/config"
	"github.com/macrolens/allergenscan/internal/delivery/console"
	"github.com/macrolens/allergenscan/internal/domain"
	"github.com/macrolens/allergenscan/internal/logging"
	"github.com/spf13/cobra"
)

const promptText = "Enter food to search: "

// errReported marks a failure whose message was already written to the output
var errReported = errors.New("report failed")

type reportBuilder interface {
	BuildReport(ctx context.Context, query string) (*domain.Report, error)
}

type builderFactory func(cfg *config.Config, logger *slog.Logger) reportBuilder

// newLookupCommand creates the lookup command reading prompts from in and
// writing reports to out
func newLookupCommand(in io.Reader, out io.Writer, newBuilder builderFactory) *cobra.Command {
	var (
		configPath string
		formatFlag string
	)

	cmd := &cobra.Command{
		Use:   "lookup [food name...]",
		Short: "Look up allergens and macros for a food in USDA FoodData Central",
		Long: "Searches USDA FoodData Central, takes the first match and prints its " +
			"calories, protein, ingredients and detected major allergens.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := console.ParseFormat(formatFlag)
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			if len(args) == 0 {
				if query, err = prompt(in, out); err != nil {
					return err
				}
			}
			if strings.TrimSpace(query) == "" {
				_, err := fmt.Fprintln(out, domain.EmptyQueryHint)
				return err
			}

			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

			renderer := console.NewRenderer(out, format)
			report, err := newBuilder(cfg, logger).BuildReport(cmd.Context(), query)
			if err != nil {
				if rerr := renderer.RenderError(err); rerr != nil {
					return rerr
				}
				return errReported
			}
			return renderer.RenderReport(report)
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", string(console.FormatText), "output format: text, json or yaml")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: search ., ./config, /etc/allergenscan/)")

	return cmd
}

// prompt asks for a food name on in and returns the trimmed answer
func prompt(in io.Reader, out io.Writer) (string, error) {
	if _, err := fmt.Fprint(out, promptText); err != nil {
		return "", err
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read food name: %w", err)
	}
	return strings.TrimSpace(line), nil
}
