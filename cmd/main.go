package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/normalizer/internal/config"
	"github.com/UnknownOlympus/normalizer/internal/geocoding"
	"github.com/UnknownOlympus/normalizer/internal/metrics"
	"github.com/UnknownOlympus/normalizer/internal/repository"
	"github.com/UnknownOlympus/normalizer/internal/service"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

const pushTimeout = 10 * time.Second

// main is the entry point of the application.
func main() {
	// Cancel the run on an interrupt signal; rows already written stay committed.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the normalizer command and its flags.
func newRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "normalizer",
		Short: "Normalize raw addresses through a geocoding service",
		Long: "Fetches address records that were not normalized yet, asks the configured geocoding " +
			"provider for each one and writes the normalized address, coordinates, province and locality back.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath, cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			return run(cmd.Context(), cfg, setupLogger(cfg.Env))
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfgPath, "config", "c", "", "path to a YAML config file (default ./config.yaml)")
	flags.Int("workers", 1, "number of records normalized concurrently")
	flags.Int("limit", 0, "maximum number of records to process, 0 means all")
	flags.Bool("reprocess", false, "normalize records that already have a normalized address")
	flags.Bool("dry-run", false, "log normalized addresses without writing them")
	flags.String("provider", string(geocoding.ProviderTypeGeoref), "geocoding provider: georef, nominatim or google")

	return cmd
}

// run wires the dependencies and performs a single normalization pass.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Create a separate registry for the run metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Initialize the database connection.
	pool, err := repository.NewDatabase(ctx, cfg.Database.DSN())
	if err != nil {
		logger.ErrorContext(ctx, "Failed to connect to DB", "error", err)
		return err
	}
	defer pool.Close()

	repo := repository.NewRepository(pool, cfg.Database.Table, logger)

	geoProvider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.Provider.Type),
		BaseURL:   cfg.Provider.BaseURL,
		APIKey:    cfg.Provider.APIKey,
		RateLimit: cfg.Provider.RateLimit,
		Timeout:   cfg.Provider.Timeout,
		Country:   cfg.Provider.Country,
		Logger:    logger,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create geocoding provider", "error", err)
		return err
	}

	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.Provider.Type, "table", repo.Table())

	normalizer := service.NewNormalizerService(
		logger,
		repo,
		geoProvider,
		cfg.Provider.Type, // Provider name for metrics
		appMetrics,
		service.Options{
			Workers:   cfg.Workers,
			Limit:     cfg.Limit,
			Reprocess: cfg.Reprocess,
			DryRun:    cfg.DryRun,
		},
	)

	_, runErr := normalizer.Run(ctx)

	if cfg.Metrics.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
		defer cancel()

		if err = metrics.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, reg); err != nil {
			logger.ErrorContext(ctx, "Failed to push run metrics", "error", err)
		}
	}

	return runErr
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			tint.NewHandler(os.Stdout, &tint.Options{
				Level:      slog.LevelDebug,
				AddSource:  true,
				TimeFormat: time.TimeOnly,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelWarn,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelError,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
