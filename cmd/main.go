package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/hermes/internal/config"
	"github.com/UnknownOlympus/hermes/internal/dataset"
	"github.com/UnknownOlympus/hermes/internal/dispatcher"
	"github.com/UnknownOlympus/hermes/internal/metrics"
	"github.com/UnknownOlympus/hermes/internal/repository"
	"github.com/UnknownOlympus/hermes/internal/resolver"
	"github.com/UnknownOlympus/hermes/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// Constants for the supported postal code sources.
const (
	sourceFile     = "file"
	sourcePostgres = "postgres"
)

// pushTimeout bounds the metrics delivery after the run.
const pushTimeout = 5 * time.Second

// main is the entry point of the application.
func main() {
	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}

// run wires the components and performs one lookup. Deferred cleanups run
// before a startup error is reported.
func run() error {
	// Create a context that will be canceled when an interrupt signal is received.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for the run metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	source, closeSource, err := setupSource(ctx, cfg, logger, appMetrics)
	if err != nil {
		return err
	}
	defer closeSource()

	addrProvider, err := resolver.NewProvider(resolver.ProviderConfig{
		Type:    resolver.ProviderType(cfg.Provider.Type),
		BaseURL: cfg.Provider.URL,
		APIKey:  cfg.Provider.APIKey,
		Country: cfg.Provider.Country,
		Timeout: cfg.Provider.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create address provider: %w", err)
	}
	logger.InfoContext(ctx, "Address provider initialized", "type", cfg.Provider.Type)

	mode, err := dispatcher.ParseMode(cfg.Dispatch.Mode)
	if err != nil {
		return fmt.Errorf("invalid dispatch mode: %w", err)
	}
	order, err := dispatcher.ParseOrder(cfg.Dispatch.Order)
	if err != nil {
		return fmt.Errorf("invalid result order: %w", err)
	}

	disp := dispatcher.New(
		logger,
		addrProvider,
		cfg.Provider.Type, // Provider name for metrics
		appMetrics,
		dispatcher.WithWorkers(cfg.Dispatch.Workers),
		dispatcher.WithMode(mode),
		dispatcher.WithOrder(order),
	)

	lookup := service.NewLookupService(logger, source, disp, appMetrics, cfg.Dispatch.Deadline)

	logger.InfoContext(ctx, "Application started.", "source", cfg.Source.Type, "deadline", cfg.Dispatch.Deadline)

	if _, err = lookup.Run(ctx); err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	if cfg.PushgatewayURL != "" {
		// The run context may already be cancelled by a signal, metrics are still delivered.
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
		defer cancel()

		if err = metrics.Push(pushCtx, cfg.PushgatewayURL, reg); err != nil {
			logger.ErrorContext(ctx, "Failed to push metrics", "error", err)
		}
	}

	logger.InfoContext(ctx, "Application stopped gracefully.")

	return nil
}

// setupSource builds the postal code source selected in the configuration.
// The returned function releases the resources held by the source.
func setupSource(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	appMetrics *metrics.Metrics,
) (dataset.Source, func(), error) {
	switch cfg.Source.Type {
	case sourceFile:
		fields, err := dataset.ParseFieldMapping(cfg.Source.Fields)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid dataset field mapping: %w", err)
		}
		return dataset.NewFileSource(cfg.Source.Path, fields, logger, appMetrics), func() {}, nil
	case sourcePostgres:
		dtb, err := repository.NewDatabase(
			ctx, cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		repo := repository.NewRepository(dtb, logger)
		return dataset.NewRepositorySource(repo, cfg.Source.Limit, logger), dtb.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported source type: %s", cfg.Source.Type)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
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
				Level:       slog.LevelInfo,
				ReplaceAttr: dropTime,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelWarn,
				ReplaceAttr: dropTime,
			}),
		)

		log.Warn(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}

// dropTime removes the timestamp, the log collector adds its own.
func dropTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}
