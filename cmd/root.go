// Package cmd defines the CLI commands for the ffa-scraper executable.
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/athledata/ffa-scraper/internal/config"
	"github.com/athledata/ffa-scraper/internal/fetch"
	"github.com/athledata/ffa-scraper/internal/logging"
	"github.com/athledata/ffa-scraper/internal/metrics"
	"github.com/athledata/ffa-scraper/internal/pipeline"
	"github.com/athledata/ffa-scraper/internal/schedule"
	"github.com/athledata/ffa-scraper/internal/storage"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ffa-scraper",
		Short: "Scrapes the French athletics federation registries",
		Long: `ffa-scraper harvests the public club and athlete registries of
bases.athle.fr into a relational store, skipping already-known athletes and
merging newly discovered attributes over existing rows.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.AddCommand(newAthletesCmd())
	cmd.AddCommand(newClubsCmd())
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles the wired subsystems shared by the subcommands.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	store    *storage.Store
	pipeline *pipeline.Pipeline
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("store close failed", zap.Error(err))
	}
	_ = a.logger.Sync() //nolint:errcheck // best-effort flush
}

// buildApp loads configuration and wires logger, store, fetcher, enricher
// and pipeline.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	db, err := storage.Open(ctx, cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := storage.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	store := storage.New(db, logger)

	fetcher := fetch.New(fetch.Config{
		UserAgent:  cfg.Scrape.UserAgent,
		Timeout:    cfg.Timeout(),
		MaxRetries: cfg.HTTP.MaxRetries,
		RetryDelay: cfg.RetryDelay(),
	}, logger)

	enricher := schedule.New(fetcher, store, schedule.Config{
		Workers: cfg.Scrape.Concurrency,
	}, logger)

	p := pipeline.New(fetcher, enricher, store, pipeline.Config{
		FirstYear: cfg.Scrape.FirstYear,
		LastYear:  cfg.Scrape.LastYear,
		ClubID:    cfg.Scrape.ClubID,
	}, logger)

	return &app{cfg: cfg, logger: logger, store: store, pipeline: p}, nil
}

// signalContext cancels on SIGINT/SIGTERM so in-flight fetches drain and
// open transactions resolve before exit.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// newMetricsServer builds the Prometheus/health listener with bounded
// request timeouts.
func newMetricsServer(port int) *http.Server {
	router := chi.NewRouter()
	router.Handle("/metrics", metrics.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// serveMetrics starts the Prometheus listener when enabled.
func serveMetrics(a *app) {
	if !a.cfg.Metrics.Enabled {
		return
	}
	srv := newMetricsServer(a.cfg.Metrics.Port)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			a.logger.Warn("metrics listener stopped", zap.Error(err))
		}
	}()
	a.logger.Info("metrics listener started", zap.String("addr", srv.Addr))
}
