// File: cmd/serve.go
package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ayushpandey769/feedscraper/internal/api"
	"github.com/ayushpandey769/feedscraper/internal/browser"
	"github.com/ayushpandey769/feedscraper/internal/linkedin"
	"github.com/ayushpandey769/feedscraper/internal/observability"
	"github.com/ayushpandey769/feedscraper/internal/service"
	"github.com/ayushpandey769/feedscraper/internal/session"
	"github.com/ayushpandey769/feedscraper/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scraping HTTP API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	logger := observability.GetLogger()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("parsing database url: %w", err)
	}
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	st, err := store.New(ctx, pool, logger)
	if err != nil {
		return err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		return err
	}

	registry := session.NewRegistry(cfg.Sessions.TTL, cfg.Sessions.SweepInterval, logger)
	registry.StartSweeper()
	defer registry.Close()

	manager := browser.NewManager(ctx, cfg.Browser, cfg.Humanize, logger)

	flow := linkedin.NewFlow(cfg.Scrape, registry, logger)
	collector := linkedin.NewCollector(cfg.Scrape, logger)
	svc := service.New(st, flow, collector,
		func(ctx context.Context) (linkedin.Page, error) { return manager.NewPage(ctx) },
		cfg.Scrape, logger)

	server := api.NewServer(cfg.Server, api.NewHandlers(svc, logger), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("Shutdown complete", zap.String("addr", cfg.Server.Addr))
	return nil
}
