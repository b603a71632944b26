// File: cmd/scrape.go
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayushpandey769/feedscraper/internal/browser"
	"github.com/ayushpandey769/feedscraper/internal/linkedin"
	"github.com/ayushpandey769/feedscraper/internal/observability"
	"github.com/ayushpandey769/feedscraper/internal/session"
	"github.com/ayushpandey769/feedscraper/internal/store"
)

var (
	scrapeEmail    string
	scrapePassword string
	scrapeSave     bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run a single scrape from the terminal and print the posts as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape(cmd.Context())
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeEmail, "email", "", "account email (required)")
	scrapeCmd.Flags().StringVar(&scrapePassword, "password", "", "account password (required)")
	scrapeCmd.Flags().BoolVar(&scrapeSave, "save", false, "persist the result to the configured database")
	_ = scrapeCmd.MarkFlagRequired("email")
	_ = scrapeCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(parent context.Context) error {
	logger := observability.GetLogger()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := session.NewRegistry(cfg.Sessions.TTL, cfg.Sessions.SweepInterval, logger)
	defer registry.Close()

	manager := browser.NewManager(ctx, cfg.Browser, cfg.Humanize, logger)
	flow := linkedin.NewFlow(cfg.Scrape, registry, logger)
	collector := linkedin.NewCollector(cfg.Scrape, logger)
	creds := linkedin.Credentials{Email: scrapeEmail, Password: scrapePassword}

	var page linkedin.Page
	page, err := manager.NewPage(ctx)
	if err != nil {
		return fmt.Errorf("opening browser page: %w", err)
	}

	outcome, err := flow.Login(ctx, page, creds)
	if err != nil {
		_ = page.Close()
		return err
	}
	if outcome.State == linkedin.StatePinPending {
		// The registry holds the page while we collect the code here.
		fmt.Fprintf(os.Stderr, "A verification code was sent to %s. Enter it: ", creds.Email)
		reader := bufio.NewReader(os.Stdin)
		code, readErr := reader.ReadString('\n')
		if readErr != nil {
			return fmt.Errorf("reading verification code: %w", readErr)
		}
		page, err = flow.Resume(ctx, creds.Email, strings.TrimSpace(code))
		if err != nil {
			return err
		}
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			logger.Warn("Closing browser page", zap.Error(closeErr))
		}
	}()

	res, err := collector.Collect(ctx, page)
	if err != nil {
		return err
	}

	if scrapeSave {
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
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
		if err := st.SaveScrape(ctx, creds, res); err != nil {
			return err
		}
	}

	out, err := jsoniter.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
