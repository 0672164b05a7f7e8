package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"SecretSanta/internal/app"
	"SecretSanta/internal/config"
	"SecretSanta/internal/logging"
)

var (
	inputPath string
	preview   bool
	testMode  bool
	noScrape  bool
	logLevel  string
	seed      uint64
)

// rootCmd draws the pairs and sends (or previews) every notification.
var rootCmd = &cobra.Command{
	Use:   "secretsanta",
	Short: "Draw Secret Santa pairs and email every giver",
	Long: `Draw a random single-cycle Secret Santa assignment from the participants in the
input file and email each giver their receiver's wishlist.

Wishlist entries of the form source/CODE are enriched with product details scraped
from the matching scraper definition and cached locally.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSanta,
}

func init() {
	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "", "YAML file with people's info (default input.yaml or $SANTA_CONFIG)")
	rootCmd.Flags().BoolVarP(&preview, "preview", "p", false, "Render everything but print instead of sending")
	rootCmd.Flags().BoolVarP(&testMode, "test", "t", false, "Send emails to test addresses")
	rootCmd.Flags().BoolVar(&noScrape, "no-scrape", false, "Don't scrape product pages")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (error, warn, info, debug)")
	rootCmd.Flags().Uint64Var(&seed, "seed", 0, "Seed the shuffle for a reproducible draw")
}

func runSanta(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(config.Path(inputPath))
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return err
	}
	if noScrape {
		cfg.Scrape.Disabled = true
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger := logging.New(cfg.Logging.Level, cmd.ErrOrStderr()).With("run", uuid.NewString())
	logger.Debug("starting", "preview", preview, "test", testMode, "no_scrape", cfg.Scrape.Disabled)

	opts := app.Options{Preview: preview, Test: testMode, Stdout: cmd.OutOrStdout()}
	if cmd.Flags().Changed("seed") {
		opts.Seed = &seed
	}

	application, err := app.New(ctx, cfg, opts, logger)
	if err != nil {
		logger.Error("application setup failed", "error", err)
		return err
	}
	defer func() {
		if cerr := application.Close(); cerr != nil {
			logger.Warn("close resources", "error", cerr)
		}
	}()

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		return err
	}
	return nil
}
