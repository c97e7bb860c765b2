// Command importer moves the tweet collection between JSON settings exports
// and the postgres settings database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/steemit/tweetstore/internal/db"
	"github.com/steemit/tweetstore/internal/models"
	"github.com/steemit/tweetstore/internal/store"
	"github.com/steemit/tweetstore/pkg/config"
	"github.com/steemit/tweetstore/pkg/logging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "importer",
		Short:         "Import and export tweet collections",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the stored tweets with a JSON settings export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(cmd.Context(), func(ctx context.Context, repo *db.SettingsRepository, logger *zap.Logger) error {
				settings, err := models.ReadSettingsFile(args[0])
				if err != nil {
					return err
				}
				report(logger, settings)
				if err := repo.Save(ctx, settings.Tweets); err != nil {
					return err
				}
				logger.Info("Import completed", zap.String("file", args[0]), zap.Int("tweets", len(settings.Tweets)))
				return nil
			})
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the stored tweets to a JSON settings export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(cmd.Context(), func(ctx context.Context, repo *db.SettingsRepository, logger *zap.Logger) error {
				settings, err := repo.Load(ctx)
				if err != nil {
					return err
				}
				if err := models.WriteSettingsFile(args[0], settings); err != nil {
					return err
				}
				logger.Info("Export completed", zap.String("file", args[0]), zap.Int("tweets", len(settings.Tweets)))
				return nil
			})
		},
	}

	countCmd := &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored tweets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(cmd.Context(), func(ctx context.Context, repo *db.SettingsRepository, _ *zap.Logger) error {
				n, err := repo.Count(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}

	rootCmd.AddCommand(importCmd, exportCmd, countCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withRepository loads configuration, initializes logging and opens the
// database for the duration of fn.
func withRepository(ctx context.Context, fn func(context.Context, *db.SettingsRepository, *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logging.GetLogger().Sync()

	database, err := db.New(ctx, &cfg.Database, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer database.Close()

	return fn(ctx, db.NewSettingsRepository(database.DB), logging.WithComponent("importer"))
}

// report logs the shape of a collection before it is written
func report(logger *zap.Logger, settings *models.Settings) {
	s := store.New(settings)
	var replies, quotes int
	for _, p := range s.Posts() {
		if p.IsReply() {
			replies++
		}
		if p.IsQuote() {
			quotes++
		}
	}
	logger.Info("Read settings export",
		zap.Int("tweets", s.Len()),
		zap.Int("replies", replies),
		zap.Int("quotes", quotes))
}
