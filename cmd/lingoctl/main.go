// Command lingoctl runs maintenance tasks against the LingoLeap database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lingoleap/api/internal/app"
	"github.com/lingoleap/api/internal/config"
	"github.com/lingoleap/api/internal/database"
	"github.com/lingoleap/api/internal/logging"
	"github.com/lingoleap/api/internal/progress"
	"github.com/lingoleap/api/internal/seed"
)

var (
	cfg    *config.Config
	logger *zap.Logger

	catalogPath string
	dryRun      bool
	languages   []string
)

var rootCmd = &cobra.Command{
	Use:           "lingoctl",
	Short:         "Maintenance commands for the LingoLeap API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		cfg = config.Load()

		var err error
		logger, err = logging.New(logging.Options{Level: cfg.LogLevel, Production: cfg.IsProduction()})
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the achievement catalog from YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(catalogPath)
		if err != nil {
			return err
		}
		defer f.Close()

		catalog, err := seed.LoadCatalog(f)
		if err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		n, err := seed.Apply(cmd.Context(), db, catalog)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d achievements from %s\n", n, catalogPath)
		return nil
	},
}

var streaksCmd = &cobra.Command{
	Use:   "streaks",
	Short: "Recompute every user's streak from the visit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}

		tracker := progress.NewTracker(db, nil, cfg.Location(), logger)
		changes, err := tracker.RecomputeStreaks(cmd.Context(), dryRun)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, c := range changes {
			fmt.Fprintf(out, "%-24s %3d -> %3d\n", c.Username, c.Before, c.After)
		}
		verb := "updated"
		if dryRun {
			verb = "would update"
		}
		fmt.Fprintf(out, "%s %d users\n", verb, len(changes))
		return nil
	},
}

var dailyWordCmd = &cobra.Command{
	Use:   "daily-word",
	Short: "Generate today's word for the given languages now",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(languages) == 0 {
			languages = cfg.DailyWordLanguages
		}

		a, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Words.Prepare(cmd.Context(), languages); err != nil {
			return err
		}
		for _, code := range languages {
			w, err := a.Words.Today(cmd.Context(), code)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s (%s)\n", w.Day, w.Language, w.Word, w.Translation)
		}
		return nil
	},
}

func openDB() (*gorm.DB, error) {
	db, err := database.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func init() {
	seedCmd.Flags().StringVarP(&catalogPath, "file", "f", "data/achievements.yaml", "achievement catalog")
	streaksCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report changes without writing them")
	dailyWordCmd.Flags().StringSliceVarP(&languages, "language", "l", nil, "language codes (default DAILY_WORD_LANGUAGES)")

	rootCmd.AddCommand(seedCmd, streaksCmd, dailyWordCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
