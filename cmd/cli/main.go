package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssds/seat-allocation/cmd/cli/commands"
	"github.com/ssds/seat-allocation/internal/config"
	"github.com/ssds/seat-allocation/pkg/db"
	"github.com/ssds/seat-allocation/pkg/metrics"
	"github.com/ssds/seat-allocation/pkg/postgres"
	"github.com/ssds/seat-allocation/pkg/utils/logging"
)

var (
	env     string
	verbose bool
	app     = &commands.AppContext{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Seat allocation CLI - distribute department seats by merit and admission channel",
		Long: `A CLI tool for allocating department seats to students by average,
honouring per-channel quotas and backfilling unused seats.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.AllocateCmd(app))
	rootCmd.AddCommand(commands.ScanCmd(app))
	rootCmd.AddCommand(commands.ListRunsCmd(app))
	rootCmd.AddCommand(commands.ViewRunCmd(app))
	rootCmd.AddCommand(commands.PublishResultsCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		app.Close()
		os.Exit(1)
	}
}

// initApp loads config and sets up the logger, run store and metrics
func initApp() error {
	var err error
	app.Env = env
	app.Ctx = context.Background()

	// Load configuration
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	app.Logger, err = logging.InitLogger(logging.Options{Env: env, Dir: app.Cfg.LogDir, Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))
	app.Logger.Debug("Configuration loaded", zap.String("path", app.Cfg.Path))

	// Initialize run store
	if app.Cfg.DatabaseURL == "" {
		app.Logger.Warn("No databaseURL configured, run history is kept in memory only")
		app.Database = db.NewMemoryStore()
	} else {
		app.Logger.Info("Connecting to database")
		database, err := postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL, app.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.OnClose(database.Close)

		if err := database.RunMigrations(app.Ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		app.Database = database
		app.Logger.Info("Database initialized successfully")
	}

	// Initialize metrics
	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.Recorder, err = metrics.NewPrometheus(app.Registry, "")
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return nil
}
