package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/cmd/cli/commands"
	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/core/services"
	"github.com/jakechorley/duty-roster/pkg/db"
	"github.com/jakechorley/duty-roster/pkg/postgres"
	"github.com/jakechorley/duty-roster/pkg/sqlite"
	"github.com/jakechorley/duty-roster/pkg/utils/logging"
)

var (
	env     string
	app     = &commands.AppContext{}
	closeDB io.Closer
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "duty-roster",
		Short: "Duty roster CLI - Allocate duty posts across units and staff",
		Long:  `A CLI tool for splitting duty posts between units, assigning people, replacing absences and reconciling hours against monthly norms.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if closeDB != nil {
				closeDB.Close()
			}
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	// Add persistent environment flag
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.BuildUnitsCmd(app))
	rootCmd.AddCommand(commands.AssignStaffCmd(app))
	rootCmd.AddCommand(commands.ReplaceAbsencesCmd(app))
	rootCmd.AddCommand(commands.AuditRosterCmd(app))
	rootCmd.AddCommand(commands.ReconcileCmd(app))
	rootCmd.AddCommand(commands.ExportRosterCmd(app))
	rootCmd.AddCommand(commands.PublishRosterCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, input workbooks and database
func initApp() error {
	var err error
	app.Env = env
	app.Ctx = context.Background()

	// Environment specific values win because godotenv never overrides
	_ = godotenv.Load(".env." + env)
	_ = godotenv.Load()

	// Initialize logger
	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	// Load staff and leave workbooks
	app.Inputs, err = services.LoadInputs(app.Cfg, app.Logger)
	if err != nil {
		return err
	}

	// Initialize database
	app.Logger.Info("Connecting to database", zap.String("driver", app.Cfg.Storage.Driver))
	database, closer, err := openDatabase(app.Ctx, app.Cfg.Storage, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.Database = database
	closeDB = closer
	app.Logger.Info("Database initialized successfully")

	return nil
}

// openDatabase connects to the configured backend and brings its schema up to date
func openDatabase(ctx context.Context, storage config.StorageConfig, logger *zap.Logger) (db.Database, io.Closer, error) {
	switch storage.Driver {
	case "postgres":
		pg, err := postgres.NewDB(ctx, storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("Running migrations")
		if err := pg.RunMigrations(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, pg, nil
	case "sqlite":
		lite, err := sqlite.New(storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		return lite, lite, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", storage.Driver)
	}
}
