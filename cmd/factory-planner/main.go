// Factory production planner CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rcarv/factory-planner/internal/config"
	"github.com/rcarv/factory-planner/internal/db"
	"github.com/rcarv/factory-planner/internal/lp"
	"github.com/rcarv/factory-planner/internal/planner"
	"github.com/rcarv/factory-planner/internal/render"
	"github.com/rcarv/factory-planner/internal/server"
	"github.com/rcarv/factory-planner/internal/sync"
	"github.com/rcarv/factory-planner/pkg/factory"
)

var (
	flagConfig  string
	flagDBPath  string
	flagData    string
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:           "factory-planner",
		Short:         "Cost-minimal production planning for quality crafting",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	root.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to SQLite catalog database")
	root.PersistentFlags().StringVar(&flagData, "data", "", "Path to game-data JSON dump")
	root.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")

	root.AddCommand(solveCommand(), serveCommand(), importCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig merges the config file with command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDBPath != "" {
		cfg.DBPath = flagDBPath
	}
	if flagData != "" {
		cfg.DataFile = flagData
	}
	if flagVerbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// loadGameData prefers the raw JSON dump when one is configured, falling
// back to the SQLite catalog.
func loadGameData(ctx context.Context, cfg *config.Config) (*factory.GameData, error) {
	if cfg.DataFile != "" {
		raw, err := os.ReadFile(cfg.DataFile)
		if err != nil {
			return nil, fmt.Errorf("reading game data: %w", err)
		}
		var data factory.GameData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("parsing game data: %w", err)
		}
		return &data, nil
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = database.Close() }()

	return sync.NewSyncer(database).LoadGameData(ctx)
}

func solveCommand() *cobra.Command {
	var (
		planPath  string
		csvPath   string
		chartPath string
	)

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a production plan and print the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx, cancel := signalContext()
			defer cancel()

			raw, err := os.ReadFile(planPath)
			if err != nil {
				return fmt.Errorf("reading plan: %w", err)
			}
			var req factory.SolveRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return fmt.Errorf("parsing plan: %w", err)
			}

			data, err := loadGameData(ctx, cfg)
			if err != nil {
				return err
			}

			pl := planner.New(lp.NewSimplex(), logger)
			report, err := pl.Solve(&req, data)
			if err != nil {
				return err
			}

			names := render.NewNames(data)
			render.Print(cmd.OutOrStdout(), report, names, cfg.Verbose)
			if report.Solved {
				if err := render.WriteTable(cmd.OutOrStdout(), report, names); err != nil {
					return err
				}
			}

			if csvPath != "" {
				if err := writeFile(csvPath, func(f *os.File) error {
					return render.WriteCSV(f, report, names)
				}); err != nil {
					return err
				}
				logger.Info("wrote CSV", "path", csvPath)
			}
			if chartPath != "" {
				if err := writeFile(chartPath, func(f *os.File) error {
					return render.WriteFlowChartHTML(f, report, names)
				}); err != nil {
					return err
				}
				logger.Info("wrote flow chart", "path", chartPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&planPath, "plan", "", "Path to solve request JSON")
	cmd.Flags().StringVar(&csvPath, "output-csv", "", "Write the crafting plan as CSV")
	cmd.Flags().StringVar(&chartPath, "output-flow-chart", "", "Write the plan as a Mermaid flow chart HTML page")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}

func serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP planning API",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}
			logger := newLogger(cfg)

			ctx, cancel := signalContext()
			defer cancel()

			data, err := loadGameData(ctx, cfg)
			if err != nil {
				return err
			}

			pl := planner.New(lp.NewSimplex(), logger)
			srv := server.New(pl, data, logger)
			if err := srv.ListenAndServe(ctx, cfg.ListenAddr); err != nil && ctx.Err() == nil {
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")

	return cmd
}

func importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Import a game-data JSON dump into the catalog database",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DataFile == "" {
				return fmt.Errorf("import requires --data")
			}
			logger := newLogger(cfg)

			ctx, cancel := signalContext()
			defer cancel()

			database, err := db.OpenAndInit(ctx, cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			logger.Info("importing game data", "file", cfg.DataFile, "db", cfg.DBPath)
			if err := sync.NewSyncer(database).ImportFromFile(ctx, cfg.DataFile); err != nil {
				return err
			}
			logger.Info("game data imported successfully")
			return nil
		},
	}
}

func writeFile(path string, fn func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
