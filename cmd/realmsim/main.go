// Command realmsim runs the realm turn simulation.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/talgya/mini-realm/internal/config"
	"github.com/talgya/mini-realm/internal/defs"
	"github.com/talgya/mini-realm/internal/logs"
)

var (
	configFile string
	dbPath     string
	serveAddr  string
	turns      int
	seed       int64
	fresh      bool
	quiet      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "realmsim",
		Short: "Turn-based realm economy and population simulation",
		Long: `realmsim advances a set of countries month by month: production,
trade clearing, vassal taxation, population growth and cultural drift.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML config file (default: configs/realm.yml if found)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Minimal output")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation, resuming a saved session when one exists",
		RunE:  runSimulation,
	}
	runCmd.Flags().IntVarP(&turns, "turns", "t", 0, "Turns to run (0 = config value, negative = until interrupted)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Scenario seed (0 = config value)")
	runCmd.Flags().StringVar(&serveAddr, "serve", "", "Serve the read-only HTTP API on this address (overrides config)")
	runCmd.Flags().BoolVar(&fresh, "fresh", false, "Ignore saved state and generate a new scenario")

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the saved session without advancing it",
		RunE:  inspectSaved,
	}

	rootCmd.AddCommand(runCmd, inspectCmd)
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// setup loads config, installs the logger and loads the content set.
func setup(cmd *cobra.Command) (config.Config, *defs.Database, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	if dbPath != "" {
		cfg.Persistence.DBPath = dbPath
	}
	if cmd.Flags().Lookup("turns") != nil && turns != 0 {
		cfg.Sim.Turns = turns
	}
	if seed != 0 {
		cfg.Sim.Seed = seed
	}
	if serveAddr != "" {
		cfg.API.Addr = serveAddr
	}
	if quiet && cfg.Log.Level == "info" {
		cfg.Log.Level = "warn"
	}
	if err := logs.Init("realmsim", cfg.Log); err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}

	content, err := defs.LoadOrDefault(cfg.Sim.DefsFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load content: %w", err)
	}
	return cfg, content, nil
}
