// Package cmd wires the command-line surface: a root command with
// shared configuration flags and the run/eda subcommands.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/limnoml/oxypred/config"
	"github.com/limnoml/oxypred/pkg/log"
)

var (
	cfgFile      string
	flagData     string
	flagTarget   string
	flagPlotsDir string
	flagLogLevel string
	flagSeed     int64
)

var rootCmd = &cobra.Command{
	Use:   "oxypred",
	Short: "Dissolved-oxygen modeling over river water-quality measurements",
	Long: `oxypred loads river water-quality CSV data, summarizes it, and trains
Random Forest and KNN regressors to predict dissolved oxygen from the
remaining measurements and date-derived features.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. Failures are logged and exit non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", log.ErrAttr(err))
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (YAML)")
	f.StringVar(&flagData, "data", "", "input CSV path (overrides config)")
	f.StringVar(&flagTarget, "target", "", "target column (overrides config)")
	f.StringVar(&flagPlotsDir, "plots-dir", "", "directory for PNG figures (overrides config)")
	f.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	f.Int64Var(&flagSeed, "seed", 0, "random seed (overrides config)")
}

// loadConfig merges the config file, environment, and any flags the
// user set, then installs the logger at the configured level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	f := rootCmd.PersistentFlags()
	if f.Changed("data") {
		cfg.DataPath = flagData
	}
	if f.Changed("target") {
		cfg.TargetColumn = flagTarget
	}
	if f.Changed("plots-dir") {
		cfg.PlotsDir = flagPlotsDir
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if f.Changed("seed") {
		cfg.Seed = flagSeed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if level == "" {
		level = "info"
	}
	log.SetupLogger(level)
	return cfg, nil
}
