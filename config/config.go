// Package config loads run configuration from file, environment, and
// defaults via viper. Precedence: env > config file > defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/limnoml/oxypred/pkg/errors"
)

// Config describes one modeling run end to end: where the data lives,
// which column is the target, how to split, and where figures go.
type Config struct {
	DataPath       string   `mapstructure:"data_path" yaml:"data_path"`
	IDColumn       string   `mapstructure:"id_column" yaml:"id_column"`
	DateColumn     string   `mapstructure:"date_column" yaml:"date_column"`
	DateFormat     string   `mapstructure:"date_format" yaml:"date_format"`
	TargetColumn   string   `mapstructure:"target_column" yaml:"target_column"`
	FeatureColumns []string `mapstructure:"feature_columns" yaml:"feature_columns"`
	TestSize       float64  `mapstructure:"test_size" yaml:"test_size"`
	Seed           int64    `mapstructure:"seed" yaml:"seed"`
	CVFolds        int      `mapstructure:"cv_folds" yaml:"cv_folds"`
	NEstimators    int      `mapstructure:"n_estimators" yaml:"n_estimators"`
	KNeighbors     int      `mapstructure:"k_neighbors" yaml:"k_neighbors"`
	PlotsDir       string   `mapstructure:"plots_dir" yaml:"plots_dir"`
	LogLevel       string   `mapstructure:"log_level" yaml:"log_level"`
}

// Load reads configuration from cfgFile (optional) with OXYPRED_*
// environment overrides on top of the built-in defaults. Callers
// validate after applying any flag overrides of their own.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OXYPRED")
	v.AutomaticEnv()

	// Every key needs a default so viper registers it; Unmarshal skips
	// env-only values for keys it has never seen.
	v.SetDefault("data_path", "")
	v.SetDefault("id_column", "id")
	v.SetDefault("date_column", "date")
	v.SetDefault("date_format", "02.01.2006")
	v.SetDefault("target_column", "O2")
	v.SetDefault("feature_columns", []string{})
	v.SetDefault("test_size", 0.25)
	v.SetDefault("seed", 42)
	v.SetDefault("cv_folds", 5)
	v.SetDefault("n_estimators", 100)
	v.SetDefault("k_neighbors", 5)
	v.SetDefault("plots_dir", "plots")
	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", cfgFile)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &c, nil
}

// Validate checks the fields a run cannot proceed without.
func (c *Config) Validate() error {
	if c.DataPath == "" {
		return errors.NewValidationError("data_path", "must point at the input CSV", c.DataPath)
	}
	if c.TargetColumn == "" {
		return errors.NewValidationError("target_column", "must name the target column", c.TargetColumn)
	}
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return errors.NewValidationError("test_size", "must be in (0, 1)", c.TestSize)
	}
	if c.CVFolds < 2 {
		return errors.NewValidationError("cv_folds", "must be at least 2", c.CVFolds)
	}
	if c.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", c.NEstimators)
	}
	if c.KNeighbors < 1 {
		return errors.NewValidationError("k_neighbors", "must be at least 1", c.KNeighbors)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.NewValidationError("log_level", "must be debug, info, warn, or error", c.LogLevel)
	}
	if c.DateFormat != "" {
		// Round-trip the layout against itself to catch typos early.
		ref := time.Date(2006, 1, 2, 0, 0, 0, 0, time.UTC)
		if _, err := time.Parse(c.DateFormat, ref.Format(c.DateFormat)); err != nil {
			return errors.NewValidationError("date_format", "not a valid time layout", c.DateFormat)
		}
	}
	return nil
}

// Save writes the configuration to path as YAML.
func Save(c *Config, path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrap(err, fmt.Sprintf("write config %s", path))
	}
	return nil
}
