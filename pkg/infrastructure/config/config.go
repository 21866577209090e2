package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "MRP"

// Config represents the calculator configuration
type Config struct {
	ScenarioDir        string
	HorizonDays        int
	AlertDays          int
	MaxBOMDepth        int
	ReorderWindowWeeks int
	CalculationTimeout time.Duration
	AsOf               time.Time

	Log     LogConfig
	Results ResultsConfig
	Output  OutputConfig
	Metrics MetricsConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       string
	Environment string
}

// ResultsConfig selects where calculation results are cached. An empty
// DBPath keeps results in memory.
type ResultsConfig struct {
	DBPath string
}

// OutputConfig holds report rendering options
type OutputConfig struct {
	Format string
	Dir    string
}

// MetricsConfig holds metrics-related configuration
type MetricsConfig struct {
	Namespace string
	// Textfile, when set, receives the run metrics in Prometheus text format after each command
	Textfile string
}

// flagKeys maps CLI flag names onto configuration keys
var flagKeys = map[string]string{
	"scenario":     "scenario_dir",
	"horizon":      "horizon_days",
	"alert-days":   "alert_days",
	"max-depth":    "max_bom_depth",
	"window-weeks": "reorder_window_weeks",
	"timeout":      "calculation_timeout",
	"as-of":        "as_of",
	"log-level":    "log.level",
	"results-db":   "results.db_path",
	"format":       "output.format",
	"output":       "output.dir",
	"metrics-file": "metrics.textfile",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scenario_dir", "")
	v.SetDefault("horizon_days", 90)
	v.SetDefault("alert_days", 14)
	v.SetDefault("max_bom_depth", 10)
	v.SetDefault("reorder_window_weeks", 6)
	v.SetDefault("calculation_timeout", "0s")
	v.SetDefault("as_of", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.environment", "development")
	v.SetDefault("results.db_path", "")
	v.SetDefault("output.format", "text")
	v.SetDefault("output.dir", "")
	v.SetDefault("metrics.namespace", "mrp")
	v.SetDefault("metrics.textfile", "")
}

// Options tunes where Load looks for settings
type Options struct {
	// ConfigFile is an optional YAML/TOML/JSON file
	ConfigFile string
	// EnvFiles are loaded with godotenv before the environment is read. Missing files are ignored.
	EnvFiles []string
	// Flags, when set, override every other source for flags the user changed
	Flags *pflag.FlagSet
}

// Load resolves configuration from defaults, config file, MRP_* environment
// variables and command line flags, in increasing precedence.
func Load(opts Options) (*Config, error) {
	// Load environment variables from .env files if they exist
	_ = godotenv.Load(opts.EnvFiles...)

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			flag := opts.Flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	timeout, err := time.ParseDuration(v.GetString("calculation_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid calculation_timeout: %w", err)
	}

	var asOf time.Time
	if raw := strings.TrimSpace(v.GetString("as_of")); raw != "" {
		asOf, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("invalid as_of date %q: %w", raw, err)
		}
	}

	cfg := &Config{
		ScenarioDir:        v.GetString("scenario_dir"),
		HorizonDays:        v.GetInt("horizon_days"),
		AlertDays:          v.GetInt("alert_days"),
		MaxBOMDepth:        v.GetInt("max_bom_depth"),
		ReorderWindowWeeks: v.GetInt("reorder_window_weeks"),
		CalculationTimeout: timeout,
		AsOf:               asOf,
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Environment: v.GetString("log.environment"),
		},
		Results: ResultsConfig{
			DBPath: v.GetString("results.db_path"),
		},
		Output: OutputConfig{
			Format: strings.ToLower(v.GetString("output.format")),
			Dir:    v.GetString("output.dir"),
		},
		Metrics: MetricsConfig{
			Namespace: v.GetString("metrics.namespace"),
			Textfile:  v.GetString("metrics.textfile"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no calculation can run with
func (c *Config) Validate() error {
	var errs []error
	if c.HorizonDays < 0 {
		errs = append(errs, fmt.Errorf("horizon_days cannot be negative, got %d", c.HorizonDays))
	}
	if c.AlertDays < 0 {
		errs = append(errs, fmt.Errorf("alert_days cannot be negative, got %d", c.AlertDays))
	}
	if c.MaxBOMDepth < 1 {
		errs = append(errs, fmt.Errorf("max_bom_depth must be at least 1, got %d", c.MaxBOMDepth))
	}
	if c.ReorderWindowWeeks < 1 {
		errs = append(errs, fmt.Errorf("reorder_window_weeks must be at least 1, got %d", c.ReorderWindowWeeks))
	}
	if c.CalculationTimeout < 0 {
		errs = append(errs, fmt.Errorf("calculation_timeout cannot be negative, got %s", c.CalculationTimeout))
	}
	switch c.Output.Format {
	case "text", "json", "csv":
	default:
		errs = append(errs, fmt.Errorf("unknown output format %q (want text, json or csv)", c.Output.Format))
	}
	return errors.Join(errs...)
}
