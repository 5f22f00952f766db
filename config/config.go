package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDistribution              = "distribution"
	ConfigCategories                = "categories"
	ConfigInitialCounts             = "initial-counts"
	ConfigDrawSize                  = "draw-size"
	ConfigMaxRounds                 = "max-rounds"
	ConfigInput                     = "input"
	ConfigOutput                    = "output"
	ConfigOutputFormat              = "output-format"
	ConfigClassificationTable       = "classification-table"
	ConfigThreads                   = "threads"
	ConfigCache                     = "cache"
	ConfigDebug                     = "debug"
	ConfigConfigFile                = "config-file"
	ConfigDataPath                  = "data-path"
	ConfigMaterializeMemoryFraction = "materialize-memory-fraction"
	ConfigCPUProfile                = "cpu-profile"
)

const (
	OutputFormatCSV    = "csv"
	OutputFormatSQLite = "sqlite"
)

// Config wraps a viper instance. Values come from (in increasing priority)
// defaults, an optional YAML config file, BAGODDS_* environment variables,
// and command-line flags.
type Config struct {
	*viper.Viper
	args []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(ConfigDistribution, "azul")
	v.SetDefault(ConfigCategories, []string{})
	v.SetDefault(ConfigInitialCounts, []int{})
	v.SetDefault(ConfigDrawSize, 4)
	v.SetDefault(ConfigMaxRounds, 9)
	v.SetDefault(ConfigInput, "")
	v.SetDefault(ConfigOutput, "Statistics-Results.csv")
	v.SetDefault(ConfigOutputFormat, OutputFormatCSV)
	v.SetDefault(ConfigClassificationTable, "")
	v.SetDefault(ConfigThreads, 1)
	v.SetDefault(ConfigCache, true)
	v.SetDefault(ConfigDebug, false)
	v.SetDefault(ConfigDataPath, "./data")
	v.SetDefault(ConfigMaterializeMemoryFraction, 0.25)
	v.SetDefault(ConfigCPUProfile, "")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("BAGODDS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// DefaultConfig returns a config holding only the defaults. It is meant for
// tests and for callers that build their own settings.
func DefaultConfig() Config {
	return Config{Viper: newViper()}
}

func flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("bagodds", pflag.ContinueOnError)
	fs.String(ConfigDistribution, "azul", "named starting distribution (embedded name or path to a color,quantity CSV)")
	fs.StringSlice(ConfigCategories, nil, "category labels; overrides the distribution's labels")
	fs.IntSlice(ConfigInitialCounts, nil, "starting count per category; overrides the distribution's counts")
	fs.Int(ConfigDrawSize, 4, "tiles drawn per round")
	fs.Int(ConfigMaxRounds, 9, "maximum number of rounds to analyze")
	fs.String(ConfigInput, "", "CSV file with one recorded draw per row")
	fs.String(ConfigOutput, "Statistics-Results.csv", "results file")
	fs.String(ConfigOutputFormat, OutputFormatCSV, "results format: csv or sqlite")
	fs.String(ConfigClassificationTable, "", "YAML shape classification table; empty uses the built-in table")
	fs.Int(ConfigThreads, 1, "goroutines used to evaluate a distribution")
	fs.Bool(ConfigCache, true, "cache distributions by population state")
	fs.Bool(ConfigDebug, false, "debug logging")
	fs.String(ConfigConfigFile, "", "optional YAML config file")
	fs.String(ConfigDataPath, "./data", "directory holding distributions and classification tables")
	fs.Float64(ConfigMaterializeMemoryFraction, 0.25, "fraction of system memory an eager draw listing may use")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this path")
	return fs
}

// Load parses args as flags and layers them over the config file,
// environment and defaults.
func (c *Config) Load(args []string) error {
	v := newViper()
	fs := flagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := v.BindPFlags(fs); err != nil {
		return err
	}
	if cf := v.GetString(ConfigConfigFile); cf != "" {
		v.SetConfigFile(cf)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	c.Viper = v
	c.args = fs.Args()
	return c.Validate()
}

// Args returns the positional arguments left over after flag parsing.
// Everything after "--" is positional.
func (c *Config) Args() []string {
	return c.args
}

// Validate checks the invariants the analysis relies on.
func (c *Config) Validate() error {
	var errs []string
	if c.GetInt(ConfigDrawSize) < 0 {
		errs = append(errs, fmt.Sprintf("%s must be non-negative, got %d", ConfigDrawSize, c.GetInt(ConfigDrawSize)))
	}
	if c.GetInt(ConfigMaxRounds) < 1 {
		errs = append(errs, fmt.Sprintf("%s must be at least 1, got %d", ConfigMaxRounds, c.GetInt(ConfigMaxRounds)))
	}
	if c.GetInt(ConfigThreads) < 1 {
		errs = append(errs, fmt.Sprintf("%s must be at least 1, got %d", ConfigThreads, c.GetInt(ConfigThreads)))
	}
	switch c.GetString(ConfigOutputFormat) {
	case OutputFormatCSV, OutputFormatSQLite:
	default:
		errs = append(errs, fmt.Sprintf("%s must be one of [csv, sqlite], got %q", ConfigOutputFormat, c.GetString(ConfigOutputFormat)))
	}
	frac := c.GetFloat64(ConfigMaterializeMemoryFraction)
	if frac <= 0 || frac > 1 {
		errs = append(errs, fmt.Sprintf("%s must be in (0, 1], got %v", ConfigMaterializeMemoryFraction, frac))
	}
	cats := c.GetStringSlice(ConfigCategories)
	counts := c.GetIntSlice(ConfigInitialCounts)
	if len(cats) > 0 && len(counts) > 0 && len(cats) != len(counts) {
		errs = append(errs, fmt.Sprintf("%s has %d entries but %s has %d", ConfigCategories, len(cats), ConfigInitialCounts, len(counts)))
	}
	for _, n := range counts {
		if n < 0 {
			errs = append(errs, fmt.Sprintf("%s must not contain negative counts", ConfigInitialCounts))
			break
		}
	}
	if len(errs) > 0 {
		return errors.New("configuration validation failed: " + strings.Join(errs, "; "))
	}
	return nil
}

// AdjustRelativePaths makes the data path absolute relative to basepath
// when it is not already absolute.
func (c *Config) AdjustRelativePaths(basepath string) {
	dp := c.GetString(ConfigDataPath)
	if !filepath.IsAbs(dp) {
		c.Set(ConfigDataPath, filepath.Join(basepath, dp))
	}
}
