// Package config loads CLI settings from a config file, the environment and
// built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dshills/nipscore/internal/scoring"
)

// EnvPrefix prefixes every environment override, e.g. NIPSCORE_LOG_LEVEL.
const EnvPrefix = "NIPSCORE"

// Config is the resolved CLI configuration.
type Config struct {
	Catalog    string     `mapstructure:"catalog"`
	DB         string     `mapstructure:"db"`
	Log        Log        `mapstructure:"log"`
	Report     Report     `mapstructure:"report"`
	Batch      Batch      `mapstructure:"batch"`
	Thresholds Thresholds `mapstructure:"thresholds"`

	// File is the config file that was read, or empty when none was found.
	File string
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Report struct {
	TopN   int    `mapstructure:"top_n"`
	Format string `mapstructure:"format"`
}

type Batch struct {
	Workers int `mapstructure:"workers"`
}

// Thresholds overrides the severity bands and the priority cut-off.
type Thresholds struct {
	Severity []scoring.Band `mapstructure:"severity"`
	Priority int            `mapstructure:"priority"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog", "builtin:nip-core")
	v.SetDefault("db", "nipscore.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("report.top_n", scoring.DefaultTopN)
	v.SetDefault("report.format", "json")

	v.SetDefault("batch.workers", 4)

	v.SetDefault("thresholds.priority", scoring.PriorityBands.Bands[0].Min)
}

// Load reads configuration. An explicit path must exist; otherwise
// nipscore.yaml is looked up in the working directory and then in
// $HOME/.config/nipscore, and a missing file leaves the defaults in place.
// A .env file in the working directory is loaded first; it never overrides
// variables already set in the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("nipscore")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "nipscore"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Validate checks value ranges and the threshold tables.
func (c *Config) Validate() error {
	if c.Catalog == "" {
		return errors.New("catalog is required")
	}
	if c.Report.TopN < 0 {
		return fmt.Errorf("report.top_n must be >= 0, got %d", c.Report.TopN)
	}
	switch c.Report.Format {
	case "json", "md", "coach", "table":
	default:
		return fmt.Errorf("report.format must be one of json, md, coach, table; got %q", c.Report.Format)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be >= 1, got %d", c.Batch.Workers)
	}
	if _, err := c.SeverityBands(); err != nil {
		return err
	}
	if _, err := c.PriorityBands(); err != nil {
		return err
	}
	return nil
}

// SeverityBands returns the configured severity table, or
// scoring.SeverityBands when none is configured.
func (c *Config) SeverityBands() (scoring.BandTable, error) {
	if len(c.Thresholds.Severity) == 0 {
		return scoring.SeverityBands, nil
	}
	t := scoring.BandTable{Name: "severity", Bands: append([]scoring.Band(nil), c.Thresholds.Severity...)}
	if err := t.Validate(); err != nil {
		return scoring.BandTable{}, fmt.Errorf("thresholds.severity: %w", err)
	}
	return t, nil
}

// PriorityBands returns the two-band priority table at the configured cut-off.
func (c *Config) PriorityBands() (scoring.BandTable, error) {
	p := c.Thresholds.Priority
	if p <= 0 || p > 100 {
		return scoring.BandTable{}, fmt.Errorf("thresholds.priority must be in (0,100], got %d", p)
	}
	return scoring.NewPriorityBands(p), nil
}
