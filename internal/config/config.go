package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultLedgerPath is where the run ledger lives, relative to the project
// home, unless ledger_path says otherwise.
const DefaultLedgerPath = ".mapforge/ledger.db"

// Config holds all runtime configuration for a mapforge invocation.
// Values are populated from .mapforge.yaml, MAPFORGE_* env vars, and CLI flags.
type Config struct {
	Project       string `mapstructure:"project"`
	LedgerPath    string `mapstructure:"ledger_path"`
	TelemetryPath string `mapstructure:"telemetry_path"`
	LedgerLimit   int    `mapstructure:"ledger_limit"`
	Verbose       bool   `mapstructure:"verbose"`
	Indent        bool   `mapstructure:"indent"`
	NoLedger      bool   `mapstructure:"no_ledger"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("project", ".")
	viper.SetDefault("ledger_path", DefaultLedgerPath)
	viper.SetDefault("telemetry_path", "")
	viper.SetDefault("ledger_limit", 20)
	viper.SetDefault("verbose", false)
	viper.SetDefault("indent", true)
	viper.SetDefault("no_ledger", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// LedgerFile resolves the ledger path against the project home. Absolute
// paths are returned unchanged.
func (c Config) LedgerFile(home string) string {
	return resolve(home, c.LedgerPath)
}

// TelemetryFile resolves the telemetry path against the project home, or
// returns "" when telemetry is disabled.
func (c Config) TelemetryFile(home string) string {
	if c.TelemetryPath == "" {
		return ""
	}
	return resolve(home, c.TelemetryPath)
}

func resolve(home, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(home, path)
}
