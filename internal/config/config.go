// Package config loads client settings from .env, the environment and CLI flags using Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable (ACADEMY_API_URL, ...)
const EnvPrefix = "ACADEMY"

// Config holds the console's settings.
type Config struct {
	// APIURL is the admin API base URL (e.g. http://localhost:5001).
	APIURL string `mapstructure:"api_url"`
	// StatePath is the DuckDB file holding the operator session.
	StatePath string `mapstructure:"state_path"`
	// Timeout bounds each API request.
	Timeout time.Duration `mapstructure:"timeout"`
	// PageLimit is the page size of every list screen.
	PageLimit int `mapstructure:"page_limit"`
	// LogFile receives request logs; empty discards them.
	LogFile string `mapstructure:"log_file"`
	// Debug also logs to the log file when it is unset.
	Debug bool `mapstructure:"debug"`
}

// DefaultStatePath returns <UserConfigDir>/academy-admin/state.duckdb, falling
// back to the working directory when no config dir is known
func DefaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "academy-admin-state.duckdb"
	}
	return filepath.Join(dir, "academy-admin", "state.duckdb")
}

// Load reads .env (if present), then builds and validates Config from the
// environment and the given flags. Flags that were set win over the environment.
// flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_url", "http://localhost:5001")
	v.SetDefault("state_path", DefaultStatePath())
	v.SetDefault("timeout", "30s")
	v.SetDefault("page_limit", 20)
	v.SetDefault("log_file", "")
	v.SetDefault("debug", false)

	if flags != nil {
		for _, key := range []string{"api-url", "state-path", "timeout", "page-limit", "log-file", "debug"} {
			if f := flags.Lookup(key); f != nil {
				if err := v.BindPFlag(strings.ReplaceAll(key, "-", "_"), f); err != nil {
					return nil, fmt.Errorf("config: bind %s: %w", key, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: ACADEMY_API_URL must be an http(s) URL, got %q", c.APIURL)
	}
	if c.StatePath == "" {
		return errors.New("config: ACADEMY_STATE_PATH must be set")
	}
	if c.Timeout <= 0 {
		return errors.New("config: ACADEMY_TIMEOUT must be positive")
	}
	if c.PageLimit <= 0 {
		return errors.New("config: ACADEMY_PAGE_LIMIT must be positive")
	}
	return nil
}
