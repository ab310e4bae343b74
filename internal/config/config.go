// Package config loads terminal configuration and owns the process logger.
//
// Configuration resolves in the usual order: explicit file, then
// environment (PUREFLOW_*), then defaults. The remote URL and key have no
// defaults — a terminal without them runs purely offline and the sync core
// simply never reaches the remote store.
package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds everything the terminal needs to run.
type Config struct {
	// RemoteURL is the base URL of the remote store (the /rest/v1 and
	// /realtime/v1 prefixes are appended per request).
	RemoteURL string `mapstructure:"remote_url"`

	// RemoteKey is the API key sent as both apikey and bearer token.
	RemoteKey string `mapstructure:"remote_key"`

	// StorePath is the local SQLite database file.
	StorePath string `mapstructure:"store_path"`

	// SeedFile is an optional TOML file of initial settings and customers.
	SeedFile string `mapstructure:"seed_file"`

	// DashboardPort serves the websocket dashboard; 0 disables it.
	DashboardPort int `mapstructure:"dashboard_port"`

	// SyncInterval is the cadence of periodic reconciliation while online.
	SyncInterval time.Duration `mapstructure:"sync_interval"`

	// ProbeInterval is the cadence of connectivity probes.
	ProbeInterval time.Duration `mapstructure:"probe_interval"`

	// LogFile enables rotating file logging; empty logs to stderr.
	LogFile    string `mapstructure:"log_file"`
	LogMaxSize int    `mapstructure:"log_max_size_mb"`
	LogBackups int    `mapstructure:"log_backups"`
}

// Load reads configuration from file (if given), environment, and defaults.
func Load(file string) (*Config, error) {
	v := viper.New()

	v.SetDefault("store_path", defaultStorePath())
	v.SetDefault("dashboard_port", 8090)
	v.SetDefault("sync_interval", 2*time.Minute)
	v.SetDefault("probe_interval", 15*time.Second)
	v.SetDefault("log_max_size_mb", 10)
	v.SetDefault("log_backups", 3)

	v.SetEnvPrefix("PUREFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("pureflow")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".pureflow"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// NewLogger builds the process logger. With LogFile set, output goes to a
// size-rotated file so long-running terminals do not fill the disk.
func (c *Config) NewLogger(prefix string) *log.Logger {
	var out io.Writer = os.Stderr
	if c.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    c.LogMaxSize,
			MaxBackups: c.LogBackups,
		}
	}
	return log.New(out, prefix, log.LstdFlags)
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "pureflow.db"
	}
	return filepath.Join(home, ".pureflow", "pureflow.db")
}
