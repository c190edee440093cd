package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	appName        = "musicplayer"
	configFileName = "config.toml"
	pidFileName    = "daemon.pid"
)

type Config struct {
	ListenAddr    string        `koanf:"listen_addr"`    // daemon TCP address
	InitialVolume int           `koanf:"initial_volume"` // 0-100 (default: 70)
	TickInterval  time.Duration `koanf:"tick_interval"`  // auto-advance check period (default: 500ms)
	QuietWindow   time.Duration `koanf:"quiet_window"`   // no auto-advance after a manual track change (default: 2s)
	RetryBudget   int           `koanf:"retry_budget"`   // candidates tried by next/prev (default: 5)
	IOTimeout     time.Duration `koanf:"io_timeout"`     // per-exchange deadline (default: 5s)
	PIDFile       string        `koanf:"pid_file"`       // empty means $XDG_DATA_HOME/musicplayer/daemon.pid

	Log LogConfig `koanf:"log"`

	// Desktop integration (Linux only, ignored elsewhere)
	MPRIS         bool `koanf:"mpris"`
	Notifications bool `koanf:"notifications"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `koanf:"level"`        // debug, info, warn, error (default: info)
	File       string `koanf:"file"`         // optional rotating JSON log file
	MaxSizeMB  int    `koanf:"max_size_mb"`  // rotate after this size (default: 10)
	MaxBackups int    `koanf:"max_backups"`  // rotated files kept (default: 3)
	MaxAgeDays int    `koanf:"max_age_days"` // rotated files age limit (default: 28)
	Compress   bool   `koanf:"compress"`     // gzip rotated files
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:    "127.0.0.1:12345",
		InitialVolume: 70,
		TickInterval:  500 * time.Millisecond,
		QuietWindow:   2 * time.Second,
		RetryBudget:   5,
		IOTimeout:     5 * time.Second,
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads the config files in priority order on top of the defaults.
// An explicit path, if given, must exist and wins over the others.
func Load(explicit string) (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	if explicit != "" {
		path := expandPath(explicit)
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	if c.ListenAddr == "" {
		return errors.New("listen_addr must not be empty")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.QuietWindow < 0 {
		return fmt.Errorf("quiet_window must not be negative, got %s", c.QuietWindow)
	}
	if c.IOTimeout < 0 {
		return fmt.Errorf("io_timeout must not be negative, got %s", c.IOTimeout)
	}

	c.InitialVolume = max(0, min(c.InitialVolume, 100))
	if c.RetryBudget <= 0 {
		c.RetryBudget = 1
	}

	// Expand ~ in paths
	c.PIDFile = expandPath(c.PIDFile)
	c.Log.File = expandPath(c.Log.File)
	return nil
}

// PIDPath returns the PID file location, creating its directory.
func (c *Config) PIDPath() (string, error) {
	if c.PIDFile != "" {
		return c.PIDFile, nil
	}
	return xdg.DataFile(filepath.Join(appName, pidFileName))
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. $XDG_CONFIG_HOME/musicplayer/config.toml
	paths = append(paths, filepath.Join(xdg.ConfigHome, appName, configFileName))

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, configFileName)

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
