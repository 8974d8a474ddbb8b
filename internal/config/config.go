package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	LogLevel           string `toml:"log_level"`
	LogDir             string `toml:"log_dir"`
	SpoolPath          string `toml:"spool_path"`
	PollIntervalMillis int    `toml:"poll_interval_ms"`
	ExportPath         string `toml:"export_path"`
	ArchivePath        string `toml:"archive_path"`
	WatchdogSeconds    int    `toml:"watchdog_seconds"`
	Color              *bool  `toml:"color"`
}

// UseColor reports whether the terminal presenter should colorize output.
func (c *Config) UseColor() bool {
	return c.Color == nil || *c.Color
}

func baseDir() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "DebugTrail")
}

func Default() *Config {
	dir := baseDir()
	color := true
	return &Config{
		LogLevel:           "info",
		LogDir:             dir,
		SpoolPath:          filepath.Join(dir, "notifications.jsonl"),
		PollIntervalMillis: 250,
		ExportPath:         filepath.Join(dir, "debug_log.txt"),
		ArchivePath:        "",
		WatchdogSeconds:    5,
		Color:              &color,
	}
}

// Load reads the config.toml under the user config dir, writing defaults on first run.
func Load() (*Config, error) {
	dir := baseDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	path := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create config: %w", err)
		}
		defer f.Close()
		if err := toml.NewEncoder(f).Encode(cfg); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
		return cfg, nil
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	// fill defaults where empty
	def := Default()
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.LogDir == "" {
		cfg.LogDir = def.LogDir
	}
	if cfg.SpoolPath == "" {
		cfg.SpoolPath = def.SpoolPath
	}
	if cfg.PollIntervalMillis <= 0 {
		cfg.PollIntervalMillis = def.PollIntervalMillis
	}
	if cfg.ExportPath == "" {
		cfg.ExportPath = def.ExportPath
	}
	if cfg.WatchdogSeconds < 0 {
		cfg.WatchdogSeconds = 0
	}
	if cfg.Color == nil {
		cfg.Color = def.Color
	}
	return &cfg, nil
}
