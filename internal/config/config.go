// Package config loads clausegen.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the parsed clausegen.yaml.
//
// Example:
//
//	format: datalog
//	color: never
//	log:
//	  level: debug
//	cache:
//	  path: .clausegen/dumps.db
//	serve:
//	  addr: 127.0.0.1:7437
//	  metrics_addr: 127.0.0.1:9464
type Config struct {
	Format string      `yaml:"format,omitempty"`
	Color  string      `yaml:"color,omitempty"`
	Log    LogConfig   `yaml:"log,omitempty"`
	Cache  CacheConfig `yaml:"cache,omitempty"`
	Serve  ServeConfig `yaml:"serve,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

// CacheConfig locates the rendered dump cache. An empty path disables it.
type CacheConfig struct {
	Path string `yaml:"path,omitempty"`
}

type ServeConfig struct {
	Addr        string `yaml:"addr,omitempty"`
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses config data. path is used in error messages and to
// resolve a relative cache path.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if cfg.Cache.Path != "" && !filepath.IsAbs(cfg.Cache.Path) {
		cfg.Cache.Path = filepath.Join(filepath.Dir(path), cfg.Cache.Path)
	}
	return &cfg, nil
}

// FindConfig walks up from dir looking for a config file. It returns ""
// when none exists.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Discover loads the config found from dir, or the defaults.
func Discover(dir string) (*Config, string, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return Default(), "", nil
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func (c *Config) validate(path string) error {
	switch c.Format {
	case "", FormatText, FormatDatalog:
	default:
		return fmt.Errorf("%s: format %q: expected %s or %s", path, c.Format, FormatText, FormatDatalog)
	}
	switch c.Color {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%s: color %q: expected %s, %s or %s", path, c.Color, ColorAuto, ColorAlways, ColorNever)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%s: log.level %q: expected debug, info, warn or error", path, c.Log.Level)
	}
	if c.Serve.MetricsAddr != "" && c.Serve.MetricsAddr == c.Serve.Addr {
		return fmt.Errorf("%s: serve.metrics_addr must differ from serve.addr", path)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.Color == "" {
		c.Color = DefaultColor
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
}
