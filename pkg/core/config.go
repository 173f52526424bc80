// pkg/core/config.go
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// State backends
const (
	StateFile   = "file"
	StateSQLite = "sqlite"
)

// Config holds nouzen configuration
type Config struct {
	Prefix       string        `yaml:"prefix" env:"NOUZEN_PREFIX"`
	CachePath    string        `yaml:"cache_path" env:"NOUZEN_CACHE"`
	SourcesFile  string        `yaml:"sources" env:"NOUZEN_SOURCES"`
	Concurrency  int           `yaml:"concurrency" env:"NOUZEN_CONCURRENCY" env-default:"4"`
	PerHost      int           `yaml:"per_host" env:"NOUZEN_PER_HOST" env-default:"4"`
	Retries      int           `yaml:"retries" env:"NOUZEN_RETRIES" env-default:"8"`
	Timeout      time.Duration `yaml:"timeout" env:"NOUZEN_TIMEOUT" env-default:"2m"`
	IndexTTL     time.Duration `yaml:"index_ttl" env:"NOUZEN_INDEX_TTL" env-default:"30m"`
	StateBackend string        `yaml:"state_backend" env:"NOUZEN_STATE" env-default:"file"`
	KeepArchives bool          `yaml:"keep_archives" env:"NOUZEN_KEEP_ARCHIVES"`
	AssumeYes    bool          `yaml:"assume_yes" env:"NOUZEN_ASSUME_YES"`
	Debug        bool          `yaml:"debug" env:"NOUZEN_DEBUG"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	cfg := &Config{
		Concurrency:  4,
		PerHost:      4,
		Retries:      8,
		Timeout:      2 * time.Minute,
		IndexTTL:     30 * time.Minute,
		StateBackend: StateFile,
	}
	cfg.fillPaths()
	return cfg
}

// DefaultConfigPath returns ~/.config/nouzen/config.yaml
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "nouzen", "config.yaml")
}

// LoadConfig loads configuration from file, then applies NOUZEN_* environment overrides
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	var cfg Config
	if _, err := os.Stat(path); path != "" && err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg.fillPaths()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
		if path == "" {
			return fmt.Errorf("no config path available")
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.PerHost < 1 {
		return fmt.Errorf("per_host must be at least 1, got %d", c.PerHost)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", c.Retries)
	}
	switch c.StateBackend {
	case StateFile, StateSQLite:
	default:
		return fmt.Errorf("unknown state backend %q", c.StateBackend)
	}
	return nil
}

// StatePath returns the directory holding install metadata under the prefix
func (c *Config) StatePath() string {
	return filepath.Join(c.Prefix, "var", "lib", "nouzen")
}

func (c *Config) fillPaths() {
	home, err := os.UserHomeDir()
	if c.Prefix == "" {
		if err != nil {
			c.Prefix = "/usr/local"
		} else {
			c.Prefix = filepath.Join(home, ".nouzen")
		}
	}
	if c.CachePath == "" {
		if err != nil {
			c.CachePath = filepath.Join(os.TempDir(), "nouzen")
		} else {
			c.CachePath = filepath.Join(home, ".cache", "nouzen")
		}
	}
	if c.SourcesFile == "" {
		if err != nil {
			c.SourcesFile = filepath.Join(c.Prefix, "etc", "nouzen", "sources.toml")
		} else {
			c.SourcesFile = filepath.Join(home, ".config", "nouzen", "sources.toml")
		}
	}
}
