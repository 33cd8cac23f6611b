// Package config provides configuration management for mdserve using
// Viper for flexible loading from files, environment variables, and
// command-line flags.
//
// Configuration sources, highest priority first: command-line flags,
// MDSERVE_-prefixed environment variables, and a .mdserve.yml file.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Mode selects the runtime profile. Development disables caching and
// enables the watcher, hub, and reload script injection; production
// runs none of them and caches aggressively.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

type Config struct {
	Server Server `yaml:"server"`
	Dirs   Dirs   `yaml:"dirs"`
	Cache  Cache  `yaml:"cache"`
	Log    Log    `yaml:"log"`
	Mode   string `yaml:"mode"`
}

type Server struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

type Dirs struct {
	Content   string `yaml:"content"`
	Templates string `yaml:"templates"`
	// SiteData points at the optional site.yml metadata file.
	SiteData string `yaml:"site_data" mapstructure:"site_data"`
}

type Cache struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries" mapstructure:"max_entries"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from viper's merged sources, applies
// defaults, and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Dirs.Content == "" {
		cfg.Dirs.Content = "content"
	}
	if cfg.Dirs.Templates == "" {
		cfg.Dirs.Templates = "templates"
	}
	if cfg.Dirs.SiteData == "" {
		cfg.Dirs.SiteData = "site.yml"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = time.Hour
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 1024
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeDevelopment
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.Mode == ModeProduction {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "text"
		}
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Development reports whether the development profile is active.
func (c *Config) Development() bool {
	return c.Mode != ModeProduction
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", cfg.Server.Port)
	}

	if cfg.Server.Host != "" {
		dangerous := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerous {
			if strings.Contains(cfg.Server.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	if cfg.Mode != ModeDevelopment && cfg.Mode != ModeProduction {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeDevelopment, ModeProduction, cfg.Mode)
	}

	for name, dir := range map[string]string{
		"dirs.content":   cfg.Dirs.Content,
		"dirs.templates": cfg.Dirs.Templates,
	} {
		if dir == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
		if strings.Contains(filepath.Clean(dir), "..") {
			return fmt.Errorf("%s contains path traversal: %s", name, dir)
		}
	}

	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl cannot be negative")
	}
	if cfg.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries cannot be negative")
	}

	return nil
}
