// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures every service knob loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Sources    SourcesConfig    `mapstructure:"sources"`
	Store      StoreConfig      `mapstructure:"store"`
	AutoUpdate AutoUpdateConfig `mapstructure:"autoupdate"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig controls the HTTP control API.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// SourcesConfig holds the per-site crawl settings.
type SourcesConfig struct {
	VolleyMSK SourceConfig `mapstructure:"volleymsk"`
	BCL       SourceConfig `mapstructure:"bcl"`
}

// SourceConfig tunes one site. DelayMs is the minimum spacing between
// consecutive requests to the site.
type SourceConfig struct {
	BaseURL                string `mapstructure:"base_url"`
	DelayMs                int    `mapstructure:"delay_ms"`
	TimeoutSeconds         int    `mapstructure:"timeout_seconds"`
	Encoding               string `mapstructure:"encoding"`
	UserAgent              string `mapstructure:"user_agent"`
	EmptyThreshold         int    `mapstructure:"empty_threshold"`
	SystemicErrorThreshold int    `mapstructure:"systemic_error_threshold"`
}

// Delay converts DelayMs.
func (c SourceConfig) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

// Timeout converts TimeoutSeconds.
func (c SourceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Provider string `mapstructure:"provider"` // memory, sqlite or postgres
	Path     string `mapstructure:"path"`     // sqlite database file
	DSN      string `mapstructure:"dsn"`      // postgres connection string
}

// AutoUpdateConfig tunes the periodic update daemon.
type AutoUpdateConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalSeconds int  `mapstructure:"interval_seconds"`
}

// Interval converts IntervalSeconds.
func (c AutoUpdateConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk and environment. Environment variables use
// the VOLLEYCRAWL prefix, e.g. VOLLEYCRAWL_SERVER_PORT.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VOLLEYCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 60)

	v.SetDefault("sources.volleymsk.base_url", "https://volleymsk.ru")
	v.SetDefault("sources.volleymsk.delay_ms", 50)
	v.SetDefault("sources.volleymsk.timeout_seconds", 30)
	v.SetDefault("sources.volleymsk.encoding", "windows-1251")
	v.SetDefault("sources.volleymsk.user_agent", "volleycrawl/1.0")
	v.SetDefault("sources.volleymsk.empty_threshold", 50)
	v.SetDefault("sources.volleymsk.systemic_error_threshold", 10)

	v.SetDefault("sources.bcl.base_url", "https://volleyball.businesschampions.ru")
	v.SetDefault("sources.bcl.delay_ms", 100)
	v.SetDefault("sources.bcl.timeout_seconds", 30)
	v.SetDefault("sources.bcl.encoding", "utf-8")
	v.SetDefault("sources.bcl.user_agent", "volleycrawl/1.0")
	v.SetDefault("sources.bcl.empty_threshold", 50)
	v.SetDefault("sources.bcl.systemic_error_threshold", 10)

	v.SetDefault("store.provider", "memory")
	v.SetDefault("store.path", "volleycrawl.db")

	v.SetDefault("autoupdate.enabled", true)
	v.SetDefault("autoupdate.interval_seconds", 3600)

	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	for name, src := range map[string]SourceConfig{
		"sources.volleymsk": c.Sources.VolleyMSK,
		"sources.bcl":       c.Sources.BCL,
	} {
		if src.BaseURL == "" {
			return fmt.Errorf("%s.base_url must be set", name)
		}
		if src.DelayMs <= 0 {
			return fmt.Errorf("%s.delay_ms must be > 0", name)
		}
		if src.TimeoutSeconds <= 0 {
			return fmt.Errorf("%s.timeout_seconds must be > 0", name)
		}
	}
	switch c.Store.Provider {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path must be set for the sqlite provider")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn must be set for the postgres provider")
		}
	default:
		return fmt.Errorf("store.provider must be memory, sqlite or postgres, got %q", c.Store.Provider)
	}
	if c.AutoUpdate.Enabled && c.AutoUpdate.IntervalSeconds <= 0 {
		return fmt.Errorf("autoupdate.interval_seconds must be > 0 when enabled")
	}
	return nil
}
