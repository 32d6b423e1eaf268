// Package config loads and validates tracker configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Exports  ExportsConfig  `mapstructure:"exports"`
	DownHost DownHostConfig `mapstructure:"downhost"`
	Sync     SyncConfig     `mapstructure:"sync"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls the browse server listener.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// CatalogConfig locates the remote catalog and its local cache.
type CatalogConfig struct {
	URL       string `mapstructure:"url"`
	CacheFile string `mapstructure:"cache_file"`
}

// ExportsConfig controls where exports land and how they are exposed.
type ExportsConfig struct {
	Dir        string `mapstructure:"dir"`
	PublicBase string `mapstructure:"public_base"`
}

// DownHostConfig locates the 401 failure log.
type DownHostConfig struct {
	Path string `mapstructure:"path"`
}

// SyncConfig governs the fetch/diff/download loop.
type SyncConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// HTTPConfig configures the outbound HTTP fetcher.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// ArchiveConfig governs the archival worker pool and throttle window.
type ArchiveConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	UserAgent string        `mapstructure:"user_agent"`
	Workers   int           `mapstructure:"workers"`
	DelayMin  time.Duration `mapstructure:"delay_min"`
	DelayMax  time.Duration `mapstructure:"delay_max"`
}

// DaemonConfig holds process-level settings for the run command.
type DaemonConfig struct {
	LockFile string `mapstructure:"lock_file"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GRIDTRACKER")
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
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("catalog.url", "https://sheets.artistgrid.cx/artists.csv")
	v.SetDefault("catalog.cache_file", "last_artists.csv")
	v.SetDefault("exports.dir", "downloads")
	v.SetDefault("exports.public_base", "https://trackers.artistgrid.cx/downloads")
	v.SetDefault("downhost.path", "host/down.txt")
	v.SetDefault("sync.interval", "1h")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.user_agent", "gridtracker/1.0")
	v.SetDefault("archive.endpoint", "https://web.archive.org")
	v.SetDefault("archive.user_agent", "Mozilla/5.0 (Wayback Tracker)")
	v.SetDefault("archive.workers", 4)
	v.SetDefault("archive.delay_min", "7m")
	v.SetDefault("archive.delay_max", "13m")
	v.SetDefault("daemon.lock_file", "gridtracker.lock")
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Catalog.URL == "" {
		return fmt.Errorf("catalog.url must be set")
	}
	if c.Catalog.CacheFile == "" {
		return fmt.Errorf("catalog.cache_file must be set")
	}
	if c.Exports.Dir == "" {
		return fmt.Errorf("exports.dir must be set")
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Archive.Workers <= 0 {
		return fmt.Errorf("archive.workers must be > 0")
	}
	if c.Archive.DelayMin < 0 || c.Archive.DelayMax < c.Archive.DelayMin {
		return fmt.Errorf("archive.delay_min/delay_max must form a non-negative window")
	}
	return nil
}

// HTTPTimeout converts the fetcher timeout config into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// ListenAddr joins the browse server host and port.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
