// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Quota   QuotaConfig   `mapstructure:"quota"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Runs    RunsConfig    `mapstructure:"runs"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Archive ArchiveConfig `mapstructure:"archive"`
	State   StateConfig   `mapstructure:"state"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// QuotaConfig bounds daily external API usage.
type QuotaConfig struct {
	DailyLimit   int    `mapstructure:"daily_limit"`
	SafetyBuffer int    `mapstructure:"safety_buffer"`
	Timezone     string `mapstructure:"timezone"`
}

// CacheConfig sets response cache lifetimes per query kind.
type CacheConfig struct {
	SearchTTL  time.Duration `mapstructure:"search_ttl"`
	NewsTTL    time.Duration `mapstructure:"news_ttl"`
	SocialTTL  time.Duration `mapstructure:"social_ttl"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
}

// RunsConfig controls the scheduled run cadence and per-run call ceilings.
type RunsConfig struct {
	ComprehensiveEvery time.Duration `mapstructure:"comprehensive_every"`
	QuickEvery         time.Duration `mapstructure:"quick_every"`
	SocialEvery        time.Duration `mapstructure:"social_every"`
	CleanupEvery       time.Duration `mapstructure:"cleanup_every"`
	ComprehensiveMax   int           `mapstructure:"comprehensive_max"`
	QuickMax           int           `mapstructure:"quick_max"`
	SocialMax          int           `mapstructure:"social_max"`
	InitialRun         bool          `mapstructure:"initial_run"`
	DelayMillis        int           `mapstructure:"delay_millis"`
}

// FetchConfig configures the external search clients.
type FetchConfig struct {
	GoogleAPIKey     string `mapstructure:"google_api_key"`
	GoogleCSEID      string `mapstructure:"google_cse_id"`
	UserAgent        string `mapstructure:"user_agent"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	HeadlessEnabled  bool   `mapstructure:"headless_enabled"`
	HeadlessNavSec   int    `mapstructure:"headless_nav_timeout_seconds"`
	HeadlessParallel int    `mapstructure:"headless_max_parallel"`
}

// ServerConfig controls the operational HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig controls access to the relational database. An empty DSN selects
// the in-memory event store.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

// PubSubConfig holds metadata for run report notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ArchiveConfig selects where raw response payloads are archived.
type ArchiveConfig struct {
	Backend   string `mapstructure:"backend"` // "none", "local", or "gcs"
	LocalDir  string `mapstructure:"local_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// StateConfig selects where quota and cache state persists. An empty Dir
// keeps state in memory only.
type StateConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EVENTRADAR")
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
	v.SetDefault("quota.daily_limit", 100)
	v.SetDefault("quota.safety_buffer", 10)
	v.SetDefault("quota.timezone", "UTC")
	v.SetDefault("cache.search_ttl", "2h")
	v.SetDefault("cache.news_ttl", "1h")
	v.SetDefault("cache.social_ttl", "4h")
	v.SetDefault("cache.default_ttl", "2h")
	v.SetDefault("runs.comprehensive_every", "2h")
	v.SetDefault("runs.quick_every", "1h")
	v.SetDefault("runs.social_every", "90m")
	v.SetDefault("runs.cleanup_every", "6h")
	v.SetDefault("runs.comprehensive_max", 15)
	v.SetDefault("runs.quick_max", 3)
	v.SetDefault("runs.social_max", 4)
	v.SetDefault("runs.initial_run", true)
	v.SetDefault("runs.delay_millis", 1500)
	v.SetDefault("fetch.user_agent", "eventradar/1.0")
	v.SetDefault("fetch.timeout_seconds", 20)
	v.SetDefault("fetch.headless_enabled", false)
	v.SetDefault("fetch.headless_nav_timeout_seconds", 25)
	v.SetDefault("fetch.headless_max_parallel", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("db.table", "events")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("pubsub.enabled", false)
	v.SetDefault("archive.backend", "none")
	v.SetDefault("archive.prefix", "responses")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Quota.DailyLimit <= 0 {
		return fmt.Errorf("quota.daily_limit must be > 0")
	}
	if c.Quota.SafetyBuffer < 0 {
		return fmt.Errorf("quota.safety_buffer must be >= 0")
	}
	if c.Quota.SafetyBuffer >= c.Quota.DailyLimit {
		return fmt.Errorf("quota.safety_buffer must be below quota.daily_limit")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Runs.ComprehensiveMax <= 0 || c.Runs.QuickMax <= 0 || c.Runs.SocialMax <= 0 {
		return fmt.Errorf("runs.*_max ceilings must be > 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	switch c.Archive.Backend {
	case "none", "local", "gcs":
	default:
		return fmt.Errorf("archive.backend must be one of none, local, gcs")
	}
	if c.Archive.Backend == "gcs" && c.Archive.GCSBucket == "" {
		return fmt.Errorf("archive.gcs_bucket must be set when archive.backend is gcs")
	}
	if c.Archive.Backend == "local" && c.Archive.LocalDir == "" {
		return fmt.Errorf("archive.local_dir must be set when archive.backend is local")
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set when pubsub is enabled")
	}
	return nil
}

// FetchTimeout converts the fetch timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}
