// Package config provides configuration management for the crawler and its services.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"bogoinsight/internal/export"
	"bogoinsight/pkg/utils"
)

// Configuration validation errors.
var (
	ErrMissingOutputPath  = errors.New("crawler.output.base_path is required")
	ErrInvalidTimeout     = errors.New("crawler.http.timeout_sec must be at least 1")
	ErrInvalidBodyLimit   = errors.New("crawler.http.max_body_mb must be non-negative")
	ErrMissingTopic       = errors.New("topic is required")
	ErrDuplicateSource    = errors.New("source listed more than once")
	ErrInvalidSourceURL   = errors.New("url must be an absolute http(s) URL")
	ErrInvalidSchedule    = errors.New("schedule is not a valid cron expression")
	ErrInvalidLogLevel    = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat   = errors.New("logging.format must be 'text' or 'json'")
	ErrMissingCatalogPath = errors.New("catalog.path is required when the catalog is enabled")
	ErrInvalidCacheTTL    = errors.New("server.cache_ttl_sec must be non-negative")
)

// Environment variables read by ApplyEnv.
const (
	EnvConfigPath = "BOGO_CONFIG"
	EnvLogLevel   = "BOGO_LOG_LEVEL"
	EnvDataDir    = "BOGO_DATA_DIR"
)

// Config represents the complete configuration.
type Config struct {
	Crawler CrawlerConfig `yaml:"crawler"`
	Logging LoggingConfig `yaml:"logging"`
	Catalog CatalogConfig `yaml:"catalog"`
	Server  ServerConfig  `yaml:"server"`
}

// CrawlerConfig contains crawler-specific settings.
type CrawlerConfig struct {
	Output    OutputConfig    `yaml:"output"`
	HTTP      HTTPConfig      `yaml:"http"`
	Sources   []SourceConfig  `yaml:"sources"`
	Overrides OverridesConfig `yaml:"overrides"`
}

// OutputConfig defines where snapshots go.
type OutputConfig struct {
	BasePath string `yaml:"base_path"`
}

// HTTPConfig bounds every upstream request.
type HTTPConfig struct {
	TimeoutSec int    `yaml:"timeout_sec"`
	UserAgent  string `yaml:"user_agent"`
	MaxBodyMB  int    `yaml:"max_body_mb"`
}

// SourceConfig adjusts one registered source. Sources not listed run with
// their built-in URL and no schedule.
type SourceConfig struct {
	Topic    string `yaml:"topic"`
	Enabled  *bool  `yaml:"enabled,omitempty"`
	URL      string `yaml:"url,omitempty"`
	Schedule string `yaml:"schedule,omitempty"`
}

// IsEnabled treats an absent flag as enabled.
func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// OverridesConfig points at curated data files. An empty path skips the file.
type OverridesConfig struct {
	LLMPath string `yaml:"llm_path"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CatalogConfig enables the SQLite snapshot catalog.
type CatalogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ServerConfig configures the read API.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	CacheTTLSec int    `yaml:"cache_ttl_sec"`
}

// Default returns a runnable configuration.
func Default() *Config {
	return &Config{
		Crawler: CrawlerConfig{
			Output: OutputConfig{BasePath: "data"},
			HTTP:   HTTPConfig{TimeoutSec: 30, UserAgent: utils.DefaultUserAgent, MaxBodyMB: 64},
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Catalog: CatalogConfig{Path: "data/catalog.db"},
		Server:  ServerConfig{Addr: ":8080", CacheTTLSec: 300},
	}
}

// LoadConfig loads configuration from a YAML file on top of Default.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to a YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides settings from the environment. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvLogLevel); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}

	if v := getenv(EnvDataDir); v != "" {
		c.Crawler.Output.BasePath = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Crawler.Output.BasePath == "" {
		return ErrMissingOutputPath
	}

	if c.Crawler.HTTP.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Crawler.HTTP.MaxBodyMB < 0 {
		return ErrInvalidBodyLimit
	}

	urls := utils.NewHTTPHelper("")
	seen := make(map[string]bool, len(c.Crawler.Sources))

	for i, src := range c.Crawler.Sources {
		if strings.TrimSpace(src.Topic) == "" {
			return fmt.Errorf("%w: source[%d]", ErrMissingTopic, i)
		}

		category := export.CategoryName(src.Topic)
		if seen[category] {
			return fmt.Errorf("%w: %s", ErrDuplicateSource, src.Topic)
		}

		seen[category] = true

		if src.URL != "" && !urls.IsValidURL(src.URL) {
			return fmt.Errorf("%w: source[%d] %s", ErrInvalidSourceURL, i, src.URL)
		}

		if src.Schedule != "" {
			if _, err := cron.ParseStandard(src.Schedule); err != nil {
				return fmt.Errorf("%w: source[%d] %q: %v", ErrInvalidSchedule, i, src.Schedule, err)
			}
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	if c.Catalog.Enabled && c.Catalog.Path == "" {
		return ErrMissingCatalogPath
	}

	if c.Server.CacheTTLSec < 0 {
		return ErrInvalidCacheTTL
	}

	return nil
}

// Source returns the entry for a topic or category name.
func (c *Config) Source(name string) (SourceConfig, bool) {
	category := export.CategoryName(name)

	for _, src := range c.Crawler.Sources {
		if export.CategoryName(src.Topic) == category {
			return src, true
		}
	}

	return SourceConfig{}, false
}

// SourceURL returns the configured URL for a topic, or "" to keep the default.
func (c *Config) SourceURL(topic string) string {
	src, _ := c.Source(topic)

	return src.URL
}

// Enabled reports whether a topic should run.
func (c *Config) Enabled(topic string) bool {
	src, ok := c.Source(topic)

	return !ok || src.IsEnabled()
}

// Scheduled returns the sources that carry a cron schedule and are enabled.
func (c *Config) Scheduled() []SourceConfig {
	var out []SourceConfig

	for _, src := range c.Crawler.Sources {
		if src.Schedule != "" && src.IsEnabled() {
			out = append(out, src)
		}
	}

	return out
}

// Timeout returns the HTTP timeout duration.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSec) * time.Second
}

// MaxBodyBytes returns the response size limit.
func (h HTTPConfig) MaxBodyBytes() int64 {
	return int64(h.MaxBodyMB) << 20
}

// CacheTTL returns how long the server keeps a loaded table.
func (s ServerConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Output: %s, Sources: %d, Scheduled: %d, Catalog: %t, Addr: %s}",
		c.Crawler.Output.BasePath,
		len(c.Crawler.Sources),
		len(c.Scheduled()),
		c.Catalog.Enabled,
		c.Server.Addr,
	)
}
