package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PathEnv names the environment variable holding the config file path.
const PathEnv = "RELATED_NEWS_CONFIG"

const (
	databaseDriverEnv = "DATABASE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	httpAddrEnv       = "HTTP_ADDR"
	logLevelEnv       = "LOG_LEVEL"

	defaultPageCount     = 4
	defaultTermCount     = 3
	defaultExcerptLength = 200
)

// Config holds high-level settings required across the application.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	Related  RelatedConfig  `yaml:"related"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig describes the content store connection.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// HTTPConfig configures the page server.
type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

// RelatedConfig tunes related-news selection and rendering.
type RelatedConfig struct {
	// ContentType is the bundle of news items.
	ContentType string `yaml:"contentType"`
	ViewMode    string `yaml:"viewMode"`
	CacheTag    string `yaml:"cacheTag"`
	// PageCount is used for the per-item block, TermCount for term lookups.
	PageCount     int    `yaml:"pageCount"`
	TermCount     int    `yaml:"termCount"`
	ExcerptLength int    `yaml:"excerptLength"`
	PathPattern   string `yaml:"pathPattern"`
}

// LoggingConfig selects slog level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	return LoadFile(os.Getenv(PathEnv))
}

// LoadFile is Load with an explicit path; an empty path uses defaults.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) normalize() {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))

	if c.Related.PageCount <= 0 {
		log.Printf("config: pageCount %d is invalid, reverting to %d", c.Related.PageCount, defaultPageCount)
		c.Related.PageCount = defaultPageCount
	}
	if c.Related.TermCount <= 0 {
		log.Printf("config: termCount %d is invalid, reverting to %d", c.Related.TermCount, defaultTermCount)
		c.Related.TermCount = defaultTermCount
	}
	if c.Related.ExcerptLength < 0 {
		c.Related.ExcerptLength = defaultExcerptLength
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}
	if override.HTTP.ReadTimeout > 0 {
		base.HTTP.ReadTimeout = override.HTTP.ReadTimeout
	}
	if override.HTTP.WriteTimeout > 0 {
		base.HTTP.WriteTimeout = override.HTTP.WriteTimeout
	}

	if override.Related.ContentType != "" {
		base.Related.ContentType = override.Related.ContentType
	}
	if override.Related.ViewMode != "" {
		base.Related.ViewMode = override.Related.ViewMode
	}
	if override.Related.CacheTag != "" {
		base.Related.CacheTag = override.Related.CacheTag
	}
	if override.Related.PageCount != 0 {
		base.Related.PageCount = override.Related.PageCount
	}
	if override.Related.TermCount != 0 {
		base.Related.TermCount = override.Related.TermCount
	}
	if override.Related.ExcerptLength != 0 {
		base.Related.ExcerptLength = override.Related.ExcerptLength
	}
	if override.Related.PathPattern != "" {
		base.Related.PathPattern = override.Related.PathPattern
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Driver: "sqlite", DSN: "related_news.db"},
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Related: RelatedConfig{
			ContentType:   "news_page",
			ViewMode:      "teaser",
			CacheTag:      "related_news_tag",
			PageCount:     defaultPageCount,
			TermCount:     defaultTermCount,
			ExcerptLength: defaultExcerptLength,
			PathPattern:   "/node/%d",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
