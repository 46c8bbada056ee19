package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/price-tracker/internal/fetcher"
	"github.com/sells-group/price-tracker/internal/scrape"
)

// Config holds the full application configuration.
type Config struct {
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	Scrape  ScrapeConfig  `yaml:"scrape" mapstructure:"scrape"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// CatalogConfig locates the product catalog.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ScrapeConfig configures retailer sessions.
type ScrapeConfig struct {
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	AcceptLanguage string  `yaml:"accept_language" mapstructure:"accept_language"`
	DefaultCharset string  `yaml:"default_charset" mapstructure:"default_charset"`
	RatePerSec     float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst          int     `yaml:"burst" mapstructure:"burst"`
	MaxBodyBytes   int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	// BreakerThreshold consecutive anti-bot blocks pause a retailer for
	// BreakerResetMins. Zero disables it.
	BreakerThreshold int `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetMins int `yaml:"breaker_reset_mins" mapstructure:"breaker_reset_mins"`
}

// DispatcherOptions converts the scrape settings into dispatcher options.
func (s ScrapeConfig) DispatcherOptions() scrape.Options {
	return scrape.Options{
		Session: fetcher.SessionOptions{
			UserAgent:      s.UserAgent,
			AcceptLanguage: s.AcceptLanguage,
			Timeout:        time.Duration(s.TimeoutSecs) * time.Second,
			DefaultCharset: s.DefaultCharset,
			MaxBodyBytes:   s.MaxBodyBytes,
		},
		RatePerSec:       s.RatePerSec,
		Burst:            s.Burst,
		BreakerThreshold: s.BreakerThreshold,
		BreakerReset:     time.Duration(s.BreakerResetMins) * time.Minute,
	}
}

// ServerConfig configures the read-only API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PRICETRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("catalog.path", "product_data.json")
	v.SetDefault("scrape.timeout_secs", 20)
	v.SetDefault("scrape.user_agent", fetcher.DefaultUserAgent)
	v.SetDefault("scrape.accept_language", "en-US,en;q=0.9")
	v.SetDefault("scrape.default_charset", "utf-8")
	v.SetDefault("scrape.rate_per_sec", 1.0)
	v.SetDefault("scrape.burst", 1)
	v.SetDefault("scrape.max_body_bytes", 8<<20)
	v.SetDefault("scrape.breaker_threshold", 3)
	v.SetDefault("scrape.breaker_reset_mins", 10)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command depends on. Mode is one of
// "update", "scrape", "serve" or "catalog".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "update", "scrape":
		if mode == "update" && c.Catalog.Path == "" {
			problems = append(problems, "catalog.path is required")
		}
		if c.Scrape.TimeoutSecs <= 0 {
			problems = append(problems, "scrape.timeout_secs must be > 0")
		}
		if c.Scrape.RatePerSec < 0 {
			problems = append(problems, "scrape.rate_per_sec must be >= 0")
		}
		if c.Scrape.MaxBodyBytes <= 0 {
			problems = append(problems, "scrape.max_body_bytes must be > 0")
		}
		if c.Scrape.BreakerThreshold < 0 {
			problems = append(problems, "scrape.breaker_threshold must be >= 0")
		}
	case "serve":
		if c.Catalog.Path == "" {
			problems = append(problems, "catalog.path is required")
		}
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
	case "catalog":
		if c.Catalog.Path == "" {
			problems = append(problems, "catalog.path is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
