// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	APIURL                 string        `mapstructure:"API_URL"`
	RequestTimeout         time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	IdentityConfirmTimeout time.Duration `mapstructure:"IDENTITY_CONFIRM_TIMEOUT"`
	IdentityRetries        int           `mapstructure:"IDENTITY_RETRIES"`
	CacheBackend           string        `mapstructure:"CACHE_BACKEND"`
	CacheTTL               time.Duration `mapstructure:"CACHE_TTL"`
	RedisURL               string        `mapstructure:"REDIS_URL"`
	SessionStore           string        `mapstructure:"SESSION_STORE"`
	SessionFile            string        `mapstructure:"SESSION_FILE"`
	BackendFeatures        string        `mapstructure:"BACKEND_FEATURES"`
	Env                    string        `mapstructure:"APP_ENV"`
	LogLevel               string        `mapstructure:"LOG_LEVEL"`
	TracingEnabled         bool          `mapstructure:"TRACING_ENABLED"`
	TracingExporter        string        `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint           string        `mapstructure:"OTLP_ENDPOINT"`

	// Local reference backend.
	DevPort          string `mapstructure:"DEV_PORT"`
	DevDBDriver      string `mapstructure:"DEV_DB_DRIVER"`
	DevDBDSN         string `mapstructure:"DEV_DB_DSN"`
	DevJWTSecret     string `mapstructure:"DEV_JWT_SECRET"`
	DevAdminUsername string `mapstructure:"DEV_ADMIN_USERNAME"`
	DevAdminPassword string `mapstructure:"DEV_ADMIN_PASSWORD"`
	DevSeedPosts     int    `mapstructure:"DEV_SEED_POSTS"`
	AllowedOrigins   string `mapstructure:"ALLOWED_ORIGINS"`
}

const defaultDevSecret = "dev-secret-change-me"

var keys = []string{
	"API_URL", "REQUEST_TIMEOUT", "IDENTITY_CONFIRM_TIMEOUT", "IDENTITY_RETRIES",
	"CACHE_BACKEND", "CACHE_TTL", "REDIS_URL", "SESSION_STORE", "SESSION_FILE",
	"BACKEND_FEATURES", "APP_ENV", "LOG_LEVEL", "TRACING_ENABLED", "TRACING_EXPORTER",
	"OTLP_ENDPOINT", "DEV_PORT", "DEV_DB_DRIVER", "DEV_DB_DSN", "DEV_JWT_SECRET",
	"DEV_ADMIN_USERNAME", "DEV_ADMIN_PASSWORD", "DEV_SEED_POSTS", "ALLOWED_ORIGINS",
}

// LoadConfig loads application configuration from .env, config files and
// environment variables, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	env := v.GetString("APP_ENV")
	if env != "" && env != "development" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config.%s.yml: %w", env, err)
			}
		} else {
			slog.Info("loaded profile-specific configuration", "file", "config."+env+".yml")
		}
	}

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_URL", "http://localhost:5000/api")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("IDENTITY_CONFIRM_TIMEOUT", "3s")
	v.SetDefault("IDENTITY_RETRIES", 1)
	v.SetDefault("CACHE_BACKEND", "memory")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("SESSION_STORE", "file")
	v.SetDefault("SESSION_FILE", defaultSessionFile())
	v.SetDefault("BACKEND_FEATURES", "")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "warn")
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("DEV_PORT", "5000")
	v.SetDefault("DEV_DB_DRIVER", "sqlite")
	v.SetDefault("DEV_DB_DSN", "blogdev.db")
	v.SetDefault("DEV_JWT_SECRET", defaultDevSecret)
	v.SetDefault("DEV_ADMIN_USERNAME", "admin")
	v.SetDefault("DEV_ADMIN_PASSWORD", "Admin#123")
	v.SetDefault("DEV_SEED_POSTS", 10)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "blogctl", "session.json")
}

func (c *Config) normalize() {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	c.CacheBackend = strings.ToLower(strings.TrimSpace(c.CacheBackend))
	c.SessionStore = strings.ToLower(strings.TrimSpace(c.SessionStore))
	c.DevDBDriver = strings.ToLower(strings.TrimSpace(c.DevDBDriver))
}

// IsProduction reports whether the production profile is active.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and consistent.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("API_URL is required")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_URL must be an absolute http(s) URL, got %q", c.APIURL)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.IdentityConfirmTimeout <= 0 {
		return errors.New("IDENTITY_CONFIRM_TIMEOUT must be positive")
	}
	if c.IdentityRetries < 0 || c.IdentityRetries > 1 {
		return errors.New("IDENTITY_RETRIES must be 0 or 1")
	}

	switch c.CacheBackend {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}

	switch c.SessionStore {
	case "memory":
	case "file":
		if c.SessionFile == "" {
			return errors.New("SESSION_FILE is required when SESSION_STORE=file")
		}
	case "redis":
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}

	if c.IsProduction() && !strings.HasPrefix(c.APIURL, "https://") {
		slog.Warn("API_URL is not HTTPS in production; session cookies travel in clear text")
	}

	return nil
}

// ValidateDev checks the settings only the local reference backend reads.
func (c *Config) ValidateDev() error {
	if c.DevPort == "" {
		return errors.New("DEV_PORT is required")
	}
	switch c.DevDBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown DEV_DB_DRIVER %q", c.DevDBDriver)
	}
	if c.DevDBDSN == "" {
		return errors.New("DEV_DB_DSN is required")
	}
	if c.DevJWTSecret == "" {
		return errors.New("DEV_JWT_SECRET is required")
	}
	if c.IsProduction() && c.DevJWTSecret == defaultDevSecret {
		return errors.New("DEV_JWT_SECRET must be changed from the default value in production")
	}
	if len(c.DevJWTSecret) < 32 {
		slog.Warn("DEV_JWT_SECRET is shorter than 32 characters")
	}
	return nil
}
