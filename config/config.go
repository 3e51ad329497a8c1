package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	AllowedOrigins    string `mapstructure:"ALLOWED_ORIGINS"`

	// Backend REST API.
	APIBaseURL            string `mapstructure:"API_BASE_URL"`
	TokenHandshakeURL     string `mapstructure:"TOKEN_HANDSHAKE_URL"`
	TokenCookieName       string `mapstructure:"TOKEN_COOKIE_NAME"`
	TokenHeaderName       string `mapstructure:"TOKEN_HEADER_NAME"`
	RequestTimeoutSeconds int    `mapstructure:"REQUEST_TIMEOUT_SECONDS"`

	// Student sessions and their view cache.
	SessionCookieName   string `mapstructure:"SESSION_COOKIE_NAME"`
	SessionIdleMinutes  int    `mapstructure:"SESSION_IDLE_MINUTES"`
	ViewCacheBackend    string `mapstructure:"VIEW_CACHE_BACKEND"`
	ViewCacheTTLMinutes int    `mapstructure:"VIEW_CACHE_TTL_MINUTES"`

	// Redis configuration.
	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	RedisViewCacheDB int    `mapstructure:"REDIS_VIEW_CACHE_DB"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := AppConfig.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
}

// Validate rejects settings that are only safe outside production.
func (c Config) Validate() error {
	if c.Env != "production" {
		return nil
	}
	origins := strings.TrimSpace(c.AllowedOrigins)
	if origins == "" {
		return errors.New("ALLOWED_ORIGINS must list the dashboard origins in production")
	}
	for _, o := range strings.Split(origins, ",") {
		if strings.TrimSpace(o) == "*" {
			return errors.New("ALLOWED_ORIGINS=* is not allowed in production: credentials would be sent to any origin")
		}
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("ALLOWED_ORIGINS", "*")

	viper.SetDefault("API_BASE_URL", "http://localhost:8000/api")
	viper.SetDefault("TOKEN_HANDSHAKE_URL", "http://localhost:8000/sanctum/csrf-cookie")
	viper.SetDefault("TOKEN_COOKIE_NAME", "XSRF-TOKEN")
	viper.SetDefault("TOKEN_HEADER_NAME", "X-XSRF-TOKEN")
	viper.SetDefault("REQUEST_TIMEOUT_SECONDS", 30)

	viper.SetDefault("SESSION_COOKIE_NAME", "halaqat_session")
	viper.SetDefault("SESSION_IDLE_MINUTES", 60)
	viper.SetDefault("VIEW_CACHE_BACKEND", "memory")
	viper.SetDefault("VIEW_CACHE_TTL_MINUTES", 30)

	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_VIEW_CACHE_DB", 0)
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// RequestTimeout is the per-request timeout of the backend HTTP client.
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c Config) SessionIdle() time.Duration {
	if c.SessionIdleMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

func (c Config) ViewCacheTTL() time.Duration {
	if c.ViewCacheTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.ViewCacheTTLMinutes) * time.Minute
}
