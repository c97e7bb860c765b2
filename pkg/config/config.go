package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "TWEETSTORE"

// Config holds all configuration for the application
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Server    ServerConfig
	Store     StoreConfig
	Reply     ReplyConfig
	Logging   LoggingConfig
	Telemetry TelemetryConfig
}

// DatabaseConfig holds the postgres settings source configuration.
// An empty URL keeps the service purely in memory.
type DatabaseConfig struct {
	URL         string
	Enabled     bool
	AutoMigrate bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Enabled  bool
	ReplyTTL time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int
	Host string
}

// StoreConfig holds post store configuration
type StoreConfig struct {
	// SeedFile is a JSON settings export loaded at start when no database is configured
	SeedFile string
	// SaveOnShutdown writes the collection back to the database on exit
	SaveOnShutdown bool
}

// ReplyConfig holds reply generation configuration
type ReplyConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string
	Format       string // "json" or "text"
	ScalyrFormat bool   // Enable Scalyr-compatible JSON format
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	Enabled           bool
	JaegerURL         string
	PrometheusEnabled bool
	PrometheusPort    int
	ServiceName       string
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	setDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.tweetstore")
	viper.AddConfigPath("/etc/tweetstore")

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found; this is OK if we have env vars
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL:         getString("database_url", ""),
			Enabled:     getString("database_url", "") != "",
			AutoMigrate: getBool("database_auto_migrate", true),
		},
		Redis: RedisConfig{
			URL:      getString("redis_url", ""),
			Enabled:  getString("redis_url", "") != "",
			ReplyTTL: GetDuration("reply_cache_ttl", 24*time.Hour),
		},
		Server: ServerConfig{
			Port: getInt("http_server_port", 8080),
			Host: getString("http_server_host", "0.0.0.0"),
		},
		Store: StoreConfig{
			SeedFile:       getString("seed_file", ""),
			SaveOnShutdown: getBool("save_on_shutdown", true),
		},
		Reply: ReplyConfig{
			APIKey:  getString("gemini_api_key", ""),
			Model:   getString("gemini_model", "gemini-2.0-flash"),
			Timeout: GetDuration("reply_timeout", 30*time.Second),
		},
		Logging: LoggingConfig{
			Level:        getString("log_level", "INFO"),
			Format:       getString("log_format", "json"),
			ScalyrFormat: getBool("log_scalyr_format", true),
		},
		Telemetry: TelemetryConfig{
			Enabled:           getBool("telemetry_enabled", true),
			JaegerURL:         getString("jaeger_url", "http://localhost:14268/api/traces"),
			PrometheusEnabled: getBool("prometheus_enabled", true),
			PrometheusPort:    getInt("prometheus_port", 9090),
			ServiceName:       getString("service_name", "tweetstore"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("database_auto_migrate", true)
	viper.SetDefault("reply_cache_ttl", "24h")
	viper.SetDefault("http_server_port", 8080)
	viper.SetDefault("http_server_host", "0.0.0.0")
	viper.SetDefault("save_on_shutdown", true)
	viper.SetDefault("gemini_model", "gemini-2.0-flash")
	viper.SetDefault("reply_timeout", "30s")
	viper.SetDefault("log_level", "INFO")
	viper.SetDefault("log_format", "json")
	viper.SetDefault("log_scalyr_format", true)
	viper.SetDefault("telemetry_enabled", true)
	viper.SetDefault("prometheus_enabled", true)
	viper.SetDefault("prometheus_port", 9090)
	viper.SetDefault("service_name", "tweetstore")
}

func getString(key, defaultValue string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	if val := os.Getenv(toEnvKey(key)); val != "" {
		return val
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	if val := os.Getenv(toEnvKey(key)); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	if val := os.Getenv(toEnvKey(key)); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultValue
}

// toEnvKey maps a config key such as "redis-url" to TWEETSTORE_REDIS_URL
func toEnvKey(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("http_server_port must be between 1 and 65535")
	}
	if c.Redis.Enabled && c.Redis.ReplyTTL < 0 {
		return fmt.Errorf("reply_cache_ttl must not be negative")
	}
	if c.Reply.Timeout <= 0 {
		return fmt.Errorf("reply_timeout must be positive")
	}
	if c.Database.Enabled && c.Store.SeedFile != "" {
		return fmt.Errorf("seed_file and database_url are mutually exclusive")
	}
	return nil
}

// GetDuration returns a duration from config key, with default
func GetDuration(key string, defaultValue time.Duration) time.Duration {
	if viper.IsSet(key) {
		return viper.GetDuration(key)
	}
	return defaultValue
}
