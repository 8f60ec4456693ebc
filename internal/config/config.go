package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Content   ContentConfig   `mapstructure:"content"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Checkout  CheckoutConfig  `mapstructure:"checkout"`
	Media     MediaConfig     `mapstructure:"media"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	Host           string `mapstructure:"host"`
	RequestTimeout int    `mapstructure:"request_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// ContentConfig selects where content graphs are loaded from
type ContentConfig struct {
	Source  string `mapstructure:"source"` // postgres or api
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"`
}

// AnalyticsConfig holds ingestion endpoint and delivery settings
type AnalyticsConfig struct {
	Endpoint             string `mapstructure:"endpoint"`
	Source               string `mapstructure:"source"`
	Sink                 string `mapstructure:"sink"` // http or redis
	Timeout              int    `mapstructure:"timeout"`
	MaxRequestsPerSecond int    `mapstructure:"max_requests_per_second"`
	Workers              int    `mapstructure:"workers"`
}

type CheckoutConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"`
}

type MediaConfig struct {
	CheckTimeout   int    `mapstructure:"check_timeout"`
	CheckFiles     bool   `mapstructure:"check_files"`
	PlaceholderURL string `mapstructure:"placeholder_url"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	SnapshotTTL   int    `mapstructure:"snapshot_ttl"`
}

// Load loads configuration from config.yaml in the working directory with
// environment variable overrides
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom loads config.yaml from dir. A missing file is not an error: the
// defaults and environment still apply.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Content.Source {
	case "postgres", "api":
	default:
		return fmt.Errorf("content.source must be postgres or api, got %q", c.Content.Source)
	}
	switch c.Analytics.Sink {
	case "http":
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("analytics.sink=redis requires redis.enabled")
		}
	default:
		return fmt.Errorf("analytics.sink must be http or redis, got %q", c.Analytics.Sink)
	}
	if c.Analytics.MaxRequestsPerSecond <= 0 {
		return fmt.Errorf("analytics.max_requests_per_second must be positive")
	}
	return nil
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
	)
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.request_timeout", 30)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("content.source", "postgres")
	v.SetDefault("content.base_url", "http://localhost:3000/api")
	v.SetDefault("content.timeout", 10)

	v.SetDefault("analytics.endpoint", "http://localhost:3000/api/analytics/events")
	v.SetDefault("analytics.source", "viewer")
	v.SetDefault("analytics.sink", "http")
	v.SetDefault("analytics.timeout", 5)
	v.SetDefault("analytics.max_requests_per_second", 50)
	v.SetDefault("analytics.workers", 4)

	v.SetDefault("checkout.base_url", "http://localhost:3000/api/checkout")
	v.SetDefault("checkout.timeout", 15)

	v.SetDefault("media.check_timeout", 3)
	v.SetDefault("media.check_files", false)
	v.SetDefault("media.placeholder_url", "/static/placeholder.jpg")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "slydes")
	v.SetDefault("database.user", "slydes_user")
	v.SetDefault("database.password", "slydes_pass")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.consumer_group", "slydes_analytics")
	v.SetDefault("redis.snapshot_ttl", 86400)
}
