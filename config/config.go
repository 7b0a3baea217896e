package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config contains all configuration variables of the application.
type (
	Config struct {
		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		RabbitMQ RabbitMQConfig
		Tracking TrackingConfig
		LogLevel string
	}

	ServerConfig struct {
		Host string
		Port int
	}

	DatabaseConfig struct {
		Host     string
		Port     int
		User     string
		Password string
		Database string
		SSLMode  string

		MaxConns        int32
		MinConns        int32
		MaxConnLifetime time.Duration
		MaxConnIdleTime time.Duration
	}

	RedisConfig struct {
		Host     string
		Port     int
		Password string
		DB       int
		PoolSize int
	}

	RabbitMQConfig struct {
		Host     string
		Port     int
		User     string
		Password string
	}

	// TrackingConfig carries the injectable knobs of the geolocation core:
	// cache TTL, key prefix and the collector's rolling-window interval.
	TrackingConfig struct {
		CacheTTL          time.Duration
		CacheKeyPrefix    string
		CollectorInterval time.Duration
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
	)
}

func (c DatabaseConfig) PoolSettings() (int32, int32, time.Duration, time.Duration) {
	return c.MaxConns, c.MinConns, c.MaxConnLifetime, c.MaxConnIdleTime
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

func (c RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c RedisConfig) GetPassword() string { return c.Password }
func (c RedisConfig) GetDB() int          { return c.DB }
func (c RedisConfig) GetPoolSize() int    { return c.PoolSize }

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// New reads configuration from environment variables and an optional
// .env file. Defaults cover a local docker-compose setup.
func New() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	setDefaults()

	// Missing .env is fine: env vars injected by the environment are
	// used instead.
	_ = viper.ReadInConfig()

	cfg := &Config{
		LogLevel: viper.GetString("LOG_LEVEL"),
		Server: ServerConfig{
			Host: viper.GetString("SERVER_HOST"),
			Port: viper.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DATABASE_HOST"),
			Port:            viper.GetInt("DATABASE_PORT"),
			User:            viper.GetString("DATABASE_USER"),
			Password:        viper.GetString("DATABASE_PASSWORD"),
			Database:        viper.GetString("DATABASE_DATABASE"),
			SSLMode:         viper.GetString("DATABASE_SSLMODE"),
			MaxConns:        viper.GetInt32("DATABASE_MAXCONNS"),
			MinConns:        viper.GetInt32("DATABASE_MINCONNS"),
			MaxConnLifetime: viper.GetDuration("DATABASE_MAXCONNLIFETIME"),
			MaxConnIdleTime: viper.GetDuration("DATABASE_MAXCONNIDLETIME"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			PoolSize: viper.GetInt("REDIS_POOL_SIZE"),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     viper.GetString("RABBITMQ_HOST"),
			Port:     viper.GetInt("RABBITMQ_PORT"),
			User:     viper.GetString("RABBITMQ_USER"),
			Password: viper.GetString("RABBITMQ_PASSWORD"),
		},
		Tracking: TrackingConfig{
			CacheTTL:          viper.GetDuration("TRACKING_CACHE_TTL"),
			CacheKeyPrefix:    viper.GetString("TRACKING_CACHE_KEY_PREFIX"),
			CollectorInterval: viper.GetDuration("TRACKING_COLLECTOR_INTERVAL"),
		},
	}

	if cfg.Tracking.CacheTTL <= 0 {
		return nil, fmt.Errorf("TRACKING_CACHE_TTL must be positive, got %s", cfg.Tracking.CacheTTL)
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("LOG_LEVEL", "DEBUG")

	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 3001)

	viper.SetDefault("DATABASE_HOST", "localhost")
	viper.SetDefault("DATABASE_PORT", 5432)
	viper.SetDefault("DATABASE_USER", "tracking_user")
	viper.SetDefault("DATABASE_PASSWORD", "tracking_pass")
	viper.SetDefault("DATABASE_DATABASE", "tracking_db")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("DATABASE_MAXCONNS", 20)
	viper.SetDefault("DATABASE_MINCONNS", 2)
	viper.SetDefault("DATABASE_MAXCONNLIFETIME", "30m")
	viper.SetDefault("DATABASE_MAXCONNIDLETIME", "5m")

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_POOL_SIZE", 100)

	viper.SetDefault("RABBITMQ_HOST", "localhost")
	viper.SetDefault("RABBITMQ_PORT", 5672)
	viper.SetDefault("RABBITMQ_USER", "guest")
	viper.SetDefault("RABBITMQ_PASSWORD", "guest")

	viper.SetDefault("TRACKING_CACHE_TTL", "5m")
	viper.SetDefault("TRACKING_CACHE_KEY_PREFIX", "tracking")
	viper.SetDefault("TRACKING_COLLECTOR_INTERVAL", "1m")
}
