package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config groups the settings of the catalog service. Values come from the
// environment first and from an optional config file second.
type Config struct {
	AppEnv   string
	AppPort  string
	LogLevel string

	DatabaseDriver string
	DatabaseDSN    string

	JWTSecret string
	JWTTTL    time.Duration

	RabbitMQURL      string
	RabbitMQExchange string

	Catalog CatalogConfig
}

// CatalogConfig holds the knobs of the product repository and routes.
type CatalogConfig struct {
	WipeOnEmptyImages bool
	WipeOnEmptyStock  bool
	AllowPurge        bool
	PageLimit         int
}

// Load reads configuration into a Config. A missing config file is not an error.
func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom reads configuration using the given viper instance, so tests can
// preset values without touching the process environment.
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		AppEnv:           v.GetString("APP_ENV"),
		AppPort:          v.GetString("APP_PORT"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		DatabaseDriver:   strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:      v.GetString("DATABASE_DSN"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTTTL:           v.GetDuration("JWT_TTL"),
		RabbitMQURL:      v.GetString("RABBITMQ_URL"),
		RabbitMQExchange: v.GetString("RABBITMQ_EXCHANGE"),
		Catalog: CatalogConfig{
			WipeOnEmptyImages: v.GetBool("CATALOG_WIPE_EMPTY_IMAGES"),
			WipeOnEmptyStock:  v.GetBool("CATALOG_WIPE_EMPTY_STOCK"),
			AllowPurge:        v.GetBool("CATALOG_ALLOW_PURGE"),
			PageLimit:         v.GetInt("CATALOG_PAGE_LIMIT"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=catalog port=5432 sslmode=disable")
	v.SetDefault("JWT_SECRET", "change_me")
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "catalog.products")
	v.SetDefault("CATALOG_WIPE_EMPTY_IMAGES", true)
	v.SetDefault("CATALOG_WIPE_EMPTY_STOCK", true)
	v.SetDefault("CATALOG_ALLOW_PURGE", false)
	v.SetDefault("CATALOG_PAGE_LIMIT", 10)
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q (want postgres or sqlite)", c.DatabaseDriver)
	}
	if c.Catalog.PageLimit <= 0 {
		return fmt.Errorf("CATALOG_PAGE_LIMIT must be positive, got %d", c.Catalog.PageLimit)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	return nil
}
