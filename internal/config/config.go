package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Alturino/shopcart/internal/log"
)

type Application struct {
	Env            string   `mapstructure:"env"             json:"env"`
	Host           string   `mapstructure:"host"            json:"host"`
	SecretKey      string   `mapstructure:"secret_key"      json:"-"`
	AllowedOrigins []string `mapstructure:"allowed_origins" json:"allowed_origins"`
	Port           int      `mapstructure:"port"            json:"port"`
}

type Database struct {
	Driver       string `mapstructure:"driver"        json:"driver"`
	URI          string `mapstructure:"uri"           json:"-"`
	Name         string `mapstructure:"name"          json:"name"`
	Collection   string `mapstructure:"collection"    json:"collection"`
	Transactions bool   `mapstructure:"transactions"  json:"transactions"`
	MaxPoolSize  uint64 `mapstructure:"max_pool_size" json:"max_pool_size"`
	MinPoolSize  uint64 `mapstructure:"min_pool_size" json:"min_pool_size"`
}

type Cache struct {
	Enabled    bool   `mapstructure:"enabled"     json:"enabled"`
	Host       string `mapstructure:"host"        json:"host"`
	Password   string `mapstructure:"password"    json:"-"`
	Database   int    `mapstructure:"database"    json:"database"`
	Port       uint16 `mapstructure:"port"        json:"port"`
	TTLMinutes int    `mapstructure:"ttl_minutes" json:"ttl_minutes"`
}

type Otel struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Host    string `mapstructure:"host"    json:"host"`
	Port    int    `mapstructure:"port"    json:"port"`
}

type Cart struct {
	GuestExpiryDays int    `mapstructure:"guest_expiry_days" json:"guest_expiry_days"`
	CleanupSchedule string `mapstructure:"cleanup_schedule"  json:"cleanup_schedule"`
	CleanupTimezone string `mapstructure:"cleanup_timezone"  json:"cleanup_timezone"`
}

type Config struct {
	Database    `mapstructure:"db"          json:"db"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Application `mapstructure:"application" json:"application"`
	Otel        `mapstructure:"otel"        json:"otel"`
	Cart        `mapstructure:"cart"        json:"cart"`
}

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

var (
	once   sync.Once
	config *Config
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("application.env", "production")
	v.SetDefault("application.host", "0.0.0.0")
	v.SetDefault("application.port", 3003)
	v.SetDefault("application.secret_key", "")
	v.SetDefault("application.allowed_origins", []string{"http://localhost:3003", "http://localhost:5173"})

	v.SetDefault("db.driver", DriverMongo)
	v.SetDefault("db.uri", "mongodb://localhost:27017")
	v.SetDefault("db.name", "shop")
	v.SetDefault("db.collection", "carts")
	v.SetDefault("db.transactions", false)
	v.SetDefault("db.max_pool_size", 100)
	v.SetDefault("db.min_pool_size", 10)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.host", "localhost")
	v.SetDefault("cache.port", 6379)
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.database", 0)
	v.SetDefault("cache.ttl_minutes", 15)

	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.host", "otel-collector")
	v.SetDefault("otel.port", 4317)

	v.SetDefault("cart.guest_expiry_days", 30)
	v.SetDefault("cart.cleanup_schedule", "0 3 * * *")
	v.SetDefault("cart.cleanup_timezone", "Local")
}

func InitConfig(c context.Context, filename string) *Config {
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "main InitConfig").
			Str(log.KeyProcess, "init config").
			Str("filename", filename).
			Logger()

		v := viper.New()
		v.SetConfigName(filename)
		v.AddConfigPath("./env")
		v.SetConfigType("yaml")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		setDefaults(v)

		logger = logger.With().Str(log.KeyProcess, "reading config").Logger()
		logger.Info().Msg("reading config")
		err := v.ReadInConfig()
		if err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				err = fmt.Errorf("error when reading config with error=%w", err)
				logger.Fatal().Err(err).Msg(err.Error())
			}
			logger.Warn().Err(err).Msg("config file not found using defaults and environment")
		}
		logger.Info().Msg("read config")

		logger = logger.With().Str(log.KeyProcess, "unmarshaling config").Logger()
		logger.Info().Msg("unmarshaling config")
		cfg := Config{}
		err = v.Unmarshal(&cfg)
		if err != nil {
			err = fmt.Errorf("error unmarshaling config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = &cfg
		logger = logger.With().Any(log.KeyConfig, cfg).Logger()
		logger.Info().Msg("unmarshaled config")
	})
	return config
}
