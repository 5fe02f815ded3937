package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds all runtime configuration. Tags use mapstructure for
// Viper unmarshalling; every key can be overridden by an environment
// variable of the same name.
type ServerConfig struct {
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogPretty   bool   `mapstructure:"LOG_PRETTY"`

	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// Telegram login + bot. The bot token doubles as the shared secret the
	// login widget signs payloads with.
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	BotPolling       bool   `mapstructure:"BOT_POLLING"`

	// Token issuance.
	JWTSecretKey        string `mapstructure:"JWT_SECRET_KEY"`
	AccessTokenTTLMin   int    `mapstructure:"ACCESS_TOKEN_TTL_MIN"`
	RefreshTokenTTLHour int    `mapstructure:"REFRESH_TOKEN_TTL_HOUR"`
	UpdateLastLogin     bool   `mapstructure:"UPDATE_LAST_LOGIN"`

	// Validated-token cache. Empty RedisAddr selects the in-memory store.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/lectoria/")
	v.AddConfigPath("$HOME/.lectoria")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/lectoria_dev")
	v.SetDefault("MONGO_DB_NAME", "lectoria_dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("OTEL_SERVICE_NAME", "lectoria-server")
	v.SetDefault("BOT_POLLING", false)
	v.SetDefault("JWT_SECRET_KEY", "a_very_secret_jwt_key_change_me") // CHANGE IN PRODUCTION
	v.SetDefault("ACCESS_TOKEN_TTL_MIN", 60)
	v.SetDefault("REFRESH_TOKEN_TTL_HOUR", 720)
	v.SetDefault("UPDATE_LAST_LOGIN", true)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, we fall back to env vars and
		// defaults. Anything else is a real error.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}
