package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the application.
// It includes the environment type, telegram and database settings,
// the warehouse timezone and the supervisors' Telegram IDs.
type Config struct {
	Env      string         `mapstructure:"env"`       // Env is the current environment: local, dev, prod.
	Telegram TelegramConfig `mapstructure:"telegram"`  // Telegram holds the bot API settings.
	Database PostgresConfig `mapstructure:"postgres"`  // Database holds the postgres database configuration.
	Timezone string         `mapstructure:"timezone"`  // Timezone is the warehouse local timezone name.
	AdminIDs []int64        `mapstructure:"admin_ids"` // AdminIDs are Telegram IDs allowed to pull day reports.
	Port     int            `mapstructure:"port"`      // Port is the monitoring server port.
}

// TelegramConfig holds the bot token and long-poller timeout.
type TelegramConfig struct {
	Token         string        `mapstructure:"token"`          // Token is an unique telegram bot token.
	PollerTimeout time.Duration `mapstructure:"poller_timeout"` // PollerTimeout is the long poller close timeout.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`     // Host is the database server address.
	Port     string `mapstructure:"port"`     // Port is the database server port.
	User     string `mapstructure:"user"`     // User is the database user.
	Password string `mapstructure:"password"` // Password is the database user's password.
	Name     string `mapstructure:"db_name"`  // Name is the name of the database.
}

// MustLoad loads the configuration from the YAML file pointed to by
// CONFIG_PATH and returns a Config struct. A .env file, when present,
// is loaded first so that CONFIG_PATH and secrets can live there.
// It panics when the file is missing or unreadable.
func MustLoad() *Config {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		panic("config path is empty")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		panic("config file does not exist: " + path)
	}

	viper.SetConfigFile(path)

	viper.SetDefault("env", "production")
	viper.SetDefault("timezone", "Europe/Moscow")
	viper.SetDefault("port", 8080)
	viper.SetDefault("telegram.poller_timeout", "10s")
	viper.SetDefault("postgres.port", "5432")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Sprintf("config error: %v", err))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to parse configuration: %v", err))
	}

	// The token is a secret and may live in the environment instead of the file.
	if token := os.Getenv("SKLADBOT_TELEGRAM_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}

	return &cfg
}
