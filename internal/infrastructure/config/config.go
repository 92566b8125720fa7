package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	sharedConfig "helpbot/internal/shared/config"
)

type Config struct {
	Server   sharedConfig.ServerConfig   `mapstructure:"server"`
	Database sharedConfig.DatabaseConfig `mapstructure:"database"`
	Logger   sharedConfig.LoggerConfig   `mapstructure:"logger"`
	Redis    sharedConfig.RedisConfig    `mapstructure:"redis"`
	Telegram sharedConfig.TelegramConfig `mapstructure:"telegram"`
	Ticket   sharedConfig.TicketConfig   `mapstructure:"ticket"`
	Game     sharedConfig.GameConfig     `mapstructure:"game"`
	Backup   sharedConfig.BackupConfig   `mapstructure:"backup"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("HELPBOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine when the environment carries the settings.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if mode := modeForEnv(env); mode != "" {
		viper.Set("server.mode", mode)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// modeForEnv maps an environment name onto a gin server mode. Unknown names
// keep whatever the config file says.
func modeForEnv(env string) string {
	switch env {
	case "production", "prod", "release":
		return "release"
	case "development", "dev", "debug":
		return "debug"
	case "test", "testing":
		return "test"
	default:
		return ""
	}
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Database defaults
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.path", "data/helpbot.db")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "helpbot_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Telegram defaults (token must be configured)
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.webhook_secret", "")
	viper.SetDefault("telegram.use_polling", true)
	viper.SetDefault("telegram.staff_chat_id", 0)
	viper.SetDefault("telegram.open_log_chat_id", 0)
	viper.SetDefault("telegram.close_log_chat_id", 0)
	viper.SetDefault("telegram.star_log_chat_id", 0)

	// Ticket defaults
	viper.SetDefault("ticket.create_window_seconds", 60)
	viper.SetDefault("ticket.create_max_requests", 3)
	viper.SetDefault("ticket.game_offer_delay_seconds", 20)
	viper.SetDefault("ticket.channel_grace_seconds", 30)
	viper.SetDefault("ticket.auto_assign_enabled", true)
	viper.SetDefault("ticket.transcript_enabled", true)
	viper.SetDefault("ticket.transcript_max_entries", 500)

	// Game defaults
	viper.SetDefault("game.window_seconds", 10)
	viper.SetDefault("game.max_requests", 5)
	viper.SetDefault("game.timeout_seconds", 180)
	viper.SetDefault("game.guess_max_attempts", 7)
	viper.SetDefault("game.guess_range_max", 100)
	viper.SetDefault("game.hangman_max_wrong", 6)
	viper.SetDefault("game.difficulty", "normal")

	// Backup defaults
	viper.SetDefault("backup.enabled", false)
	viper.SetDefault("backup.directory", "data/backups")
	viper.SetDefault("backup.retention_days", 14)
}
