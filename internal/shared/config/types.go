package config

import "fmt"

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535"`
	Mode string `mapstructure:"mode" validate:"oneof=debug release test"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver" validate:"oneof=sqlite mysql"`
	Path            string `mapstructure:"path"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=console json"`
	OutputPath string `mapstructure:"output_path"`
}

type TelegramConfig struct {
	BotToken       string `mapstructure:"bot_token"`
	WebhookURL     string `mapstructure:"webhook_url"`
	WebhookSecret  string `mapstructure:"webhook_secret"`
	UsePolling     bool   `mapstructure:"use_polling"`
	StaffChatID    int64  `mapstructure:"staff_chat_id"`
	OpenLogChatID  int64  `mapstructure:"open_log_chat_id"`
	CloseLogChatID int64  `mapstructure:"close_log_chat_id"`
	StarLogChatID  int64  `mapstructure:"star_log_chat_id"`
}

// TicketConfig groups every tunable of the ticket lifecycle engine.
// Defaults come from config.Load, not scattered literals.
type TicketConfig struct {
	CreateWindowSeconds  int  `mapstructure:"create_window_seconds" validate:"min=1"`
	CreateMaxRequests    int  `mapstructure:"create_max_requests" validate:"min=1"`
	GameOfferDelaySecs   int  `mapstructure:"game_offer_delay_seconds"`
	ChannelGraceSecs     int  `mapstructure:"channel_grace_seconds"`
	AutoAssignEnabled    bool `mapstructure:"auto_assign_enabled"`
	TranscriptEnabled    bool `mapstructure:"transcript_enabled"`
	TranscriptMaxEntries int  `mapstructure:"transcript_max_entries"`
}

type GameConfig struct {
	WindowSeconds    int    `mapstructure:"window_seconds" validate:"min=1"`
	MaxRequests      int    `mapstructure:"max_requests" validate:"min=1"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds" validate:"min=1"`
	GuessMaxAttempts int    `mapstructure:"guess_max_attempts" validate:"min=1"`
	GuessRangeMax    int    `mapstructure:"guess_range_max" validate:"min=2"`
	HangmanMaxWrong  int    `mapstructure:"hangman_max_wrong" validate:"min=1"`
	Difficulty       string `mapstructure:"difficulty" validate:"oneof=easy normal hard"`
}

type BackupConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Directory     string `mapstructure:"directory"`
	RetentionDays int    `mapstructure:"retention_days"`
}
