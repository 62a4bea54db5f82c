package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot transport settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// SheetsConfig points the bot at the two spreadsheet tables it owns.
type SheetsConfig struct {
	CredentialsFile       string `yaml:"credentials_file" envconfig:"GOOGLE_CREDENTIALS_FILE"`
	UsersSpreadsheetID    string `yaml:"users_spreadsheet_id" envconfig:"USER_SPREADSHEET_ID"`
	UsersSheetName        string `yaml:"users_sheet_name" envconfig:"USER_SHEET_NAME"`
	PaymentsSpreadsheetID string `yaml:"payments_spreadsheet_id" envconfig:"PAYMENT_SPREADSHEET_ID"`
	PaymentsSheetName     string `yaml:"payments_sheet_name" envconfig:"PAYMENT_SHEET_NAME"`
}

// ChannelConfig carries static texts surfaced by the menu flows.
type ChannelConfig struct {
	InviteLink         string `yaml:"invite_link" envconfig:"CHANNEL_INVITE_LINK"`
	InvoiceBotUsername string `yaml:"invoice_bot_username" envconfig:"INVOICE_BOT_USERNAME"`
	PaymentDate        string `yaml:"payment_date" envconfig:"PAYMENT_DATE"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
	File   string `yaml:"file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// MetricsConfig controls the optional Prometheus listener.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// RateLimitConfig holds settings for per-user rate limiting.
// Interval 0 disables limiting entirely, which is the default.
type RateLimitConfig struct {
	IntervalMS int `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

// Defaults applied by Normalize when the config file leaves fields empty.
const (
	DefaultUsersSheetName    = "Users"
	DefaultPaymentsSheetName = "Payments"
	DefaultPaymentDate       = "15th of the month"
)

// Config aggregates the full bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Sheets    SheetsConfig    `yaml:"sheets"`
	Channel   ChannelConfig   `yaml:"channel"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if strings.TrimSpace(cfg.Sheets.CredentialsFile) == "" {
		return fmt.Errorf("sheets.credentials_file is required")
	}
	if strings.TrimSpace(cfg.Sheets.UsersSpreadsheetID) == "" {
		return fmt.Errorf("sheets.users_spreadsheet_id is required")
	}
	if strings.TrimSpace(cfg.Sheets.PaymentsSpreadsheetID) == "" {
		return fmt.Errorf("sheets.payments_spreadsheet_id is required")
	}
	if strings.TrimSpace(cfg.Sheets.UsersSheetName) == "" {
		cfg.Sheets.UsersSheetName = DefaultUsersSheetName
	}
	if strings.TrimSpace(cfg.Sheets.PaymentsSheetName) == "" {
		cfg.Sheets.PaymentsSheetName = DefaultPaymentsSheetName
	}

	if strings.TrimSpace(cfg.Channel.PaymentDate) == "" {
		cfg.Channel.PaymentDate = DefaultPaymentDate
	}

	if cfg.RateLimit.IntervalMS < 0 {
		return fmt.Errorf("rate_limit.interval_ms must be >= 0")
	}

	return nil
}
