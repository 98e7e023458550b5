package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/data"
)

// Config represents application configuration
type Config struct {
	// Discord configuration
	Discord DiscordConfig

	// Storage configuration
	Storage StorageConfig

	// Feishu alert configuration (optional)
	Feishu FeishuConfig

	// Submission screening configuration (optional)
	Screen ScreenConfig

	// Prompt workflow configuration
	Prompts PromptsConfig

	// Bot configuration (loaded from YAML)
	Bot *BotConfig

	// Local operator API port, 0 disables it
	APIPort int

	// Debug mode
	Debug bool
}

// DiscordConfig contains Discord configuration
type DiscordConfig struct {
	Token           string
	CommandPrefix   string
	OperatorChannel string // Receives chrono failure alerts
}

// StorageConfig contains database paths
type StorageConfig struct {
	DBPath        string
	ReactablePath string
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID       string
	AppSecret   string
	AlertChatID string
}

// Enabled checks if Feishu alerts are configured
func (c FeishuConfig) Enabled() bool {
	return c.AppID != "" && c.AppSecret != "" && c.AlertChatID != ""
}

// ScreenConfig contains the submission screening model configuration
type ScreenConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// PromptsConfig contains prompt workflow settings
type PromptsConfig struct {
	SessionMinutes    int
	UnconfirmedLimit  int
	QueuePageSize     int
	LowQueueThreshold int
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Database path
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		homeDir, _ := os.UserHomeDir()
		dbPath = filepath.Join(homeDir, ".promptbot", "promptbot.db")
	}

	// Reactable store lives next to the database by default
	reactablePath := os.Getenv("REACTABLE_DB_PATH")
	if reactablePath == "" {
		reactablePath = filepath.Join(filepath.Dir(dbPath), "reactables.db")
	}

	prefix := os.Getenv("COMMAND_PREFIX")
	if prefix == "" {
		prefix = "p!"
	}

	// Load chronos and messages from YAML
	botConfig, err := LoadBotConfig(os.Getenv("BOT_CONFIG_PATH"))
	if err != nil {
		fmt.Printf("[Config] %v\n", err)
	}

	return &Config{
		Discord: DiscordConfig{
			Token:           os.Getenv("DISCORD_TOKEN"),
			CommandPrefix:   prefix,
			OperatorChannel: os.Getenv("OPERATOR_CHANNEL_ID"),
		},
		Storage: StorageConfig{
			DBPath:        dbPath,
			ReactablePath: reactablePath,
		},
		Feishu: FeishuConfig{
			AppID:       os.Getenv("FEISHU_APP_ID"),
			AppSecret:   os.Getenv("FEISHU_APP_SECRET"),
			AlertChatID: os.Getenv("FEISHU_ALERT_CHAT_ID"),
		},
		Screen: ScreenConfig{
			APIKey:  os.Getenv("SCREEN_API_KEY"),
			BaseURL: os.Getenv("SCREEN_BASE_URL"),
			Model:   os.Getenv("SCREEN_MODEL"),
		},
		Prompts: PromptsConfig{
			SessionMinutes:    envInt("SESSION_MINUTES", 10),
			UnconfirmedLimit:  envInt("UNCONFIRMED_LIMIT", 10),
			QueuePageSize:     envInt("QUEUE_PAGE_SIZE", 10),
			LowQueueThreshold: envInt("LOW_QUEUE_THRESHOLD", 3),
		},
		Bot:     botConfig,
		APIPort: envInt("API_PORT", 0),
		Debug:   os.Getenv("DEBUG") == "true",
	}
}

func envInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

// ToSessionConfig converts to domain session configuration
func (c *Config) ToSessionConfig() domain.SessionConfig {
	cfg := domain.SessionConfig{
		Length: time.Duration(c.Prompts.SessionMinutes) * time.Minute,
	}
	if c.Bot != nil {
		cfg.IntroTemplate = c.Bot.Messages.SessionIntro
		cfg.EndedTemplate = c.Bot.Messages.SessionEnded
	}
	return cfg
}

// ToDataOptions converts to repository options
func (c *Config) ToDataOptions() data.Options {
	opts := data.Options{
		DBPath:          c.Storage.DBPath,
		ReactablePath:   c.Storage.ReactablePath,
		OperatorChannel: c.Discord.OperatorChannel,
	}
	if c.Feishu.Enabled() {
		opts.FeishuChatID = c.Feishu.AlertChatID
	}
	if c.Bot != nil {
		opts.ScreenPrompt = c.Bot.Messages.ScreenPrompt
	}
	return opts
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return &ConfigError{Field: "DISCORD_TOKEN", Message: "required"}
	}
	if c.Bot == nil {
		return &ConfigError{Field: "BOT_CONFIG_PATH", Message: "could not be parsed"}
	}
	if c.Prompts.SessionMinutes <= 0 {
		return &ConfigError{Field: "SESSION_MINUTES", Message: "must be positive"}
	}
	if c.Prompts.UnconfirmedLimit <= 0 {
		return &ConfigError{Field: "UNCONFIRMED_LIMIT", Message: "must be positive"}
	}
	if c.Prompts.QueuePageSize <= 0 {
		return &ConfigError{Field: "QUEUE_PAGE_SIZE", Message: "must be positive"}
	}
	if c.Prompts.LowQueueThreshold < 0 {
		return &ConfigError{Field: "LOW_QUEUE_THRESHOLD", Message: "must not be negative"}
	}
	if c.APIPort < 0 || c.APIPort > 65535 {
		return &ConfigError{Field: "API_PORT", Message: "must be between 0 and 65535"}
	}
	if (c.Feishu.AppID == "") != (c.Feishu.AppSecret == "") {
		return &ConfigError{Field: "FEISHU_APP_ID/FEISHU_APP_SECRET", Message: "must be set together"}
	}
	return c.Bot.Validate()
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
