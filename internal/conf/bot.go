package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/infra/openai"
)

// BotConfig contains the chrono registry and bot texts loaded from YAML
type BotConfig struct {
	Chronos  []ChronoConfig `yaml:"chronos"`
	Messages MessagesConfig `yaml:"messages"`
}

// ChronoConfig registers one recurring task
type ChronoConfig struct {
	Handle          string `yaml:"handle"`
	UTCHour         int    `yaml:"utc_hour"`
	RequiredFeature string `yaml:"required_feature"`
}

// MessagesConfig contains texts sent to users and to the screening model
type MessagesConfig struct {
	SessionIntro string `yaml:"session_intro"` // {bucket}, {minutes}
	SessionEnded string `yaml:"session_ended"` // {count}
	ScreenPrompt string `yaml:"screen_prompt"`
}

// LoadBotConfig loads bot configuration from a YAML file
func LoadBotConfig(configPath string) (*BotConfig, error) {
	// Try multiple paths
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/bot.yaml",
			"/etc/promptbot/bot.yaml",
		}
		// Add path relative to executable
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "bot.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err == nil {
			data = b
			loadedPath = p
			break
		}
	}

	if data == nil {
		// Return default config if no file found
		fmt.Println("[Config] No bot.yaml found, using defaults")
		return DefaultBotConfig(), nil
	}

	fmt.Printf("[Config] Loading bot config from: %s\n", loadedPath)

	var config BotConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", loadedPath, err)
	}

	// Fill in defaults for empty values
	config.fillDefaults()

	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *BotConfig) fillDefaults() {
	defaults := DefaultBotConfig()

	if len(c.Chronos) == 0 {
		c.Chronos = defaults.Chronos
	}
	for i := range c.Chronos {
		c.Chronos[i].Handle = strings.ToLower(strings.TrimSpace(c.Chronos[i].Handle))
		c.Chronos[i].RequiredFeature = strings.ToLower(strings.TrimSpace(c.Chronos[i].RequiredFeature))
	}

	if c.Messages.SessionIntro == "" {
		c.Messages.SessionIntro = defaults.Messages.SessionIntro
	}
	if c.Messages.SessionEnded == "" {
		c.Messages.SessionEnded = defaults.Messages.SessionEnded
	}
	if c.Messages.ScreenPrompt == "" {
		c.Messages.ScreenPrompt = defaults.Messages.ScreenPrompt
	}
}

// Validate checks the chrono registry
func (c *BotConfig) Validate() error {
	seen := make(map[string]bool)
	for _, chrono := range c.Chronos {
		if chrono.Handle == "" {
			return &ConfigError{Field: "chronos.handle", Message: "required"}
		}
		if seen[chrono.Handle] {
			return &ConfigError{Field: "chronos." + chrono.Handle, Message: "duplicate handle"}
		}
		seen[chrono.Handle] = true
		if chrono.UTCHour < 0 || chrono.UTCHour > 23 {
			return &ConfigError{Field: "chronos." + chrono.Handle + ".utc_hour", Message: "must be between 0 and 23"}
		}
	}
	return nil
}

// ChronoDefinitions converts the registry to domain definitions
func (c *BotConfig) ChronoDefinitions() []*domain.ChronoDefinition {
	defs := make([]*domain.ChronoDefinition, 0, len(c.Chronos))
	for _, chrono := range c.Chronos {
		defs = append(defs, &domain.ChronoDefinition{
			Handle:          chrono.Handle,
			RequiredFeature: chrono.RequiredFeature,
			UTCHour:         chrono.UTCHour,
		})
	}
	return defs
}

// DefaultBotConfig returns the default bot configuration
func DefaultBotConfig() *BotConfig {
	return &BotConfig{
		Chronos: []ChronoConfig{
			{Handle: "post-new-prompts", UTCHour: 12, RequiredFeature: "prompts"},
			{Handle: "alert-low-bucket-queue", UTCHour: 0, RequiredFeature: "prompts"},
			{Handle: "sweep-expired-records", UTCHour: 3},
		},
		Messages: MessagesConfig{
			SessionIntro: `You are now suggesting prompts for **{bucket}**.

Every message you send me in the next {minutes} minutes becomes a submission. Each one is reviewed by the admins before it is queued.

React with 🛑 when you are done.`,
			SessionEnded: "Your session has ended. You submitted {count} prompt(s). Thank you!",
			ScreenPrompt: openai.DefaultScreenPrompt,
		},
	}
}
