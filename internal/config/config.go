/**
 * @description
 * This file handles configuration management for the membership bot.
 * It loads settings from environment variables via viper, applies defaults
 * for the optional knobs, and validates that the credentials the bot cannot
 * run without are present.
 */
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the bot process.
type Config struct {
	TelegramBotToken string        `mapstructure:"TELEGRAM_BOT_TOKEN"`
	AdminChatID      string        `mapstructure:"ADMIN_CHAT_ID"`
	ChannelID        string        `mapstructure:"CHANNEL_ID"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	ServerURL        string        `mapstructure:"SERVER_URL"`
	Port             string        `mapstructure:"PORT"`
	SweepSchedule    string        `mapstructure:"SWEEP_SCHEDULE"`
	PingInterval     time.Duration `mapstructure:"PING_INTERVAL"`
	InviteTTL        time.Duration `mapstructure:"INVITE_TTL"`
	SupportContact   string        `mapstructure:"SUPPORT_CONTACT"`
	RabbitMQURL      string        `mapstructure:"RABBITMQ_URL"`
	EventExchange    string        `mapstructure:"EVENT_EXCHANGE"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("SERVER_URL", "http://localhost:3000")
	viper.SetDefault("PORT", "3000")
	viper.SetDefault("SWEEP_SCHEDULE", "@every 12h") // expiry sweep cadence
	viper.SetDefault("PING_INTERVAL", "50s")         // keep-alive self-ping cadence
	viper.SetDefault("INVITE_TTL", "1h")
	viper.SetDefault("SUPPORT_CONTACT", "+251908302638")
	viper.SetDefault("EVENT_EXCHANGE", "membership.events")
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("TELEGRAM_BOT_TOKEN")
	_ = viper.BindEnv("ADMIN_CHAT_ID")
	_ = viper.BindEnv("CHANNEL_ID")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("SERVER_URL")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("SWEEP_SCHEDULE")
	_ = viper.BindEnv("PING_INTERVAL")
	_ = viper.BindEnv("INVITE_TTL")
	_ = viper.BindEnv("SUPPORT_CONTACT")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("EVENT_EXCHANGE")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// validate checks that the settings the bot cannot start without are set.
func (c *Config) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"TELEGRAM_BOT_TOKEN", c.TelegramBotToken},
		{"ADMIN_CHAT_ID", c.AdminChatID},
		{"CHANNEL_ID", c.ChannelID},
		{"DATABASE_URL", c.DatabaseURL},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("missing required configuration: %s", r.name)
		}
	}
	return nil
}
