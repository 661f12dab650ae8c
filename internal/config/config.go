// Package config provides Viper-based configuration loading for the bot.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DiscordConfig holds gateway connection settings.
type DiscordConfig struct {
	// Token is the bot token. Usually supplied via the
	// GRIDKEEPER_DISCORD_TOKEN environment variable rather than the file.
	Token string `mapstructure:"token"`
	// Status is the presence text shown under the bot's name.
	Status string `mapstructure:"status"`
}

// DataConfig holds persistence directory settings.
type DataConfig struct {
	// ConfigsDir stores per-guild configuration documents.
	ConfigsDir string `mapstructure:"configs_dir"`
	// ScoresDir stores per-guild score documents.
	ScoresDir string `mapstructure:"scores_dir"`
	// InventoriesDir stores per-guild shop inventory documents.
	InventoriesDir string `mapstructure:"inventories_dir"`
}

// ContentConfig holds optional content override paths. Empty paths use the
// built-in tables.
type ContentConfig struct {
	// LevelsPath points to a level table YAML file.
	LevelsPath string `mapstructure:"levels_path"`
	// AchievementsPath points to an achievement set YAML file.
	AchievementsPath string `mapstructure:"achievements_path"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Discord DiscordConfig `mapstructure:"discord"`
	Data    DataConfig    `mapstructure:"data"`
	Content ContentConfig `mapstructure:"content"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if the configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if c.Discord.Token == "" {
		errs = append(errs, "discord.token must not be empty (set GRIDKEEPER_DISCORD_TOKEN)")
	}
	if c.Data.ConfigsDir == "" {
		errs = append(errs, "data.configs_dir must not be empty")
	}
	if c.Data.ScoresDir == "" {
		errs = append(errs, "data.scores_dir must not be empty")
	}
	if c.Data.InventoriesDir == "" {
		errs = append(errs, "data.inventories_dir must not be empty")
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result. A missing file is not an
// error; defaults and environment variables carry the full configuration.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with GRIDKEEPER_ prefix.
	v.SetEnvPrefix("GRIDKEEPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// SetConfigFile bypasses the search path, so a missing explicit
			// file surfaces as a plain fs error.
			if !strings.Contains(err.Error(), "no such file") {
				return Config{}, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.status", "collecting emeralds")

	v.SetDefault("data.configs_dir", "data/configs")
	v.SetDefault("data.scores_dir", "data/scores")
	v.SetDefault("data.inventories_dir", "data/inventories")

	v.SetDefault("content.levels_path", "")
	v.SetDefault("content.achievements_path", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
