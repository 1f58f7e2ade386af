// Package config provides Viper-based configuration loading for the dice roller.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DiceConfig holds evaluation limits and the randomness source.
type DiceConfig struct {
	// MaxReroll caps "rr" rerolls per die; 0-10.
	MaxReroll int `mapstructure:"max_reroll"`
	// MaxExplodeRounds caps explosion rounds after the initial roll; 0 disables the cap.
	MaxExplodeRounds int `mapstructure:"max_explode_rounds"`
	// Source is "crypto" or "seeded".
	Source string `mapstructure:"source"`
	// Seed is used only when Source is "seeded".
	Seed int64 `mapstructure:"seed"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File, when non-empty, receives a rotated copy of every log entry.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// ScriptingConfig holds Lua sandbox settings.
type ScriptingConfig struct {
	// InstructionLimit is the per-VM opcode budget; 0 uses the sandbox default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Dice      DiceConfig      `mapstructure:"dice"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateDice(c.Dice); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDice(d DiceConfig) error {
	var errs []string
	if d.MaxReroll < 0 || d.MaxReroll > 10 {
		errs = append(errs, fmt.Sprintf("dice.max_reroll must be 0-10, got %d", d.MaxReroll))
	}
	if d.MaxExplodeRounds < 0 {
		errs = append(errs, fmt.Sprintf("dice.max_explode_rounds must be >= 0, got %d", d.MaxExplodeRounds))
	}
	validSources := map[string]bool{"crypto": true, "seeded": true}
	if !validSources[d.Source] {
		errs = append(errs, fmt.Sprintf("dice.source must be one of [crypto, seeded], got %q", d.Source))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	var errs []string
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", l.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, console], got %q", l.Format))
	}
	if l.File != "" {
		if l.MaxSizeMB < 1 {
			errs = append(errs, fmt.Sprintf("logging.max_size_mb must be >= 1, got %d", l.MaxSizeMB))
		}
		if l.MaxBackups < 0 {
			errs = append(errs, fmt.Sprintf("logging.max_backups must be >= 0, got %d", l.MaxBackups))
		}
		if l.MaxAgeDays < 0 {
			errs = append(errs, fmt.Sprintf("logging.max_age_days must be >= 0, got %d", l.MaxAgeDays))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// Default returns the defaults with environment overrides applied, without
// reading a file.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Default() (Config, error) {
	return LoadFromViper(newViper())
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	// Environment variable overrides with D7_ prefix
	v.SetEnvPrefix("D7")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dice.max_reroll", 5)
	v.SetDefault("dice.max_explode_rounds", 100)
	v.SetDefault("dice.source", "crypto")
	v.SetDefault("dice.seed", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)

	v.SetDefault("scripting.instruction_limit", 100000)
}
