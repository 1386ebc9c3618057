// Package config provides Viper-based configuration loading for the adventure engine.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// EngineConfig holds frame scheduler and presentation settings.
type EngineConfig struct {
	// TickRate is the interval between two frame updates.
	TickRate time.Duration `mapstructure:"tick_rate"`
	// ScreenWidth is the viewport width of windowed rooms without a screen height.
	ScreenWidth int `mapstructure:"screen_width"`
	// ScreenHeight is the viewport height of windowed rooms without a screen height.
	ScreenHeight int `mapstructure:"screen_height"`
	// GameSpeedFactorMax bounds the gameSpeedFactor user preference.
	GameSpeedFactorMax float64 `mapstructure:"game_speed_factor_max"`
	// GlobalsTable is the name of the script table persisted as "globals" in saves.
	GlobalsTable string `mapstructure:"globals_table"`
}

// ScriptsConfig holds Script Host settings.
type ScriptsConfig struct {
	// Root is the directory whose *.lua files are executed at boot.
	Root string `mapstructure:"root"`
	// InstructionLimit caps the Lua opcodes of one top-level script call.
	// 0 = use scripting.DefaultInstructionLimit.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// WorldConfig holds the world-definition location.
type WorldConfig struct {
	// Path is the YAML file declaring rooms, objects, and actors.
	Path string `mapstructure:"path"`
}

// DialogsConfig holds dialog asset catalog settings.
type DialogsConfig struct {
	// Dir is scanned for *.byack dialog assets. Empty = empty catalog.
	Dir string `mapstructure:"dir"`
}

// SavesConfig holds save-slot storage settings.
type SavesConfig struct {
	// Backend selects the slot store: "file" or "redis".
	Backend string `mapstructure:"backend"`
	// Dir is the directory for the file backend.
	Dir string `mapstructure:"dir"`
	// RedisAddr is the "host:port" of the redis backend.
	RedisAddr string `mapstructure:"redis_addr"`
	// RedisPrefix namespaces slot keys in redis.
	RedisPrefix string `mapstructure:"redis_prefix"`
	// Compress enables zstd compression of save documents.
	Compress bool `mapstructure:"compress"`
}

// PreferencesConfig holds the user preferences file location.
type PreferencesConfig struct {
	// Path is the TOML file persisting user preferences. Empty = in-memory only.
	Path string `mapstructure:"path"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging"`
	Engine      EngineConfig      `mapstructure:"engine"`
	Scripts     ScriptsConfig     `mapstructure:"scripts"`
	World       WorldConfig       `mapstructure:"world"`
	Dialogs     DialogsConfig     `mapstructure:"dialogs"`
	Saves       SavesConfig       `mapstructure:"saves"`
	Preferences PreferencesConfig `mapstructure:"preferences"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateEngine(c.Engine); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateScripts(c.Scripts); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSaves(c.Saves); err != nil {
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

func validateEngine(e EngineConfig) error {
	var errs []string
	if e.TickRate <= 0 {
		errs = append(errs, fmt.Sprintf("engine.tick_rate must be > 0, got %s", e.TickRate))
	}
	if e.ScreenWidth < 1 || e.ScreenHeight < 1 {
		errs = append(errs, fmt.Sprintf("engine.screen_width/screen_height must be >= 1, got %dx%d", e.ScreenWidth, e.ScreenHeight))
	}
	if e.GameSpeedFactorMax < 1 {
		errs = append(errs, fmt.Sprintf("engine.game_speed_factor_max must be >= 1, got %v", e.GameSpeedFactorMax))
	}
	if e.GlobalsTable == "" {
		errs = append(errs, "engine.globals_table must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateScripts(s ScriptsConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripts.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	return nil
}

func validateSaves(s SavesConfig) error {
	switch s.Backend {
	case "file":
		if s.Dir == "" {
			return errors.New("saves.dir must not be empty for the file backend")
		}
	case "redis":
		if s.RedisAddr == "" {
			return errors.New("saves.redis_addr must not be empty for the redis backend")
		}
	default:
		return fmt.Errorf("saves.backend must be one of [file, redis], got %q", s.Backend)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with ADV_ prefix
	v.SetEnvPrefix("ADV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
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

// Defaults returns a Viper instance carrying only the built-in defaults.
//
// Postcondition: LoadFromViper(Defaults()) succeeds.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("engine.tick_rate", "16ms")
	v.SetDefault("engine.screen_width", 320)
	v.SetDefault("engine.screen_height", 180)
	v.SetDefault("engine.game_speed_factor_max", 5.0)
	v.SetDefault("engine.globals_table", "g")

	v.SetDefault("scripts.root", "scripts")
	v.SetDefault("scripts.instruction_limit", 0)

	v.SetDefault("world.path", "content/world.yaml")
	v.SetDefault("dialogs.dir", "")

	v.SetDefault("saves.backend", "file")
	v.SetDefault("saves.dir", "saves")
	v.SetDefault("saves.redis_addr", "127.0.0.1:6379")
	v.SetDefault("saves.redis_prefix", "adventure")
	v.SetDefault("saves.compress", false)

	v.SetDefault("preferences.path", "")
}
