package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// EnvPath names the environment variable consulted when no --config flag is given.
const EnvPath = "CASK_CONFIG"

// DefaultPath is used when it exists and neither the flag nor EnvPath is set.
const DefaultPath = "config/cask.toml"

// Config is the host configuration. Every field can also be set through the
// environment variable named in its env tag.
type Config struct {
	Engine  EngineConfig  `toml:"engine"`
	Plugins PluginsConfig `toml:"plugins"`
	Logging LoggingConfig `toml:"logging"`
}

type EngineConfig struct {
	TickRate  float64       `toml:"tick_rate" env:"CASK_TICK_RATE"`   // fixed ticks per second
	FramePace time.Duration `toml:"frame_pace" env:"CASK_FRAME_PACE"` // minimum time between frames; 0 = unthrottled
}

type PluginsConfig struct {
	Paths     []string `toml:"paths" env:"CASK_PLUGIN_PATHS" envSeparator:":"` // loaded before paths given on the command line
	Set       string   `toml:"set" env:"CASK_PLUGIN_SET"`                      // optional YAML plugin-set file
	LuaLibDir string   `toml:"lua_lib_dir" env:"CASK_LUA_LIB_DIR"`             // shared Lua files run before each Lua plugin
}

type LoggingConfig struct {
	Level  string `toml:"level" env:"CASK_LOG_LEVEL"`
	Format string `toml:"format" env:"CASK_LOG_FORMAT"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := finish(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// finish applies environment overrides and validates.
func finish(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return cfg.validate()
}

// Resolve picks the config file: the explicit path, then $CASK_CONFIG, then
// DefaultPath when present. With none of those it returns the defaults plus
// environment overrides.
func Resolve(explicit string) (*Config, string, error) {
	path := explicit
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	if path == "" {
		cfg := defaults()
		if err := finish(cfg); err != nil {
			return nil, "", fmt.Errorf("config: %w", err)
		}
		return cfg, "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaults()
}

func (c *Config) validate() error {
	if math.IsNaN(c.Engine.TickRate) || math.IsInf(c.Engine.TickRate, 0) {
		return fmt.Errorf("engine.tick_rate must be finite, got %v", c.Engine.TickRate)
	}
	if c.Engine.TickRate <= 0 {
		return fmt.Errorf("engine.tick_rate must be positive, got %v", c.Engine.TickRate)
	}
	if c.Engine.FramePace < 0 {
		return errors.New("engine.frame_pace must not be negative")
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			TickRate: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
