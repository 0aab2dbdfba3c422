package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Game   GameConfig   `yaml:"game"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Port         string   `yaml:"port"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// GameConfig controls the round engine timings and payouts.
type GameConfig struct {
	PeriodSeconds      int     `yaml:"period_seconds"`       // round duration
	BettingCloseOffset int     `yaml:"betting_close_offset"` // seconds before round-end when betting stops
	OverrideCutoff     int     `yaml:"override_cutoff"`      // min seconds remaining for a manual result
	WinMultiplier      float64 `yaml:"win_multiplier"`
	DojiMultiplier     float64 `yaml:"doji_multiplier"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config file and the .env file if present. Env
// variables override YAML for the keys they cover. A missing config file
// is not an error; defaults apply.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("config.Load: parse YAML %q: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg, nil
}

func (c *Config) WinMultiplier() decimal.Decimal {
	return decimal.NewFromFloat(c.Game.WinMultiplier)
}

func (c *Config) DojiMultiplier() decimal.Decimal {
	return decimal.NewFromFloat(c.Game.DojiMultiplier)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("PERIOD_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Game.PeriodSeconds = n
		}
	}
	if v := os.Getenv("BETTING_CLOSE_OFFSET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Game.BettingCloseOffset = n
		}
	}
	if v := os.Getenv("OVERRIDE_CUTOFF"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Game.OverrideCutoff = n
		}
	}
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "10000"
	}
	if len(cfg.Server.AllowOrigins) == 0 {
		cfg.Server.AllowOrigins = []string{"http://localhost:3001"}
	}
	if cfg.Game.PeriodSeconds <= 0 {
		cfg.Game.PeriodSeconds = 120
	}
	if cfg.Game.BettingCloseOffset <= 0 || cfg.Game.BettingCloseOffset >= cfg.Game.PeriodSeconds {
		cfg.Game.BettingCloseOffset = cfg.Game.PeriodSeconds / 2
	}
	if cfg.Game.OverrideCutoff <= 0 {
		cfg.Game.OverrideCutoff = 19
	}
	if cfg.Game.WinMultiplier <= 0 {
		cfg.Game.WinMultiplier = 1.92
	}
	if cfg.Game.DojiMultiplier <= 0 {
		cfg.Game.DojiMultiplier = 1.3
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
