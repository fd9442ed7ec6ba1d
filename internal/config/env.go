package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds overrides read from READTRACK_* environment variables.
type EnvConfig struct {
	Category   *string  `env:"CATEGORY"`
	Threshold  *float64 `env:"THRESHOLD"`
	ReadTimeMs *int     `env:"READ_TIME_MS"`
	Debug      *bool    `env:"DEBUG"`
	NoObserver *bool    `env:"NO_OBSERVER"`
	Events     *string  `env:"EVENTS"`
}

const envPrefix = "READTRACK_"

// LoadEnv parses READTRACK_* variables. Unset variables stay nil.
func LoadEnv() (EnvConfig, error) {
	return parseEnv(env.Options{Prefix: envPrefix})
}

func parseEnv(opts env.Options) (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Merge layers env values over file values.
func Merge(file TrackerConfig, envCfg EnvConfig) TrackerConfig {
	out := file
	if envCfg.Category != nil {
		out.Category = envCfg.Category
	}
	if envCfg.Threshold != nil {
		out.Threshold = envCfg.Threshold
	}
	if envCfg.ReadTimeMs != nil {
		out.ReadTimeMs = envCfg.ReadTimeMs
	}
	if envCfg.Debug != nil {
		out.Debug = envCfg.Debug
	}
	if envCfg.NoObserver != nil {
		out.NoObserver = envCfg.NoObserver
	}
	if envCfg.Events != nil {
		out.Events = envCfg.Events
	}
	return out
}
