package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// ReplayConfig holds configuration for the replay command.
type ReplayConfig struct {
	Config
	Scenario string
	Report   string
	Metrics  bool
}

// LoadReplay merges config file, environment variables, and flags into ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ReplayConfig{}, err
	}
	cfg := ReplayConfig{
		Config:   fromViper(v),
		Scenario: v.GetString("scenario"),
		Report:   v.GetString("report"),
		Metrics:  v.GetBool("metrics"),
	}
	if err := cfg.Validate(); err != nil {
		return ReplayConfig{}, err
	}
	if cfg.Scenario == "" {
		return ReplayConfig{}, fmt.Errorf("scenario path is required")
	}
	return cfg, nil
}
