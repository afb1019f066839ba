package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the sigprobe configuration file (~/.config/sigprobe/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	RulesPath string `yaml:"rules_path"`

	// Matching
	PrefixLen *int64 `yaml:"prefix_len"`
	Tolerance *int64 `yaml:"tolerance"`

	// Profiling
	StartLen *int64 `yaml:"start_len"`
	MaxLen   *int64 `yaml:"max_len"`
	Digest   string `yaml:"digest"`

	Workers   *int64   `yaml:"workers"`
	TypeOrder []string `yaml:"type_order"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress  string `yaml:"server_address"`
	ProbeCacheSize *int64 `yaml:"probe_cache_size"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sigprobe", "config.yaml")
}

// LoadConfig reads the config file at path, or the default location when
// path is empty. Returns a zero Config if the file doesn't exist or is invalid.
func LoadConfig(path string) Config {
	if path == "" {
		path = configPath()
	}
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}
	}
	return c
}

// applyMatchConfig applies config file defaults to the shared matching flags
// when they were not set on the command line.
func applyMatchConfig(c *cli.Command, cfg Config) {
	if cfg.RulesPath != "" && !c.IsSet("rules") {
		rulesPath = cfg.RulesPath
	}
	if cfg.Tolerance != nil && !c.IsSet("tolerance") {
		tolerance = *cfg.Tolerance
	}
	if cfg.PrefixLen != nil && !c.IsSet("prefix-len") {
		prefixLen = *cfg.PrefixLen
	}
	if cfg.Workers != nil && !c.IsSet("workers") {
		workers = *cfg.Workers
	}
}

func applyProfileConfig(c *cli.Command, cfg Config, startLen, maxLen *int64, digestName *string) {
	if cfg.Tolerance != nil && !c.IsSet("tolerance") {
		tolerance = *cfg.Tolerance
	}
	if cfg.Workers != nil && !c.IsSet("workers") {
		workers = *cfg.Workers
	}
	if cfg.StartLen != nil && !c.IsSet("start-len") {
		*startLen = *cfg.StartLen
	}
	if cfg.MaxLen != nil && !c.IsSet("max-len") {
		*maxLen = *cfg.MaxLen
	}
	if cfg.Digest != "" && !c.IsSet("digest") {
		*digestName = cfg.Digest
	}
}

func applyScanConfig(c *cli.Command, cfg Config, order *[]string) {
	if len(cfg.TypeOrder) > 0 && !c.IsSet("order") {
		*order = cfg.TypeOrder
	}
}

func applyServeConfig(c *cli.Command, cfg Config, addr *string, cacheSize *int64) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.ProbeCacheSize != nil && !c.IsSet("cache-size") {
		*cacheSize = *cfg.ProbeCacheSize
	}
}
