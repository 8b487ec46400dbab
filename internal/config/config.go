package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/promptshield/promptshield/detector"
)

const (
	DefaultConfigFile = "promptshield.yaml"
	DefaultListenAddr = ":8785"
)

// Config is the YAML-declared pipeline plus server and logging settings.
type Config struct {
	Pipeline []Step `yaml:"pipeline"`
	Server   Server `yaml:"server"`
	Log      Log    `yaml:"log"`
}

// Step declares one pipeline entry: which validator, which action, and
// the validator's knobs. Fields that don't apply to the chosen validator
// are ignored.
type Step struct {
	Validator string `yaml:"validator"`
	Action    string `yaml:"action,omitempty"`

	// pii
	Redact   *bool         `yaml:"redact,omitempty"`
	Patterns []UserPattern `yaml:"patterns,omitempty"`

	// injection, toxicity
	Threshold *float64 `yaml:"threshold,omitempty"`

	// length
	MaxChars  int `yaml:"max_chars,omitempty"`
	MaxTokens int `yaml:"max_tokens,omitempty"`

	// schema
	Schema *detector.Schema `yaml:"schema,omitempty"`
}

// UserPattern is a user-supplied detection rule added on top of the
// built-in tables.
type UserPattern struct {
	Name        string  `yaml:"name"`
	Regex       string  `yaml:"regex"`
	Placeholder string  `yaml:"placeholder,omitempty"`
	Severity    float64 `yaml:"severity,omitempty"`
}

type Server struct {
	Listen   string `yaml:"listen"`
	AuditLog string `yaml:"audit_log,omitempty"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Load reads a config file. A missing file is not an error: the built-in
// default pipeline applies, so an unconfigured install still screens the
// obvious things.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = DefaultListenAddr
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return &cfg, nil
}

// Default returns the built-in configuration: redact PII, block
// injection and toxicity, cap input at 10k characters.
func Default() *Config {
	return &Config{
		Pipeline: []Step{
			{Validator: "pii", Action: "redact"},
			{Validator: "injection", Action: "block"},
			{Validator: "toxicity", Action: "block"},
			{Validator: "length", Action: "block", MaxChars: 10000},
		},
		Server: Server{Listen: DefaultListenAddr},
		Log:    Log{Level: "info"},
	}
}
