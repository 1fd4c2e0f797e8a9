// Package config loads the YAML configuration shared by the CLI and the
// worker.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AltairaLabs/datazone-handlers/internal/datazone"
	"github.com/AltairaLabs/datazone-handlers/internal/engine"
	"github.com/AltairaLabs/datazone-handlers/internal/telemetry"
)

// Defaults applied to fields the file leaves empty.
const (
	DefaultRegion     = "us-east-1"
	DefaultCheckpoint = "memory://"
)

// Config is the root configuration document.
type Config struct {
	AWS datazone.ClientConfig `yaml:"aws"`

	// Checkpoint is the checkpoint store URL (memory://, sqlite://, s3://,
	// redis://).
	Checkpoint string `yaml:"checkpoint" validate:"required"`

	Log     LogConfig               `yaml:"log"`
	Tracing telemetry.TracingConfig `yaml:"tracing"`

	// Policies overrides the retry policy of individual resource types,
	// keyed by type name.
	Policies map[string]engine.Policy `yaml:"policies" validate:"dive"`
}

// LogConfig selects log verbosity and format.
type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads, expands and validates the YAML file at path. ${VAR}
// references are expanded from the environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse expands, decodes and validates a YAML document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and that every policy override names a
// known resource type.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	known := datazone.DefaultPolicies()
	for name := range c.Policies {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("invalid config: policy for unknown resource type %q", name)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.AWS.Region == "" {
		c.AWS.Region = os.Getenv("AWS_REGION")
	}
	if c.AWS.Region == "" {
		c.AWS.Region = DefaultRegion
	}
	if c.Checkpoint == "" {
		c.Checkpoint = DefaultCheckpoint
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = telemetry.FormatText
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = telemetry.ExporterNone
	}
}
