// Package main implements the DataZone worker binary. It serves the resource
// handlers over HTTP: one call-return invocation per POST /v1/invoke, with
// health and Prometheus endpoints alongside.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/AltairaLabs/datazone-handlers/internal/config"
	"github.com/AltairaLabs/datazone-handlers/internal/telemetry"
)

// Environment variable names.
const (
	envConfigFile        = "DATAZONE_CONFIG"
	envPort              = "DATAZONE_WORKER_PORT"
	envAWSRegion         = "AWS_REGION"
	envExpectedAccountID = "DATAZONE_EXPECTED_ACCOUNT_ID"
	envLogLevel          = "LOG_LEVEL"
	envOTLPEndpoint      = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOTLPInsecure      = "OTEL_EXPORTER_OTLP_INSECURE"
	envTracingEnabled    = "OTEL_TRACING_ENABLED"
)

const defaultPort = 9000

// workerConfig holds the configuration parsed from environment variables.
type workerConfig struct {
	ConfigFile        string
	Port              int
	AWSRegion         string
	ExpectedAccountID string
	LogLevel          string
	OTLPEndpoint      string
	OTLPInsecure      bool
	TracingEnabled    bool
}

// loadConfig reads configuration from environment variables. Everything is
// optional; DATAZONE_CONFIG names a YAML file whose values the remaining
// variables override.
func loadConfig() (*workerConfig, error) {
	cfg := &workerConfig{
		ConfigFile:        os.Getenv(envConfigFile),
		AWSRegion:         os.Getenv(envAWSRegion),
		ExpectedAccountID: os.Getenv(envExpectedAccountID),
		LogLevel:          os.Getenv(envLogLevel),
		OTLPEndpoint:      os.Getenv(envOTLPEndpoint),
		Port:              defaultPort,
	}

	if portStr := os.Getenv(envPort); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", envPort, portStr, err)
		}
		cfg.Port = port
	}

	var err error
	if cfg.TracingEnabled, err = parseBoolEnv(envTracingEnabled); err != nil {
		return nil, err
	}
	if cfg.OTLPInsecure, err = parseBoolEnv(envOTLPInsecure); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseBoolEnv(name string) (bool, error) {
	s := os.Getenv(name)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return v, nil
}

// resolve merges the optional YAML file with the environment and validates
// the result.
func (w *workerConfig) resolve() (*config.Config, error) {
	cfg := config.Default()
	if w.ConfigFile != "" {
		loaded, err := config.Load(w.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if w.AWSRegion != "" {
		cfg.AWS.Region = w.AWSRegion
	}
	if w.ExpectedAccountID != "" {
		cfg.AWS.ExpectedAccountID = w.ExpectedAccountID
	}
	if w.LogLevel != "" {
		cfg.Log.Level = w.LogLevel
	}
	cfg.Log.Format = telemetry.FormatJSON
	if w.TracingEnabled && w.OTLPEndpoint != "" {
		cfg.Tracing.Exporter = telemetry.ExporterOTLP
		cfg.Tracing.Endpoint = w.OTLPEndpoint
		cfg.Tracing.Insecure = w.OTLPInsecure
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
