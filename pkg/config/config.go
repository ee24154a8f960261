package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cuemby/fabricapi/pkg/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file
const (
	EnvLogLevel    = "FABRICAPI_LOG_LEVEL"
	EnvLogJSON     = "FABRICAPI_LOG_JSON"
	EnvArchivePath = "FABRICAPI_ARCHIVE_PATH"
	EnvMetricsAddr = "FABRICAPI_METRICS_ADDR"
)

// Config holds fabricctl configuration
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Archive ArchiveConfig `yaml:"archive"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type ArchiveConfig struct {
	// Path is the directory holding the archive database
	Path string `yaml:"path"`
}

type MetricsConfig struct {
	// Addr is the listen address for /metrics. Empty disables the
	// endpoint.
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Log:     LogConfig{Level: string(log.InfoLevel)},
		Archive: ArchiveConfig{Path: "./fabricapi-data"},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then a .env file in the working directory
// and the process environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// A missing .env file is normal.
	_ = godotenv.Load()

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvLogJSON); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q is not a valid boolean", EnvLogJSON, v)
		}
		cfg.Log.JSON = b
	}
	if v := os.Getenv(EnvArchivePath); v != "" {
		cfg.Archive.Path = v
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		cfg.Metrics.Addr = v
	}
	return nil
}

// Validate checks that all settings are usable
func (c Config) Validate() error {
	switch log.Level(c.Log.Level) {
	case log.DebugLevel, log.InfoLevel, log.WarnLevel, log.ErrorLevel:
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	if c.Archive.Path == "" {
		return fmt.Errorf("config: archive.path is required")
	}
	return nil
}

// Logging converts the logging settings for log.Init
func (c Config) Logging() log.Config {
	return log.Config{
		Level:      log.ParseLevel(c.Log.Level),
		JSONOutput: c.Log.JSON,
	}
}
