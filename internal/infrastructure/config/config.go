package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all daemon configuration.
type Config struct {
	Server   ServerConfig
	Pipeline PipelineConfig
	Report   ReportConfig
	Logging  LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8600"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// PipelineConfig holds synthetic workload configuration.
type PipelineConfig struct {
	// ProduceRate is the producer pace in elements per second.
	ProduceRate float64 `envconfig:"PRODUCE_RATE" default:"50"`
	// WorkDelay is the per-element processing time of the bracketed stage.
	WorkDelay time.Duration `envconfig:"WORK_DELAY" default:"5ms"`
	// ConsumeDelay is the per-element acceptance time of the consumer.
	ConsumeDelay time.Duration `envconfig:"CONSUME_DELAY" default:"2ms"`
}

// ReportConfig holds stall reporting configuration.
type ReportConfig struct {
	FlushInterval time.Duration `envconfig:"FLUSH_INTERVAL" default:"1s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		def := defaultConfig()
		return &def
	}
	return cfg
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{Port: "8600", Host: "0.0.0.0"},
		Pipeline: PipelineConfig{
			ProduceRate:  50,
			WorkDelay:    5 * time.Millisecond,
			ConsumeDelay: 2 * time.Millisecond,
		},
		Report:  ReportConfig{FlushInterval: time.Second},
		Logging: LogConfig{Level: "info"},
	}
}
