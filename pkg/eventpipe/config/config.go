// Package config defines the pipeline configuration and its file loader.
//
// Configuration is plain data: the facade applies it at construction and
// the gateway accepts partial updates at runtime. Zero values are filled
// with defaults so an empty file yields a working pipeline.
package config

import (
	"fmt"
	"time"
)

// Config is the full pipeline configuration.
type Config struct {
	Gateway   GatewayConfig   `json:"gateway" yaml:"gateway"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`
	Validator ValidatorConfig `json:"validator" yaml:"validator"`
	Status    StatusConfig    `json:"status" yaml:"status"`
}

// GatewayConfig is the per-channel batching policy.
type GatewayConfig struct {
	// Enabled turns batching on. When false every event is forwarded
	// synchronously to the processor.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// BatchSize triggers a flush when a channel queue reaches it.
	BatchSize int `json:"batchSize" yaml:"batchSize"`

	// BatchTimeout flushes a non-empty queue that has not reached
	// BatchSize within this window.
	BatchTimeout Duration `json:"batchTimeout" yaml:"batchTimeout"`

	// Channels enables or disables individual listeners. A channel
	// missing from the map is enabled.
	Channels map[string]bool `json:"channels" yaml:"channels"`
}

// MetricsConfig bounds the in-memory metrics history.
type MetricsConfig struct {
	Retention     Duration `json:"retention" yaml:"retention"`
	SweepInterval Duration `json:"sweepInterval" yaml:"sweepInterval"`
	MaxEntries    int      `json:"maxEntries" yaml:"maxEntries"`
}

// ValidatorConfig holds the freshness thresholds.
type ValidatorConfig struct {
	MaxEventAge Duration `json:"maxEventAge" yaml:"maxEventAge"`
	MinEventAge Duration `json:"minEventAge" yaml:"minEventAge"`
}

// StatusConfig bounds the processing-status store.
type StatusConfig struct {
	Retention     Duration `json:"retention" yaml:"retention"`
	SweepInterval Duration `json:"sweepInterval" yaml:"sweepInterval"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Gateway: GatewayConfig{
			Enabled:      true,
			BatchSize:    10,
			BatchTimeout: Duration(30 * time.Second),
			Channels:     map[string]bool{},
		},
		Metrics: MetricsConfig{
			Retention:     Duration(2 * time.Hour),
			SweepInterval: Duration(5 * time.Minute),
			MaxEntries:    10000,
		},
		Validator: ValidatorConfig{
			MaxEventAge: Duration(300 * time.Second),
			MinEventAge: Duration(1 * time.Second),
		},
		Status: StatusConfig{
			Retention:     Duration(30 * time.Minute),
			SweepInterval: Duration(5 * time.Minute),
		},
	}
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	d := Default()
	if c.Gateway.BatchSize == 0 {
		c.Gateway.BatchSize = d.Gateway.BatchSize
	}
	if c.Gateway.BatchTimeout == 0 {
		c.Gateway.BatchTimeout = d.Gateway.BatchTimeout
	}
	if c.Gateway.Channels == nil {
		c.Gateway.Channels = map[string]bool{}
	}
	if c.Metrics.Retention == 0 {
		c.Metrics.Retention = d.Metrics.Retention
	}
	if c.Metrics.SweepInterval == 0 {
		c.Metrics.SweepInterval = d.Metrics.SweepInterval
	}
	if c.Metrics.MaxEntries == 0 {
		c.Metrics.MaxEntries = d.Metrics.MaxEntries
	}
	if c.Validator.MaxEventAge == 0 {
		c.Validator.MaxEventAge = d.Validator.MaxEventAge
	}
	if c.Validator.MinEventAge == 0 {
		c.Validator.MinEventAge = d.Validator.MinEventAge
	}
	if c.Status.Retention == 0 {
		c.Status.Retention = d.Status.Retention
	}
	if c.Status.SweepInterval == 0 {
		c.Status.SweepInterval = d.Status.SweepInterval
	}
}

// Validate rejects configurations the pipeline cannot honor.
func (c *Config) Validate() error {
	if c.Gateway.BatchSize < 1 {
		return fmt.Errorf("gateway.batchSize must be >= 1, got %d", c.Gateway.BatchSize)
	}
	if c.Gateway.BatchTimeout < 0 {
		return fmt.Errorf("gateway.batchTimeout must not be negative")
	}
	if c.Metrics.Retention <= 0 {
		return fmt.Errorf("metrics.retention must be positive")
	}
	if c.Metrics.MaxEntries < 1 {
		return fmt.Errorf("metrics.maxEntries must be >= 1, got %d", c.Metrics.MaxEntries)
	}
	if c.Validator.MaxEventAge <= c.Validator.MinEventAge {
		return fmt.Errorf("validator.maxEventAge must exceed minEventAge")
	}
	return nil
}

// ChannelEnabled reports whether a listener channel is enabled.
func (g GatewayConfig) ChannelEnabled(channel string) bool {
	enabled, ok := g.Channels[channel]
	if !ok {
		return true
	}
	return enabled
}
