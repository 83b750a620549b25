package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banbanlabs/eventpipe/pkg/eventpipe/config"
)

// TestDefault verifies the stock configuration is internally valid.
func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Gateway.Enabled)
	assert.Equal(t, 10, cfg.Gateway.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.Gateway.BatchTimeout.Std())
	assert.Equal(t, 2*time.Hour, cfg.Metrics.Retention.Std())
	assert.Equal(t, 10000, cfg.Metrics.MaxEntries)
	assert.Equal(t, 300*time.Second, cfg.Validator.MaxEventAge.Std())
	assert.Equal(t, 30*time.Minute, cfg.Status.Retention.Std())
}

// TestNormalize verifies zero values are filled with defaults while set
// values survive.
func TestNormalize(t *testing.T) {
	var cfg config.Config
	cfg.Gateway.BatchSize = 25
	cfg.Normalize()

	assert.Equal(t, 25, cfg.Gateway.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.Gateway.BatchTimeout.Std())
	assert.Equal(t, 2*time.Hour, cfg.Metrics.Retention.Std())
	assert.NotNil(t, cfg.Gateway.Channels)
	require.NoError(t, cfg.Validate())
}

// TestValidate verifies rejection of configurations the pipeline cannot
// honor.
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero batch size", func(c *config.Config) { c.Gateway.BatchSize = 0 }},
		{"negative batch size", func(c *config.Config) { c.Gateway.BatchSize = -1 }},
		{"negative batch timeout", func(c *config.Config) { c.Gateway.BatchTimeout = config.Duration(-time.Second) }},
		{"zero metrics retention", func(c *config.Config) { c.Metrics.Retention = 0 }},
		{"zero max entries", func(c *config.Config) { c.Metrics.MaxEntries = 0 }},
		{"max age below min age", func(c *config.Config) {
			c.Validator.MaxEventAge = config.Duration(time.Second)
			c.Validator.MinEventAge = config.Duration(2 * time.Second)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// TestChannelEnabled verifies absent channels default to enabled.
func TestChannelEnabled(t *testing.T) {
	g := config.GatewayConfig{
		Channels: map[string]bool{"sales": false, "inventory": true},
	}
	assert.False(t, g.ChannelEnabled("sales"))
	assert.True(t, g.ChannelEnabled("inventory"))
	assert.True(t, g.ChannelEnabled("transfer"))
}

// TestFromYAML verifies YAML parsing with duration strings.
func TestFromYAML(t *testing.T) {
	data := []byte(`
gateway:
  enabled: true
  batchSize: 5
  batchTimeout: 10s
  channels:
    sales: false
metrics:
  retention: 1h
  maxEntries: 500
validator:
  maxEventAge: 2m
`)
	cfg, err := config.FromYAML(data)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Gateway.BatchSize)
	assert.Equal(t, 10*time.Second, cfg.Gateway.BatchTimeout.Std())
	assert.False(t, cfg.Gateway.ChannelEnabled("sales"))
	assert.Equal(t, time.Hour, cfg.Metrics.Retention.Std())
	assert.Equal(t, 500, cfg.Metrics.MaxEntries)
	assert.Equal(t, 2*time.Minute, cfg.Validator.MaxEventAge.Std())

	// Unset fields are normalized.
	assert.Equal(t, 5*time.Minute, cfg.Metrics.SweepInterval.Std())
}

func TestFromYAMLInvalid(t *testing.T) {
	_, err := config.FromYAML([]byte("gateway: ["))
	assert.Error(t, err)

	// Parseable but unusable.
	_, err = config.FromYAML([]byte("gateway:\n  batchSize: -3\n"))
	assert.Error(t, err)
}

// TestFromJSON verifies JSON parsing with both duration forms.
func TestFromJSON(t *testing.T) {
	data := []byte(`{
		"gateway": {"enabled": false, "batchSize": 3, "batchTimeout": "15s"},
		"metrics": {"retention": 3600000000000}
	}`)
	cfg, err := config.FromJSON(data)
	require.NoError(t, err)

	assert.False(t, cfg.Gateway.Enabled)
	assert.Equal(t, 3, cfg.Gateway.BatchSize)
	assert.Equal(t, 15*time.Second, cfg.Gateway.BatchTimeout.Std())
	assert.Equal(t, time.Hour, cfg.Metrics.Retention.Std())
}

// TestFromFile verifies extension-based dispatch.
func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("gateway:\n  batchSize: 7\n"), 0o644))

	cfg, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Gateway.BatchSize)

	t.Run("unsupported extension", func(t *testing.T) {
		tomlPath := filepath.Join(dir, "pipeline.toml")
		require.NoError(t, os.WriteFile(tomlPath, []byte(""), 0o644))
		_, err := config.FromFile(tomlPath)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.FromFile(filepath.Join(dir, "absent.yaml"))
		assert.Error(t, err)
	})
}

// TestDurationRoundTrip verifies the string form survives marshalling.
func TestDurationRoundTrip(t *testing.T) {
	d := config.Duration(90 * time.Second)
	assert.Equal(t, "1m30s", d.String())

	raw, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(raw))

	var back config.Duration
	require.NoError(t, back.UnmarshalJSON(raw))
	assert.Equal(t, d, back)
}

func TestDurationUnmarshalInvalid(t *testing.T) {
	var d config.Duration
	assert.Error(t, d.UnmarshalJSON([]byte(`"fast"`)))
	assert.Error(t, d.UnmarshalJSON([]byte(`true`)))
}
