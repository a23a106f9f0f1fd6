package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.InputPaths = []string{"/tmp/sheet.png"}
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ModeTemplate, cfg.Mode)
	assert.Equal(t, 33, cfg.Columns)
	assert.Equal(t, 24, cfg.Rows)
	assert.InDelta(t, 0.5, cfg.IoU, 1e-9)
	assert.InDelta(t, 0.15, cfg.ConfFloor, 1e-9)
	assert.Equal(t, 1200, cfg.TargetWidth)
	assert.Equal(t, 900, cfg.TargetHeight)
	assert.Equal(t, "eng", cfg.Language)
	assert.False(t, cfg.IsDebug())
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing input", func(c *Config) { c.InputPaths = nil }},
		{"empty output", func(c *Config) { c.OutputDir = "" }},
		{"bad mode", func(c *Config) { c.Mode = "magic" }},
		{"zero columns", func(c *Config) { c.Columns = 0 }},
		{"zero rows", func(c *Config) { c.Rows = 0 }},
		{"iou too high", func(c *Config) { c.IoU = 1.5 }},
		{"iou zero", func(c *Config) { c.IoU = 0 }},
		{"conf floor one", func(c *Config) { c.ConfFloor = 1 }},
		{"negative conf floor", func(c *Config) { c.ConfFloor = -0.1 }},
		{"zero width", func(c *Config) { c.TargetWidth = 0 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestIsDebug(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "debug"
	assert.True(t, cfg.IsDebug())
}
