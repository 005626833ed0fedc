package config

import (
	"os"
	"path/filepath"
	"testing"

	"landmark-picker/pkg/geometry"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Empty(t, cfg.Warnings)
	assert.Equal(t, geometry.DefaultZoomLimits(), cfg.ZoomLimits())
	assert.Equal(t, geometry.Sz(500, 600), cfg.ViewportSize())
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	content := `{
		"logLevel": "debug",
		"landmarks": { "capacity": 8, "maskCount": 8, "sentinel": -1 },
		"zoom": { "step": 1.25, "fitOnLoad": false },
		"export": { "fixedPrefix": "Fixed" }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8, cfg.Landmarks.Capacity)
	assert.Equal(t, -1, cfg.Landmarks.Sentinel)
	assert.Equal(t, 1.25, cfg.Zoom.Step)
	assert.False(t, cfg.Zoom.FitOnLoad)
	assert.Equal(t, 0.1, cfg.Zoom.MinScale)

	opts := cfg.ExportOptions()
	assert.Equal(t, "Fixed", opts.FixedPrefix)
	assert.Equal(t, "MMask", opts.MovingPrefix)
	assert.Equal(t, 8, opts.MaskCount)
	assert.Equal(t, -1, opts.Sentinel)
}

func TestLoad_MissingDirIsNotAnError(t *testing.T) {
	t.Cleanup(viper.Reset)

	cfg, err := Load("/nonexistent/path")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Landmarks.Capacity)
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{"logLevel": `), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("LANDMARK_LANDMARKS_CAPACITY", "3")
	t.Setenv("LANDMARK_ZOOM_STEP", "1.5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Landmarks.Capacity)
	assert.Equal(t, 1.5, cfg.Zoom.Step)
}

func TestLoad_MaskCountClampedToCapacity(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("LANDMARK_LANDMARKS_CAPACITY", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Landmarks.MaskCount)
	assert.Len(t, cfg.Warnings, 2)
}

func TestLoad_MaskCountBelowCapacityWarns(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("LANDMARK_LANDMARKS_MASKCOUNT", "2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Landmarks.MaskCount)
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "maskCount (2)")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero capacity", func(c *Config) { c.Landmarks.Capacity = 0 }},
		{"negative mask count", func(c *Config) { c.Landmarks.MaskCount = -1 }},
		{"step of one", func(c *Config) { c.Zoom.Step = 1 }},
		{"zero min scale", func(c *Config) { c.Zoom.MinScale = 0 }},
		{"zero overscan", func(c *Config) { c.Zoom.MaxOverscan = 0 }},
		{"empty viewport", func(c *Config) { c.Viewport.Width = 0 }},
		{"same prefixes", func(c *Config) { c.Export.MovingPrefix = c.Export.FixedPrefix }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}
