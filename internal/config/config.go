// Package config loads landmark-picker settings from defaults, an optional
// JSON file and LANDMARK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"landmark-picker/internal/export"
	"landmark-picker/pkg/geometry"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "landmark-picker.json"

// EnvPrefix prefixes environment overrides, e.g. LANDMARK_ZOOM_STEP.
const EnvPrefix = "LANDMARK"

// LandmarksConfig sizes the landmark table.
type LandmarksConfig struct {
	Capacity  int `json:"capacity" mapstructure:"capacity"`
	MaskCount int `json:"maskCount" mapstructure:"maskCount"`
	Sentinel  int `json:"sentinel" mapstructure:"sentinel"`
}

// ZoomConfig holds zoom stepping and limits.
type ZoomConfig struct {
	Step        float64 `json:"step" mapstructure:"step"`
	MinScale    float64 `json:"minScale" mapstructure:"minScale"`
	MaxOverscan float64 `json:"maxOverscan" mapstructure:"maxOverscan"`
	FitOnLoad   bool    `json:"fitOnLoad" mapstructure:"fitOnLoad"`
}

// ViewportConfig is the image area size used before the UI reports one.
type ViewportConfig struct {
	Width  int `json:"width" mapstructure:"width"`
	Height int `json:"height" mapstructure:"height"`
}

// ExportConfig holds output file naming.
type ExportConfig struct {
	TextName     string `json:"textName" mapstructure:"textName"`
	FixedPrefix  string `json:"fixedPrefix" mapstructure:"fixedPrefix"`
	MovingPrefix string `json:"movingPrefix" mapstructure:"movingPrefix"`
}

// Config is the complete application configuration.
type Config struct {
	LogLevel  string          `json:"logLevel" mapstructure:"logLevel"`
	Landmarks LandmarksConfig `json:"landmarks" mapstructure:"landmarks"`
	Zoom      ZoomConfig      `json:"zoom" mapstructure:"zoom"`
	Viewport  ViewportConfig  `json:"viewport" mapstructure:"viewport"`
	Export    ExportConfig    `json:"export" mapstructure:"export"`

	// Warnings lists adjustments made while loading.
	Warnings []string `json:"-" mapstructure:"-"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")

	viper.SetDefault("landmarks.capacity", 5)
	viper.SetDefault("landmarks.maskCount", 5)
	viper.SetDefault("landmarks.sentinel", 0)

	viper.SetDefault("zoom.step", 1.1)
	viper.SetDefault("zoom.minScale", 0.1)
	viper.SetDefault("zoom.maxOverscan", 1.0)
	viper.SetDefault("zoom.fitOnLoad", true)

	viper.SetDefault("viewport.width", 500)
	viper.SetDefault("viewport.height", 600)

	viper.SetDefault("export.textName", "landmarks.txt")
	viper.SetDefault("export.fixedPrefix", "FMask")
	viper.SetDefault("export.movingPrefix", "MMask")
}

// Load sets defaults, reads FileName from configDir when present and applies
// environment overrides. An empty configDir skips the file.
func Load(configDir string) (Config, error) {
	setDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if configDir != "" {
		viper.SetConfigName(FileName)
		viper.AddConfigPath(configDir)
		viper.SetConfigType("json")

		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

// Default returns the built-in configuration without touching viper.
func Default() Config {
	return Config{
		LogLevel:  "info",
		Landmarks: LandmarksConfig{Capacity: 5, MaskCount: 5, Sentinel: 0},
		Zoom:      ZoomConfig{Step: 1.1, MinScale: 0.1, MaxOverscan: 1.0, FitOnLoad: true},
		Viewport:  ViewportConfig{Width: 500, Height: 600},
		Export:    ExportConfig{TextName: "landmarks.txt", FixedPrefix: "FMask", MovingPrefix: "MMask"},
	}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Landmarks.Capacity < 1 {
		errs = append(errs, fmt.Errorf("landmarks.capacity must be at least 1, got %d", c.Landmarks.Capacity))
	}
	if c.Landmarks.MaskCount < 0 {
		errs = append(errs, fmt.Errorf("landmarks.maskCount must not be negative, got %d", c.Landmarks.MaskCount))
	}
	if c.Zoom.Step <= 1 {
		errs = append(errs, fmt.Errorf("zoom.step must be greater than 1, got %g", c.Zoom.Step))
	}
	if c.Zoom.MinScale <= 0 {
		errs = append(errs, fmt.Errorf("zoom.minScale must be positive, got %g", c.Zoom.MinScale))
	}
	if c.Zoom.MaxOverscan <= 0 {
		errs = append(errs, fmt.Errorf("zoom.maxOverscan must be positive, got %g", c.Zoom.MaxOverscan))
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		errs = append(errs, fmt.Errorf("viewport must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height))
	}
	if c.Export.FixedPrefix == "" || c.Export.MovingPrefix == "" {
		errs = append(errs, errors.New("export mask prefixes must not be empty"))
	}
	if c.Export.FixedPrefix == c.Export.MovingPrefix {
		errs = append(errs, fmt.Errorf("export mask prefixes must differ, both are %q", c.Export.FixedPrefix))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) normalize() {
	if c.Landmarks.MaskCount != c.Landmarks.Capacity {
		c.Warnings = append(c.Warnings, fmt.Sprintf(
			"landmarks.maskCount (%d) differs from landmarks.capacity (%d)",
			c.Landmarks.MaskCount, c.Landmarks.Capacity))
	}
	if c.Landmarks.MaskCount > c.Landmarks.Capacity {
		c.Landmarks.MaskCount = c.Landmarks.Capacity
		c.Warnings = append(c.Warnings, fmt.Sprintf("landmarks.maskCount clamped to %d", c.Landmarks.Capacity))
	}
	if c.Export.TextName == "" {
		c.Export.TextName = "landmarks.txt"
	}
}

// ZoomLimits returns the zoom bounds for image views.
func (c Config) ZoomLimits() geometry.ZoomLimits {
	return geometry.ZoomLimits{MinScale: c.Zoom.MinScale, MaxOverscan: c.Zoom.MaxOverscan}
}

// ViewportSize returns the default viewport.
func (c Config) ViewportSize() geometry.Size {
	return geometry.Sz(c.Viewport.Width, c.Viewport.Height)
}

// ExportOptions returns the export writer options.
func (c Config) ExportOptions() export.Options {
	return export.Options{
		Sentinel:     c.Landmarks.Sentinel,
		MaskCount:    c.Landmarks.MaskCount,
		FixedPrefix:  c.Export.FixedPrefix,
		MovingPrefix: c.Export.MovingPrefix,
	}
}
