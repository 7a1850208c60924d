// Package config holds the viewer and recorder settings, read from a YAML
// file and overridden by command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultEffect   = "Default"
	DefaultWidth    = 800
	DefaultHeight   = 600
	DefaultFPS      = 60
	DefaultDuration = 10.0
	DefaultOutput   = "output.mp4"

	MinZoom   = 0.01
	MaxZoom   = 10.0
	MaxOffset = 2.0
)

const (
	BackendSoftware = "software"
	BackendGL       = "gl"
	BackendEGL      = "egl"
)

type Config struct {
	Effect      string       `yaml:"effect"`
	EffectsDir  string       `yaml:"effects_dir,omitempty"`
	Zoom        float32      `yaml:"zoom"`
	Offset      [2]float32   `yaml:"offset,flow"`
	AutoAnimate bool         `yaml:"auto_animate"`
	Window      WindowConfig `yaml:"window"`
	Record      RecordConfig `yaml:"record"`
	Log         LogConfig    `yaml:"log"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type RecordConfig struct {
	Output     string  `yaml:"output"`
	Duration   float64 `yaml:"duration"`
	FPS        int     `yaml:"fps"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Backend    string  `yaml:"backend"`
	FFmpegPath string  `yaml:"ffmpeg_path,omitempty"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func DefaultConfig() *Config {
	return &Config{
		Effect: DefaultEffect,
		Zoom:   1.0,
		Window: WindowConfig{
			Width:  DefaultWidth,
			Height: DefaultHeight,
			Title:  "goartstudio",
		},
		Record: RecordConfig{
			Output:   DefaultOutput,
			Duration: DefaultDuration,
			FPS:      DefaultFPS,
			Width:    DefaultWidth,
			Height:   DefaultHeight,
			Backend:  BackendSoftware,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Zoom < MinZoom || c.Zoom > MaxZoom {
		errs = append(errs, fmt.Errorf("zoom %v outside [%v, %v]", c.Zoom, MinZoom, MaxZoom))
	}
	for _, v := range c.Offset {
		if v < -MaxOffset || v > MaxOffset {
			errs = append(errs, fmt.Errorf("offset %v outside [-%v, %v]", c.Offset, MaxOffset, MaxOffset))
			break
		}
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid window size %dx%d", c.Window.Width, c.Window.Height))
	}
	r := c.Record
	if r.FPS <= 0 {
		errs = append(errs, fmt.Errorf("record fps must be positive, got %d", r.FPS))
	}
	if r.Duration <= 0 {
		errs = append(errs, fmt.Errorf("record duration must be positive, got %v", r.Duration))
	}
	if r.Width <= 0 || r.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid record size %dx%d", r.Width, r.Height))
	}
	switch r.Backend {
	case BackendSoftware, BackendGL, BackendEGL:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", r.Backend))
	}
	return errors.Join(errs...)
}

// Frames is the number of frames a recording of the configured duration
// holds.
func (r RecordConfig) Frames() int {
	return int(r.Duration*float64(r.FPS) + 0.5)
}
