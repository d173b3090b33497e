// Package config handles mirrorbox configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-mirror/internal/engine/lighting"
	"github.com/Faultbox/midgard-mirror/internal/recursion"
	"github.com/Faultbox/midgard-mirror/internal/reflection"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid value")

// Config holds all application settings.
type Config struct {
	Graphics    GraphicsConfig    `yaml:"graphics"`
	Camera      CameraConfig      `yaml:"camera"`
	Reflections ReflectionsConfig `yaml:"reflections"`
	Jobs        JobsConfig        `yaml:"jobs"`
	Logging     LoggingConfig     `yaml:"logging"`
	Capture     CaptureConfig     `yaml:"capture"`
	Audio       AudioConfig       `yaml:"audio"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Fullscreen  bool    `yaml:"fullscreen"`
	VSync       bool    `yaml:"vsync"`
	FPSLimit    int     `yaml:"fps_limit"`
	RenderScale float32 `yaml:"render_scale"` // multiplies every offscreen target
	MSAASamples int     `yaml:"msaa_samples"`

	Sun lighting.Sun `yaml:"sun"`
}

// CameraConfig holds the viewer camera lens and orbit distance.
type CameraConfig struct {
	FieldOfView float32 `yaml:"fov"` // vertical, degrees
	Near        float32 `yaml:"near"`
	Far         float32 `yaml:"far"`
	Distance    float32 `yaml:"distance"`
}

// ReflectionsConfig holds the authored surface list and the recursive
// group that coordinates recursive members.
type ReflectionsConfig struct {
	reflection.Registry `yaml:",inline"`

	Recursion recursion.GroupSettings `yaml:"group"`
}

// JobsConfig sizes the worker pool used for camera derivation. Zero
// workers runs jobs on the render thread.
type JobsConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// CaptureConfig controls screenshots of the main view and every
// reflection target.
type CaptureConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // png or bmp
}

// AudioConfig controls feedback cues.
type AudioConfig struct {
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume"` // 0.0 to 1.0
}

// Default returns a Config with sensible default values: a room with a
// recursive mirror on the floor and on both side walls.
func Default() *Config {
	cfg := &Config{
		Graphics: GraphicsConfig{
			Width:       1280,
			Height:      720,
			Fullscreen:  false,
			VSync:       true,
			FPSLimit:    0,
			RenderScale: 1,
			MSAASamples: 1,
			Sun:         lighting.DefaultSun,
		},
		Camera: CameraConfig{
			FieldOfView: 60,
			Near:        0.1,
			Far:         100,
			Distance:    6,
		},
		Reflections: ReflectionsConfig{
			Registry: *reflection.NewRegistry(),
			Recursion: recursion.DefaultGroupSettings(),
		},
		Jobs: JobsConfig{
			Workers:   2,
			QueueSize: 64,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Capture: CaptureConfig{
			Dir:    "screenshots",
			Format: "png",
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  0.5,
		},
	}

	refl := &cfg.Reflections
	refl.Defaults.Recursive = true
	refl.Toggle(reflection.PresetGround)
	refl.Toggle(reflection.PresetLeft)
	refl.Toggle(reflection.PresetRight)
	refl.Recursion.Levels = 2
	return cfg
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	g := c.Graphics
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, g.Width, g.Height)
	}
	if g.RenderScale <= 0 || g.RenderScale > 2 {
		return fmt.Errorf("%w: render scale %v not in (0, 2]", ErrInvalid, g.RenderScale)
	}
	switch g.MSAASamples {
	case 1, 2, 4, 8:
	default:
		return fmt.Errorf("%w: msaa samples %d", ErrInvalid, g.MSAASamples)
	}

	if e := g.Sun.Elevation; e <= 0 || e > 90 {
		return fmt.Errorf("%w: sun elevation %v not in (0, 90]", ErrInvalid, e)
	}

	cam := c.Camera
	if cam.FieldOfView <= 0 || cam.FieldOfView >= 180 {
		return fmt.Errorf("%w: field of view %v", ErrInvalid, cam.FieldOfView)
	}
	if cam.Near <= 0 || cam.Far <= cam.Near {
		return fmt.Errorf("%w: clip range %v..%v", ErrInvalid, cam.Near, cam.Far)
	}

	switch c.Capture.Format {
	case "png", "bmp":
	default:
		return fmt.Errorf("%w: capture format %q", ErrInvalid, c.Capture.Format)
	}

	if v := c.Audio.Volume; v < 0 || v > 1 {
		return fmt.Errorf("%w: audio volume %v not in [0, 1]", ErrInvalid, v)
	}

	if c.Jobs.Workers < 0 || c.Jobs.QueueSize < 0 {
		return fmt.Errorf("%w: jobs %d/%d", ErrInvalid, c.Jobs.Workers, c.Jobs.QueueSize)
	}

	if err := c.Reflections.Validate(); err != nil {
		return fmt.Errorf("reflections: %w", err)
	}
	if err := c.Reflections.Recursion.Validate(); err != nil {
		return fmt.Errorf("reflections group: %w", err)
	}
	return nil
}
