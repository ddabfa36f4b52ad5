// Package config loads the render server configuration from a TOML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Carmen-Shannon/universe/common"
	"github.com/Carmen-Shannon/universe/engine/imageio"
	"github.com/pelletier/go-toml/v2"
)

// Config is the complete render server configuration.
type Config struct {
	// Addr is the listen address of the job service.
	Addr string `toml:"addr"`
	// StreamBuffer is how many results a websocket listener may fall behind before it
	// catches up from the result store.
	StreamBuffer int `toml:"stream_buffer"`

	Window WindowConfig `toml:"window"`
	Camera CameraConfig `toml:"camera"`
	Skybox SkyboxConfig `toml:"skybox"`
	Scene  SceneConfig  `toml:"scene"`
	Render RenderConfig `toml:"render"`
	Log    LogConfig    `toml:"log"`
}

// WindowConfig configures the on-screen window.
type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	// VSync waits for one screen refresh per swap.
	VSync     bool `toml:"vsync"`
	Resizable bool `toml:"resizable"`
}

// CameraConfig configures the orbiting on-screen camera. Skybox faces always use 90 degrees.
type CameraConfig struct {
	// Fov is the vertical field of view in degrees.
	Fov  float64 `toml:"fov"`
	Near float64 `toml:"near"`
	Far  float64 `toml:"far"`
	// Azimuth is the orbit angle at time zero in degrees.
	Azimuth float64 `toml:"azimuth"`
	// OrbitSpeed is in radians per second.
	OrbitSpeed float64 `toml:"orbit_speed"`
}

// SkyboxConfig configures cubemap captures.
type SkyboxConfig struct {
	// Size is the edge length of one face in pixels.
	Size int `toml:"size"`
	// OutputDir is the directory job paths are resolved against.
	OutputDir string `toml:"output_dir"`
	// DefaultName is the path used by jobs without one.
	DefaultName string `toml:"default_name"`
}

// SceneConfig configures the generated scene.
type SceneConfig struct {
	RandomCubes int   `toml:"random_cubes"`
	Seed        int64 `toml:"seed"`
}

// RenderConfig configures the frame loop.
type RenderConfig struct {
	// FrameLimit caps the frame rate; 0 leaves it uncapped.
	FrameLimit float64 `toml:"frame_limit"`
	Profiling  bool    `toml:"profiling"`
	// ProfileInterval is the seconds between profiler reports.
	ProfileInterval float64 `toml:"profile_interval"`
	Overlay         bool    `toml:"overlay"`
	// ClearColor is the RGBA background in [0, 1].
	ClearColor [4]float64 `toml:"clear_color"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:         "localhost:8001",
		StreamBuffer: 64,
		Window: WindowConfig{
			Title:  "Universe server",
			Width:  1600,
			Height: 1200,
			VSync:  true,
		},
		Camera: CameraConfig{
			Fov:        90,
			Near:       0.1,
			Far:        100,
			OrbitSpeed: 0.2,
		},
		Skybox: SkyboxConfig{
			Size:        512,
			OutputDir:   ".",
			DefaultName: "skybox.qoi",
		},
		Scene: SceneConfig{
			RandomCubes: 200,
			Seed:        1,
		},
		Render: RenderConfig{
			FrameLimit:      60,
			ProfileInterval: 1,
			ClearColor:      [4]float64{0.9, 0.9, 0.7, 0},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Decode reads a TOML document over the defaults. Keys missing from the document keep their
// default, as do strings and sizes given as empty or zero. Unknown keys are an error.
//
// Parameters:
//   - r: the TOML document
//
// Returns:
//   - Config: the configuration
//   - error: a decode or validation error
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	def := Default()
	cfg.Addr = common.Coalesce(cfg.Addr, def.Addr)
	cfg.StreamBuffer = common.Coalesce(cfg.StreamBuffer, def.StreamBuffer)
	cfg.Window.Title = common.Coalesce(cfg.Window.Title, def.Window.Title)
	cfg.Window.Width = common.Coalesce(cfg.Window.Width, def.Window.Width)
	cfg.Window.Height = common.Coalesce(cfg.Window.Height, def.Window.Height)
	cfg.Camera.Fov = common.Coalesce(cfg.Camera.Fov, def.Camera.Fov)
	cfg.Camera.Near = common.Coalesce(cfg.Camera.Near, def.Camera.Near)
	cfg.Camera.Far = common.Coalesce(cfg.Camera.Far, def.Camera.Far)
	cfg.Skybox.Size = common.Coalesce(cfg.Skybox.Size, def.Skybox.Size)
	cfg.Render.ProfileInterval = common.Coalesce(cfg.Render.ProfileInterval, def.Render.ProfileInterval)
	cfg.Skybox.OutputDir = common.Coalesce(cfg.Skybox.OutputDir, def.Skybox.OutputDir)
	cfg.Skybox.DefaultName = common.Coalesce(cfg.Skybox.DefaultName, def.Skybox.DefaultName)
	cfg.Log.Level = common.Coalesce(cfg.Log.Level, def.Log.Level)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the configuration file at path. An empty path yields the defaults.
//
// Parameters:
//   - path: the TOML file, or ""
//
// Returns:
//   - Config: the configuration
//   - error: error if the file cannot be read or is invalid
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every out of range value.
//
// Returns:
//   - error: the joined problems, nil if there are none
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.StreamBuffer < 1 {
		errs = append(errs, fmt.Errorf("stream buffer %d must be at least 1", c.StreamBuffer))
	}
	if c.Window.Width < 0 || c.Window.Height < 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Camera.Fov <= 0 || c.Camera.Fov >= 180 {
		errs = append(errs, fmt.Errorf("camera fov %g must be between 0 and 180 degrees", c.Camera.Fov))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera planes near %g far %g must satisfy 0 < near < far", c.Camera.Near, c.Camera.Far))
	}
	if c.Skybox.Size < 1 || c.Skybox.Size > imageio.MaxFaceSize {
		errs = append(errs, fmt.Errorf("skybox size %d must be between 1 and %d", c.Skybox.Size, imageio.MaxFaceSize))
	}
	if c.Scene.RandomCubes < 0 {
		errs = append(errs, fmt.Errorf("random cube count %d must not be negative", c.Scene.RandomCubes))
	}
	if c.Render.FrameLimit < 0 {
		errs = append(errs, fmt.Errorf("frame limit %g must not be negative", c.Render.FrameLimit))
	}
	if c.Render.ProfileInterval < 0 {
		errs = append(errs, fmt.Errorf("profile interval %g must not be negative", c.Render.ProfileInterval))
	}
	for _, v := range c.Render.ClearColor {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("clear colour %v must lie in [0, 1]", c.Render.ClearColor))
			break
		}
	}
	if _, err := common.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	return errors.Join(errs...)
}

// Encode writes the configuration as TOML.
//
// Parameters:
//   - w: the destination
//
// Returns:
//   - error: the write error
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
