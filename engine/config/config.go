package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds engine settings loaded from a TOML file. Every field has a
// sensible default so a missing or partial config file still produces a
// runnable engine.
type Config struct {
	// Window configures the OS window.
	Window WindowConfig `toml:"window"`

	// Renderer configures frame presentation and anti-aliasing.
	Renderer RendererConfig `toml:"renderer"`

	// Engine configures the simulation loop.
	Engine EngineConfig `toml:"engine"`

	// Log configures the structured logger.
	Log LogConfig `toml:"log"`
}

// WindowConfig holds OS window settings.
type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// RendererConfig holds presentation and quality settings.
type RendererConfig struct {
	// PresentMode selects frame presentation: "vsync" or "uncapped".
	PresentMode string `toml:"present_mode"`

	// MSAASamples is the multisample count (1 or 4).
	MSAASamples int `toml:"msaa_samples"`

	// FrameLimit caps the render loop in frames per second. Zero means uncapped.
	FrameLimit int `toml:"frame_limit"`

	// HotReloadShaders enables recompiling shader modules when their source files change.
	HotReloadShaders bool `toml:"hot_reload_shaders"`
}

// EngineConfig holds simulation loop settings.
type EngineConfig struct {
	// TickRate is the fixed simulation rate in ticks per second.
	TickRate int `toml:"tick_rate"`

	// Profiling enables periodic FPS and memory reporting.
	Profiling bool `toml:"profiling"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is the minimum level to emit: "debug", "info", "warn", or "error".
	Level string `toml:"level"`
}

// Default returns a Config populated with default values.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "WGPU Template",
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			PresentMode:      "vsync",
			MSAASamples:      4,
			FrameLimit:       0,
			HotReloadShaders: false,
		},
		Engine: EngineConfig{
			TickRate:  60,
			Profiling: false,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a TOML config file and merges it over the defaults.
// A missing file is not an error; the defaults are returned unchanged.
// A malformed file or an invalid setting is an error.
//
// Parameters:
//   - path: the TOML file path
//
// Returns:
//   - Config: the merged configuration
//   - error: error if the file exists but cannot be parsed or validated
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that every setting holds an accepted value.
//
// Returns:
//   - error: error describing the first invalid setting, or nil
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}

	switch c.Renderer.PresentMode {
	case "vsync", "uncapped":
	default:
		return fmt.Errorf("present_mode must be \"vsync\" or \"uncapped\", got %q", c.Renderer.PresentMode)
	}

	switch c.Renderer.MSAASamples {
	case 1, 4:
	default:
		return fmt.Errorf("msaa_samples must be 1 or 4, got %d", c.Renderer.MSAASamples)
	}

	if c.Renderer.FrameLimit < 0 {
		return fmt.Errorf("frame_limit must be non-negative, got %d", c.Renderer.FrameLimit)
	}

	if c.Engine.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be positive, got %d", c.Engine.TickRate)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	return nil
}
