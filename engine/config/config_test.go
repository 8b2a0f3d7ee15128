package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error for missing file: %v", err)
	}

	def := Default()
	if cfg != def {
		t.Errorf("expected defaults for missing file, got %+v", cfg)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	content := `
[window]
title = "Crates"
width = 1920
height = 1080

[renderer]
present_mode = "uncapped"
msaa_samples = 1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Window.Title != "Crates" {
		t.Errorf("expected title %q, got %q", "Crates", cfg.Window.Title)
	}
	if cfg.Window.Width != 1920 || cfg.Window.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Renderer.PresentMode != "uncapped" {
		t.Errorf("expected present_mode uncapped, got %q", cfg.Renderer.PresentMode)
	}
	if cfg.Renderer.MSAASamples != 1 {
		t.Errorf("expected msaa_samples 1, got %d", cfg.Renderer.MSAASamples)
	}

	// Sections absent from the file keep their defaults.
	if cfg.Engine.TickRate != 60 {
		t.Errorf("expected default tick_rate 60, got %d", cfg.Engine.TickRate)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Log.Level)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	if err := os.WriteFile(path, []byte("[window\ntitle = oops"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed TOML, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "zero window width",
			mutate:  func(c *Config) { c.Window.Width = 0 },
			wantErr: true,
		},
		{
			name:    "unknown present mode",
			mutate:  func(c *Config) { c.Renderer.PresentMode = "mailbox" },
			wantErr: true,
		},
		{
			name:    "unsupported msaa count",
			mutate:  func(c *Config) { c.Renderer.MSAASamples = 8 },
			wantErr: true,
		},
		{
			name:    "negative frame limit",
			mutate:  func(c *Config) { c.Renderer.FrameLimit = -1 },
			wantErr: true,
		},
		{
			name:    "zero tick rate",
			mutate:  func(c *Config) { c.Engine.TickRate = 0 },
			wantErr: true,
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
