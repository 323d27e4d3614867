package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValidAfterNormalize(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !filepath.IsAbs(cfg.Paths.WorkDir) {
		t.Errorf("work_dir not absolute: %q", cfg.Paths.WorkDir)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Error("exists should be false for a missing file")
	}
	if cfg.Tools.FFmpeg != "ffmpeg" || cfg.Render.FPS != 25.0 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[tools]
ffmpeg = "/opt/ffmpeg/bin/ffmpeg"

[render]
width = 1920
height = 1080
fps = 30.0
fast = true

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Errorf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Tools.FFmpeg != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("ffmpeg = %q", cfg.Tools.FFmpeg)
	}
	if cfg.Render.Width != 1920 || cfg.Render.Height != 1080 || !cfg.Render.Fast {
		t.Errorf("render = %+v", cfg.Render)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Errorf("logging not lowercased: %+v", cfg.Logging)
	}
	// Untouched sections keep defaults.
	if !cfg.Audio.Enabled {
		t.Error("audio.enabled default lost")
	}
}

func TestLoadRejectsOddDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[render]\nwidth = 1281\nheight = 720\nfps = 25.0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "even") {
		t.Fatalf("Load: %v, want even-dimension error", err)
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[tools\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNormalizeFallsBackOnUnknownLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "xml"
	cfg.Logging.Level = "verbose"
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Errorf("logging fallback = %+v", cfg.Logging)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(raw), "[render]") {
		t.Error("sample config missing render section")
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := ExpandPath("~/x/y")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "x", "y") {
		t.Errorf("ExpandPath = %q", got)
	}
}
