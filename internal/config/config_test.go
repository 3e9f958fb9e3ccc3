package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate(): %v", err)
	}

	fc := cfg.Focus()
	if fc.Threshold != 30 || fc.ConfidenceFloor != 0.5 {
		t.Errorf("Focus: got %+v", fc)
	}
	if fc.SwitchInterval != 2*time.Second || fc.TransitionDuration != 800*time.Millisecond {
		t.Errorf("Focus timing: got %v / %v", fc.SwitchInterval, fc.TransitionDuration)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err: got %v, want os.ErrNotExist", err)
	}
	if cfg.Detection.Threshold != Default().Detection.Threshold {
		t.Error("missing file should return defaults")
	}
}

func TestLoad_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
detection:
  threshold: 12
  confidence: 0.7
alert:
  images_folder: "wisdom"
  switch_interval: 1500
ui:
  quit_key: "x"
log_level: DEBUG
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Detection.Threshold != 12 || cfg.Detection.Confidence != 0.7 {
		t.Errorf("detection: got %+v", cfg.Detection)
	}
	if cfg.Alert.ImagesFolder != "wisdom" || cfg.Alert.SwitchIntervalMS != 1500 {
		t.Errorf("alert: got %+v", cfg.Alert)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Alert.TransitionDurationMS != 800 || cfg.Alert.WindowMaxWidth != 500 {
		t.Errorf("alert defaults lost: got %+v", cfg.Alert)
	}
	if cfg.UI.QuitKey != "x" || cfg.UI.DisplayFPS != 60 {
		t.Errorf("ui: got %+v", cfg.UI)
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("LogLevel: got %q", cfg.LogLevel)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("detection: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("err: got %T %v, want *ConfigError", err, err)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("PHONEGUARD_THRESHOLD", "5")
	t.Setenv("PHONEGUARD_CONFIDENCE", "0.65")
	t.Setenv("PHONEGUARD_IMAGES", "/tmp/imgs")
	t.Setenv("PHONEGUARD_WEB_PORT", "9000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg := Default()
	cfg.LoadEnv()

	if cfg.Detection.Threshold != 5 || cfg.Detection.Confidence != 0.65 {
		t.Errorf("detection: got %+v", cfg.Detection)
	}
	if cfg.Alert.ImagesFolder != "/tmp/imgs" || cfg.Web.Port != "9000" || cfg.LogLevel != "warn" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoadEnv_IgnoresMalformed(t *testing.T) {
	t.Setenv("PHONEGUARD_THRESHOLD", "lots")
	cfg := Default()
	cfg.LoadEnv()
	if cfg.Detection.Threshold != 30 {
		t.Errorf("Threshold: got %d, want 30", cfg.Detection.Threshold)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero threshold", func(c *Config) { c.Detection.Threshold = 0 }},
		{"confidence above one", func(c *Config) { c.Detection.Confidence = 1.5 }},
		{"bad class", func(c *Config) { c.Detection.ClassID = 80 }},
		{"odd input size", func(c *Config) { c.Detection.InputSize = 100 }},
		{"zero switch interval", func(c *Config) { c.Alert.SwitchIntervalMS = 0 }},
		{"negative transition", func(c *Config) { c.Alert.TransitionDurationMS = -1 }},
		{"zero fps", func(c *Config) { c.UI.DisplayFPS = 0 }},
		{"long quit key", func(c *Config) { c.UI.QuitKey = "quit" }},
		{"bad port", func(c *Config) { c.Web.Port = "http" }},
		{"bad camera quality", func(c *Config) { c.Camera.Quality = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestValidate_WebDisabledSkipsPort(t *testing.T) {
	cfg := Default()
	cfg.Web.Enabled = false
	cfg.Web.Port = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestYOLO(t *testing.T) {
	cfg := Default()
	cfg.Detection.Confidence = 0.1
	y := cfg.YOLO()
	if y.ConfidenceThresh != float32(0.1) {
		t.Errorf("model threshold should drop to the floor, got %v", y.ConfidenceThresh)
	}
	if len(y.Classes) != 1 || y.Classes[0] != cfg.Detection.ClassID {
		t.Errorf("Classes: got %v", y.Classes)
	}
}

func TestFrameInterval(t *testing.T) {
	cfg := Default()
	cfg.UI.DisplayFPS = 50
	if got := cfg.FrameInterval(); got != 20*time.Millisecond {
		t.Errorf("FrameInterval: got %v, want 20ms", got)
	}
}
