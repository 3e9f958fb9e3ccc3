// Package config loads the phoneguard configuration file.
//
// The file is YAML with the sections detection, alert, ui, camera and web.
// Missing keys keep their defaults; environment variables override the file
// and command-line flags override both (see cmd/phoneguard).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/phoneguard/pkg/camera"
	"github.com/teslashibe/phoneguard/pkg/detection"
	"github.com/teslashibe/phoneguard/pkg/focus"
)

// DefaultPath is where the binary looks for its configuration.
const DefaultPath = "config.yaml"

// Config is the whole application configuration.
type Config struct {
	Detection DetectionConfig `yaml:"detection" json:"detection"`
	Alert     AlertConfig     `yaml:"alert" json:"alert"`
	UI        UIConfig        `yaml:"ui" json:"ui"`
	Camera    camera.Config   `yaml:"camera" json:"camera"`
	Web       WebConfig       `yaml:"web" json:"web"`

	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"` // "text" or "json"
}

// DetectionConfig controls the detector and the debounce.
type DetectionConfig struct {
	Threshold   int     `yaml:"threshold" json:"threshold"`   // Consecutive frames before alerting
	Confidence  float64 `yaml:"confidence" json:"confidence"` // Confidence floor (0-1)
	ModelPath   string  `yaml:"yolo_model_path" json:"yolo_model_path"`
	ClassID     int     `yaml:"cell_phone_class_id" json:"cell_phone_class_id"`
	InputSize   int     `yaml:"input_size" json:"input_size"`
	NMSThresh   float64 `yaml:"nms_threshold" json:"nms_threshold"`
	IntervalMS  int     `yaml:"interval_ms" json:"interval_ms"` // Minimum time between detections, 0 = every frame
}

// AlertConfig controls the alert content and timing.
type AlertConfig struct {
	ImagesFolder         string `yaml:"images_folder" json:"images_folder"`
	AudioFile            string `yaml:"audio_file" json:"audio_file"`
	AudioPlayer          string `yaml:"audio_player" json:"audio_player"` // External player binary, "" = auto
	WindowMaxWidth       int    `yaml:"window_max_width" json:"window_max_width"`
	SwitchIntervalMS     int    `yaml:"switch_interval" json:"switch_interval"`
	TransitionDurationMS int    `yaml:"transition_duration" json:"transition_duration"`
}

// UIConfig controls the desktop windows.
type UIConfig struct {
	DisplayWindowName  string `yaml:"display_window_name" json:"display_window_name"`
	AlertWindowName    string `yaml:"alert_window_name" json:"alert_window_name"`
	DisplayFPS         int    `yaml:"display_fps" json:"display_fps"`
	QuitKey            string `yaml:"quit_key" json:"quit_key"`
	ContinueButtonText string `yaml:"continue_button_text" json:"continue_button_text"`
	QuitButtonText     string `yaml:"quit_button_text" json:"quit_button_text"`
	Headless           bool   `yaml:"headless" json:"headless"`
}

// WebConfig controls the dashboard server.
type WebConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    string `yaml:"port" json:"port"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Detection: DetectionConfig{
			Threshold:  30,
			Confidence: 0.5,
			ModelPath:  "models/yolo11n.onnx",
			ClassID:    detection.CellPhone,
			InputSize:  640,
			NMSThresh:  0.45,
		},
		Alert: AlertConfig{
			ImagesFolder:         "horse of wisdom",
			AudioFile:            "alert_sound.mp3",
			WindowMaxWidth:       500,
			SwitchIntervalMS:     2000,
			TransitionDurationMS: 800,
		},
		UI: UIConfig{
			DisplayWindowName:  "Procrastination Detector",
			AlertWindowName:    "Get back to work!",
			DisplayFPS:         60,
			QuitKey:            "q",
			ContinueButtonText: "I'm working!",
			QuitButtonText:     "Done for the day",
		},
		Camera: camera.DefaultConfig(),
		Web: WebConfig{
			Enabled: true,
			Port:    "8181",
		},
		LogLevel:  "INFO",
		LogFormat: "text",
	}
}

// Load reads path on top of the defaults. When the file does not exist the
// defaults are returned together with an error matching os.ErrNotExist, so
// callers can warn and continue.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), &ConfigError{Field: path, Message: "invalid YAML", Err: err}
	}
	return cfg, nil
}

// LoadEnv applies environment overrides. Malformed numbers are ignored.
func (c *Config) LoadEnv() {
	if v, err := strconv.Atoi(os.Getenv("PHONEGUARD_THRESHOLD")); err == nil {
		c.Detection.Threshold = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("PHONEGUARD_CONFIDENCE"), 64); err == nil {
		c.Detection.Confidence = v
	}
	if v := os.Getenv("PHONEGUARD_MODEL"); v != "" {
		c.Detection.ModelPath = v
	}
	if v := os.Getenv("PHONEGUARD_IMAGES"); v != "" {
		c.Alert.ImagesFolder = v
	}
	if v := os.Getenv("PHONEGUARD_AUDIO"); v != "" {
		c.Alert.AudioFile = v
	}
	if v := os.Getenv("PHONEGUARD_WEB_PORT"); v != "" {
		c.Web.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks every section and joins the failures.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Focus().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Detection.ClassID < 0 || c.Detection.ClassID >= len(detection.COCOClasses) {
		errs = append(errs, &ConfigError{Field: "detection.cell_phone_class_id", Message: "must be a COCO class id (0-79)"})
	}
	if c.Detection.InputSize < 32 || c.Detection.InputSize%32 != 0 {
		errs = append(errs, &ConfigError{Field: "detection.input_size", Message: "must be a positive multiple of 32"})
	}
	if c.Alert.WindowMaxWidth < 1 {
		errs = append(errs, &ConfigError{Field: "alert.window_max_width", Message: "must be positive"})
	}
	if c.UI.DisplayFPS < 1 || c.UI.DisplayFPS > 240 {
		errs = append(errs, &ConfigError{Field: "ui.display_fps", Message: "must be between 1 and 240"})
	}
	if len(c.UI.QuitKey) != 1 {
		errs = append(errs, &ConfigError{Field: "ui.quit_key", Message: "must be a single character"})
	}
	for _, msg := range c.Camera.Validate() {
		errs = append(errs, &ConfigError{Field: "camera", Message: msg})
	}
	if c.Web.Enabled {
		if p, err := strconv.Atoi(c.Web.Port); err != nil || p < 1 || p > 65535 {
			errs = append(errs, &ConfigError{Field: "web.port", Message: "must be a TCP port"})
		}
	}

	return errors.Join(errs...)
}

// Focus returns the debounce and alert timing settings.
func (c *Config) Focus() focus.Config {
	return focus.Config{
		Threshold:          c.Detection.Threshold,
		ConfidenceFloor:    c.Detection.Confidence,
		SwitchInterval:     time.Duration(c.Alert.SwitchIntervalMS) * time.Millisecond,
		TransitionDuration: time.Duration(c.Alert.TransitionDurationMS) * time.Millisecond,
	}
}

// Target returns which detections feed the debounce.
func (c *Config) Target() detection.Target {
	return detection.Target{ClassID: c.Detection.ClassID, Floor: c.Detection.Confidence}
}

// YOLO returns the detector settings. The model is asked for the target
// class only, mirroring the class filter of the debounce.
func (c *Config) YOLO() detection.YOLOConfig {
	cfg := detection.DefaultYOLOConfig()
	cfg.ModelPath = c.Detection.ModelPath
	cfg.InputWidth = c.Detection.InputSize
	cfg.InputHeight = c.Detection.InputSize
	cfg.NMSThresh = float32(c.Detection.NMSThresh)
	cfg.Classes = []int{c.Detection.ClassID}
	if floor := float32(c.Detection.Confidence); floor < cfg.ConfidenceThresh {
		cfg.ConfidenceThresh = floor
	}
	return cfg
}

// FrameInterval is the display tick derived from DisplayFPS.
func (c *Config) FrameInterval() time.Duration {
	if c.UI.DisplayFPS < 1 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.UI.DisplayFPS)
}

// DetectionInterval is the minimum spacing between detector runs.
func (c *Config) DetectionInterval() time.Duration {
	return time.Duration(c.Detection.IntervalMS) * time.Millisecond
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Field, e.Message, e.Err)
	}
	return e.Field + ": " + e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
