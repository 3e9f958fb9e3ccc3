// phoneguard watches the webcam for a phone in hand and, once one has been
// seen for long enough, puts up an alert until the user gets back to work.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/teslashibe/phoneguard/internal/config"
	"github.com/teslashibe/phoneguard/internal/log"
	"github.com/teslashibe/phoneguard/pkg/assets"
	"github.com/teslashibe/phoneguard/pkg/audio"
	"github.com/teslashibe/phoneguard/pkg/camera"
	"github.com/teslashibe/phoneguard/pkg/detection"
	"github.com/teslashibe/phoneguard/pkg/display"
	"github.com/teslashibe/phoneguard/pkg/guard"
	"github.com/teslashibe/phoneguard/pkg/metrics"
	"github.com/teslashibe/phoneguard/pkg/web"
)

// highgui windows must be driven from the process' main thread.
func init() {
	runtime.LockOSThread()
}

type flags struct {
	config   string
	debug    bool
	headless bool
	port     string
	camera   int
}

func main() {
	f := parseFlags()

	cfg, cfgErr := loadConfig(f)
	log.InitWithFormat(cfg.LogLevel, cfg.LogFormat)
	logger := log.L()

	if cfgErr != nil {
		if errors.Is(cfgErr, os.ErrNotExist) {
			logger.Warn("config file not found, using defaults", "path", f.config)
		} else {
			logger.Error("invalid configuration", "error", cfgErr)
			os.Exit(2)
		}
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("phoneguard stopped", "error", err)
		os.Exit(1)
	}
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.config, "config", config.DefaultPath, "Path to the YAML config file")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&f.headless, "headless", false, "Run without desktop windows (dashboard only)")
	flag.StringVar(&f.port, "port", "", "Dashboard port (overrides config)")
	flag.IntVar(&f.camera, "camera", -1, "Camera device index (overrides config)")
	flag.Parse()
	return f
}

// loadConfig layers the file, the environment and the flags.
func loadConfig(f flags) (config.Config, error) {
	cfg, err := config.Load(f.config)
	cfg.LoadEnv()

	if f.debug {
		cfg.LogLevel = "DEBUG"
	}
	if f.headless {
		cfg.UI.Headless = true
	}
	if f.port != "" {
		cfg.Web.Port = f.port
		cfg.Web.Enabled = true
	}
	if f.camera >= 0 {
		cfg.Camera.Device = f.camera
	}
	return cfg, err
}

func run(cfg config.Config, logger *slog.Logger) error {
	report := guard.Preflight(&cfg)

	var cam *camera.Webcam
	if report.Err() == nil {
		var err error
		cam, err = camera.OpenWebcam(cfg.Camera, logger)
		check := guard.Check{Name: "camera", Fatal: true, Detail: fmt.Sprintf("device %d", cfg.Camera.Device)}
		if err != nil {
			check.Err = fmt.Errorf("%w: %w", guard.ErrCameraUnavailable, err)
		}
		report.Add(check)
	}
	report.Log(logger)
	if err := report.Err(); err != nil {
		return err
	}

	det, err := detection.NewYOLO(cfg.YOLO(), logger)
	if err != nil {
		cam.Close()
		return err
	}

	soundPath, found := assets.ResolveSound(cfg.Alert.AudioFile)
	var sound audio.Sound
	player, err := audio.NewPlayer(soundPath, found, cfg.Alert.AudioPlayer, logger)
	if err != nil {
		logger.Warn("alerts will be silent", "error", err)
	} else {
		defer player.Close()
		sound = player
	}

	m := metrics.New()

	var srv *web.Server
	if cfg.Web.Enabled {
		mgr := camera.NewManager(cfg.Camera)
		mgr.OnConfigChange = cam.Apply
		srv = web.NewServer(cfg.Web.Port, web.Options{
			Camera:  mgr,
			Config:  cfg,
			Metrics: m.Handler(),
		}, logger)
		srv.StartAsync()
	}

	app, err := guard.New(guard.FromConfig(&cfg), guard.Deps{
		Camera:       cam,
		Detector:     det,
		Images:       assets.NewLoader(cfg.Alert.ImagesFolder, cfg.Alert.WindowMaxWidth, logger),
		Sound:        sound,
		AudioMissing: !found,
		Web:          srv,
		Metrics:      m,
		Logger:       logger,
	})
	if err != nil {
		cam.Close()
		det.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result := make(chan error, 1)
	go func() {
		result <- app.Run(ctx)
		stop()
	}()

	if !cfg.UI.Headless {
		desk := display.NewDesktop(display.Config{
			PreviewName: cfg.UI.DisplayWindowName,
			AlertName:   cfg.UI.AlertWindowName,
			FPS:         cfg.UI.DisplayFPS,
			QuitKey:     cfg.UI.QuitKey,
		}, logger)
		if err := desk.Run(ctx, app); err != nil {
			logger.Warn("display stopped", "error", err)
		}
		desk.Close()
	}

	return <-result
}
