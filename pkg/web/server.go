// Package web serves the dashboard: live status, camera and alert feeds,
// and the user actions of the alert window.
package web

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/phoneguard/internal/log"
	"github.com/teslashibe/phoneguard/pkg/camera"
	"github.com/teslashibe/phoneguard/pkg/focus"
	"github.com/teslashibe/phoneguard/pkg/hub"
)

//go:embed static
var static embed.FS

// State is what the dashboard shows about the detector.
type State struct {
	focus.Snapshot
	Warning      string `json:"warning,omitempty"`
	AudioMissing bool   `json:"audio_missing"`
	UpdatedAt    string `json:"updated_at"`
}

// Server is the web dashboard server
type Server struct {
	app    *fiber.App
	port   string
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	state   State
	stateMu sync.RWMutex

	alertFrame []byte
	frameMu    sync.RWMutex

	statusHub *hub.Hub
	cameraHub *hub.Hub
	alertHub  *hub.Hub

	camera  *camera.Manager
	config  any
	metrics http.Handler

	// User actions, wired to the controller's event loop. Dismiss and Next
	// report whether an alert was live.
	OnDismiss func() bool
	OnNext    func() bool
	OnQuit    func()
}

// Options configures optional endpoints. Nil fields disable them.
type Options struct {
	Camera  *camera.Manager // GET/PUT /api/camera
	Config  any             // GET /api/config
	Metrics http.Handler    // GET /metrics
}

// NewServer creates a new web dashboard server
func NewServer(port string, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = log.L()
	}
	logger = logger.With("component", "web")

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		port:      port,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		statusHub: hub.New("status", logger),
		cameraHub: hub.New("camera", logger),
		alertHub:  hub.New("alert", logger),
		camera:    opts.Camera,
		config:    opts.Config,
		metrics:   opts.Metrics,
	}
	s.state.UpdatedAt = time.Now().Format(time.RFC3339)

	app := fiber.New(fiber.Config{
		AppName:               "phoneguard",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/alert/dismiss", s.handleDismiss)
	api.Post("/alert/next", s.handleNext)
	api.Get("/alert/image", s.handleAlertImage)
	api.Post("/quit", s.handleQuit)
	api.Get("/config", s.handleConfig)
	api.Get("/camera", s.handleGetCamera)
	api.Put("/camera", s.handleUpdateCamera)
	api.Get("/camera/presets", s.handleCameraPresets)

	if s.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(s.metrics))
	}

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.serveHub(s.statusHub)))
	app.Get("/ws/camera", websocket.New(s.serveHub(s.cameraHub)))
	app.Get("/ws/alert", websocket.New(s.serveHub(s.alertHub)))

	sub, _ := fs.Sub(static, "static")
	app.Use("/", filesystem.New(filesystem.Config{
		Root:  http.FS(sub),
		Index: "index.html",
	}))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and serves until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("dashboard listening", "url", "http://localhost:"+s.port)

	go s.statusHub.Run(s.ctx)
	go s.cameraHub.Run(s.ctx)
	go s.alertHub.Run(s.ctx)

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("web server stopped", "error", err)
		}
	}()
}

// Shutdown stops the hubs and the listener.
func (s *Server) Shutdown() error {
	s.cancel()
	return s.app.ShutdownWithTimeout(3 * time.Second)
}

// UpdateState replaces the dashboard state and broadcasts it.
func (s *Server) UpdateState(st State) {
	st.UpdatedAt = time.Now().Format(time.RFC3339)

	s.stateMu.Lock()
	s.state = st
	s.stateMu.Unlock()

	if err := s.statusHub.BroadcastJSON(st); err != nil {
		s.logger.Warn("encode state", "error", err)
	}
}

// State returns the last published state.
func (s *Server) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// SendCameraFrame sends an annotated JPEG camera frame to all clients.
func (s *Server) SendCameraFrame(jpegData []byte) {
	s.cameraHub.BroadcastBinary(jpegData)
}

// SendAlertFrame publishes a rendered JPEG alert frame. A nil frame clears
// the alert image once the alert ends.
func (s *Server) SendAlertFrame(jpegData []byte) {
	s.frameMu.Lock()
	s.alertFrame = jpegData
	s.frameMu.Unlock()

	if jpegData != nil {
		s.alertHub.BroadcastBinary(jpegData)
	}
}

func (s *Server) serveHub(h *hub.Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		hub.NewClient(h, c).Run(s.ctx)
	}
}
