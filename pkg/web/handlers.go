package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/phoneguard/pkg/camera"
)

// handleStatus returns the detector state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.State())
}

func (s *Server) handleDismiss(c *fiber.Ctx) error {
	if s.OnDismiss == nil {
		return unavailable(c)
	}
	accepted := s.OnDismiss()
	if !accepted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"accepted": false,
			"error":    "no pending alert",
		})
	}
	return c.JSON(fiber.Map{"accepted": true})
}

func (s *Server) handleNext(c *fiber.Ctx) error {
	if s.OnNext == nil {
		return unavailable(c)
	}
	if !s.OnNext() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"accepted": false,
			"error":    "no alert shown",
		})
	}
	return c.JSON(fiber.Map{"accepted": true})
}

func (s *Server) handleQuit(c *fiber.Ctx) error {
	if s.OnQuit == nil {
		return unavailable(c)
	}
	s.OnQuit()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"accepted": true})
}

// handleAlertImage returns the last rendered alert frame
func (s *Server) handleAlertImage(c *fiber.Ctx) error {
	s.frameMu.RLock()
	frame := s.alertFrame
	s.frameMu.RUnlock()

	if frame == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no alert shown"})
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(frame)
}

func (s *Server) handleConfig(c *fiber.Ctx) error {
	if s.config == nil {
		return unavailable(c)
	}
	return c.JSON(s.config)
}

func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.camera == nil {
		return unavailable(c)
	}
	return c.JSON(s.camera.GetConfigJSON())
}

// handleUpdateCamera applies a partial camera config, e.g. {"preset":"720p"}
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	if s.camera == nil {
		return unavailable(c)
	}

	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if err := s.camera.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	s.logger.Info("camera config updated", "params", params)
	return c.JSON(s.camera.GetConfigJSON())
}

func (s *Server) handleCameraPresets(c *fiber.Ctx) error {
	return c.JSON(camera.PresetNames())
}

func unavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "not configured"})
}
