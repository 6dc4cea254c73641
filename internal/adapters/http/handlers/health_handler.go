package handlers

import (
	"sigebi-web/internal/config"
	"sigebi-web/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	check func() error
}

// NewHealthHandler creates a health handler checking the database
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{check: config.HealthCheck}
}

// HealthCheck reports API and database health
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	checks := fiber.Map{
		"api":      "healthy",
		"database": "healthy",
	}

	if err := h.check(); err != nil {
		checks["database"] = "unhealthy"
		return response.ServiceUnavailable(c, "database unavailable", checks)
	}

	return response.Success(c, "ok", fiber.Map{
		"mode":   modeOf(config.AppConfig),
		"checks": checks,
	})
}

func modeOf(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	return cfg.AppMode
}
