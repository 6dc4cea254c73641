package handlers

import (
	"context"
	"log"
	"strings"
	"time"

	"sigebi-web/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// DashboardLoader loads the raw dashboard data
type DashboardLoader interface {
	Load(ctx context.Context, asOf time.Time) (*services.DashboardData, error)
}

// HomeHandler handles the home, privacy and error pages
type HomeHandler struct {
	dashboard DashboardLoader
	now       func() time.Time
}

// NewHomeHandler creates a new home handler
func NewHomeHandler(dashboard DashboardLoader) *HomeHandler {
	return &HomeHandler{
		dashboard: dashboard,
		now:       time.Now,
	}
}

// Index renders the dashboard. Query failures propagate to the error page.
func (h *HomeHandler) Index(c *fiber.Ctx) error {
	log.Println("Mostrando la página principal de SIGEBI")

	now := h.now().UTC()
	data, err := h.dashboard.Load(c.Context(), now)
	if err != nil {
		return err
	}

	category := strings.ToLower(strings.TrimSpace(c.Query("categoria")))
	view := BuildDashboard(data, now, category)

	return render(c, "home/index", NewPage(c, "Inicio", view))
}

// Privacy renders the privacy policy
func (h *HomeHandler) Privacy(c *fiber.Ctx) error {
	return render(c, "home/privacy", NewPage(c, "Política de privacidad", nil))
}

// Error renders the generic error page with the request id
func (h *HomeHandler) Error(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate")
	return render(c, "home/error", NewPage(c, "Error", nil))
}
