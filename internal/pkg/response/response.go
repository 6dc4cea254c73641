package response

import "github.com/gofiber/fiber/v2"

// Response represents a standard JSON response.
// Only operational endpoints (health) answer with JSON; pages render HTML.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success sends a success response
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends an error response
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Error:   message,
	})
}

// ServiceUnavailable sends a 503 response with data describing the failing checks
func ServiceUnavailable(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(Response{
		Success: false,
		Error:   message,
		Data:    data,
	})
}
