package middleware

import (
	"net/url"

	"sigebi-web/internal/adapters/http/handlers"
	"sigebi-web/internal/config"
	"sigebi-web/internal/core/domain"
	"sigebi-web/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// OptionalAuth doesn't require auth but sets user info when the token cookie is valid
func OptionalAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := c.Cookies(handlers.AccessTokenCookie)
		if accessToken == "" {
			return c.Next()
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			// Expired or tampered cookies are dropped so the user is asked to log in again
			c.ClearCookie(handlers.AccessTokenCookie)
			return c.Next()
		}

		c.Locals(handlers.LocalUserID, claims.UserID)
		c.Locals(handlers.LocalUserName, claims.Name)
		c.Locals(handlers.LocalRole, claims.Role)

		return c.Next()
	}
}

// RoleMiddleware redirects to the login form unless the user has one of the roles
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(handlers.LocalRole).(string)

		for _, allowed := range allowedRoles {
			if role == string(allowed) {
				return c.Next()
			}
		}

		if role != "" {
			return ErrorPage(c, fiber.StatusForbidden, "No tiene permiso para acceder a esta página.")
		}
		return c.Redirect("/Account/Login?returnUrl=" + url.QueryEscape(c.OriginalURL()))
	}
}

// StaffOnly allows ADMIN and BIBLIOTECARIO roles
func StaffOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleAdmin, domain.RoleLibrarian)
}
