package middleware

import (
	"errors"
	"log"
	"strings"
	"time"

	"sigebi-web/internal/adapters/http/handlers"
	"sigebi-web/internal/config"
	"sigebi-web/internal/core/domain"
	"sigebi-web/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Setup configures all global middlewares for the application
func Setup(app *fiber.App, cfg *config.Config) {
	// Recover middleware - catches panics
	app.Use(recover.New())

	// Request id shown on the error page and in the access log
	app.Use(requestid.New(requestid.Config{
		ContextKey: handlers.LocalRequestID,
	}))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Security Headers middleware (Helmet)
	app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "SAMEORIGIN",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginEmbedderPolicy: "credentialless",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-origin",
		PermissionPolicy:          "geolocation=(), microphone=(), camera=()",
	}))

	// Rate Limiter middleware - 100 requests per minute per IP, static assets excluded
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/static/")
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return ErrorPage(c, fiber.StatusTooManyRequests, "Demasiadas solicitudes. Espere un momento e intente de nuevo.")
		},
	}))

	// Logger middleware
	if cfg.IsDev() {
		app.Use(logger.New(logger.Config{
			Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
		}))
	} else {
		app.Use(logger.New(logger.Config{
			Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid} | ${error}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}

	// CORS middleware
	if cfg.IsDev() {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     "*",
			AllowMethods:     "GET,POST,OPTIONS",
			AllowHeaders:     "Origin,Content-Type,Accept",
			AllowCredentials: false, // Cannot be true with AllowOrigins: "*"
		}))
	} else {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.GetAllowedOrigins(),
			AllowMethods:     "GET,POST,OPTIONS",
			AllowHeaders:     "Origin,Content-Type,Accept",
			AllowCredentials: true,
		}))
	}
}

// NewSessionStore creates the session store used for flash messages
func NewSessionStore(cfg *config.Config) *session.Store {
	return session.New(session.Config{
		Expiration:     30 * time.Minute,
		KeyLookup:      "cookie:sigebi_session",
		CookieSecure:   cfg.Cookie.Secure,
		CookieHTTPOnly: true,
		CookieSameSite: cfg.Cookie.SameSite,
		CookieDomain:   cfg.Cookie.Domain,
	})
}

// CSRF protects every form post; templates send the token as the _csrf field
func CSRF(cfg *config.Config) fiber.Handler {
	return csrf.New(csrf.Config{
		KeyLookup:         "form:_csrf",
		CookieName:        "sigebi_csrf",
		CookieSameSite:    "Lax",
		CookieSecure:      cfg.Cookie.Secure,
		CookieHTTPOnly:    true,
		CookieSessionOnly: true,
		Expiration:        1 * time.Hour,
		ContextKey:        handlers.LocalCSRF,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("⚠️ CSRF rejected %s %s: %v", c.Method(), c.Path(), err)
			return ErrorPage(c, fiber.StatusForbidden, "El formulario expiró. Vuelva a cargar la página e intente de nuevo.")
		},
	})
}

// AuthRateLimiter creates a stricter rate limiter for the login form
// 5 requests per minute per IP
func AuthRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "-auth"
		},
		LimitReached: func(c *fiber.Ctx) error {
			return ErrorPage(c, fiber.StatusTooManyRequests, "Demasiados intentos de inicio de sesión. Espere 1 minuto.")
		},
	})
}

// CustomErrorHandler renders unhandled errors as the HTML error page (JSON for /health)
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Ocurrió un error al procesar la solicitud."

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		if code == fiber.StatusNotFound {
			message = "La página solicitada no existe."
		} else if code < fiber.StatusInternalServerError {
			message = fe.Message
		}
	case errors.Is(err, domain.ErrNotFound):
		code = fiber.StatusNotFound
		message = err.Error()
	}

	if code >= fiber.StatusInternalServerError {
		log.Printf("❌ %s %s [%v]: %v", c.Method(), c.Path(), c.Locals(handlers.LocalRequestID), err)
	}

	return ErrorPage(c, code, message)
}

// ErrorView is the model of the error page
type ErrorView struct {
	Code    int
	Message string
}

// ErrorPage answers with the error page, or JSON for operational endpoints
func ErrorPage(c *fiber.Ctx, code int, message string) error {
	if wantsJSON(c) {
		return response.Error(c, code, message)
	}

	c.Status(code)
	c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate")

	page := handlers.NewPage(c, "Error", &ErrorView{Code: code, Message: message})
	if err := c.Render("home/error", page); err != nil {
		log.Printf("❌ Failed to render error page: %v", err)
		return c.Status(code).SendString(message)
	}
	return nil
}

func wantsJSON(c *fiber.Ctx) bool {
	if strings.HasPrefix(c.Path(), "/health") {
		return true
	}
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}
