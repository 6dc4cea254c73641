package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"sigebi-web/internal/config"
	"sigebi-web/internal/core/domain"
	"sigebi-web/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// AccessTokenCookie is the cookie carrying the staff access token
const AccessTokenCookie = "access_token"

// Authenticator checks staff credentials
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

// AccountHandler handles staff login and logout
type AccountHandler struct {
	auth Authenticator
	cfg  *config.Config
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(auth Authenticator, cfg *config.Config) *AccountHandler {
	return &AccountHandler{
		auth: auth,
		cfg:  cfg,
	}
}

// LoginView is the model of the login form
type LoginView struct {
	Email     string
	ReturnURL string
	Errors    *FormErrors
}

// LoginForm shows the login form
func (h *AccountHandler) LoginForm(c *fiber.Ctx) error {
	view := &LoginView{ReturnURL: safeReturnURL(c.Query("returnUrl")), Errors: NewFormErrors()}
	return render(c, "account/login", NewPage(c, "Iniciar sesión", view))
}

// Login authenticates the user and sets the access token cookie
func (h *AccountHandler) Login(c *fiber.Ctx) error {
	view := &LoginView{
		Email:     strings.TrimSpace(c.FormValue("Email")),
		ReturnURL: safeReturnURL(c.FormValue("ReturnUrl")),
		Errors:    NewFormErrors(),
	}
	pass := c.FormValue("Password")

	if view.Email == "" {
		view.Errors.Add("Email", "Debe indicar el correo.")
	}
	if pass == "" {
		view.Errors.Add("Password", "Debe indicar la contraseña.")
	}
	if view.Errors.Any() {
		return h.renderLogin(c, fiber.StatusOK, view)
	}

	result, err := h.auth.Login(c.Context(), view.Email, pass)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			view.Errors.Add("", "Correo o contraseña incorrectos.")
		case errors.Is(err, domain.ErrUserInactive):
			view.Errors.Add("", "La cuenta está inactiva.")
		default:
			return err
		}
		return h.renderLogin(c, fiber.StatusUnauthorized, view)
	}

	h.setAuthCookie(c, result.AccessToken)
	return c.Redirect(view.ReturnURL)
}

// Logout clears the access token cookie
func (h *AccountHandler) Logout(c *fiber.Ctx) error {
	h.clearAuthCookie(c)
	return c.Redirect("/")
}

func (h *AccountHandler) renderLogin(c *fiber.Ctx, status int, view *LoginView) error {
	c.Status(status)
	return render(c, "account/login", NewPage(c, "Iniciar sesión", view))
}

func (h *AccountHandler) setAuthCookie(c *fiber.Ctx, accessToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.AccessTokenMins * 60,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

func (h *AccountHandler) clearAuthCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-1 * time.Hour),
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// safeReturnURL only allows local paths
func safeReturnURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	return raw
}
