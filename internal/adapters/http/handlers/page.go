package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Locals keys shared with the middleware package
const (
	LocalCSRF      = "csrf"
	LocalRequestID = "requestid"
	LocalUserID    = "userID"
	LocalUserName  = "userName"
	LocalRole      = "role"
)

// Page is the data bound to every view; the layout reads the common fields
// and the page template reads Model.
type Page struct {
	Title       string
	CSRF        string
	RequestID   string
	CurrentUser string
	Flash       string
	FlashError  string
	Model       interface{}
}

// NewPage fills the common fields from the request
func NewPage(c *fiber.Ctx, title string, model interface{}) *Page {
	return &Page{
		Title:       title,
		CSRF:        localString(c, LocalCSRF),
		RequestID:   localString(c, LocalRequestID),
		CurrentUser: localString(c, LocalUserName),
		Model:       model,
	}
}

func render(c *fiber.Ctx, view string, page *Page) error {
	return c.Render(view, page)
}

func localString(c *fiber.Ctx, key string) string {
	v, _ := c.Locals(key).(string)
	return v
}

// Flash keeps one-shot messages in the session between a redirect and the next page
type Flash struct {
	store *session.Store
}

// NewFlash creates a flash helper over the session store
func NewFlash(store *session.Store) *Flash {
	return &Flash{store: store}
}

// Set stores a message under key
func (f *Flash) Set(c *fiber.Ctx, key, value string) error {
	sess, err := f.store.Get(c)
	if err != nil {
		return err
	}
	sess.Set(key, value)
	return sess.Save()
}

// Pop returns the message under key and removes it
func (f *Flash) Pop(c *fiber.Ctx, key string) string {
	sess, err := f.store.Get(c)
	if err != nil {
		log.Printf("⚠️ Session unavailable: %v", err)
		return ""
	}

	value, _ := sess.Get(key).(string)
	if value == "" {
		return ""
	}

	sess.Delete(key)
	if err := sess.Save(); err != nil {
		log.Printf("⚠️ Failed to save session: %v", err)
	}
	return value
}
