package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"sigebi-web/internal/config"
	"sigebi-web/internal/core/domain"
	"sigebi-web/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// PrestamoHandler handles loan search, creation and return
type PrestamoHandler struct {
	loanService services.LoanService
	flash       *Flash
	policy      config.LibraryConfig
	now         func() time.Time
}

// NewPrestamoHandler creates a new loan handler
func NewPrestamoHandler(loanService services.LoanService, flash *Flash, policy config.LibraryConfig) *PrestamoHandler {
	return &PrestamoHandler{
		loanService: loanService,
		flash:       flash,
		policy:      policy,
		now:         time.Now,
	}
}

// Index shows the search form and, for a valid ?usuarioId=, the loans of that user
func (h *PrestamoHandler) Index(c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.Query("usuarioId"))
	view := &LoanSearchView{UserID: raw, Results: []LoanRow{}, Errors: NewFormErrors()}

	if raw != "" {
		view.Searched = true
		userID, ok := parseGUID(raw)
		if !ok {
			view.Errors.Add(fieldUserID, msgInvalidGUID)
		} else if err := h.search(c, view, userID); err != nil {
			return err
		}
	}

	return h.renderIndex(c, view)
}

// Search handles the posted search form
func (h *PrestamoHandler) Search(c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.FormValue(fieldUserID))
	view := &LoanSearchView{UserID: raw, Searched: true, Results: []LoanRow{}, Errors: NewFormErrors()}

	if raw == "" {
		view.Errors.Add(fieldUserID, msgUserRequired)
		return h.renderIndex(c, view)
	}

	userID, ok := parseGUID(raw)
	if !ok {
		view.Errors.Add(fieldUserID, msgInvalidGUID)
		return h.renderIndex(c, view)
	}

	if err := h.search(c, view, userID); err != nil {
		return err
	}
	return h.renderIndex(c, view)
}

func (h *PrestamoHandler) search(c *fiber.Ctx, view *LoanSearchView, userID uuid.UUID) error {
	loans, err := h.loanService.GetLoansByUser(c.Context(), userID)
	if err != nil {
		return err
	}
	for _, l := range loans {
		view.Results = append(view.Results, NewLoanRow(l))
	}
	return nil
}

func (h *PrestamoHandler) renderIndex(c *fiber.Ctx, view *LoanSearchView) error {
	page := NewPage(c, "Préstamos", view)
	if id := h.flash.Pop(c, flashLoanCreated); id != "" {
		page.Flash = fmt.Sprintf("Préstamo %s registrado correctamente.", id)
	}
	if id := h.flash.Pop(c, flashLoanReturned); id != "" {
		page.Flash = fmt.Sprintf("Préstamo %s devuelto correctamente.", id)
	}
	page.FlashError = h.flash.Pop(c, flashLoanError)

	return render(c, "prestamo/index", page)
}

// CreateForm shows the creation form with today and the default loan length
func (h *PrestamoHandler) CreateForm(c *fiber.Ctx) error {
	start := h.now().UTC().Truncate(24 * time.Hour)
	days := h.policy.LoanDefaultDays
	if days <= 0 {
		days = 7
	}

	view := &LoanCreateView{
		StartDate: start.Format(formDateLayout),
		DueDate:   start.AddDate(0, 0, days).Format(formDateLayout),
		Errors:    NewFormErrors(),
	}
	return render(c, "prestamo/create", NewPage(c, "Registrar préstamo", view))
}

// Create validates the posted form and registers the loan
func (h *PrestamoHandler) Create(c *fiber.Ctx) error {
	view := &LoanCreateView{
		BookID:    strings.TrimSpace(c.FormValue(fieldBookID)),
		UserID:    strings.TrimSpace(c.FormValue(fieldUserID)),
		StartDate: strings.TrimSpace(c.FormValue(fieldStartDate)),
		DueDate:   strings.TrimSpace(c.FormValue(fieldDueDate)),
		Notes:     strings.TrimSpace(c.FormValue(fieldNotes)),
		Errors:    NewFormErrors(),
	}

	input, ok := parseCreateForm(view)
	if !ok {
		return h.renderCreate(c, view)
	}

	if !input.DueUTC.After(input.StartUTC) {
		view.Errors.Add(fieldDueDate, msgDueNotAfter)
		return h.renderCreate(c, view)
	}

	loan, err := h.loanService.CreateLoan(c.Context(), input)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			view.Errors.AddValidation(verr)
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrConflict):
			view.Errors.Add("", err.Error())
		default:
			return err
		}
		return h.renderCreate(c, view)
	}

	if err := h.flash.Set(c, flashLoanCreated, loan.ID.String()); err != nil {
		log.Printf("⚠️ Failed to store flash: %v", err)
	}
	return c.Redirect("/Prestamo?usuarioId=" + url.QueryEscape(loan.UserID.String()))
}

func (h *PrestamoHandler) renderCreate(c *fiber.Ctx, view *LoanCreateView) error {
	return render(c, "prestamo/create", NewPage(c, "Registrar préstamo", view))
}

// Return closes an open loan and goes back to the borrower's list
func (h *PrestamoHandler) Return(c *fiber.Ctx) error {
	back := "/Prestamo"
	if userID, ok := parseGUID(c.FormValue(fieldUserID)); ok {
		back += "?usuarioId=" + url.QueryEscape(userID.String())
	}

	loanID, ok := parseGUID(c.Params("id"))
	if !ok {
		_ = h.flash.Set(c, flashLoanError, msgInvalidGUID)
		return c.Redirect(back)
	}

	loan, err := h.loanService.ReturnLoan(c.Context(), loanID, h.now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) {
			_ = h.flash.Set(c, flashLoanError, err.Error())
			return c.Redirect(back)
		}
		return err
	}

	if err := h.flash.Set(c, flashLoanReturned, loan.ID.String()); err != nil {
		log.Printf("⚠️ Failed to store flash: %v", err)
	}
	return c.Redirect("/Prestamo?usuarioId=" + url.QueryEscape(loan.UserID.String()))
}

// parseCreateForm converts the typed values, recording a message per bad field
func parseCreateForm(view *LoanCreateView) (services.CreateLoanInput, bool) {
	input := services.CreateLoanInput{Notes: view.Notes}

	input.BookID = requiredGUID(view.Errors, fieldBookID, view.BookID, msgBookRequired)
	input.UserID = requiredGUID(view.Errors, fieldUserID, view.UserID, msgUserRequired)
	input.StartUTC = requiredDate(view.Errors, fieldStartDate, view.StartDate, msgStartRequired)
	input.DueUTC = requiredDate(view.Errors, fieldDueDate, view.DueDate, msgDueRequired)

	return input, !view.Errors.Any()
}

func requiredGUID(errs *FormErrors, field, raw, missing string) uuid.UUID {
	if raw == "" {
		errs.Add(field, missing)
		return uuid.Nil
	}
	id, ok := parseGUID(raw)
	if !ok {
		errs.Add(field, msgInvalidGUID)
	}
	return id
}

func requiredDate(errs *FormErrors, field, raw, missing string) time.Time {
	if raw == "" {
		errs.Add(field, missing)
		return time.Time{}
	}
	t, err := time.ParseInLocation(formDateLayout, raw, time.UTC)
	if err != nil {
		errs.Add(field, msgInvalidDate)
		return time.Time{}
	}
	return t
}

// parseGUID accepts any uuid spelling except the nil uuid
func parseGUID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
