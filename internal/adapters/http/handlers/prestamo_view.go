package handlers

import (
	"strings"

	"sigebi-web/internal/core/domain"
	"sigebi-web/internal/core/services"
)

const (
	formDateLayout = "2006-01-02"

	flashLoanCreated  = "PrestamoCreado"
	flashLoanReturned = "PrestamoDevuelto"
	flashLoanError    = "PrestamoError"

	msgUserRequired  = "Debe indicar el identificador del usuario."
	msgBookRequired  = "Debe indicar el identificador del libro."
	msgInvalidGUID   = "Debe ingresar un GUID válido."
	msgStartRequired = "Debe indicar la fecha de inicio."
	msgDueRequired   = "Debe indicar la fecha compromiso."
	msgInvalidDate   = "La fecha no tiene un formato válido."
	msgDueNotAfter   = "La fecha fin debe ser posterior a la fecha de inicio."
)

// FormErrors collects field and form-level messages for redisplay
type FormErrors struct {
	Fields map[string]string
	Form   []string
}

// NewFormErrors creates an empty error set
func NewFormErrors() *FormErrors {
	return &FormErrors{Fields: map[string]string{}}
}

// Add records a message; an empty field makes it a form-level message.
// The first message per field wins.
func (e *FormErrors) Add(field, message string) {
	if field == "" {
		e.Form = append(e.Form, message)
		return
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// Field returns the message for a field, if any
func (e *FormErrors) Field(name string) string {
	return e.Fields[name]
}

// Any reports whether there is at least one message
func (e *FormErrors) Any() bool {
	return len(e.Fields) > 0 || len(e.Form) > 0
}

// AddValidation copies the messages of a domain validation error
func (e *FormErrors) AddValidation(verr *domain.ValidationError) {
	for _, fe := range verr.Errors {
		e.Add(strings.TrimSpace(fe.Field), fe.Message)
	}
}

// LoanRow is a loan as displayed in the results table
type LoanRow struct {
	ID          string
	BookID      string
	UserID      string
	Status      string
	StatusLabel string
	Period      string
	ReturnedAt  string
	Notes       string
	CanReturn   bool
}

// NewLoanRow maps a domain loan to a display row
func NewLoanRow(l *domain.Loan) LoanRow {
	row := LoanRow{
		ID:          l.ID.String(),
		BookID:      l.BookID.String(),
		UserID:      l.UserID.String(),
		Status:      string(l.Status),
		StatusLabel: l.Status.Description(),
		Period:      l.Period.StartUTC.Format(dateLayout) + " - " + l.Period.DueUTC.Format(dateLayout),
		Notes:       l.Notes,
		CanReturn:   l.Status.IsOpen(),
	}
	if l.ReturnedAtUTC != nil {
		row.ReturnedAt = l.ReturnedAtUTC.Format(dateLayout)
	}
	return row
}

// LoanSearchView is the model of the loan search page
type LoanSearchView struct {
	UserID   string
	Searched bool
	Results  []LoanRow
	Errors   *FormErrors
}

// LoanCreateView is the model of the loan creation form.
// Values are kept as typed so the form can be redisplayed unchanged.
type LoanCreateView struct {
	BookID    string
	UserID    string
	StartDate string
	DueDate   string
	Notes     string
	Errors    *FormErrors
}

// Field names for the create form, aligned with the service validation fields
const (
	fieldBookID    = services.FieldBookID
	fieldUserID    = services.FieldUserID
	fieldStartDate = services.FieldStartDate
	fieldDueDate   = services.FieldDueDate
	fieldNotes     = "Observaciones"
)
