package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the system
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleLibrarian Role = "BIBLIOTECARIO"
	RoleReader    Role = "LECTOR"
)

// User represents a library user (reader or staff)
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Role         Role
	Active       bool
	PasswordHash string
	CreatedAt    time.Time
}

// IsStaff reports whether the user may operate the back office
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleLibrarian
}

// Book represents a catalogued book copy
type Book struct {
	ID        uuid.UUID
	ISBN      string
	Title     string
	Author    string
	Status    BookStatus
	CreatedAt time.Time
}

// LoanPeriod is the commitment window of a loan
type LoanPeriod struct {
	StartUTC time.Time
	DueUTC   time.Time
}

// Days returns the length of the period in whole days, rounded up
func (p LoanPeriod) Days() int {
	d := p.DueUTC.Sub(p.StartUTC)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// Loan (préstamo) of a book to a user
type Loan struct {
	ID            uuid.UUID
	BookID        uuid.UUID
	UserID        uuid.UUID
	Status        LoanStatus
	Period        LoanPeriod
	ReturnedAtUTC *time.Time
	Notes         string
	CreatedAt     time.Time
}

// IsOverdueAt reports whether the loan is late at asOf.
// A Pendiente loan past its due date has started too, so it counts as late.
func (l *Loan) IsOverdueAt(asOf time.Time) bool {
	switch l.Status {
	case LoanOverdue:
		return true
	case LoanActive, LoanPending:
		return l.Period.DueUTC.Before(asOf)
	default:
		return false
	}
}

// Penalty (penalización) blocks a user from borrowing while active
type Penalty struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	LoanID    uuid.UUID
	Reason    string
	StartUTC  time.Time
	EndUTC    time.Time
	CreatedAt time.Time
}

// IsActiveAt reports whether asOf falls inside [Start, End)
func (p *Penalty) IsActiveAt(asOf time.Time) bool {
	return !asOf.Before(p.StartUTC) && asOf.Before(p.EndUTC)
}

// Summary holds the admin aggregate counts shown on the dashboard
type Summary struct {
	ActiveLoans     int
	AvailableBooks  int
	ActiveUsers     int
	TotalUsers      int
	ActivePenalties int
}
