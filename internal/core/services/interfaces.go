package services

import (
	"context"
	"time"

	"sigebi-web/internal/core/domain"

	"github.com/google/uuid"
)

// AdminService defines the admin summary interface
type AdminService interface {
	GetSummary(ctx context.Context) (*domain.Summary, error)
}

// ReportService defines aggregate report interface.
// Maps are keyed by status label.
type ReportService interface {
	GetLoansByStatus(ctx context.Context) (map[string]int, error)
	GetBooksByStatus(ctx context.Context) (map[string]int, error)
}

// LoanService defines loan (préstamo) service interface
type LoanService interface {
	GetLoansByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error)
	GetOverdueLoans(ctx context.Context, asOf time.Time) ([]*domain.Loan, error)
	CreateLoan(ctx context.Context, input CreateLoanInput) (*domain.Loan, error)
	ReturnLoan(ctx context.Context, loanID uuid.UUID, at time.Time) (*domain.Loan, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int, error)
}

// CreateLoanInput for creating loan
type CreateLoanInput struct {
	BookID   uuid.UUID
	UserID   uuid.UUID
	StartUTC time.Time
	DueUTC   time.Time
	Notes    string
}
