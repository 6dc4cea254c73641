package repositories

import (
	"context"
	"time"

	"sigebi-web/internal/core/domain"

	"github.com/google/uuid"
)

// LoanRepository defines loan (préstamo) repository interface
type LoanRepository interface {
	// Create stores the loan and flips the book from Disponible to Prestado in one
	// transaction. Returns a domain conflict when the book is no longer available.
	Create(ctx context.Context, loan *domain.Loan) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error)
	// ListOverdue returns Vencido loans and Activo/Pendiente loans due before asOf
	ListOverdue(ctx context.Context, asOf time.Time) ([]*domain.Loan, error)
	ListActiveDueBefore(ctx context.Context, asOf time.Time) ([]*domain.Loan, error)
	// ActivateStarted moves Pendiente loans whose start is not after asOf to Activo
	ActivateStarted(ctx context.Context, asOf time.Time) (int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.LoanStatus) error
	// MarkReturned closes the loan and releases the book in one transaction
	MarkReturned(ctx context.Context, id uuid.UUID, at time.Time) error
	CountByStatus(ctx context.Context) (map[domain.LoanStatus]int, error)
	CountOpenByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// BookRepository defines book (libro) repository interface
type BookRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error)
	Create(ctx context.Context, book *domain.Book) error
	CountByStatus(ctx context.Context) (map[domain.BookStatus]int, error)
}

// UserRepository defines user (usuario) repository interface
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Count(ctx context.Context) (int, error)
	CountActive(ctx context.Context) (int, error)
}

// PenaltyRepository defines penalty (penalización) repository interface
type PenaltyRepository interface {
	Create(ctx context.Context, penalty *domain.Penalty) error
	ExistsForLoan(ctx context.Context, loanID uuid.UUID) (bool, error)
	HasActiveForUser(ctx context.Context, userID uuid.UUID, asOf time.Time) (bool, error)
	CountActive(ctx context.Context, asOf time.Time) (int, error)
}
