package services

import (
	"context"
	"time"

	"sigebi-web/internal/adapters/persistence/repositories"
	"sigebi-web/internal/core/domain"
)

// adminService implements AdminService interface
type adminService struct {
	loanRepo    repositories.LoanRepository
	bookRepo    repositories.BookRepository
	userRepo    repositories.UserRepository
	penaltyRepo repositories.PenaltyRepository
	now         func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(
	loanRepo repositories.LoanRepository,
	bookRepo repositories.BookRepository,
	userRepo repositories.UserRepository,
	penaltyRepo repositories.PenaltyRepository,
) AdminService {
	return &adminService{
		loanRepo:    loanRepo,
		bookRepo:    bookRepo,
		userRepo:    userRepo,
		penaltyRepo: penaltyRepo,
		now:         time.Now,
	}
}

// GetSummary returns the aggregate counts for the dashboard
func (s *adminService) GetSummary(ctx context.Context) (*domain.Summary, error) {
	loans, err := s.loanRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	books, err := s.bookRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	totalUsers, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	activeUsers, err := s.userRepo.CountActive(ctx)
	if err != nil {
		return nil, err
	}

	penalties, err := s.penaltyRepo.CountActive(ctx, s.now().UTC())
	if err != nil {
		return nil, err
	}

	return &domain.Summary{
		// Overdue loans still hold a book, so they count as active
		ActiveLoans:     loans[domain.LoanActive] + loans[domain.LoanOverdue],
		AvailableBooks:  books[domain.BookAvailable],
		ActiveUsers:     activeUsers,
		TotalUsers:      totalUsers,
		ActivePenalties: penalties,
	}, nil
}
