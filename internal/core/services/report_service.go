package services

import (
	"context"

	"sigebi-web/internal/adapters/persistence/repositories"
)

// reportService implements ReportService interface
type reportService struct {
	loanRepo repositories.LoanRepository
	bookRepo repositories.BookRepository
}

// NewReportService creates a new report service
func NewReportService(loanRepo repositories.LoanRepository, bookRepo repositories.BookRepository) ReportService {
	return &reportService{
		loanRepo: loanRepo,
		bookRepo: bookRepo,
	}
}

// GetLoansByStatus counts loans per status label
func (s *reportService) GetLoansByStatus(ctx context.Context) (map[string]int, error) {
	counts, err := s.loanRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(counts))
	for status, n := range counts {
		out[status.Description()] += n
	}
	return out, nil
}

// GetBooksByStatus counts books per status label
func (s *reportService) GetBooksByStatus(ctx context.Context) (map[string]int, error) {
	counts, err := s.bookRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(counts))
	for status, n := range counts {
		out[status.Description()] += n
	}
	return out, nil
}
