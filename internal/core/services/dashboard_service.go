package services

import (
	"context"
	"time"

	"sigebi-web/internal/core/domain"

	"golang.org/x/sync/errgroup"
)

// DashboardService joins the read-only queries behind the home page
type DashboardService struct {
	adminService  AdminService
	reportService ReportService
	loanService   LoanService
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(adminService AdminService, reportService ReportService, loanService LoanService) *DashboardService {
	return &DashboardService{
		adminService:  adminService,
		reportService: reportService,
		loanService:   loanService,
	}
}

// DashboardData is the raw result of the dashboard queries
type DashboardData struct {
	Summary       domain.Summary
	LoansByStatus map[string]int
	BooksByStatus map[string]int
	OverdueLoans  []*domain.Loan
	AsOf          time.Time
}

// Load runs the four dashboard queries concurrently and waits for all of them.
// The first failure cancels the others and is returned as is.
func (s *DashboardService) Load(ctx context.Context, asOf time.Time) (*DashboardData, error) {
	g, gctx := errgroup.WithContext(ctx)

	var (
		summary *domain.Summary
		loans   map[string]int
		books   map[string]int
		overdue []*domain.Loan
	)

	g.Go(func() error {
		var err error
		summary, err = s.adminService.GetSummary(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		loans, err = s.reportService.GetLoansByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		books, err = s.reportService.GetBooksByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		overdue, err = s.loanService.GetOverdueLoans(gctx, asOf)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	data := &DashboardData{
		LoansByStatus: loans,
		BooksByStatus: books,
		OverdueLoans:  overdue,
		AsOf:          asOf,
	}
	if summary != nil {
		data.Summary = *summary
	}
	if data.LoansByStatus == nil {
		data.LoansByStatus = map[string]int{}
	}
	if data.BooksByStatus == nil {
		data.BooksByStatus = map[string]int{}
	}
	return data, nil
}
