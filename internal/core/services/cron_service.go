package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// CronService runs scheduled library jobs
type CronService struct {
	cron        *cron.Cron
	loanService LoanService
	spec        string
	timeout     time.Duration
}

// NewCronService creates a cron service that marks overdue loans on spec
// (standard 5-field cron expression or descriptor like "@hourly")
func NewCronService(loanService LoanService, spec string) *CronService {
	return &CronService{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		loanService: loanService,
		spec:        spec,
		timeout:     2 * time.Minute,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunOverdueCheck); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("🚀 CronService started [overdue: %s]", s.spec)
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 CronService stopped")
}

// RunOverdueCheck marks late loans as overdue and issues penalties
func (s *CronService) RunOverdueCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	moved, err := s.loanService.MarkOverdue(ctx, time.Now())
	if err != nil {
		log.Printf("❌ Overdue check failed: %v", err)
		return
	}
	if moved > 0 {
		log.Printf("⏰ %d préstamos marcados como vencidos", moved)
	}
}
