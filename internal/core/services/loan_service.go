package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"sigebi-web/internal/adapters/persistence/repositories"
	"sigebi-web/internal/config"
	"sigebi-web/internal/core/domain"

	"github.com/google/uuid"
)

// Form field names used in validation errors
const (
	FieldBookID    = "LibroId"
	FieldUserID    = "UsuarioId"
	FieldStartDate = "FechaInicio"
	FieldDueDate   = "FechaFin"
)

// loanService implements LoanService interface
type loanService struct {
	loanRepo    repositories.LoanRepository
	bookRepo    repositories.BookRepository
	userRepo    repositories.UserRepository
	penaltyRepo repositories.PenaltyRepository
	policy      config.LibraryConfig
	now         func() time.Time
}

// NewLoanService creates a new loan service
func NewLoanService(
	loanRepo repositories.LoanRepository,
	bookRepo repositories.BookRepository,
	userRepo repositories.UserRepository,
	penaltyRepo repositories.PenaltyRepository,
	policy config.LibraryConfig,
) LoanService {
	return &loanService{
		loanRepo:    loanRepo,
		bookRepo:    bookRepo,
		userRepo:    userRepo,
		penaltyRepo: penaltyRepo,
		policy:      policy,
		now:         time.Now,
	}
}

// GetLoansByUser returns the loans of a user, newest first
func (s *loanService) GetLoansByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error) {
	return s.loanRepo.ListByUser(ctx, userID)
}

// GetOverdueLoans returns loans that are late at asOf
func (s *loanService) GetOverdueLoans(ctx context.Context, asOf time.Time) ([]*domain.Loan, error) {
	return s.loanRepo.ListOverdue(ctx, asOf)
}

// CreateLoan validates and registers a new loan
func (s *loanService) CreateLoan(ctx context.Context, input CreateLoanInput) (*domain.Loan, error) {
	// 1. Field validation
	if err := s.validate(input); err != nil {
		return nil, err
	}

	// 2. Book and user must exist
	book, err := s.bookRepo.GetByID(ctx, input.BookID)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	// 3. Borrowing rules
	now := s.now().UTC()
	if !user.Active {
		return nil, domain.Conflict("El usuario %s está inactivo y no puede recibir préstamos.", user.Name)
	}

	penalized, err := s.penaltyRepo.HasActiveForUser(ctx, user.ID, now)
	if err != nil {
		return nil, err
	}
	if penalized {
		return nil, domain.Conflict("El usuario %s tiene una penalización activa.", user.Name)
	}

	open, err := s.loanRepo.CountOpenByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if s.policy.MaxActiveLoansPerUser > 0 && open >= s.policy.MaxActiveLoansPerUser {
		return nil, domain.Conflict("El usuario %s ya tiene %d préstamos abiertos.", user.Name, open)
	}

	if book.Status != domain.BookAvailable {
		return nil, domain.Conflict("El libro \"%s\" no está disponible (%s).", book.Title, book.Status.Description())
	}

	// 4. Persist
	status := domain.LoanActive
	if input.StartUTC.After(now) {
		status = domain.LoanPending
	}

	loan := &domain.Loan{
		ID:     uuid.New(),
		BookID: book.ID,
		UserID: user.ID,
		Status: status,
		Period: domain.LoanPeriod{
			StartUTC: input.StartUTC.UTC(),
			DueUTC:   input.DueUTC.UTC(),
		},
		Notes: input.Notes,
	}

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, err
	}

	log.Printf("✅ Préstamo creado: %s (libro %s, usuario %s)", loan.ID, loan.BookID, loan.UserID)
	return loan, nil
}

func (s *loanService) validate(input CreateLoanInput) error {
	verr := &domain.ValidationError{}

	if input.BookID == uuid.Nil {
		verr.Add(FieldBookID, "Debe indicar el identificador del libro.")
	}
	if input.UserID == uuid.Nil {
		verr.Add(FieldUserID, "Debe indicar el identificador del usuario.")
	}
	if input.StartUTC.IsZero() {
		verr.Add(FieldStartDate, "Debe indicar la fecha de inicio.")
	}
	if input.DueUTC.IsZero() {
		verr.Add(FieldDueDate, "Debe indicar la fecha compromiso.")
	}

	if !input.StartUTC.IsZero() && !input.DueUTC.IsZero() {
		period := domain.LoanPeriod{StartUTC: input.StartUTC, DueUTC: input.DueUTC}
		switch {
		case !input.DueUTC.After(input.StartUTC):
			verr.Add(FieldDueDate, "La fecha fin debe ser posterior a la fecha de inicio.")
		case s.policy.LoanMaxDays > 0 && period.Days() > s.policy.LoanMaxDays:
			verr.Add(FieldDueDate, fmt.Sprintf("El préstamo no puede superar %d días.", s.policy.LoanMaxDays))
		}
	}

	return verr.OrNil()
}

// ReturnLoan closes an open loan
func (s *loanService) ReturnLoan(ctx context.Context, loanID uuid.UUID, at time.Time) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !loan.Status.IsOpen() {
		return nil, domain.Conflict("El préstamo está %s y no admite devolución.", loan.Status.Description())
	}

	at = at.UTC()
	if err := s.loanRepo.MarkReturned(ctx, loan.ID, at); err != nil {
		return nil, err
	}

	loan.Status = domain.LoanReturned
	loan.ReturnedAtUTC = &at

	log.Printf("📚 Préstamo devuelto: %s", loan.ID)
	return loan, nil
}

// MarkOverdue activates started Pendiente loans, then moves late Activo loans
// to Vencido and penalizes the borrower once per loan. Returns the number of
// loans moved to Vencido.
func (s *loanService) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	asOf = asOf.UTC()

	activated, err := s.loanRepo.ActivateStarted(ctx, asOf)
	if err != nil {
		return 0, err
	}
	if activated > 0 {
		log.Printf("📗 %d préstamos pendientes pasaron a Activo", activated)
	}

	loans, err := s.loanRepo.ListActiveDueBefore(ctx, asOf)
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, loan := range loans {
		if err := s.loanRepo.UpdateStatus(ctx, loan.ID, domain.LoanOverdue); err != nil {
			log.Printf("❌ No se pudo marcar vencido el préstamo %s: %v", loan.ID, err)
			continue
		}
		moved++

		exists, err := s.penaltyRepo.ExistsForLoan(ctx, loan.ID)
		if err != nil {
			log.Printf("❌ Error consultando penalización del préstamo %s: %v", loan.ID, err)
			continue
		}
		if exists {
			continue
		}

		penalty := &domain.Penalty{
			ID:       uuid.New(),
			UserID:   loan.UserID,
			LoanID:   loan.ID,
			Reason:   fmt.Sprintf("Préstamo vencido el %s", loan.Period.DueUTC.Format("02/01/2006")),
			StartUTC: asOf,
			EndUTC:   asOf.AddDate(0, 0, s.policy.PenaltyDays),
		}
		if err := s.penaltyRepo.Create(ctx, penalty); err != nil {
			log.Printf("❌ No se pudo crear la penalización del préstamo %s: %v", loan.ID, err)
			continue
		}
		log.Printf("⚠️ Penalización aplicada al usuario %s por el préstamo %s", loan.UserID, loan.ID)
	}

	return moved, nil
}
