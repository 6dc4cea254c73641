package repositories

import (
	"context"
	"errors"
	"time"

	"sigebi-web/internal/adapters/persistence/models"
	"sigebi-web/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// loanRepository implements LoanRepository interface
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Create creates a loan and reserves its book
func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Conditional update: only an available book can be lent
		res := tx.Model(&models.Book{}).
			Where("id = ? AND estado = ?", loan.BookID, string(domain.BookAvailable)).
			Update("estado", string(domain.BookLoaned))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.Conflict("El libro %s no está disponible para préstamo.", loan.BookID)
		}

		row := models.LoanFromDomain(loan)
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		loan.CreatedAt = row.CreatedAt
		return nil
	})
}

// GetByID gets a loan by ID
func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&loan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("El préstamo %s no existe.", id)
		}
		return nil, err
	}
	return loan.ToDomain(), nil
}

// ListByUser lists loans of a user, newest first
func (r *loanRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Where("usuario_id = ?", userID).
		Order("fecha_inicio_utc DESC").
		Find(&loans).Error
	if err != nil {
		return nil, err
	}
	return toDomainLoans(loans), nil
}

// ListOverdue lists loans that are late at asOf
func (r *loanRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*domain.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Where("estado = ? OR (estado IN ? AND fecha_fin_compromiso_utc < ?)",
			string(domain.LoanOverdue), []string{string(domain.LoanActive), string(domain.LoanPending)}, asOf).
		Order("fecha_fin_compromiso_utc DESC").
		Find(&loans).Error
	if err != nil {
		return nil, err
	}
	return toDomainLoans(loans), nil
}

// ListActiveDueBefore lists Activo loans whose commitment ended before asOf
func (r *loanRepository) ListActiveDueBefore(ctx context.Context, asOf time.Time) ([]*domain.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Where("estado = ? AND fecha_fin_compromiso_utc < ?", string(domain.LoanActive), asOf).
		Order("fecha_fin_compromiso_utc ASC").
		Find(&loans).Error
	if err != nil {
		return nil, err
	}
	return toDomainLoans(loans), nil
}

// ActivateStarted activates pending loans that have reached their start date
func (r *loanRepository) ActivateStarted(ctx context.Context, asOf time.Time) (int, error) {
	res := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("estado = ? AND fecha_inicio_utc <= ?", string(domain.LoanPending), asOf).
		Update("estado", string(domain.LoanActive))
	return int(res.RowsAffected), res.Error
}

// UpdateStatus updates the status of a loan
func (r *loanRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.LoanStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("id = ?", id).
		Update("estado", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("El préstamo %s no existe.", id)
	}
	return nil
}

// MarkReturned closes an open loan and makes its book available again
func (r *loanRepository) MarkReturned(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loan models.Loan
		if err := tx.Where("id = ?", id).First(&loan).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFound("El préstamo %s no existe.", id)
			}
			return err
		}

		res := tx.Model(&models.Loan{}).
			Where("id = ? AND estado IN ?", id, []string{
				string(domain.LoanPending), string(domain.LoanActive), string(domain.LoanOverdue),
			}).
			Updates(map[string]interface{}{
				"estado":                 string(domain.LoanReturned),
				"fecha_entrega_real_utc": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.Conflict("El préstamo %s ya fue cerrado.", id)
		}

		return tx.Model(&models.Book{}).
			Where("id = ?", loan.BookID).
			Update("estado", string(domain.BookAvailable)).Error
	})
}

// CountByStatus counts loans grouped by status
func (r *loanRepository) CountByStatus(ctx context.Context) (map[domain.LoanStatus]int, error) {
	var rows []struct {
		Estado string
		Total  int
	}
	err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Select("estado, COUNT(*) as total").
		Group("estado").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.LoanStatus]int, len(rows))
	for _, row := range rows {
		counts[domain.LoanStatus(row.Estado)] = row.Total
	}
	return counts, nil
}

// CountOpenByUser counts loans still holding a book for the user
func (r *loanRepository) CountOpenByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("usuario_id = ? AND estado IN ?", userID, []string{
			string(domain.LoanPending), string(domain.LoanActive), string(domain.LoanOverdue),
		}).
		Count(&count).Error
	return int(count), err
}

func toDomainLoans(rows []*models.Loan) []*domain.Loan {
	loans := make([]*domain.Loan, len(rows))
	for i, row := range rows {
		loans[i] = row.ToDomain()
	}
	return loans
}
