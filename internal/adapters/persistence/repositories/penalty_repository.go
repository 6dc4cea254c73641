package repositories

import (
	"context"
	"time"

	"sigebi-web/internal/adapters/persistence/models"
	"sigebi-web/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// penaltyRepository implements PenaltyRepository interface
type penaltyRepository struct {
	db *gorm.DB
}

// NewPenaltyRepository creates a new penalty repository
func NewPenaltyRepository(db *gorm.DB) PenaltyRepository {
	return &penaltyRepository{db: db}
}

// Create creates a new penalty
func (r *penaltyRepository) Create(ctx context.Context, penalty *domain.Penalty) error {
	row := models.PenaltyFromDomain(penalty)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	penalty.CreatedAt = row.CreatedAt
	return nil
}

// ExistsForLoan checks if the loan already produced a penalty
func (r *penaltyRepository) ExistsForLoan(ctx context.Context, loanID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Penalty{}).
		Where("prestamo_id = ?", loanID).
		Count(&count).Error
	return count > 0, err
}

// HasActiveForUser checks if the user is penalized at asOf
func (r *penaltyRepository) HasActiveForUser(ctx context.Context, userID uuid.UUID, asOf time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Penalty{}).
		Where("usuario_id = ? AND fecha_inicio_utc <= ? AND fecha_fin_utc > ?", userID, asOf, asOf).
		Count(&count).Error
	return count > 0, err
}

// CountActive counts penalties in force at asOf
func (r *penaltyRepository) CountActive(ctx context.Context, asOf time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Penalty{}).
		Where("fecha_inicio_utc <= ? AND fecha_fin_utc > ?", asOf, asOf).
		Count(&count).Error
	return int(count), err
}
