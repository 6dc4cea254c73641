package repositories

import (
	"context"
	"errors"

	"sigebi-web/internal/adapters/persistence/models"
	"sigebi-web/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// bookRepository implements BookRepository interface
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

// GetByID gets a book by ID
func (r *bookRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("El libro %s no existe.", id)
		}
		return nil, err
	}
	return book.ToDomain(), nil
}

// Create creates a new book
func (r *bookRepository) Create(ctx context.Context, book *domain.Book) error {
	row := &models.Book{
		ID:     book.ID,
		ISBN:   book.ISBN,
		Title:  book.Title,
		Author: book.Author,
		Status: string(book.Status),
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// CountByStatus counts books grouped by status
func (r *bookRepository) CountByStatus(ctx context.Context) (map[domain.BookStatus]int, error) {
	var rows []struct {
		Estado string
		Total  int
	}
	err := r.db.WithContext(ctx).Model(&models.Book{}).
		Select("estado, COUNT(*) as total").
		Group("estado").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.BookStatus]int, len(rows))
	for _, row := range rows {
		counts[domain.BookStatus(row.Estado)] = row.Total
	}
	return counts, nil
}
