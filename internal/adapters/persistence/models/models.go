package models

import (
	"time"

	"sigebi-web/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ============================================================
// Usuarios
// ============================================================

// User represents usuarios table
type User struct {
	ID           uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	Name         string         `gorm:"size:150;not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;size:150;not null" json:"email"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Role         string         `gorm:"size:20;default:'LECTOR'" json:"role"`
	IsActive     bool           `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "usuarios"
}

func (u *User) ToDomain() *domain.User {
	return &domain.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         domain.Role(u.Role),
		Active:       u.IsActive,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func UserFromDomain(u *domain.User) *User {
	return &User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		IsActive:     u.Active,
	}
}

// ============================================================
// Libros
// ============================================================

// Book represents libros table
type Book struct {
	ID        uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	ISBN      string         `gorm:"size:20;index" json:"isbn"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Author    string         `gorm:"size:255" json:"author"`
	Status    string         `gorm:"column:estado;size:20;not null;index;default:'Disponible'" json:"estado"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Book) TableName() string {
	return "libros"
}

func (b *Book) ToDomain() *domain.Book {
	return &domain.Book{
		ID:        b.ID,
		ISBN:      b.ISBN,
		Title:     b.Title,
		Author:    b.Author,
		Status:    domain.BookStatus(b.Status),
		CreatedAt: b.CreatedAt,
	}
}

// ============================================================
// Préstamos
// ============================================================

// Loan represents prestamos table
type Loan struct {
	ID            uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	BookID        uuid.UUID  `gorm:"column:libro_id;type:char(36);not null;index" json:"libro_id"`
	UserID        uuid.UUID  `gorm:"column:usuario_id;type:char(36);not null;index" json:"usuario_id"`
	Status        string     `gorm:"column:estado;size:20;not null;index" json:"estado"`
	StartUTC      time.Time  `gorm:"column:fecha_inicio_utc;not null" json:"fecha_inicio_utc"`
	DueUTC        time.Time  `gorm:"column:fecha_fin_compromiso_utc;not null;index" json:"fecha_fin_compromiso_utc"`
	ReturnedAtUTC *time.Time `gorm:"column:fecha_entrega_real_utc" json:"fecha_entrega_real_utc"`
	Notes         string     `gorm:"column:observaciones;type:text" json:"observaciones"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Book *Book `gorm:"foreignKey:BookID" json:"libro,omitempty"`
	User *User `gorm:"foreignKey:UserID" json:"usuario,omitempty"`
}

func (Loan) TableName() string {
	return "prestamos"
}

func (l *Loan) ToDomain() *domain.Loan {
	return &domain.Loan{
		ID:     l.ID,
		BookID: l.BookID,
		UserID: l.UserID,
		Status: domain.LoanStatus(l.Status),
		Period: domain.LoanPeriod{
			StartUTC: l.StartUTC.UTC(),
			DueUTC:   l.DueUTC.UTC(),
		},
		ReturnedAtUTC: l.ReturnedAtUTC,
		Notes:         l.Notes,
		CreatedAt:     l.CreatedAt,
	}
}

func LoanFromDomain(l *domain.Loan) *Loan {
	return &Loan{
		ID:            l.ID,
		BookID:        l.BookID,
		UserID:        l.UserID,
		Status:        string(l.Status),
		StartUTC:      l.Period.StartUTC,
		DueUTC:        l.Period.DueUTC,
		ReturnedAtUTC: l.ReturnedAtUTC,
		Notes:         l.Notes,
	}
}

// ============================================================
// Penalizaciones
// ============================================================

// Penalty represents penalizaciones table
type Penalty struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"column:usuario_id;type:char(36);not null;index" json:"usuario_id"`
	LoanID    uuid.UUID `gorm:"column:prestamo_id;type:char(36);not null;uniqueIndex" json:"prestamo_id"`
	Reason    string    `gorm:"column:motivo;size:255" json:"motivo"`
	StartUTC  time.Time `gorm:"column:fecha_inicio_utc;not null" json:"fecha_inicio_utc"`
	EndUTC    time.Time `gorm:"column:fecha_fin_utc;not null;index" json:"fecha_fin_utc"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Penalty) TableName() string {
	return "penalizaciones"
}

func (p *Penalty) ToDomain() *domain.Penalty {
	return &domain.Penalty{
		ID:        p.ID,
		UserID:    p.UserID,
		LoanID:    p.LoanID,
		Reason:    p.Reason,
		StartUTC:  p.StartUTC.UTC(),
		EndUTC:    p.EndUTC.UTC(),
		CreatedAt: p.CreatedAt,
	}
}

func PenaltyFromDomain(p *domain.Penalty) *Penalty {
	return &Penalty{
		ID:       p.ID,
		UserID:   p.UserID,
		LoanID:   p.LoanID,
		Reason:   p.Reason,
		StartUTC: p.StartUTC,
		EndUTC:   p.EndUTC,
	}
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all SIGEBI tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Book{},
		&Loan{},
		&Penalty{},
	)
}
