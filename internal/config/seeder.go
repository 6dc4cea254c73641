package config

import (
	"context"
	"log"
	"strings"

	"sigebi-web/internal/adapters/persistence/models"
	"sigebi-web/internal/adapters/persistence/repositories"
	"sigebi-web/internal/core/domain"
	"sigebi-web/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	cfg SeedConfig
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg SeedConfig) *Seeder {
	return &Seeder{db: db, cfg: cfg}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	if s.cfg.SampleData {
		if err := s.seedSampleCatalog(); err != nil {
			log.Printf("⚠️ Sample data seeder skipped: %v", err)
		}
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser creates the first administrator from SEED_ADMIN_* settings
func (s *Seeder) seedAdminUser() error {
	if s.cfg.AdminEmail == "" || s.cfg.AdminPassword == "" {
		return nil
	}

	// Check if admin already exists
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", "ADMIN").Count(&count)
	if count > 0 {
		return nil
	}

	if !password.ValidatePassword(s.cfg.AdminPassword) {
		log.Printf("⚠️ SEED_ADMIN_PASSWORD must have at least %d characters", password.MinLength)
		return nil
	}

	hashedPassword, err := password.Hash(s.cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := &domain.User{
		ID:           uuid.New(),
		Name:         "Administrador SIGEBI",
		Email:        strings.ToLower(s.cfg.AdminEmail),
		PasswordHash: hashedPassword,
		Role:         domain.RoleAdmin,
		Active:       true,
	}

	if err := repositories.NewUserRepository(s.db).Create(context.Background(), admin); err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Email)
	return nil
}

// seedSampleCatalog loads a few books and readers for local development
func (s *Seeder) seedSampleCatalog() error {
	var count int64
	s.db.Model(&models.Book{}).Count(&count)
	if count > 0 {
		return nil
	}

	books := []*domain.Book{
		{ID: uuid.New(), ISBN: "9788437604947", Title: "Cien años de soledad", Author: "Gabriel García Márquez", Status: domain.BookAvailable},
		{ID: uuid.New(), ISBN: "9788420412146", Title: "Don Quijote de la Mancha", Author: "Miguel de Cervantes", Status: domain.BookAvailable},
		{ID: uuid.New(), ISBN: "9788466331890", Title: "La ciudad y los perros", Author: "Mario Vargas Llosa", Status: domain.BookAvailable},
		{ID: uuid.New(), ISBN: "9788497592208", Title: "Ficciones", Author: "Jorge Luis Borges", Status: domain.BookRepair},
		{ID: uuid.New(), ISBN: "9788437605135", Title: "Pedro Páramo", Author: "Juan Rulfo", Status: domain.BookAvailable},
	}

	readers := []*domain.User{
		{ID: uuid.New(), Name: "María Fernández", Email: "maria.fernandez@sigebi.edu", Role: domain.RoleReader, Active: true},
		{ID: uuid.New(), Name: "Luis Rodríguez", Email: "luis.rodriguez@sigebi.edu", Role: domain.RoleReader, Active: true},
		{ID: uuid.New(), Name: "Carmen Peña", Email: "carmen.pena@sigebi.edu", Role: domain.RoleReader, Active: false},
	}

	ctx := context.Background()
	return s.db.Transaction(func(tx *gorm.DB) error {
		bookRepo := repositories.NewBookRepository(tx)
		for _, book := range books {
			if err := bookRepo.Create(ctx, book); err != nil {
				return err
			}
		}

		userRepo := repositories.NewUserRepository(tx)
		for _, reader := range readers {
			if err := userRepo.Create(ctx, reader); err != nil {
				return err
			}
		}

		log.Printf("✅ Sample catalog created: %d books, %d readers", len(books), len(readers))
		return nil
	})
}
