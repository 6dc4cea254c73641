package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"sigebi-web/internal/adapters/persistence/repositories"
	"sigebi-web/internal/config"
	"sigebi-web/internal/core/domain"
	"sigebi-web/internal/pkg/jwt"
	"sigebi-web/internal/pkg/password"
)

// AuthService handles staff authentication
type AuthService struct {
	userRepo repositories.UserRepository
	cfg      *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repositories.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// LoginResult represents a successful login
type LoginResult struct {
	User        *domain.User
	AccessToken string
}

// Login authenticates a staff user by email and password
func (s *AuthService) Login(ctx context.Context, email, plain string) (*LoginResult, error) {
	// 1. Find user by email
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Readers have no back-office password
	if !user.IsStaff() || user.PasswordHash == "" {
		return nil, domain.ErrInvalidCredentials
	}

	// 3. Verify password
	if !password.Verify(plain, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	// 4. Check if user is active
	if !user.Active {
		return nil, domain.ErrUserInactive
	}

	// 5. Generate token
	token, err := jwt.GenerateAccessToken(
		user.ID.String(),
		user.Email,
		user.Name,
		string(user.Role),
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User logged in: %s", user.Email)

	return &LoginResult{
		User:        user,
		AccessToken: token,
	}, nil
}
