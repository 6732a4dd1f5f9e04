package services

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

const msgInvalidCredentials = "Credenciales inválidas"

type AuthService struct {
	userRepo   ports.UserRepository
	revoker    ports.TokenRevoker
	privateKey *rsa.PrivateKey
	tokenTTL   time.Duration
	logger     *slog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(
	userRepo ports.UserRepository,
	revoker ports.TokenRevoker,
	privateKey *rsa.PrivateKey,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		revoker:    revoker,
		privateKey: privateKey,
		tokenTTL:   tokenTTL,
		logger:     logger,
	}
}

// Login verifies the credentials and issues a signed access token. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Authentication(msgInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("finding user by email: %w", err)
	}

	if !VerifyPassword(password, user.PasswordHash) {
		s.logger.Warn("login rejected", "user_id", user.ID, "reason", "password mismatch")
		return nil, domain.Authentication(msgInvalidCredentials)
	}

	if user.Status == domain.StatusInactive {
		return nil, domain.Authorization("El usuario está inactivo")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID, "temporary_password", user.TemporaryPassword)
	return &ports.LoginResult{Token: token, User: *user}, nil
}

// Logout revokes the caller's token for the remainder of its lifetime.
func (s *AuthService) Logout(ctx context.Context, principal ports.Principal) error {
	ttl := time.Until(principal.ExpiresAt)
	if ttl <= 0 || principal.TokenID == "" {
		return nil
	}
	if err := s.revoker.Revoke(ctx, principal.TokenID, ttl); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Usuario no encontrado")
	}
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	return user, nil
}
