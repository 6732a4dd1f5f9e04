package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

// CredentialService drives the password lifecycle:
//
//	active --IssueTemporaryPassword--> pending --ChangePassword--> active
//
// Inactive users cannot change their password.
type CredentialService struct {
	userRepo   ports.UserRepository
	generator  *PasswordGenerator
	dispatcher *NotificationDispatcher
	logger     *slog.Logger
}

var _ ports.CredentialService = (*CredentialService)(nil)

func NewCredentialService(
	userRepo ports.UserRepository,
	generator *PasswordGenerator,
	dispatcher *NotificationDispatcher,
	logger *slog.Logger,
) *CredentialService {
	return &CredentialService{
		userRepo:   userRepo,
		generator:  generator,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (s *CredentialService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound("Usuario no encontrado")
	}
	if err != nil {
		return fmt.Errorf("finding user: %w", err)
	}

	if user.Status == domain.StatusInactive {
		return domain.Authorization("El usuario está inactivo")
	}

	if !VerifyPassword(currentPassword, user.PasswordHash) {
		return domain.Authentication("La contraseña actual es incorrecta")
	}

	if msg := ValidateStrength(newPassword); msg != "" {
		return domain.Validation(msg)
	}

	if VerifyPassword(newPassword, user.PasswordHash) {
		return domain.Validation("La nueva contraseña debe ser diferente a la actual")
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	if user.Status == domain.StatusPending {
		user.Status = domain.StatusActive
	}
	user.TemporaryPassword = false
	user.LastPasswordChange = time.Now().UTC()

	if err := s.userRepo.UpdateCredentials(ctx, *user); err != nil {
		return fmt.Errorf("updating credentials: %w", err)
	}
	s.logger.Info("password changed", "user_id", user.ID)

	email, err := passwordChangedEmail(user.Email, user.Name)
	if err != nil {
		s.logger.Error("failed to render email", "user_id", user.ID, "event", string(domain.EventPasswordChanged), "error", err)
		return nil
	}
	s.dispatcher.SendAsync(ctx, Notification{
		UserID: user.ID,
		Event:  domain.EventPasswordChanged,
		Email:  email,
	})
	return nil
}

// IssueTemporaryPassword resets the user's password. The new credentials are
// persisted even when the notification cannot be delivered.
func (s *CredentialService) IssueTemporaryPassword(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound("Usuario no encontrado")
	}
	if err != nil {
		return fmt.Errorf("finding user: %w", err)
	}

	password, hash, err := s.newTemporaryPassword()
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	user.Status = domain.StatusPending
	user.TemporaryPassword = true
	user.LastPasswordChange = time.Now().UTC()

	if err := s.userRepo.UpdateCredentials(ctx, *user); err != nil {
		return fmt.Errorf("updating credentials: %w", err)
	}
	s.logger.Info("temporary password issued", "user_id", user.ID)

	email, err := resetEmail(user.Email, user.Name, password)
	if err != nil {
		s.logger.Error("failed to render email", "user_id", user.ID, "event", string(domain.EventPasswordReset), "error", err)
		return nil
	}
	s.dispatcher.Send(ctx, Notification{
		UserID:    user.ID,
		Event:     domain.EventPasswordReset,
		Email:     email,
		Sensitive: true,
	})
	return nil
}

func (s *CredentialService) newTemporaryPassword() (plain, hash string, err error) {
	plain, err = s.generator.Generate()
	if err != nil {
		return "", "", err
	}
	hash, err = HashPassword(plain)
	if err != nil {
		return "", "", err
	}
	return plain, hash, nil
}
