package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

const (
	msgUserNotFound      = "Usuario no encontrado"
	msgDuplicateEmail    = "Ya existe un usuario con ese email"
	msgSuperAdminAssign  = "No está permitido asignar el rol Super Administrador"
	msgSuperAdminTarget  = "No está permitido modificar un Super Administrador"
	msgTabletNeedsSpace  = "El rol Tablet requiere un espacio asignado"
	msgAssignedSpaceMiss = "El espacio asignado no existe"
)

type UserService struct {
	userRepo   ports.UserRepository
	spaceRepo  ports.SpaceRepository
	notifyLog  ports.NotificationLog
	generator  *PasswordGenerator
	dispatcher *NotificationDispatcher
	logger     *slog.Logger
}

var _ ports.UserService = (*UserService)(nil)

func NewUserService(
	userRepo ports.UserRepository,
	spaceRepo ports.SpaceRepository,
	notifyLog ports.NotificationLog,
	generator *PasswordGenerator,
	dispatcher *NotificationDispatcher,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		spaceRepo:  spaceRepo,
		notifyLog:  notifyLog,
		generator:  generator,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (s *UserService) List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound(msgUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	return user, nil
}

// Create registers a user with a temporary password and emails it. The
// SuperAdmin role is rejected before anything is written or sent.
func (s *UserService) Create(ctx context.Context, input ports.CreateUserInput) (*domain.User, error) {
	if input.Role == domain.RoleSuperAdmin {
		return nil, domain.Authorization(msgSuperAdminAssign)
	}

	name := strings.TrimSpace(input.Name)
	email := domain.NormalizeEmail(input.Email)
	if name == "" || email == "" || input.Role == "" {
		return nil, domain.Validation("Nombre, email y rol son obligatorios")
	}

	if err := s.checkAssignedSpace(ctx, input.Role, input.AssignedSpaceID); err != nil {
		return nil, err
	}

	if err := s.ensureEmailAvailable(ctx, email, ""); err != nil {
		return nil, err
	}

	password, err := s.generator.Generate()
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:                 uuid.NewString(),
		Name:               name,
		Email:              email,
		PasswordHash:       hash,
		Role:               input.Role,
		Status:             domain.StatusPending,
		TemporaryPassword:  true,
		AssignedSpaceID:    assignedSpaceFor(input.Role, input.AssignedSpaceID),
		LastPasswordChange: now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.Conflict(msgDuplicateEmail)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	s.logger.Info("user created", "user_id", user.ID, "role", string(user.Role))

	welcome, err := welcomeEmail(user.Email, user.Name, password)
	if err != nil {
		s.logger.Error("failed to render email", "user_id", user.ID, "event", string(domain.EventUserCreated), "error", err)
		return &user, nil
	}
	s.dispatcher.Send(ctx, Notification{
		UserID:    user.ID,
		Event:     domain.EventUserCreated,
		Email:     welcome,
		Sensitive: true,
	})

	return &user, nil
}

func (s *UserService) Update(ctx context.Context, id string, input ports.UpdateUserInput) (*domain.User, error) {
	if input.Role != nil && *input.Role == domain.RoleSuperAdmin {
		return nil, domain.Authorization(msgSuperAdminAssign)
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleSuperAdmin {
		return nil, domain.Authorization(msgSuperAdminTarget)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.Validation("El nombre no puede estar vacío")
		}
		user.Name = name
	}
	if input.Email != nil {
		email := domain.NormalizeEmail(*input.Email)
		if email == "" {
			return nil, domain.Validation("El email no puede estar vacío")
		}
		if email != user.Email {
			if err := s.ensureEmailAvailable(ctx, email, user.ID); err != nil {
				return nil, err
			}
		}
		user.Email = email
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.Status != nil {
		user.Status = *input.Status
	}
	if input.AssignedSpaceID != nil {
		user.AssignedSpaceID = *input.AssignedSpaceID
	}

	if err := s.checkAssignedSpace(ctx, user.Role, user.AssignedSpaceID); err != nil {
		return nil, err
	}
	user.AssignedSpaceID = assignedSpaceFor(user.Role, user.AssignedSpaceID)
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, *user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.Conflict(msgDuplicateEmail)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(msgUserNotFound)
		}
		return nil, fmt.Errorf("updating user: %w", err)
	}
	s.logger.Info("user updated", "user_id", user.ID)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == domain.RoleSuperAdmin {
		return domain.Authorization(msgSuperAdminTarget)
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound(msgUserNotFound)
		}
		return fmt.Errorf("deleting user: %w", err)
	}
	s.logger.Info("user deleted", "user_id", id)
	return nil
}

func (s *UserService) NotificationFailures(ctx context.Context, userID string) ([]domain.NotificationFailure, error) {
	failures, err := s.notifyLog.ListFailures(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing notification failures: %w", err)
	}
	return failures, nil
}

func (s *UserService) ensureEmailAvailable(ctx context.Context, email, selfID string) error {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("checking email: %w", err)
	case existing.ID != selfID:
		return domain.Conflict(msgDuplicateEmail)
	}
	return nil
}

// checkAssignedSpace enforces that Tablet users are bound to an existing space.
func (s *UserService) checkAssignedSpace(ctx context.Context, role domain.Role, spaceID *string) error {
	if role != domain.RoleTablet {
		return nil
	}
	if spaceID == nil || strings.TrimSpace(*spaceID) == "" {
		return domain.Validation(msgTabletNeedsSpace)
	}
	_, err := s.spaceRepo.FindByID(ctx, *spaceID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound(msgAssignedSpaceMiss)
	}
	if err != nil {
		return fmt.Errorf("finding assigned space: %w", err)
	}
	return nil
}

// assignedSpaceFor drops the space binding for roles other than Tablet.
func assignedSpaceFor(role domain.Role, spaceID *string) *string {
	if role != domain.RoleTablet {
		return nil
	}
	return spaceID
}
