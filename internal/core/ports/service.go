package ports

import (
	"context"
	"time"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
)

type LoginResult struct {
	Token string
	User  domain.User
}

// Principal is the authenticated caller as established from the access token.
type Principal struct {
	UserID    string
	Email     string
	Role      domain.Role
	TokenID   string
	ExpiresAt time.Time
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, principal Principal) error
	Me(ctx context.Context, userID string) (*domain.User, error)
}

type CredentialService interface {
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	IssueTemporaryPassword(ctx context.Context, userID string) error
}

type CreateUserInput struct {
	Name            string
	Email           string
	Role            domain.Role
	AssignedSpaceID *string
}

// UpdateUserInput fields are applied only when non-nil.
type UpdateUserInput struct {
	Name            *string
	Email           *string
	Role            *domain.Role
	Status          *domain.UserStatus
	AssignedSpaceID **string
}

type UserService interface {
	List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	NotificationFailures(ctx context.Context, userID string) ([]domain.NotificationFailure, error)
}

type CreateReservationInput struct {
	SpaceID          string
	CoordinatorEmail string
	Title            string
	Description      string
	Date             string
	StartTime        string
	EndTime          string
	Attendees        int
	Organization     string
	Status           *domain.ReservationStatus
}

// UpdateReservationInput fields are applied only when non-nil (key present in the payload).
type UpdateReservationInput struct {
	SpaceID      *string
	Title        *string
	Description  *string
	Date         *string
	StartTime    *string
	EndTime      *string
	Attendees    *int
	Organization *string
	Status       *domain.ReservationStatus
}

type ReservationService interface {
	Create(ctx context.Context, actor Principal, input CreateReservationInput) (*domain.Reservation, error)
	Update(ctx context.Context, actor Principal, id string, input UpdateReservationInput) (*domain.Reservation, error)
	Delete(ctx context.Context, actor Principal, id string) error
	Get(ctx context.Context, id string) (*domain.Reservation, error)
	List(ctx context.Context, query ReservationQuery) ([]domain.Reservation, error)
}

// ReservationQuery carries raw filter values; dates are YYYY-MM-DD in the service zone.
type ReservationQuery struct {
	SpaceID   string
	UserID    string
	StartDate string
	EndDate   string
}

type CatalogService interface {
	Spaces(ctx context.Context) ([]domain.Space, error)
	Space(ctx context.Context, id string) (*domain.Space, error)
	Organizations(ctx context.Context) ([]domain.Organization, error)
}
