package ports

import (
	"context"
	"time"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
)

// UserRepository returns domain.ErrNotFound for missing rows and
// domain.ErrDuplicateEmail when the email index is violated.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error)
	Create(ctx context.Context, user domain.User) error
	Update(ctx context.Context, user domain.User) error
	UpdateCredentials(ctx context.Context, user domain.User) error
	Delete(ctx context.Context, id string) error
}

type ReservationRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Reservation, error)
	List(ctx context.Context, filter domain.ReservationFilter) ([]domain.Reservation, error)
	Create(ctx context.Context, r domain.Reservation) error
	Update(ctx context.Context, r domain.Reservation) error
	Delete(ctx context.Context, id string) error
	// FindOverlapping returns non-cancelled reservations of spaceID intersecting [start, end).
	FindOverlapping(ctx context.Context, spaceID string, start, end time.Time, excludeID string) ([]domain.Reservation, error)
	// OrganizationUsage sums the non-cancelled booked time of organization within [from, to).
	OrganizationUsage(ctx context.Context, organization string, from, to time.Time, excludeID string) (time.Duration, error)
	// WithinSpaceLock runs fn while holding an exclusive lock on spaceID.
	// Repository calls made with the ctx passed to fn share its transaction.
	WithinSpaceLock(ctx context.Context, spaceID string, fn func(ctx context.Context) error) error
}

type SpaceRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Space, error)
	List(ctx context.Context) ([]domain.Space, error)
}

type OrganizationRepository interface {
	FindByName(ctx context.Context, name string) (*domain.Organization, error)
	List(ctx context.Context) ([]domain.Organization, error)
}

// NotificationLog persists failed deliveries so they are observable and,
// when retryable, re-sent by the relay.
type NotificationLog interface {
	RecordFailure(ctx context.Context, failure domain.NotificationFailure) error
	ListFailures(ctx context.Context, userID string) ([]domain.NotificationFailure, error)
}
