package mocks

import (
	"io"
	"log/slog"
	"time"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CreateTestUser creates an active user with the given password hash.
func CreateTestUser(id, email string, role domain.Role, passwordHash string) domain.User {
	now := time.Now().UTC()
	return domain.User{
		ID:                 id,
		Name:               "Test " + id,
		Email:              email,
		PasswordHash:       passwordHash,
		Role:               role,
		Status:             domain.StatusActive,
		LastPasswordChange: now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// CreateTestSpace creates a bookable space.
func CreateTestSpace(id string) domain.Space {
	return domain.Space{
		ID:          id,
		Name:        "Sala " + id,
		Capacity:    10,
		AllowedDays: []int64{1, 2, 3, 4, 5},
		OpenTime:    "08:00",
		CloseTime:   "20:00",
	}
}
