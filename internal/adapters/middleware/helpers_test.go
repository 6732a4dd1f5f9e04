package middleware_test

import (
	"time"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
	"github.com/reservaespacios/reservation-service/test/mocks"
)

func rolePtr(r domain.Role) *domain.Role {
	return &r
}

func principalWithRole(role domain.Role) ports.Principal {
	return ports.Principal{
		UserID:    "user-123",
		Role:      role,
		TokenID:   "token-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

// subjectStore holds the user the test tokens are minted for.
func subjectStore(role domain.Role) *mocks.MockUserRepository {
	users := mocks.NewMockUserRepository()
	users.SeedUser(mocks.CreateTestUser("user-123", "test@example.com", role, "hash"))
	return users
}
