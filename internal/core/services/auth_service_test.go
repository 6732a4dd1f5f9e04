package services_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
	"github.com/reservaespacios/reservation-service/internal/core/services"
	"github.com/reservaespacios/reservation-service/test/mocks"
)

type authFixture struct {
	repo    *mocks.MockUserRepository
	revoker *mocks.MockTokenRevoker
	key     *rsa.PrivateKey
	svc     *services.AuthService
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	repo := mocks.NewMockUserRepository()
	repo.SeedUser(mocks.CreateTestUser("u-1", "ana@example.com", domain.RoleAdmin, mustHash(t, "Secreta123")))

	revoker := mocks.NewMockTokenRevoker()
	return authFixture{
		repo:    repo,
		revoker: revoker,
		key:     key,
		svc:     services.NewAuthService(repo, revoker, key, time.Hour, mocks.DiscardLogger()),
	}
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.svc.Login(context.Background(), " ANA@example.com ", "Secreta123")
	require.NoError(t, err)
	assert.Equal(t, "u-1", result.User.ID)

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(result.Token, claims, func(t *jwt.Token) (interface{}, error) {
		return &f.key.PublicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, "u-1", claims["sub"])
	assert.Equal(t, "ana@example.com", claims["email"])
	assert.Equal(t, string(domain.RoleAdmin), claims["role"])
	assert.NotEmpty(t, claims["jti"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp.Time, 5*time.Second)
}

func TestLogin_PendingUserMayLogIn(t *testing.T) {
	f := newAuthFixture(t)
	pending := mocks.CreateTestUser("u-2", "nuevo@example.com", domain.RoleUser, mustHash(t, "Temporal9"))
	pending.Status = domain.StatusPending
	pending.TemporaryPassword = true
	f.repo.SeedUser(pending)

	result, err := f.svc.Login(context.Background(), "nuevo@example.com", "Temporal9")
	require.NoError(t, err)
	assert.True(t, result.User.TemporaryPassword)
}

func TestLogin_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		setup    func(f authFixture)
		wantKind domain.ErrorKind
	}{
		{
			name:     "unknown email",
			email:    "nadie@example.com",
			password: "Secreta123",
			wantKind: domain.KindAuthentication,
		},
		{
			name:     "wrong password",
			email:    "ana@example.com",
			password: "Incorrecta1",
			wantKind: domain.KindAuthentication,
		},
		{
			name:     "inactive user",
			email:    "ana@example.com",
			password: "Secreta123",
			setup: func(f authFixture) {
				u, _ := f.repo.User("u-1")
				u.Status = domain.StatusInactive
				f.repo.SeedUser(u)
			},
			wantKind: domain.KindAuthorization,
		},
		{
			name:     "store failure",
			email:    "ana@example.com",
			password: "Secreta123",
			setup: func(f authFixture) {
				f.repo.FindByEmailError = errors.New("connection refused")
			},
			wantKind: domain.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			result, err := f.svc.Login(context.Background(), tt.email, tt.password)

			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, tt.wantKind, domain.KindOf(err))
		})
	}
}

func TestLogin_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, errUnknown := f.svc.Login(ctx, "nadie@example.com", "Secreta123")
	_, errWrong := f.svc.Login(ctx, "ana@example.com", "Incorrecta1")

	msgUnknown, _ := domain.MessageOf(errUnknown)
	msgWrong, _ := domain.MessageOf(errWrong)
	assert.Equal(t, msgUnknown, msgWrong)
}

func TestLogout_RevokesForRemainingLifetime(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.Logout(context.Background(), ports.Principal{
		UserID:    "u-1",
		TokenID:   "jti-1",
		ExpiresAt: time.Now().Add(30 * time.Minute),
	})
	require.NoError(t, err)

	ttl, ok := f.revoker.RevokedTTL("jti-1")
	require.True(t, ok)
	assert.InDelta(t, (30 * time.Minute).Seconds(), ttl.Seconds(), 5)
}

func TestLogout_ExpiredTokenIsNoop(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.Logout(context.Background(), ports.Principal{TokenID: "jti-1", ExpiresAt: time.Now().Add(-time.Minute)})
	require.NoError(t, err)

	_, ok := f.revoker.RevokedTTL("jti-1")
	assert.False(t, ok)
}

func TestLogout_RevokerFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.revoker.RevokeError = errors.New("redis down")

	err := f.svc.Logout(context.Background(), ports.Principal{TokenID: "jti-1", ExpiresAt: time.Now().Add(time.Minute)})
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
}

func TestMe(t *testing.T) {
	f := newAuthFixture(t)

	user, err := f.svc.Me(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)

	_, err = f.svc.Me(context.Background(), "missing")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
