package handler_test

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/reservaespacios/reservation-service/internal/adapters/handler"
	"github.com/reservaespacios/reservation-service/internal/adapters/middleware"
	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/services"
	"github.com/reservaespacios/reservation-service/test/mocks"
)

// testAPI is the full router wired to real services over in-memory stores.
type testAPI struct {
	router       http.Handler
	key          *rsa.PrivateKey
	users        *mocks.MockUserRepository
	reservations *mocks.MockReservationRepository
	notifier     *mocks.MockNotifier
	notifyLog    *mocks.MockNotificationLog
	revoker      *mocks.MockTokenRevoker
	dispatcher   *services.NotificationDispatcher
}

func newTestAPI(t *testing.T, opts ...func(*handler.RouterConfig)) *testAPI {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	logger := mocks.DiscardLogger()
	users := mocks.NewMockUserRepository()
	spaces := mocks.NewMockSpaceRepository(mocks.CreateTestSpace("1"), mocks.CreateTestSpace("2"))
	orgs := mocks.NewMockOrganizationRepository(domain.Organization{ID: "o-1", Name: "Coro", Active: true})
	reservations := mocks.NewMockReservationRepository()
	notifier := mocks.NewMockNotifier()
	notifyLog := mocks.NewMockNotificationLog()
	revoker := mocks.NewMockTokenRevoker()

	hash, err := services.HashPassword("Secreta123")
	require.NoError(t, err)
	users.SeedUser(mocks.CreateTestUser("admin-1", "admin@example.com", domain.RoleAdmin, hash))
	users.SeedUser(mocks.CreateTestUser("root-1", "root@example.com", domain.RoleSuperAdmin, hash))
	users.SeedUser(mocks.CreateTestUser("user-1", "a@b.com", domain.RoleUser, hash))
	users.SeedUser(mocks.CreateTestUser("user-9", "otro@b.com", domain.RoleUser, hash))
	tablet := mocks.CreateTestUser("tablet-1", "tablet@example.com", domain.RoleTablet, hash)
	spaceID := "1"
	tablet.AssignedSpaceID = &spaceID
	users.SeedUser(tablet)

	generator := services.NewPasswordGenerator(nil)
	dispatcher := services.NewNotificationDispatcher(notifier, notifyLog, logger, time.Second)
	authSvc := services.NewAuthService(users, revoker, key, time.Hour, logger)
	credentialSvc := services.NewCredentialService(users, generator, dispatcher, logger)
	userSvc := services.NewUserService(users, spaces, notifyLog, generator, dispatcher, logger)
	reservationSvc := services.NewReservationService(reservations, users, spaces, orgs, time.UTC, domain.OverlapReject, logger)
	catalogSvc := services.NewCatalogService(spaces, orgs)

	routerCfg := handler.RouterConfig{
		Auth:           handler.NewAuthHandler(authSvc, credentialSvc, logger),
		Users:          handler.NewUserHandler(userSvc, credentialSvc, logger),
		Reservations:   handler.NewReservationHandler(reservationSvc, logger),
		Catalog:        handler.NewCatalogHandler(catalogSvc, logger),
		Health:         handler.NewHealthHandler(nil, nil, logger),
		AuthMiddleware: middleware.NewAuthMiddleware(&key.PublicKey, revoker, users, logger),
		AllowedOrigins: []string{"http://localhost:3000"},
		LoginRateLimit: 100,
		LoginRateBurst: 100,
		Logger:         logger,
	}
	for _, opt := range opts {
		opt(&routerCfg)
	}
	router := handler.NewRouter(routerCfg)

	return &testAPI{
		router:       router,
		key:          key,
		users:        users,
		reservations: reservations,
		notifier:     notifier,
		notifyLog:    notifyLog,
		revoker:      revoker,
		dispatcher:   dispatcher,
	}
}

// tokenFor mints an access token the way the login endpoint does.
func (a *testAPI) tokenFor(t *testing.T, userID, email string, role domain.Role) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  string(role),
		"jti":   uuid.NewString(),
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(a.key)
	require.NoError(t, err)
	return token
}

func (a *testAPI) adminToken(t *testing.T) string {
	return a.tokenFor(t, "admin-1", "admin@example.com", domain.RoleAdmin)
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, dst))
}
