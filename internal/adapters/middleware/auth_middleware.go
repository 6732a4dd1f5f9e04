package middleware

import (
	"context"
	"crypto/rsa"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

// UserLookup loads the current state of a token's subject.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

type AuthMiddleware struct {
	publicKey *rsa.PublicKey
	revoker   ports.TokenRevoker
	users     UserLookup
	logger    *slog.Logger
}

func NewAuthMiddleware(publicKey *rsa.PublicKey, revoker ports.TokenRevoker, users UserLookup, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		publicKey: publicKey,
		revoker:   revoker,
		users:     users,
		logger:    logger,
	}
}

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal stores the authenticated caller in ctx.
func WithPrincipal(ctx context.Context, p ports.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the caller set by Authenticate.
func PrincipalFrom(ctx context.Context) (ports.Principal, bool) {
	p, ok := ctx.Value(principalKey).(ports.Principal)
	return p, ok
}

// Authenticate validates the bearer token and rejects revoked tokens. The
// subject is re-loaded on every request so deletion, deactivation and role
// changes apply to tokens already issued.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, domain.KindAuthentication, "Token de autenticación requerido")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, domain.KindAuthentication, "Formato de autorización inválido")
			return
		}

		principal, err := m.parse(parts[1])
		if err != nil {
			m.logger.Debug("token rejected", "error", err)
			writeError(w, http.StatusUnauthorized, domain.KindAuthentication, "Token inválido o expirado")
			return
		}

		revoked, err := m.revoker.IsRevoked(r.Context(), principal.TokenID)
		if err != nil {
			m.logger.Error("checking token revocation", "user_id", principal.UserID, "error", err)
			writeError(w, http.StatusInternalServerError, domain.KindInternal, "Error interno del servidor")
			return
		}
		if revoked {
			writeError(w, http.StatusUnauthorized, domain.KindAuthentication, "Token inválido o expirado")
			return
		}

		user, err := m.users.FindByID(r.Context(), principal.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, domain.KindAuthentication, "Token inválido o expirado")
			return
		}
		if err != nil {
			m.logger.Error("loading token subject", "user_id", principal.UserID, "error", err)
			writeError(w, http.StatusInternalServerError, domain.KindInternal, "Error interno del servidor")
			return
		}
		if user.Status == domain.StatusInactive {
			writeError(w, http.StatusForbidden, domain.KindAuthorization, "El usuario está inactivo")
			return
		}
		principal.Role = user.Role
		principal.Email = user.Email

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

func (m *AuthMiddleware) parse(tokenString string) (ports.Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.publicKey, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return ports.Principal{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ports.Principal{}, jwt.ErrTokenInvalidClaims
	}

	userID, _ := claims["sub"].(string)
	roleCode, _ := claims["role"].(string)
	tokenID, _ := claims["jti"].(string)
	email, _ := claims["email"].(string)
	role, validRole := domain.ParseRole(roleCode)
	if userID == "" || tokenID == "" || !validRole {
		return ports.Principal{}, jwt.ErrTokenInvalidClaims
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return ports.Principal{}, jwt.ErrTokenInvalidClaims
	}

	return ports.Principal{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenID:   tokenID,
		ExpiresAt: exp.Time,
	}, nil
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, domain.KindAuthentication, "Token de autenticación requerido")
				return
			}

			for _, role := range roles {
				if principal.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, domain.KindAuthorization, "No tiene permisos para realizar esta acción")
		})
	}
}
