package handler

import (
	"log/slog"
	"net/http"

	"github.com/reservaespacios/reservation-service/internal/adapters/middleware"
	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	credentials ports.CredentialService
	logger      *slog.Logger
}

func NewAuthHandler(auth ports.AuthService, credentials ports.CredentialService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: auth,
		credentials: credentials,
		logger:      logger,
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeData(w, http.StatusOK, LoginResponse{
		Token: result.Token,
		User:  toUserResponse(result.User),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, r, h.logger, domain.Authentication("Token de autenticación requerido"))
		return
	}

	if err := h.authService.Logout(r.Context(), principal); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Sesión cerrada correctamente")
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, r, h.logger, domain.Authentication("Token de autenticación requerido"))
		return
	}

	var req ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.credentials.ChangePassword(r.Context(), principal.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Contraseña actualizada correctamente")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, r, h.logger, domain.Authentication("Token de autenticación requerido"))
		return
	}

	user, err := h.authService.Me(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, toUserResponse(*user))
}
