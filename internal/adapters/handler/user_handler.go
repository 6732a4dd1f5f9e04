package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reservaespacios/reservation-service/internal/adapters/middleware"
	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

const (
	msgInvalidRole   = "Rol no válido"
	msgInvalidStatus = "Estado no válido"
)

// UserHandler serves user administration. Routes are restricted to admins by the router.
type UserHandler struct {
	users       ports.UserService
	credentials ports.CredentialService
	logger      *slog.Logger
}

func NewUserHandler(users ports.UserService, credentials ports.CredentialService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:       users,
		credentials: credentials,
		logger:      logger,
	}
}

type CreateUserRequest struct {
	Name            string  `json:"nombre" validate:"required"`
	Email           string  `json:"email" validate:"required,email"`
	Role            string  `json:"rol" validate:"required"`
	AssignedSpaceID *string `json:"espacioAsignado"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter domain.UserFilter
	if raw := r.URL.Query().Get("rol"); raw != "" {
		role, ok := domain.ParseRole(raw)
		if !ok {
			writeError(w, r, h.logger, domain.Validation(msgInvalidRole))
			return
		}
		filter.Role = role
	}
	if raw := r.URL.Query().Get("estado"); raw != "" {
		status, ok := domain.ParseUserStatus(raw)
		if !ok {
			writeError(w, r, h.logger, domain.Validation(msgInvalidStatus))
			return
		}
		filter.Status = status
	}

	users, err := h.users.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, toUserResponses(users))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, toUserResponse(*user))
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	role, ok := domain.ParseRole(req.Role)
	if !ok {
		writeError(w, r, h.logger, domain.Validation(msgInvalidRole))
		return
	}

	user, err := h.users.Create(r.Context(), ports.CreateUserInput{
		Name:            req.Name,
		Email:           req.Email,
		Role:            role,
		AssignedSpaceID: req.AssignedSpaceID,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusCreated, toUserResponse(*user))
}

// Update serves both PUT and PATCH; only the keys present in the body change.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	fields, err := decodePatch(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	input, err := parseUserPatch(fields)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.users.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, toUserResponse(*user))
}

func parseUserPatch(fields map[string]json.RawMessage) (ports.UpdateUserInput, error) {
	var input ports.UpdateUserInput

	var name string
	if present, err := patchField(fields, "nombre", &name); err != nil {
		return input, err
	} else if present {
		input.Name = &name
	}

	var email string
	if present, err := patchField(fields, "email", &email); err != nil {
		return input, err
	} else if present {
		if err := validate.Var(email, "email"); err != nil {
			return input, domain.Validation("El email no es válido")
		}
		input.Email = &email
	}

	var rawRole string
	if present, err := patchField(fields, "rol", &rawRole); err != nil {
		return input, err
	} else if present {
		role, ok := domain.ParseRole(rawRole)
		if !ok {
			return input, domain.Validation(msgInvalidRole)
		}
		input.Role = &role
	}

	var rawStatus string
	if present, err := patchField(fields, "estado", &rawStatus); err != nil {
		return input, err
	} else if present {
		status, ok := domain.ParseUserStatus(rawStatus)
		if !ok {
			return input, domain.Validation(msgInvalidStatus)
		}
		input.Status = &status
	}

	var spaceID *string
	if present, err := patchField(fields, "espacioAsignado", &spaceID); err != nil {
		return input, err
	} else if present {
		input.AssignedSpaceID = &spaceID
	}

	return input, nil
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Usuario eliminado correctamente")
}

// ResetPassword issues a new temporary password. Only a SuperAdmin may reset
// another SuperAdmin.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFrom(r.Context())

	target, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if target.Role == domain.RoleSuperAdmin && principal.Role != domain.RoleSuperAdmin {
		writeError(w, r, h.logger, domain.Authorization("No está permitido modificar un Super Administrador"))
		return
	}

	if err := h.credentials.IssueTemporaryPassword(r.Context(), target.ID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Se ha enviado una contraseña temporal al usuario")
}

// NotificationFailures lists failed email deliveries, optionally for one user.
func (h *UserHandler) NotificationFailures(w http.ResponseWriter, r *http.Request) {
	failures, err := h.users.NotificationFailures(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := make([]notificationFailureResponse, 0, len(failures))
	for _, f := range failures {
		out = append(out, toNotificationFailureResponse(f))
	}
	writeData(w, http.StatusOK, out)
}
