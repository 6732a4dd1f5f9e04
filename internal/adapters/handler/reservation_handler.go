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

const msgInvalidReservationStatus = "Estado de reserva no válido"

type ReservationHandler struct {
	reservations ports.ReservationService
	logger       *slog.Logger
}

func NewReservationHandler(reservations ports.ReservationService, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{
		reservations: reservations,
		logger:       logger,
	}
}

// CreateReservationRequest takes the calendar date and the HH:MM clock times
// separately; the service composes them into instants.
type CreateReservationRequest struct {
	Space            spaceRef `json:"space"`
	CoordinatorEmail string   `json:"coordinatorEmail" validate:"omitempty,email"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Date             string   `json:"date"`
	StartTime        string   `json:"startTime"`
	EndTime          string   `json:"endTime"`
	Attendees        int      `json:"attendees" validate:"gte=0"`
	Organization     string   `json:"organization"`
	Status           *string  `json:"status"`
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reservations, err := h.reservations.List(r.Context(), ports.ReservationQuery{
		SpaceID:   q.Get("spaceId"),
		UserID:    q.Get("userId"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, toReservationResponses(reservations))
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.reservations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, toReservationResponse(*reservation))
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFrom(r.Context())

	var req CreateReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	input := ports.CreateReservationInput{
		SpaceID:          req.Space.ID,
		CoordinatorEmail: req.CoordinatorEmail,
		Title:            req.Title,
		Description:      req.Description,
		Date:             req.Date,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		Attendees:        req.Attendees,
		Organization:     req.Organization,
	}
	if req.Status != nil {
		status, ok := domain.ParseReservationStatus(*req.Status)
		if !ok {
			writeError(w, r, h.logger, domain.Validation(msgInvalidReservationStatus))
			return
		}
		input.Status = &status
	}

	reservation, err := h.reservations.Create(r.Context(), principal, input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusCreated, toReservationResponse(*reservation))
}

// Update serves both PUT and PATCH; only the keys present in the body change.
func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFrom(r.Context())

	fields, err := decodePatch(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	input, err := parseReservationPatch(fields)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	reservation, err := h.reservations.Update(r.Context(), principal, chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, toReservationResponse(*reservation))
}

func parseReservationPatch(fields map[string]json.RawMessage) (ports.UpdateReservationInput, error) {
	var input ports.UpdateReservationInput

	var space spaceRef
	if present, err := patchField(fields, "space", &space); err != nil {
		return input, err
	} else if present {
		input.SpaceID = &space.ID
	}

	strFields := []struct {
		key string
		dst **string
	}{
		{"title", &input.Title},
		{"description", &input.Description},
		{"date", &input.Date},
		{"startTime", &input.StartTime},
		{"endTime", &input.EndTime},
		{"organization", &input.Organization},
	}
	for _, f := range strFields {
		var v string
		present, err := patchField(fields, f.key, &v)
		if err != nil {
			return input, err
		}
		if present {
			*f.dst = &v
		}
	}

	var attendees int
	if present, err := patchField(fields, "attendees", &attendees); err != nil {
		return input, err
	} else if present {
		if attendees < 0 {
			return input, domain.Validation("El campo attendees no es válido")
		}
		input.Attendees = &attendees
	}

	var rawStatus string
	if present, err := patchField(fields, "status", &rawStatus); err != nil {
		return input, err
	} else if present {
		status, ok := domain.ParseReservationStatus(rawStatus)
		if !ok {
			return input, domain.Validation(msgInvalidReservationStatus)
		}
		input.Status = &status
	}

	return input, nil
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFrom(r.Context())

	if err := h.reservations.Delete(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Reserva eliminada correctamente")
}
