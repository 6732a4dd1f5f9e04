package handler

import (
	"time"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
)

// instantLayout renders stored instants the way clients have always received them.
const instantLayout = "2006-01-02T15:04:05.000Z"

func formatInstant(t time.Time) string {
	return t.UTC().Format(instantLayout)
}

type userResponse struct {
	ID                 string  `json:"id"`
	Name               string  `json:"nombre"`
	Email              string  `json:"email"`
	Role               string  `json:"rol"`
	Status             string  `json:"estado"`
	TemporaryPassword  bool    `json:"passwordTemporal"`
	AssignedSpaceID    *string `json:"espacioAsignado"`
	LastPasswordChange string  `json:"ultimoCambioPassword"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Role:               u.Role.Label(),
		Status:             u.Status.Label(),
		TemporaryPassword:  u.TemporaryPassword,
		AssignedSpaceID:    u.AssignedSpaceID,
		LastPasswordChange: formatInstant(u.LastPasswordChange),
		CreatedAt:          formatInstant(u.CreatedAt),
		UpdatedAt:          formatInstant(u.UpdatedAt),
	}
}

func toUserResponses(users []domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

type spaceRef struct {
	ID string `json:"id"`
}

type reservationResponse struct {
	ID           string   `json:"id"`
	Space        spaceRef `json:"space"`
	UserID       string   `json:"userId"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	StartTime    string   `json:"startTime"`
	EndTime      string   `json:"endTime"`
	Attendees    int      `json:"attendees"`
	Organization string   `json:"organization"`
	Status       string   `json:"status"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

func toReservationResponse(r domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:           r.ID,
		Space:        spaceRef{ID: r.SpaceID},
		UserID:       r.UserID,
		Title:        r.Title,
		Description:  r.Description,
		StartTime:    formatInstant(r.StartTime),
		EndTime:      formatInstant(r.EndTime),
		Attendees:    r.Attendees,
		Organization: r.Organization,
		Status:       string(r.Status),
		CreatedAt:    formatInstant(r.CreatedAt),
		UpdatedAt:    formatInstant(r.UpdatedAt),
	}
}

func toReservationResponses(reservations []domain.Reservation) []reservationResponse {
	out := make([]reservationResponse, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, toReservationResponse(r))
	}
	return out
}

type tagResponse struct {
	ID    string `json:"id"`
	Name  string `json:"nombre"`
	Color string `json:"color"`
}

type spaceResponse struct {
	ID          string       `json:"id"`
	Name        string       `json:"nombre"`
	Description string       `json:"descripcion"`
	Capacity    int          `json:"capacidad"`
	AllowedDays []int64      `json:"diasPermitidos"`
	OpenTime    string       `json:"horaApertura"`
	CloseTime   string       `json:"horaCierre"`
	Tag         *tagResponse `json:"etiqueta"`
}

func toSpaceResponse(s domain.Space) spaceResponse {
	resp := spaceResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Capacity:    s.Capacity,
		AllowedDays: s.AllowedDays,
		OpenTime:    s.OpenTime,
		CloseTime:   s.CloseTime,
	}
	if resp.AllowedDays == nil {
		resp.AllowedDays = []int64{}
	}
	if s.Tag != nil {
		resp.Tag = &tagResponse{ID: s.Tag.ID, Name: s.Tag.Name, Color: s.Tag.Color}
	}
	return resp
}

// organizationResponse exposes the stored active flag as the estado enum.
type organizationResponse struct {
	ID               string   `json:"id"`
	Name             string   `json:"nombre"`
	Status           string   `json:"estado"`
	Description      string   `json:"descripcion"`
	MonthlyHourLimit *float64 `json:"limiteHorasMensuales"`
}

func toOrganizationResponse(o domain.Organization) organizationResponse {
	status := domain.StatusInactive.Label()
	if o.Active {
		status = domain.StatusActive.Label()
	}
	return organizationResponse{
		ID:               o.ID,
		Name:             o.Name,
		Status:           status,
		Description:      o.Description,
		MonthlyHourLimit: o.MonthlyHourLimit,
	}
}

type notificationFailureResponse struct {
	ID          string  `json:"id"`
	UserID      string  `json:"userId"`
	Event       string  `json:"evento"`
	Recipient   string  `json:"destinatario"`
	Subject     string  `json:"asunto"`
	Retryable   bool    `json:"reintentable"`
	Attempts    int     `json:"intentos"`
	LastError   string  `json:"ultimoError"`
	CreatedAt   string  `json:"createdAt"`
	ProcessedAt *string `json:"procesadoAt"`
}

func toNotificationFailureResponse(f domain.NotificationFailure) notificationFailureResponse {
	resp := notificationFailureResponse{
		ID:        f.ID,
		UserID:    f.UserID,
		Event:     string(f.Event),
		Recipient: f.Recipient,
		Subject:   f.Subject,
		Retryable: f.Retryable,
		Attempts:  f.Attempts,
		LastError: f.LastError,
		CreatedAt: formatInstant(f.CreatedAt),
	}
	if f.ProcessedAt != nil {
		processed := formatInstant(*f.ProcessedAt)
		resp.ProcessedAt = &processed
	}
	return resp
}
