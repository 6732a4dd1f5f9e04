package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	msgReservationNotFound = "Reserva no encontrada"
	msgSpaceNotFound       = "Espacio no encontrado"
	msgCoordinatorNotFound = "No se encontró un usuario con el email del coordinador"
	msgMissingFields       = "Faltan campos obligatorios: espacio, fecha, hora de inicio, hora de fin y email del coordinador"
	msgInvalidDateTime     = "Formato de fecha u hora inválido"
	msgInvalidRange        = "La hora de fin debe ser posterior a la hora de inicio"
	msgSpaceTaken          = "El espacio ya está reservado en ese horario"
	msgOrgInactive         = "La organización está inactiva"
	msgOrgHourLimit        = "La organización superaría su límite mensual de horas"
	msgReadOnlyRole        = "Tu rol no permite gestionar reservas"
	msgNotOwner            = "Solo puedes gestionar tus propias reservas"
)

type ReservationService struct {
	reservations  ports.ReservationRepository
	users         ports.UserRepository
	spaces        ports.SpaceRepository
	organizations ports.OrganizationRepository
	location      *time.Location
	overlap       domain.OverlapPolicy
	logger        *slog.Logger
}

var _ ports.ReservationService = (*ReservationService)(nil)

func NewReservationService(
	reservations ports.ReservationRepository,
	users ports.UserRepository,
	spaces ports.SpaceRepository,
	organizations ports.OrganizationRepository,
	location *time.Location,
	overlap domain.OverlapPolicy,
	logger *slog.Logger,
) *ReservationService {
	if location == nil {
		location = time.UTC
	}
	return &ReservationService{
		reservations:  reservations,
		users:         users,
		spaces:        spaces,
		organizations: organizations,
		location:      location,
		overlap:       overlap,
		logger:        logger,
	}
}

// ComposeInstant joins a YYYY-MM-DD date and an HH:MM clock time as a wall-clock
// time in loc. With loc = UTC, "2024-06-01" + "09:00" is 2024-06-01T09:00:00Z.
func ComposeInstant(date, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout+"T"+clockLayout, strings.TrimSpace(date)+"T"+strings.TrimSpace(clock), loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func (s *ReservationService) Create(ctx context.Context, actor ports.Principal, input ports.CreateReservationInput) (*domain.Reservation, error) {
	if blank(input.SpaceID) || blank(input.Date) || blank(input.StartTime) || blank(input.EndTime) || blank(input.CoordinatorEmail) {
		return nil, domain.Validation(msgMissingFields)
	}
	if actor.Role == domain.RoleTablet {
		return nil, domain.Authorization(msgReadOnlyRole)
	}

	coordinatorEmail := domain.NormalizeEmail(input.CoordinatorEmail)
	if !actor.Role.IsAdmin() && coordinatorEmail != domain.NormalizeEmail(actor.Email) {
		return nil, domain.Authorization(msgNotOwner)
	}

	coordinator, err := s.users.FindByEmail(ctx, coordinatorEmail)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound(msgCoordinatorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding coordinator: %w", err)
	}

	if err := s.ensureSpace(ctx, input.SpaceID); err != nil {
		return nil, err
	}

	start, end, err := s.interval(input.Date, input.StartTime, input.EndTime)
	if err != nil {
		return nil, err
	}

	status := domain.ReservationConfirmed
	if input.Status != nil {
		status = *input.Status
	}

	now := time.Now().UTC()
	reservation := domain.Reservation{
		ID:           uuid.NewString(),
		SpaceID:      strings.TrimSpace(input.SpaceID),
		UserID:       coordinator.ID,
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		StartTime:    start,
		EndTime:      end,
		Attendees:    input.Attendees,
		Organization: strings.TrimSpace(input.Organization),
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.guarded(ctx, reservation.SpaceID, func(ctx context.Context) error {
		if reservation.Status != domain.ReservationCancelled {
			if err := s.checkPolicies(ctx, reservation, ""); err != nil {
				return err
			}
		}
		if err := s.reservations.Create(ctx, reservation); err != nil {
			return fmt.Errorf("creating reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("reservation created",
		"reservation_id", reservation.ID,
		"space_id", reservation.SpaceID,
		"user_id", reservation.UserID,
	)
	return &reservation, nil
}

// Update applies only the fields present in input. When any of date, start or
// end is present the interval is recomputed, taking the missing pieces from the
// stored reservation.
func (s *ReservationService) Update(ctx context.Context, actor ports.Principal, id string, input ports.UpdateReservationInput) (*domain.Reservation, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeChange(actor, current); err != nil {
		return nil, err
	}

	updated := *current
	recheck := false

	if input.SpaceID != nil {
		spaceID := strings.TrimSpace(*input.SpaceID)
		if spaceID == "" {
			return nil, domain.Validation(msgMissingFields)
		}
		if spaceID != updated.SpaceID {
			if err := s.ensureSpace(ctx, spaceID); err != nil {
				return nil, err
			}
			updated.SpaceID = spaceID
			recheck = true
		}
	}
	if input.Title != nil {
		updated.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		updated.Description = *input.Description
	}
	if input.Attendees != nil {
		updated.Attendees = *input.Attendees
	}
	if input.Organization != nil {
		updated.Organization = strings.TrimSpace(*input.Organization)
		recheck = true
	}
	if input.Status != nil {
		if current.Status == domain.ReservationCancelled && *input.Status != domain.ReservationCancelled {
			recheck = true
		}
		updated.Status = *input.Status
	}

	if input.Date != nil || input.StartTime != nil || input.EndTime != nil {
		date := current.StartTime.In(s.location).Format(dateLayout)
		startClock := current.StartTime.In(s.location).Format(clockLayout)
		endClock := current.EndTime.In(s.location).Format(clockLayout)
		if input.Date != nil {
			date = *input.Date
		}
		if input.StartTime != nil {
			startClock = *input.StartTime
		}
		if input.EndTime != nil {
			endClock = *input.EndTime
		}

		start, end, err := s.interval(date, startClock, endClock)
		if err != nil {
			return nil, err
		}
		updated.StartTime = start
		updated.EndTime = end
		recheck = true
	}

	updated.UpdatedAt = time.Now().UTC()
	err = s.guarded(ctx, updated.SpaceID, func(ctx context.Context) error {
		if recheck && updated.Status != domain.ReservationCancelled {
			if err := s.checkPolicies(ctx, updated, updated.ID); err != nil {
				return err
			}
		}
		if err := s.reservations.Update(ctx, updated); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound(msgReservationNotFound)
			}
			return fmt.Errorf("updating reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("reservation updated", "reservation_id", updated.ID, "status", string(updated.Status))
	return &updated, nil
}

func (s *ReservationService) Delete(ctx context.Context, actor ports.Principal, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeChange(actor, current); err != nil {
		return err
	}

	if err := s.reservations.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound(msgReservationNotFound)
		}
		return fmt.Errorf("deleting reservation: %w", err)
	}
	s.logger.Info("reservation deleted", "reservation_id", id)
	return nil
}

func (s *ReservationService) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	reservation, err := s.reservations.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound(msgReservationNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding reservation: %w", err)
	}
	return reservation, nil
}

// List AND-composes the space, user and date predicates. The date range is
// inclusive: reservations starting on or after StartDate and ending no later
// than the end of EndDate.
func (s *ReservationService) List(ctx context.Context, query ports.ReservationQuery) ([]domain.Reservation, error) {
	filter := domain.ReservationFilter{
		SpaceID: strings.TrimSpace(query.SpaceID),
		UserID:  strings.TrimSpace(query.UserID),
	}

	if query.StartDate != "" {
		from, err := time.ParseInLocation(dateLayout, query.StartDate, s.location)
		if err != nil {
			return nil, domain.Validation(msgInvalidDateTime)
		}
		from = from.UTC()
		filter.From = &from
	}
	if query.EndDate != "" {
		to, err := time.ParseInLocation(dateLayout, query.EndDate, s.location)
		if err != nil {
			return nil, domain.Validation(msgInvalidDateTime)
		}
		to = to.AddDate(0, 0, 1).UTC()
		filter.To = &to
	}

	reservations, err := s.reservations.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing reservations: %w", err)
	}
	return reservations, nil
}

func (s *ReservationService) interval(date, startClock, endClock string) (time.Time, time.Time, error) {
	start, err := ComposeInstant(date, startClock, s.location)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Validation(msgInvalidDateTime)
	}
	end, err := ComposeInstant(date, endClock, s.location)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Validation(msgInvalidDateTime)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, domain.Validation(msgInvalidRange)
	}
	return start, end, nil
}

func (s *ReservationService) ensureSpace(ctx context.Context, spaceID string) error {
	_, err := s.spaces.FindByID(ctx, strings.TrimSpace(spaceID))
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound(msgSpaceNotFound)
	}
	if err != nil {
		return fmt.Errorf("finding space: %w", err)
	}
	return nil
}

// guarded runs fn under the space lock when overlaps are rejected, so the
// overlap check and the write it guards happen in one transaction.
func (s *ReservationService) guarded(ctx context.Context, spaceID string, fn func(ctx context.Context) error) error {
	if s.overlap == domain.OverlapAllow {
		return fn(ctx)
	}
	return s.reservations.WithinSpaceLock(ctx, spaceID, fn)
}

// checkPolicies applies the overlap policy and the organization monthly hour limit.
func (s *ReservationService) checkPolicies(ctx context.Context, r domain.Reservation, excludeID string) error {
	if s.overlap != domain.OverlapAllow {
		clashes, err := s.reservations.FindOverlapping(ctx, r.SpaceID, r.StartTime, r.EndTime, excludeID)
		if err != nil {
			return fmt.Errorf("checking overlapping reservations: %w", err)
		}
		if len(clashes) > 0 {
			s.logger.Info("reservation rejected by overlap policy",
				"space_id", r.SpaceID,
				"conflicting_reservation_id", clashes[0].ID,
			)
			return domain.Conflict(msgSpaceTaken)
		}
	}

	if r.Organization == "" {
		return nil
	}
	org, err := s.organizations.FindByName(ctx, r.Organization)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("finding organization: %w", err)
	}
	if !org.Active {
		return domain.Validation(msgOrgInactive)
	}
	if org.MonthlyHourLimit == nil {
		return nil
	}

	local := r.StartTime.In(s.location)
	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.location)
	monthEnd := monthStart.AddDate(0, 1, 0)

	used, err := s.reservations.OrganizationUsage(ctx, org.Name, monthStart.UTC(), monthEnd.UTC(), excludeID)
	if err != nil {
		return fmt.Errorf("summing organization usage: %w", err)
	}
	limit := time.Duration(*org.MonthlyHourLimit * float64(time.Hour))
	if used+r.Duration() > limit {
		s.logger.Info("reservation rejected by organization hour limit",
			"organization", org.Name,
			"used_hours", used.Hours(),
			"limit_hours", *org.MonthlyHourLimit,
		)
		return domain.Conflict(msgOrgHourLimit)
	}
	return nil
}

func authorizeChange(actor ports.Principal, r *domain.Reservation) error {
	switch {
	case actor.Role.IsAdmin():
		return nil
	case actor.Role == domain.RoleTablet:
		return domain.Authorization(msgReadOnlyRole)
	case r.UserID != actor.UserID:
		return domain.Authorization(msgNotOwner)
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
