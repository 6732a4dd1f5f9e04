package domain

import (
	"strings"
	"time"
)

type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationPending   ReservationStatus = "pending"
	ReservationCancelled ReservationStatus = "cancelled"
)

func ParseReservationStatus(s string) (ReservationStatus, bool) {
	switch ReservationStatus(strings.ToLower(strings.TrimSpace(s))) {
	case ReservationConfirmed:
		return ReservationConfirmed, true
	case ReservationPending:
		return ReservationPending, true
	case ReservationCancelled:
		return ReservationCancelled, true
	}
	return "", false
}

// Reservation books one space for the half-open interval [StartTime, EndTime).
type Reservation struct {
	ID           string            `db:"id"`
	SpaceID      string            `db:"space_id"`
	UserID       string            `db:"user_id"`
	Title        string            `db:"title"`
	Description  string            `db:"description"`
	StartTime    time.Time         `db:"start_time"`
	EndTime      time.Time         `db:"end_time"`
	Attendees    int               `db:"attendees"`
	Organization string            `db:"organization"`
	Status       ReservationStatus `db:"status"`
	CreatedAt    time.Time         `db:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at"`
}

func (r Reservation) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Overlaps reports whether the half-open intervals intersect.
func (r Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && start.Before(r.EndTime)
}

// ReservationFilter predicates are AND-composed; zero values are ignored.
type ReservationFilter struct {
	SpaceID string
	UserID  string
	From    *time.Time
	To      *time.Time
}

// OverlapPolicy decides whether intersecting bookings of one space are accepted.
type OverlapPolicy string

const (
	OverlapReject OverlapPolicy = "reject"
	OverlapAllow  OverlapPolicy = "allow"
)
