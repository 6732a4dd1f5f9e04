package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

const reservationColumns = `id, space_id, user_id, title, description, start_time, end_time,
	attendees, organization, status, created_at, updated_at`

type ReservationRepository struct {
	db *sqlx.DB
}

var _ ports.ReservationRepository = (*ReservationRepository)(nil)

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

type txKey struct{}

// WithinSpaceLock runs fn in a transaction holding a transaction-scoped
// advisory lock on spaceID. Calls made with the ctx handed to fn join that
// transaction, so checks and writes for one space are serialized.
func (r *ReservationRepository) WithinSpaceLock(ctx context.Context, spaceID string, fn func(ctx context.Context) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning reservation transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, spaceID); err != nil {
		return fmt.Errorf("locking space %s: %w", spaceID, err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reservation transaction: %w", err)
	}
	return nil
}

// ext returns the transaction carried by ctx, or the pool.
func (r *ReservationRepository) ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return r.db
}

func (r *ReservationRepository) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	var res domain.Reservation
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding reservation %s: %w", id, err)
	}
	return &res, nil
}

// List AND-composes every non-zero filter predicate.
func (r *ReservationRepository) List(ctx context.Context, filter domain.ReservationFilter) ([]domain.Reservation, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(predicate string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(predicate, len(args)))
	}
	if filter.SpaceID != "" {
		add("space_id = $%d", filter.SpaceID)
	}
	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.From != nil {
		add("start_time >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("end_time <= $%d", *filter.To)
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_time"

	reservations := []domain.Reservation{}
	if err := r.db.SelectContext(ctx, &reservations, query, args...); err != nil {
		return nil, fmt.Errorf("listing reservations: %w", err)
	}
	return reservations, nil
}

func (r *ReservationRepository) Create(ctx context.Context, res domain.Reservation) error {
	_, err := sqlx.NamedExecContext(ctx, r.ext(ctx), `
		INSERT INTO reservations (id, space_id, user_id, title, description, start_time, end_time,
			attendees, organization, status, created_at, updated_at)
		VALUES (:id, :space_id, :user_id, :title, :description, :start_time, :end_time,
			:attendees, :organization, :status, :created_at, :updated_at)`, res)
	if err != nil {
		return fmt.Errorf("creating reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) Update(ctx context.Context, res domain.Reservation) error {
	result, err := sqlx.NamedExecContext(ctx, r.ext(ctx), `
		UPDATE reservations SET space_id = :space_id, title = :title, description = :description,
			start_time = :start_time, end_time = :end_time, attendees = :attendees,
			organization = :organization, status = :status, updated_at = :updated_at
		WHERE id = :id`, res)
	if err != nil {
		return fmt.Errorf("updating reservation %s: %w", res.ID, err)
	}
	return requireAffected(result)
}

func (r *ReservationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting reservation %s: %w", id, err)
	}
	return requireAffected(result)
}

func (r *ReservationRepository) FindOverlapping(ctx context.Context, spaceID string, start, end time.Time, excludeID string) ([]domain.Reservation, error) {
	reservations := []domain.Reservation{}
	err := sqlx.SelectContext(ctx, r.ext(ctx), &reservations, `
		SELECT `+reservationColumns+` FROM reservations
		WHERE space_id = $1 AND start_time < $3 AND end_time > $2
			AND status <> 'cancelled' AND id <> $4
		ORDER BY start_time`,
		spaceID, start, end, excludeID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding overlapping reservations: %w", err)
	}
	return reservations, nil
}

func (r *ReservationRepository) OrganizationUsage(ctx context.Context, organization string, from, to time.Time, excludeID string) (time.Duration, error) {
	var seconds float64
	err := sqlx.GetContext(ctx, r.ext(ctx), &seconds, `
		SELECT COALESCE(SUM(EXTRACT(EPOCH FROM (end_time - start_time))), 0)
		FROM reservations
		WHERE lower(organization) = lower($1) AND start_time >= $2 AND start_time < $3
			AND status <> 'cancelled' AND id <> $4`,
		organization, from, to, excludeID,
	)
	if err != nil {
		return 0, fmt.Errorf("summing organization usage: %w", err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
