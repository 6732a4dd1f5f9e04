package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

const notificationColumns = `id, aggregate_id, event_type, recipient, subject, body, retryable,
	attempts, last_error, created_at, processed_at`

// NotificationLogRepository stores failed deliveries in outbox_events.
// Inserting a retryable row notifies the relay through the table trigger.
type NotificationLogRepository struct {
	db *sqlx.DB
}

var _ ports.NotificationLog = (*NotificationLogRepository)(nil)

func NewNotificationLogRepository(db *sqlx.DB) *NotificationLogRepository {
	return &NotificationLogRepository{db: db}
}

func (r *NotificationLogRepository) RecordFailure(ctx context.Context, failure domain.NotificationFailure) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO outbox_events (id, aggregate_id, event_type, recipient, subject, body,
			retryable, attempts, last_error, created_at, processed_at)
		VALUES (:id, :aggregate_id, :event_type, :recipient, :subject, :body,
			:retryable, :attempts, :last_error, :created_at, :processed_at)`, failure)
	if err != nil {
		return fmt.Errorf("recording notification failure: %w", err)
	}
	return nil
}

// ListFailures returns undelivered failures, newest first. Rows the relay
// later delivered are left out; an empty userID lists all users.
func (r *NotificationLogRepository) ListFailures(ctx context.Context, userID string) ([]domain.NotificationFailure, error) {
	query := `SELECT ` + notificationColumns + ` FROM outbox_events
		WHERE (processed_at IS NULL OR last_error <> '')`
	var args []interface{}
	if userID != "" {
		query += ` AND aggregate_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC`

	failures := []domain.NotificationFailure{}
	if err := r.db.SelectContext(ctx, &failures, query, args...); err != nil {
		return nil, fmt.Errorf("listing notification failures: %w", err)
	}
	return failures, nil
}
