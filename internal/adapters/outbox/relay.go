package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sony/gobreaker"

	"github.com/reservaespacios/reservation-service/internal/config"
	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

const (
	// PostgreSQL NOTIFY/LISTEN configuration
	listenerMinReconnectInterval = 10 * time.Second
	listenerMaxReconnectInterval = time.Minute
	outboxChannelName            = "outbox_channel"

	// Event processing timeouts
	eventProcessTimeout     = 30 * time.Second
	batchProcessTimeout     = 60 * time.Second
	periodicProcessInterval = 90 * time.Second

	// Health check configuration
	healthCheckStaleThreshold = 5 * time.Minute

	// Batch processing limits
	maxEventsPerBatch = 100
)

const pendingColumns = `id, aggregate_id, event_type, recipient, subject, body, retryable,
	attempts, last_error, created_at, processed_at`

// Relay re-delivers retryable notification failures recorded in outbox_events.
// It wakes on PostgreSQL NOTIFY and also sweeps the backlog periodically.
type Relay struct {
	db          *sqlx.DB
	notifier    ports.Notifier
	listener    *pq.Listener
	dbURL       string
	dbCB        *gobreaker.CircuitBreaker
	maxAttempts int
	logger      *slog.Logger

	mu            sync.RWMutex
	lastProcessed time.Time
	isHealthy     bool
}

func NewRelay(db *sqlx.DB, dbURL string, notifier ports.Notifier, maxAttempts int, logger *slog.Logger) *Relay {
	return &Relay{
		db:            db,
		dbURL:         dbURL,
		notifier:      notifier,
		dbCB:          config.NewCircuitBreaker("Relay-PostgreSQL"),
		maxAttempts:   maxAttempts,
		logger:        logger,
		lastProcessed: time.Now(),
		isHealthy:     true,
	}
}

// IsHealthy is the liveness signal: the process is alive and its listener connected.
// An open breaker is degraded but recoverable and does not fail liveness.
func (r *Relay) IsHealthy() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isHealthy
}

// IsReady returns true if the relay can process events.
func (r *Relay) IsReady() bool {
	if r.dbCB.State() == gobreaker.StateOpen {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if time.Since(r.lastProcessed) > healthCheckStaleThreshold {
		return false
	}
	return r.isHealthy
}

func (r *Relay) markProcessed() {
	r.mu.Lock()
	r.lastProcessed = time.Now()
	r.isHealthy = true
	r.mu.Unlock()
}

func (r *Relay) setHealthy(healthy bool) {
	r.mu.Lock()
	r.isHealthy = healthy
	r.mu.Unlock()
}

// Start blocks until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			r.logger.Error("outbox listener error", "error", err)
		}
	}

	r.listener = pq.NewListener(r.dbURL, listenerMinReconnectInterval, listenerMaxReconnectInterval, reportProblem)
	defer r.listener.Close()

	if err := r.listener.Listen(outboxChannelName); err != nil {
		return err
	}

	r.logger.Info("outbox relay listening", "channel", outboxChannelName)

	// Catch up on failures recorded while the relay was down.
	if err := r.ProcessPending(ctx); err != nil {
		r.logger.Error("processing startup backlog", "error", err)
	}

	ticker := time.NewTicker(periodicProcessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay shutting down")
			return ctx.Err()

		case notification := <-r.listener.Notify:
			if notification == nil {
				r.logger.Warn("outbox listener reconnecting")
				r.setHealthy(false)
				continue
			}

			if err := r.ProcessEvent(ctx, notification.Extra); err != nil {
				r.logger.Error("processing outbox event", "event_id", notification.Extra, "error", err)
			} else {
				r.markProcessed()
			}

		case <-ticker.C:
			go r.listener.Ping()

			if err := r.ProcessPending(ctx); err != nil {
				r.logger.Error("periodic outbox processing", "error", err)
			} else {
				r.markProcessed()
			}
		}
	}
}

// ProcessEvent re-delivers one pending failure. Rows locked by another relay are skipped.
func (r *Relay) ProcessEvent(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, eventProcessTimeout)
	defer cancel()
	return r.processOne(ctx, eventID)
}

// ProcessPending re-delivers up to one batch of pending failures, oldest first.
// Each row is delivered and recorded in its own transaction, so a failure on
// one row leaves the outcome of the others committed.
func (r *Relay) ProcessPending(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, batchProcessTimeout)
	defer cancel()

	var ids []string
	_, err := r.dbCB.Execute(func() (interface{}, error) {
		return nil, r.db.SelectContext(ctx, &ids, `
			SELECT id
			FROM outbox_events
			WHERE processed_at IS NULL AND retryable
			ORDER BY created_at
			LIMIT $1`, maxEventsPerBatch)
	})
	if err != nil {
		return fmt.Errorf("listing pending events: %w", err)
	}

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		eventCtx, cancelEvent := context.WithTimeout(ctx, eventProcessTimeout)
		err := r.processOne(eventCtx, id)
		cancelEvent()
		if err != nil {
			r.logger.Error("processing pending event", "event_id", id, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Relay) processOne(ctx context.Context, eventID string) error {
	_, err := r.dbCB.Execute(func() (interface{}, error) {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		var failure domain.NotificationFailure
		err = tx.GetContext(ctx, &failure, `
			SELECT `+pendingColumns+`
			FROM outbox_events
			WHERE id = $1 AND processed_at IS NULL AND retryable
			FOR UPDATE SKIP LOCKED`, eventID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		if err := r.deliver(ctx, tx, failure); err != nil {
			return nil, err
		}
		return nil, tx.Commit()
	})
	return err
}

// deliver sends the stored email and records the outcome. A delivery error is
// recorded on the row; only database errors are returned.
func (r *Relay) deliver(ctx context.Context, tx *sqlx.Tx, failure domain.NotificationFailure) error {
	attempts := failure.Attempts + 1
	sendErr := r.notifier.Send(ctx, ports.Email{
		To:      failure.Recipient,
		Subject: failure.Subject,
		HTML:    failure.Body,
	})

	if sendErr == nil {
		if _, err := tx.ExecContext(ctx, `
			UPDATE outbox_events SET attempts = $2, last_error = '', processed_at = NOW()
			WHERE id = $1`, failure.ID, attempts); err != nil {
			return fmt.Errorf("marking event %s delivered: %w", failure.ID, err)
		}
		r.logger.Info("notification re-delivered",
			"event_id", failure.ID,
			"user_id", failure.UserID,
			"event", string(failure.Event),
			"attempts", attempts,
		)
		return nil
	}

	exhausted := attempts >= r.maxAttempts
	query := `UPDATE outbox_events SET attempts = $2, last_error = $3 WHERE id = $1`
	if exhausted {
		query = `UPDATE outbox_events SET attempts = $2, last_error = $3, processed_at = NOW() WHERE id = $1`
	}
	if _, err := tx.ExecContext(ctx, query, failure.ID, attempts, sendErr.Error()); err != nil {
		return fmt.Errorf("recording attempt for event %s: %w", failure.ID, err)
	}

	r.logger.Error("notification re-delivery failed",
		"event_id", failure.ID,
		"user_id", failure.UserID,
		"event", string(failure.Event),
		"attempts", attempts,
		"gave_up", exhausted,
		"error", sendErr,
	)
	return nil
}
