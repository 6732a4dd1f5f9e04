package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

var notificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Transactional emails attempted, by event and outcome",
	},
	[]string{"event", "outcome"},
)

// Notification is one email addressed to a user on a lifecycle event.
type Notification struct {
	UserID string
	Event  domain.NotificationEvent
	Email  ports.Email
	// Sensitive messages carry credentials and are never persisted for retry.
	Sensitive bool
}

// NotificationDispatcher sends notifications and makes failures observable:
// every failure is logged with user and event and recorded in the notification log.
type NotificationDispatcher struct {
	notifier ports.Notifier
	log      ports.NotificationLog
	logger   *slog.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewNotificationDispatcher(notifier ports.Notifier, log ports.NotificationLog, logger *slog.Logger, timeout time.Duration) *NotificationDispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NotificationDispatcher{
		notifier: notifier,
		log:      log,
		logger:   logger,
		timeout:  timeout,
	}
}

// Send delivers synchronously. A delivery failure is recorded, not returned.
func (d *NotificationDispatcher) Send(ctx context.Context, n Notification) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := d.notifier.Send(ctx, n.Email)
	if err == nil {
		notificationsTotal.WithLabelValues(string(n.Event), "sent").Inc()
		return
	}

	notificationsTotal.WithLabelValues(string(n.Event), "failed").Inc()
	d.logger.Error("notification delivery failed",
		"user_id", n.UserID,
		"event", string(n.Event),
		"error", err,
	)

	failure := domain.NotificationFailure{
		ID:        uuid.NewString(),
		UserID:    n.UserID,
		Event:     n.Event,
		Recipient: n.Email.To,
		Subject:   n.Email.Subject,
		Retryable: !n.Sensitive,
		Attempts:  1,
		LastError: err.Error(),
		CreatedAt: time.Now().UTC(),
	}
	if !n.Sensitive {
		failure.Body = n.Email.HTML
	}

	// The request context may already be done; the audit write must still happen.
	recordCtx, recordCancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer recordCancel()
	if err := d.log.RecordFailure(recordCtx, failure); err != nil {
		d.logger.Error("failed to record notification failure",
			"user_id", n.UserID,
			"event", string(n.Event),
			"error", err,
		)
	}
}

// SendAsync delivers without blocking the caller; the caller's cancellation
// does not abort the send.
func (d *NotificationDispatcher) SendAsync(ctx context.Context, n Notification) {
	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.Send(detached, n)
	}()
}

// Wait blocks until all asynchronous sends finished. Called on shutdown.
func (d *NotificationDispatcher) Wait() {
	d.wg.Wait()
}
