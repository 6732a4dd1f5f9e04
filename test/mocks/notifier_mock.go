package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

// MockNotifier implements ports.Notifier for testing.
// It replaces the mail API and RabbitMQ adapters.
type MockNotifier struct {
	mu sync.RWMutex

	// Track sent emails for verification
	SentEmails []ports.Email

	// Error injection for testing error scenarios
	SendError error

	SendCallCount int
}

var _ ports.Notifier = (*MockNotifier)(nil)

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Send captures the email, or fails with SendError when set.
func (m *MockNotifier) Send(ctx context.Context, email ports.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SendCallCount++

	if m.SendError != nil {
		return m.SendError
	}

	m.SentEmails = append(m.SentEmails, email)
	return nil
}

// GetSentEmails returns a copy of the delivered emails.
func (m *MockNotifier) GetSentEmails() []ports.Email {
	m.mu.RLock()
	defer m.mu.RUnlock()

	emails := make([]ports.Email, len(m.SentEmails))
	copy(emails, m.SentEmails)
	return emails
}

func (m *MockNotifier) GetSendCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.SendCallCount
}

// MockNotificationLog implements ports.NotificationLog for testing.
type MockNotificationLog struct {
	mu sync.RWMutex

	Failures    []domain.NotificationFailure
	RecordError error
}

var _ ports.NotificationLog = (*MockNotificationLog)(nil)

func NewMockNotificationLog() *MockNotificationLog {
	return &MockNotificationLog{}
}

func (m *MockNotificationLog) RecordFailure(ctx context.Context, failure domain.NotificationFailure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecordError != nil {
		return m.RecordError
	}
	m.Failures = append(m.Failures, failure)
	return nil
}

func (m *MockNotificationLog) ListFailures(ctx context.Context, userID string) ([]domain.NotificationFailure, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.NotificationFailure
	for _, f := range m.Failures {
		if f.Delivered() {
			continue
		}
		if userID == "" || f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *MockNotificationLog) GetFailures() []domain.NotificationFailure {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.NotificationFailure, len(m.Failures))
	copy(out, m.Failures)
	return out
}

// MockTokenRevoker implements ports.TokenRevoker for testing.
type MockTokenRevoker struct {
	mu      sync.RWMutex
	revoked map[string]time.Duration

	RevokeError    error
	IsRevokedError error
}

var _ ports.TokenRevoker = (*MockTokenRevoker)(nil)

func NewMockTokenRevoker() *MockTokenRevoker {
	return &MockTokenRevoker{revoked: make(map[string]time.Duration)}
}

func (m *MockTokenRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RevokeError != nil {
		return m.RevokeError
	}
	m.revoked[tokenID] = ttl
	return nil
}

func (m *MockTokenRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.IsRevokedError != nil {
		return false, m.IsRevokedError
	}
	_, ok := m.revoked[tokenID]
	return ok, nil
}

// RevokedTTL reports the TTL a token was revoked with.
func (m *MockTokenRevoker) RevokedTTL(tokenID string) (time.Duration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ttl, ok := m.revoked[tokenID]
	return ttl, ok
}
