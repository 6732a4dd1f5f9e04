package services_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reservaespacios/reservation-service/internal/core/services"
	"github.com/reservaespacios/reservation-service/test/mocks"
)

var temporaryPasswordPattern = regexp.MustCompile(`<strong>([^<]+)</strong>`)

// extractTemporaryPassword pulls the credential out of a welcome or reset email.
func extractTemporaryPassword(t *testing.T, html string) string {
	t.Helper()
	m := temporaryPasswordPattern.FindStringSubmatch(html)
	require.Len(t, m, 2, "no temporary password in email")
	return m[1]
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	hash, err := services.HashPassword(plain)
	require.NoError(t, err)
	return hash
}

type notificationFixture struct {
	notifier   *mocks.MockNotifier
	log        *mocks.MockNotificationLog
	dispatcher *services.NotificationDispatcher
}

func newNotificationFixture() notificationFixture {
	notifier := mocks.NewMockNotifier()
	log := mocks.NewMockNotificationLog()
	return notificationFixture{
		notifier:   notifier,
		log:        log,
		dispatcher: services.NewNotificationDispatcher(notifier, log, mocks.DiscardLogger(), time.Second),
	}
}
