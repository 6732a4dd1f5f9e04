package ports

import (
	"context"
	"time"
)

type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Notifier is the outbound transactional email gateway.
type Notifier interface {
	Send(ctx context.Context, email Email) error
}

// TokenRevoker keeps the list of access tokens invalidated before their expiry.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
