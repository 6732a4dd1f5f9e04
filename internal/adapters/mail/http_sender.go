package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/reservaespacios/reservation-service/internal/config"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

// HTTPSender posts transactional emails to a Resend-compatible API.
type HTTPSender struct {
	client *http.Client
	url    string
	apiKey string
	from   string
	cb     *gobreaker.CircuitBreaker
}

var _ ports.Notifier = (*HTTPSender)(nil)

func NewHTTPSender(cfg config.MailConfig, client *http.Client) *HTTPSender {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPSender{
		client: client,
		url:    cfg.APIURL,
		apiKey: cfg.APIKey,
		from:   cfg.From,
		cb:     config.NewCircuitBreaker("Mail-API"),
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (s *HTTPSender) Send(ctx context.Context, email ports.Email) error {
	body, err := json.Marshal(sendRequest{
		From:    s.from,
		To:      []string{email.To},
		Subject: email.Subject,
		HTML:    email.HTML,
	})
	if err != nil {
		return fmt.Errorf("encoding email: %w", err)
	}

	_, err = s.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("mail API returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}
