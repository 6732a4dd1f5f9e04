package mail

import (
	"fmt"

	"github.com/reservaespacios/reservation-service/internal/adapters/messaging"
	"github.com/reservaespacios/reservation-service/internal/config"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

// NewTransport builds the notifier selected by MAIL_TRANSPORT. The returned
// close function releases broker connections and is never nil.
func NewTransport(cfg config.MailConfig) (ports.Notifier, func() error, error) {
	switch cfg.Transport {
	case "http":
		return NewHTTPSender(cfg, nil), func() error { return nil }, nil
	case "rabbitmq":
		broker, err := messaging.NewRabbitMQBroker(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to RabbitMQ: %w", err)
		}
		return broker, broker.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
	}
}
