package config

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	Environment    string   `env:"APP_ENV" envDefault:"development"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL    string   `env:"DB_CONNECTION_STRING,required"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	RedisAddress  string `env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	PrivateKeyPath string        `env:"PRIVATE_KEY_PATH" envDefault:"/etc/certs/private.pem"`
	PublicKeyPath  string        `env:"PUBLIC_KEY_PATH" envDefault:"/etc/certs/public.pem"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey

	Mail MailConfig

	ReservationTimezone string `env:"RESERVATION_TIMEZONE" envDefault:"UTC"`
	OverlapPolicy       string `env:"RESERVATION_OVERLAP_POLICY" envDefault:"reject"`

	LoginRateLimit float64 `env:"LOGIN_RATE_LIMIT" envDefault:"0.5"`
	LoginRateBurst int     `env:"LOGIN_RATE_BURST" envDefault:"5"`
	// TrustProxy honours X-Forwarded-For/X-Real-IP. Enable only behind a proxy
	// that overwrites them.
	TrustProxy    bool          `env:"TRUST_PROXY" envDefault:"false"`
	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"10s"`
}

// MailConfig selects and configures the outbound email transport.
type MailConfig struct {
	Transport   string `env:"MAIL_TRANSPORT" envDefault:"http"`
	APIURL      string `env:"MAIL_API_URL" envDefault:"https://api.resend.com/emails"`
	APIKey      string `env:"MAIL_API_KEY"`
	From        string `env:"MAIL_FROM" envDefault:"Reservas <no-reply@reservas.local>"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
	QueueName   string `env:"MAIL_QUEUE_NAME" envDefault:"emails"`
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Location resolves RESERVATION_TIMEZONE; the default UTC keeps wall-clock
// input stored verbatim as UTC instants.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.ReservationTimezone)
}

// JWTPrivateKey signs access tokens.
func (c *Config) JWTPrivateKey() *rsa.PrivateKey {
	return c.privateKey
}

func (c *Config) JWTPublicKey() *rsa.PublicKey {
	return c.publicKey
}

func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Mail.validate(); err != nil {
		return nil, err
	}

	switch cfg.OverlapPolicy {
	case "reject", "allow":
	default:
		return nil, fmt.Errorf("RESERVATION_OVERLAP_POLICY must be reject or allow, got %q", cfg.OverlapPolicy)
	}

	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("invalid RESERVATION_TIMEZONE: %w", err)
	}

	privateKey, err := loadPrivateKey(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}
	publicKey, err := loadPublicKey(cfg.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load public key: %w", err)
	}
	cfg.privateKey = privateKey
	cfg.publicKey = publicKey

	return cfg, nil
}

func (m MailConfig) validate() error {
	switch m.Transport {
	case "http":
		if m.APIKey == "" {
			return fmt.Errorf("MAIL_API_KEY is required when MAIL_TRANSPORT=http")
		}
	case "rabbitmq":
		if m.RabbitMQURL == "" {
			return fmt.Errorf("RABBITMQ_URL is required when MAIL_TRANSPORT=rabbitmq")
		}
	default:
		return fmt.Errorf("MAIL_TRANSPORT must be http or rabbitmq, got %q", m.Transport)
	}
	return nil
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(keyData)
	if err != nil {
		return nil, err
	}
	return privateKey, nil
}

func loadPublicKey(path string) (*rsa.PublicKey, error) {
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(keyData)
	if err != nil {
		return nil, err
	}
	return publicKey, nil
}
