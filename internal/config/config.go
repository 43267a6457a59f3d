package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/nfrund/hermes/internal/pubsub"
)

// Transport names accepted in HERMES_TRANSPORT.
const (
	TransportLoopback = "loopback"
	TransportMQTT     = "mqtt"
	TransportNATS     = "nats"
)

var validatorInstance = validator.New()

func init() {
	_ = validatorInstance.RegisterValidation("brokerurl", validateBrokerURL)
}

// validateBrokerURL accepts an empty value or a URL with both scheme and host.
func validateBrokerURL(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if raw == "" {
		return true
	}
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Config holds all configuration for the application.
type Config struct {
	Transport      string        `validate:"required,oneof=loopback mqtt nats"`
	BrokerURL      string        `validate:"required_unless=Transport loopback,brokerurl"`
	ClientID       string        `validate:"max=128"`
	SiteID         string        `validate:"required"`
	QueueSize      int           `validate:"gte=0"`
	RequestTimeout time.Duration `validate:"gt=0"`
	LogFormat      string        `validate:"oneof=text json"`
	LogLevel       string        `validate:"oneof=debug info warn error"`
	Tracing        pubsub.TracingConfig
	Gateway        GatewayConfig
}

// GatewayConfig configures the HTTP and WebSocket gateway.
type GatewayConfig struct {
	Addr string `validate:"required"`

	// Allow lists the topic patterns gateway clients may publish on.
	Allow []string

	// PublishRate is the per-client publish allowance in requests per second.
	PublishRate float64 `validate:"gte=0"`
}

// Default returns the configuration used when no variables are set.
func Default() *Config {
	return &Config{
		Transport:      TransportLoopback,
		SiteID:         "default",
		RequestTimeout: pubsub.DefaultWaitTimeout,
		LogFormat:      "text",
		LogLevel:       "info",
		Tracing:        pubsub.DefaultTracingConfig(),
		Gateway: GatewayConfig{
			Addr:        ":8080",
			Allow:       []string{"hermes/#"},
			PublishRate: 10,
		},
	}
}

// New loads a .env file if present, then reads and validates the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv reads configuration from environment variables on top of Default.
func FromEnv() (*Config, error) {
	cfg := Default()

	if v := os.Getenv("HERMES_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	cfg.BrokerURL = os.Getenv("HERMES_BROKER_URL")
	cfg.ClientID = os.Getenv("HERMES_CLIENT_ID")
	if v := os.Getenv("HERMES_SITE_ID"); v != "" {
		cfg.SiteID = v
	}
	if v := os.Getenv("HERMES_QUEUE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("HERMES_QUEUE_SIZE: %w", err)
		}
		cfg.QueueSize = n
	}
	if v := os.Getenv("HERMES_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("HERMES_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	cfg.Tracing = pubsub.LoadTracingConfigFromEnv()

	if v := os.Getenv("HERMES_GATEWAY_ADDR"); v != "" {
		cfg.Gateway.Addr = v
	}
	if v, ok := os.LookupEnv("HERMES_GATEWAY_ALLOW"); ok {
		cfg.Gateway.Allow = splitList(v)
	}
	if v := os.Getenv("HERMES_GATEWAY_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("HERMES_GATEWAY_RATE: %w", err)
		}
		cfg.Gateway.PublishRate = f
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration's field constraints.
func (c *Config) Validate() error {
	if err := validatorInstance.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// splitList splits a comma separated value, dropping blank items.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
