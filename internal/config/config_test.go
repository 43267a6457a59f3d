package config

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, TransportLoopback, cfg.Transport)
	assert.Equal(t, "default", cfg.SiteID)
	assert.Equal(t, 0, cfg.QueueSize)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, ":8080", cfg.Gateway.Addr)
	assert.Equal(t, []string{"hermes/#"}, cfg.Gateway.Allow)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("HERMES_TRANSPORT", "mqtt")
	t.Setenv("HERMES_BROKER_URL", "tcp://broker:1883")
	t.Setenv("HERMES_CLIENT_ID", "kitchen")
	t.Setenv("HERMES_SITE_ID", "kitchen")
	t.Setenv("HERMES_QUEUE_SIZE", "50")
	t.Setenv("HERMES_REQUEST_TIMEOUT", "5s")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HERMES_TRACING_ENABLED", "true")
	t.Setenv("HERMES_GATEWAY_ADDR", "127.0.0.1:9000")
	t.Setenv("HERMES_GATEWAY_ALLOW", "hermes/tts/say, hermes/nlu/+ ,")
	t.Setenv("HERMES_GATEWAY_RATE", "2.5")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, TransportMQTT, cfg.Transport)
	assert.Equal(t, "tcp://broker:1883", cfg.BrokerURL)
	assert.Equal(t, "kitchen", cfg.ClientID)
	assert.Equal(t, "kitchen", cfg.SiteID)
	assert.Equal(t, 50, cfg.QueueSize)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "127.0.0.1:9000", cfg.Gateway.Addr)
	assert.Equal(t, []string{"hermes/tts/say", "hermes/nlu/+"}, cfg.Gateway.Allow)
	assert.Equal(t, 2.5, cfg.Gateway.PublishRate)
}

func TestFromEnv_ParseErrors(t *testing.T) {
	t.Run("queue size", func(t *testing.T) {
		t.Setenv("HERMES_QUEUE_SIZE", "many")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "HERMES_QUEUE_SIZE")
	})

	t.Run("request timeout", func(t *testing.T) {
		t.Setenv("HERMES_REQUEST_TIMEOUT", "soon")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "HERMES_REQUEST_TIMEOUT")
	})

	t.Run("gateway rate", func(t *testing.T) {
		t.Setenv("HERMES_GATEWAY_RATE", "fast")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "HERMES_GATEWAY_RATE")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "nats with url", mutate: func(c *Config) {
			c.Transport = TransportNATS
			c.BrokerURL = "nats://localhost:4222"
		}},
		{name: "unknown transport", mutate: func(c *Config) { c.Transport = "amqp" }, wantErr: "Transport"},
		{name: "broker required for mqtt", mutate: func(c *Config) { c.Transport = TransportMQTT }, wantErr: "BrokerURL"},
		{name: "broker url without host", mutate: func(c *Config) {
			c.Transport = TransportMQTT
			c.BrokerURL = "localhost"
		}, wantErr: "BrokerURL"},
		{name: "negative queue", mutate: func(c *Config) { c.QueueSize = -1 }, wantErr: "QueueSize"},
		{name: "zero timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }, wantErr: "RequestTimeout"},
		{name: "empty site", mutate: func(c *Config) { c.SiteID = "" }, wantErr: "SiteID"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "LogLevel"},
		{name: "empty gateway addr", mutate: func(c *Config) { c.Gateway.Addr = "" }, wantErr: "Addr"},
		{name: "negative publish rate", mutate: func(c *Config) { c.Gateway.PublishRate = -1 }, wantErr: "PublishRate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.wantErr, verrs[0].Field())
		})
	}
}
