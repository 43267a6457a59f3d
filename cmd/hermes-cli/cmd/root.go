package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfrund/hermes/internal/app"
	"github.com/nfrund/hermes/internal/config"
	"github.com/nfrund/hermes/internal/logging"
)

var (
	flagTransport string
	flagBroker    string
	flagSite      string
	flagTimeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "hermes-cli",
	Short: "Hermes bus command-line tool",
	Long: `hermes-cli talks to a Hermes voice assistant bus over MQTT, NATS or an
in-process loopback.

Configuration is read from the environment (and a .env file): HERMES_TRANSPORT,
HERMES_BROKER_URL, HERMES_CLIENT_ID, HERMES_SITE_ID, HERMES_QUEUE_SIZE,
HERMES_REQUEST_TIMEOUT, LOG_FORMAT and LOG_LEVEL. Flags override them.

Use "hermes-cli [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagTransport, "transport", "", "Transport (loopback, mqtt, nats)")
	pf.StringVar(&flagBroker, "broker", "", "Broker URL (e.g., tcp://localhost:1883)")
	pf.StringVar(&flagSite, "site", "", "Site id")
	pf.DurationVar(&flagTimeout, "timeout", 0, "Request timeout")
}

// loadConfig reads the environment and applies the persistent flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	if flagTransport != "" {
		cfg.Transport = flagTransport
	}
	if flagBroker != "" {
		cfg.BrokerURL = flagBroker
	}
	if flagSite != "" {
		cfg.SiteID = flagSite
	}
	if flagTimeout > 0 {
		cfg.RequestTimeout = flagTimeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// connect builds the application from configuration and starts the engine.
func connect(ctx context.Context) (*app.Dependencies, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(os.Stderr, cfg.LogFormat, level)

	deps, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := deps.Start(ctx); err != nil {
		_ = deps.Close()
		return nil, fmt.Errorf("connect to %s bus: %w", cfg.Transport, err)
	}
	return deps, nil
}
