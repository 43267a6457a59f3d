package pubsub

import (
	"os"
	"strconv"
)

// LoadTracingConfigFromEnv reads HERMES_TRACING_* variables on top of
// DefaultTracingConfig. Unparseable values are ignored.
func LoadTracingConfigFromEnv() TracingConfig {
	config := DefaultTracingConfig()

	if v := os.Getenv("HERMES_TRACING_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			config.Enabled = enabled
		}
	}
	if v := os.Getenv("HERMES_TRACING_SERVICE_NAME"); v != "" {
		config.ServiceName = v
	}
	if v := os.Getenv("HERMES_TRACING_SERVICE_VERSION"); v != "" {
		config.ServiceVersion = v
	}
	if v := os.Getenv("HERMES_TRACING_ZIPKIN_URL"); v != "" {
		config.ZipkinURL = v
	}
	if v := os.Getenv("HERMES_TRACING_SAMPLE_RATIO"); v != "" {
		if ratio, err := strconv.ParseFloat(v, 64); err == nil {
			config.SampleRatio = ratio
		}
	}

	return config
}
