package config

import (
	"os"
	"strings"
	"time"

	"github.com/nbodysim/server/internal/utils"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	ListenAddr string

	SimDt               float64
	SimTheta            float64
	SimGravityConstant  float64
	SimQuadtreeCapacity int
	SimTickRate         int

	LogLevel string

	SentryDSN         string
	SentryEnvironment string
	ServiceVersion    string

	OTELEnabled              bool
	OTELExporterOTLPEndpoint string
	OTELTraceSampleRate      float64
}

// TickInterval returns the duration between simulation ticks.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.SimTickRate)
}

var cached *Config

// Load reads env vars once and caches them.
func Load() *Config {
	if cached != nil {
		return cached
	}
	cached = &Config{
		ListenAddr: envOrDefault("LISTEN_ADDR", "0.0.0.0:5000"),

		SimDt:               utils.GetEnvAsFloat("SIM_DT", 0.01),
		SimTheta:            utils.GetEnvAsFloat("SIM_THETA", 1.0),
		SimGravityConstant:  utils.GetEnvAsFloat("SIM_GRAVITY_CONSTANT", 1.0),
		SimQuadtreeCapacity: utils.GetEnvAsInt("SIM_QUADTREE_CAPACITY", 32),
		SimTickRate:         utils.GetEnvAsInt("SIM_TICK_RATE", 60),

		LogLevel: strings.ToLower(envOrDefault("LOG_LEVEL", "info")),

		SentryDSN:         os.Getenv("SENTRY_DSN"),
		SentryEnvironment: envOrDefault("SENTRY_ENVIRONMENT", "development"),
		ServiceVersion:    envOrDefault("SERVICE_VERSION", "dev"),

		OTELEnabled:              utils.GetEnvAsBool("OTEL_ENABLED", false),
		OTELExporterOTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTELTraceSampleRate:      utils.GetEnvAsFloat("OTEL_TRACE_SAMPLE_RATE", 0.1),
	}
	return cached
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// ResetForTest clears cached config; for use in tests only.
func ResetForTest() { cached = nil }
