// Package config loads process configuration from the environment so main
// stays lean. Every knob has a development default; production overrides via
// CASEFLOW_* variables.
package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything the server process needs to start.
type Config struct {
	HTTP          HTTP
	PostgresURL   string
	Redis         Redis
	KafkaBrokers  []string
	KafkaTopic    string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	CatalogPath   string

	// SubmissionValidity is how long a verified document stays valid before
	// the expiry sweep reopens its requirement.
	SubmissionValidity time.Duration
	SweepInterval      time.Duration
}

// HTTP captures the listen address and server timeouts. Write timeout stays
// unset because document review responses carry the full case payload and
// size varies widely between cases.
type HTTP struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// Redis captures the snapshot cache connection. An empty URL disables the
// cache.
type Redis struct {
	URL          string
	SnapshotTTL  time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		PostgresURL:   os.Getenv("CASEFLOW_POSTGRES_URL"),
		KafkaTopic:    envOr("CASEFLOW_KAFKA_TOPIC", "caseflow.case-events"),
		JWTSigningKey: envOr("CASEFLOW_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     envOr("CASEFLOW_JWT_ISSUER", "caseflow"),
		JWTAudience:   envOr("CASEFLOW_JWT_AUDIENCE", "caseflow-api"),
		CatalogPath:   os.Getenv("CASEFLOW_CATALOG_PATH"),

		SubmissionValidity: durationOr("CASEFLOW_SUBMISSION_VALIDITY", 365*24*time.Hour),
		SweepInterval:      durationOr("CASEFLOW_SWEEP_INTERVAL", time.Hour),

		HTTP: HTTP{
			Addr:              envOr("CASEFLOW_ADDR", ":8080"),
			ReadHeaderTimeout: durationOr("CASEFLOW_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			IdleTimeout:       durationOr("CASEFLOW_HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout:   durationOr("CASEFLOW_HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},

		Redis: Redis{
			URL:          os.Getenv("CASEFLOW_REDIS_URL"),
			SnapshotTTL:  durationOr("CASEFLOW_SNAPSHOT_TTL", 5*time.Minute),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
	if brokers := os.Getenv("CASEFLOW_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
