// Package config builds runtime configuration from the environment so main
// stays lean. Optional backends (Postgres, Redis, Kafka, remote scorer) are
// enabled by their settings being present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"credex/internal/scoring"
)

// Server captures the full service configuration.
type Server struct {
	Addr          string
	JWTSigningKey string

	RulesPath string

	// ScoringURL empty means the in-process heuristic scorer.
	ScoringURL     string
	ScoringTimeout time.Duration

	// PostgresDSN empty means in-memory stores.
	PostgresDSN string

	// RedisAddr empty disables the score cache.
	RedisAddr     string
	ScoreCacheTTL time.Duration

	// KafkaBrokers empty disables the audit Kafka sink.
	KafkaBrokers []string
	AuditTopic   string
	AuditBuffer  int

	Bands            scoring.Bands
	TopContributions int
	MinJustification int
}

// FromEnv builds a Server config from environment variables.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:             envOr("CREDEX_ADDR", ":8080"),
		JWTSigningKey:    envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		RulesPath:        envOr("CREDEX_RULES_PATH", "config/rules.yaml"),
		ScoringURL:       os.Getenv("CREDEX_SCORING_URL"),
		PostgresDSN:      os.Getenv("CREDEX_POSTGRES_DSN"),
		RedisAddr:        os.Getenv("CREDEX_REDIS_ADDR"),
		AuditTopic:       envOr("CREDEX_AUDIT_TOPIC", "credex.audit"),
		Bands:            scoring.DefaultBands(),
		TopContributions: 5,
		MinJustification: 100,
		AuditBuffer:      256,
	}

	if brokers := os.Getenv("CREDEX_KAFKA_BROKERS"); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}

	var err error
	if cfg.ScoringTimeout, err = envDuration("CREDEX_SCORING_TIMEOUT", 2*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.ScoreCacheTTL, err = envDuration("CREDEX_SCORE_CACHE_TTL", 5*time.Minute); err != nil {
		return Server{}, err
	}
	if cfg.Bands.LowMax, err = envFloat("CREDEX_BAND_LOW_MAX", cfg.Bands.LowMax); err != nil {
		return Server{}, err
	}
	if cfg.Bands.MediumMax, err = envFloat("CREDEX_BAND_MEDIUM_MAX", cfg.Bands.MediumMax); err != nil {
		return Server{}, err
	}
	if err = cfg.Bands.Validate(); err != nil {
		return Server{}, err
	}
	if cfg.TopContributions, err = envInt("CREDEX_EXPLANATION_TOP_N", cfg.TopContributions); err != nil {
		return Server{}, err
	}
	if cfg.MinJustification, err = envInt("CREDEX_MIN_JUSTIFICATION", cfg.MinJustification); err != nil {
		return Server{}, err
	}
	if cfg.AuditBuffer, err = envInt("CREDEX_AUDIT_BUFFER", cfg.AuditBuffer); err != nil {
		return Server{}, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
