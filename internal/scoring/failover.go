package scoring

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"credex/internal/application"
	"credex/pkg/platform/circuit"
)

// FailoverScorer routes scoring through a circuit breaker. While the circuit
// is closed every call goes to the primary scorer; after enough consecutive
// failures the circuit opens and calls go to the fallback, with a periodic
// probe of the primary so the circuit can close again once it recovers.
// The fallback is expected to be the in-process heuristic, so a scoring
// outage degrades model quality rather than availability.
type FailoverScorer struct {
	primary  Scorer
	fallback Scorer
	breaker  *circuit.Breaker
	probe    time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	lastProbe time.Time
}

// FailoverOption configures a FailoverScorer.
type FailoverOption func(*FailoverScorer)

// WithBreaker replaces the default breaker, mainly to tune thresholds.
func WithBreaker(b *circuit.Breaker) FailoverOption {
	return func(s *FailoverScorer) {
		if b != nil {
			s.breaker = b
		}
	}
}

// WithProbeInterval sets how often an open circuit retries the primary.
func WithProbeInterval(d time.Duration) FailoverOption {
	return func(s *FailoverScorer) {
		if d >= 0 {
			s.probe = d
		}
	}
}

// WithFailoverLogger attaches a logger for state transitions.
func WithFailoverLogger(logger *slog.Logger) FailoverOption {
	return func(s *FailoverScorer) { s.logger = logger }
}

// NewFailoverScorer wraps primary with fallback behind a circuit breaker.
func NewFailoverScorer(primary, fallback Scorer, opts ...FailoverOption) *FailoverScorer {
	s := &FailoverScorer{
		primary:  primary,
		fallback: fallback,
		breaker:  circuit.New("scoring"),
		probe:    30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Degraded reports whether calls are currently served by the fallback.
func (s *FailoverScorer) Degraded() bool {
	return s.breaker.IsOpen()
}

func (s *FailoverScorer) Score(ctx context.Context, app application.Application) (*Result, error) {
	if s.breaker.IsOpen() && !s.probeDue() {
		return s.fallback.Score(ctx, app)
	}

	result, err := s.primary.Score(ctx, app)
	if err == nil {
		if _, change := s.breaker.RecordSuccess(); change.Closed && s.logger != nil {
			s.logger.InfoContext(ctx, "scoring circuit closed, primary scorer restored")
		}
		return result, nil
	}

	if _, change := s.breaker.RecordFailure(); change.Opened && s.logger != nil {
		s.logger.WarnContext(ctx, "scoring circuit opened, degrading to fallback scorer", "error", err)
	}
	return s.fallback.Score(ctx, app)
}

// probeDue allows one primary attempt per probe interval while open.
func (s *FailoverScorer) probeDue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if now.Sub(s.lastProbe) < s.probe {
		return false
	}
	s.lastProbe = now
	return true
}
