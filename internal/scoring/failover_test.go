package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credex/internal/application"
	"credex/pkg/platform/circuit"
)

type countingScorer struct {
	calls  int
	result *Result
	err    error
}

func (s *countingScorer) Score(context.Context, application.Application) (*Result, error) {
	s.calls++
	return s.result, s.err
}

func failoverApp(t *testing.T) application.Application {
	t.Helper()
	app, err := application.New("APP-1", map[string]application.Value{
		"debt_to_income": application.Number(0.4),
	})
	require.NoError(t, err)
	return app
}

func TestFailoverScorer(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy primary serves every call", func(t *testing.T) {
		primary := &countingScorer{result: &Result{RiskScore: 0.2, ModelVersion: "remote-v3"}}
		fallback := &countingScorer{result: &Result{RiskScore: 0.5, ModelVersion: HeuristicModelVersion}}
		scorer := NewFailoverScorer(primary, fallback)

		result, err := scorer.Score(ctx, failoverApp(t))
		require.NoError(t, err)
		assert.Equal(t, "remote-v3", result.ModelVersion)
		assert.Zero(t, fallback.calls)
		assert.False(t, scorer.Degraded())
	})

	t.Run("consecutive failures open the circuit", func(t *testing.T) {
		primary := &countingScorer{err: ErrUnavailable}
		fallback := &countingScorer{result: &Result{RiskScore: 0.5, ModelVersion: HeuristicModelVersion}}
		scorer := NewFailoverScorer(primary, fallback,
			WithBreaker(circuit.New("scoring", circuit.WithFailureThreshold(2))),
			WithProbeInterval(time.Hour),
		)

		app := failoverApp(t)

		// Failures degrade per call while the circuit is still closed.
		for i := 0; i < 2; i++ {
			result, err := scorer.Score(ctx, app)
			require.NoError(t, err)
			assert.Equal(t, HeuristicModelVersion, result.ModelVersion)
		}
		assert.True(t, scorer.Degraded())
		assert.Equal(t, 2, primary.calls)

		// Open circuit skips the primary until the next probe window.
		_, err := scorer.Score(ctx, app)
		require.NoError(t, err)
		assert.Equal(t, 2, primary.calls)
		assert.Equal(t, 3, fallback.calls)
	})

	t.Run("probe closes the circuit after recovery", func(t *testing.T) {
		primary := &countingScorer{err: ErrUnavailable}
		fallback := &countingScorer{result: &Result{RiskScore: 0.5, ModelVersion: HeuristicModelVersion}}
		scorer := NewFailoverScorer(primary, fallback,
			WithBreaker(circuit.New("scoring",
				circuit.WithFailureThreshold(1),
				circuit.WithSuccessThreshold(1),
			)),
			WithProbeInterval(0),
		)

		app := failoverApp(t)

		_, err := scorer.Score(ctx, app)
		require.NoError(t, err)
		assert.True(t, scorer.Degraded())

		primary.err = nil
		primary.result = &Result{RiskScore: 0.2, ModelVersion: "remote-v3"}

		result, err := scorer.Score(ctx, app)
		require.NoError(t, err)
		assert.Equal(t, "remote-v3", result.ModelVersion)
		assert.False(t, scorer.Degraded())
	})

	t.Run("fallback errors surface to the caller", func(t *testing.T) {
		primary := &countingScorer{err: ErrUnavailable}
		fallback := &countingScorer{err: ErrUnavailable}
		scorer := NewFailoverScorer(primary, fallback,
			WithBreaker(circuit.New("scoring", circuit.WithFailureThreshold(1))),
		)

		_, err := scorer.Score(ctx, failoverApp(t))
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}
