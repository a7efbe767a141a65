// Package scoring defines the port to the risk-scoring collaborator and the
// score data model. The pipeline treats the scorer as opaque: any failure or
// timeout surfaces as ErrUnavailable and is recovered by the combiner's
// rule-only fallback.
package scoring

import (
	"context"
	"errors"
	"fmt"

	"credex/internal/application"
)

// ErrUnavailable marks a scoring call that failed or timed out. Callers check
// it with errors.Is; the combiner treats it as a handled condition, not a
// pipeline failure.
var ErrUnavailable = errors.New("scoring service unavailable")

// RiskBand is the coarse bucket derived from the continuous risk score.
type RiskBand string

const (
	BandLow    RiskBand = "low"
	BandMedium RiskBand = "medium"
	BandHigh   RiskBand = "high"
)

// Rank orders bands for comparison: low < medium < high.
func (b RiskBand) Rank() int {
	switch b {
	case BandLow:
		return 1
	case BandMedium:
		return 2
	case BandHigh:
		return 3
	}
	return 0
}

func (b RiskBand) String() string { return string(b) }

// Bands holds the configurable band boundaries:
// low < LowMax <= medium < MediumMax <= high.
type Bands struct {
	LowMax    float64
	MediumMax float64
}

// DefaultBands matches the documented policy boundaries.
func DefaultBands() Bands {
	return Bands{LowMax: 0.3, MediumMax: 0.7}
}

// Validate rejects inverted or out-of-range boundaries.
func (b Bands) Validate() error {
	if b.LowMax <= 0 || b.MediumMax >= 1 || b.LowMax >= b.MediumMax {
		return fmt.Errorf("invalid risk bands: need 0 < low_max < medium_max < 1, got %g and %g", b.LowMax, b.MediumMax)
	}
	return nil
}

// BandFor buckets a risk score.
func (b Bands) BandFor(score float64) RiskBand {
	switch {
	case score < b.LowMax:
		return BandLow
	case score < b.MediumMax:
		return BandMedium
	default:
		return BandHigh
	}
}

// Contribution is one feature's signed contribution to the risk score.
// Positive values increase risk.
type Contribution struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

// Result is the scoring service's output for one application.
type Result struct {
	RiskScore     float64        `json:"risk_score"`
	RiskBand      RiskBand       `json:"risk_band"`
	Contributions []Contribution `json:"contributions"`
	ModelVersion  string         `json:"model_version"`
}

// Scorer is the port to the scoring collaborator.
type Scorer interface {
	Score(ctx context.Context, app application.Application) (*Result, error)
}
