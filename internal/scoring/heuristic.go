package scoring

import (
	"context"
	"math"
	"sort"

	"credex/internal/application"
)

// HeuristicScorer is a deterministic local scorer used for development and
// tests, mirroring the production model's monotonic behavior: more debt, more
// late payments, and more defaults push the risk score up; income, tenure,
// and savings pull it down. It produces per-feature contributions with the
// same sign convention as the production service.
type HeuristicScorer struct {
	bands Bands
}

// NewHeuristicScorer builds a scorer with the given band boundaries.
func NewHeuristicScorer(bands Bands) *HeuristicScorer {
	return &HeuristicScorer{bands: bands}
}

// HeuristicModelVersion identifies the local scorer in decision records.
const HeuristicModelVersion = "heuristic-v1"

// weight describes one feature's effect on the linear risk term.
// scale normalizes the raw attribute before weighting.
type weight struct {
	attribute string
	scale     float64
	coeff     float64
}

// Coefficients are fixed so scoring stays deterministic across processes.
var weights = []weight{
	{"debt_to_income", 1, 2.4},
	{"late_payment_count", 0.1, 1.6},
	{"previous_defaults", 0.5, 2.0},
	{"credit_utilization", 1, 1.2},
	{"existing_loans", 0.2, 0.5},
	{"monthly_income", 1.0 / 100000, -1.4},
	{"employment_years", 0.05, -0.8},
	{"credit_history_length", 0.05, -0.6},
	{"savings_balance", 1.0 / 500000, -0.9},
}

const bias = -0.6

func (s *HeuristicScorer) Score(_ context.Context, app application.Application) (*Result, error) {
	var linear float64
	contributions := make([]Contribution, 0, len(weights))

	for _, w := range weights {
		raw, ok := app.Number(w.attribute)
		if !ok {
			continue
		}
		term := raw * w.scale * w.coeff
		linear += term
		contributions = append(contributions, Contribution{Feature: w.attribute, Value: term})
	}

	score := sigmoid(bias + linear)

	// Largest effects first; ties broken by name for byte-identical output.
	sort.SliceStable(contributions, func(i, j int) bool {
		ai, aj := math.Abs(contributions[i].Value), math.Abs(contributions[j].Value)
		if ai != aj {
			return ai > aj
		}
		return contributions[i].Feature < contributions[j].Feature
	})

	return &Result{
		RiskScore:     score,
		RiskBand:      s.bands.BandFor(score),
		Contributions: contributions,
		ModelVersion:  HeuristicModelVersion,
	}, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
