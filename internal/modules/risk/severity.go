package risk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/hkacem/microquote/internal/modules/features"
	"github.com/hkacem/microquote/pkg/formulas"
)

// SeverityModel is a log-link GLM over the encoded feature vector:
// expected claim cost = exp(w.x + b), conditional on a claim occurring.
type SeverityModel struct {
	Meta      ArtifactMeta `json:"meta"`
	Weights   []float64    `json:"weights"`
	Intercept float64      `json:"intercept"`
}

func loadSeverityModel(dir string) (*SeverityModel, error) {
	var m SeverityModel
	if err := readArtifact(dir, SeverityArtifact, &m); err != nil {
		return nil, err
	}
	if err := m.Meta.Validate(); err != nil {
		return nil, fmt.Errorf("severity artifact: %w", err)
	}
	if len(m.Weights) != m.Meta.EncodedDim() {
		return nil, fmt.Errorf("severity artifact: %d weights for encoded dimension %d",
			len(m.Weights), m.Meta.EncodedDim())
	}
	return &m, nil
}

// PredictExpectedCost scores a feature row to an expected claim cost.
// The value is positive but not yet clamped to the plausibility band;
// the service applies the band so the clamp is recorded in one place.
func (m *SeverityModel) PredictExpectedCost(row features.Row) (float64, error) {
	x, err := Encode(row, m.Meta)
	if err != nil {
		return 0, err
	}
	cost := math.Exp(floats.Dot(m.Weights, x) + m.Intercept)
	if !formulas.IsFinite(cost) || cost <= 0 {
		return 0, fmt.Errorf("severity model produced non-finite or non-positive cost")
	}
	return cost, nil
}
