package risk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/hkacem/microquote/internal/modules/features"
	"github.com/hkacem/microquote/pkg/formulas"
)

// FrequencyModel is a calibrated logistic regression over the encoded
// feature vector: p = sigmoid(a*(w.x + b) + c).
type FrequencyModel struct {
	Meta        ArtifactMeta `json:"meta"`
	Weights     []float64    `json:"weights"`
	Intercept   float64      `json:"intercept"`
	Calibration struct {
		Scale  float64 `json:"scale"`
		Offset float64 `json:"offset"`
	} `json:"calibration"`
}

func loadFrequencyModel(dir string) (*FrequencyModel, error) {
	var m FrequencyModel
	if err := readArtifact(dir, FrequencyArtifact, &m); err != nil {
		return nil, err
	}
	if err := m.Meta.Validate(); err != nil {
		return nil, fmt.Errorf("frequency artifact: %w", err)
	}
	if len(m.Weights) != m.Meta.EncodedDim() {
		return nil, fmt.Errorf("frequency artifact: %d weights for encoded dimension %d",
			len(m.Weights), m.Meta.EncodedDim())
	}
	if m.Calibration.Scale == 0 {
		m.Calibration.Scale = 1
	}
	return &m, nil
}

// PredictPClaim scores a feature row to a claim probability in [0,1].
func (m *FrequencyModel) PredictPClaim(row features.Row) (float64, error) {
	x, err := Encode(row, m.Meta)
	if err != nil {
		return 0, err
	}
	z := floats.Dot(m.Weights, x) + m.Intercept
	p := sigmoid(m.Calibration.Scale*z + m.Calibration.Offset)
	if !formulas.IsFinite(p) {
		return 0, fmt.Errorf("frequency model produced non-finite probability")
	}
	return formulas.Clamp(p, 0, 1), nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
