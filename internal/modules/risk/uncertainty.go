package risk

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/hkacem/microquote/internal/domain"
	"github.com/hkacem/microquote/internal/modules/features"
	"github.com/hkacem/microquote/pkg/formulas"
)

// Context normalization caps for the trunk input pair.
const (
	contextAssetsCap  = 300000.0
	contextRevenueCap = 200000.0
)

// UncertaintyModel is a branch/trunk network: the branch embeds the
// encoded feature vector, the trunk embeds a normalized
// (assets, revenue) context pair, and the uncertainty score is the
// sigmoid of their inner product.
type UncertaintyModel struct {
	Meta       ArtifactMeta `json:"meta"`
	Branch     [][]float64  `json:"branch"`      // latent x encoded_dim
	BranchBias []float64    `json:"branch_bias"` // latent
	Trunk      [][]float64  `json:"trunk"`       // latent x 2
	TrunkBias  []float64    `json:"trunk_bias"`  // latent

	branch *mat.Dense
	trunk  *mat.Dense
}

func loadUncertaintyModel(dir string) (*UncertaintyModel, error) {
	var m UncertaintyModel
	if err := readArtifact(dir, UncertaintyArtifact, &m); err != nil {
		return nil, err
	}
	if err := m.Meta.Validate(); err != nil {
		return nil, fmt.Errorf("uncertainty artifact: %w", err)
	}

	latent := len(m.Branch)
	if latent == 0 || latent != len(m.Trunk) ||
		latent != len(m.BranchBias) || latent != len(m.TrunkBias) {
		return nil, fmt.Errorf("uncertainty artifact: inconsistent latent dimensions")
	}

	dim := m.Meta.EncodedDim()
	branch, err := denseFromRows(m.Branch, dim)
	if err != nil {
		return nil, fmt.Errorf("uncertainty artifact branch: %w", err)
	}
	trunk, err := denseFromRows(m.Trunk, 2)
	if err != nil {
		return nil, fmt.Errorf("uncertainty artifact trunk: %w", err)
	}
	m.branch = branch
	m.trunk = trunk
	return &m, nil
}

func denseFromRows(rows [][]float64, wantCols int) (*mat.Dense, error) {
	flat := make([]float64, 0, len(rows)*wantCols)
	for i, row := range rows {
		if len(row) != wantCols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), wantCols)
		}
		flat = append(flat, row...)
	}
	return mat.NewDense(len(rows), wantCols, flat), nil
}

// PredictScore scores a feature row plus its profile context to an
// uncertainty score in [0,1].
func (m *UncertaintyModel) PredictScore(row features.Row, p domain.MerchantProfile) (float64, error) {
	x, err := Encode(row, m.Meta)
	if err != nil {
		return 0, err
	}

	t := []float64{
		formulas.Clamp(p.AssetsValueTND, 0, contextAssetsCap) / contextAssetsCap,
		formulas.Clamp(p.RevenueMonthlyTND, 0, contextRevenueCap) / contextRevenueCap,
	}

	latent := len(m.BranchBias)
	b := mat.NewVecDense(latent, nil)
	b.MulVec(m.branch, mat.NewVecDense(len(x), x))
	b.AddVec(b, mat.NewVecDense(latent, m.BranchBias))

	tr := mat.NewVecDense(latent, nil)
	tr.MulVec(m.trunk, mat.NewVecDense(2, t))
	tr.AddVec(tr, mat.NewVecDense(latent, m.TrunkBias))

	score := sigmoid(mat.Dot(b, tr))
	if !formulas.IsFinite(score) {
		return 0, fmt.Errorf("uncertainty model produced non-finite score")
	}
	return formulas.Clamp(score, 0, 1), nil
}

// BandForScore maps an uncertainty score to its discrete band.
// Thresholds are fixed: >= 0.70 HIGH, >= 0.40 MEDIUM, else LOW.
func BandForScore(score float64) string {
	switch {
	case score >= UncertaintyHighThreshold:
		return domain.BandHigh
	case score >= UncertaintyMediumThreshold:
		return domain.BandMedium
	default:
		return domain.BandLow
	}
}
