package quotes

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkacem/microquote/internal/modules/features"
	"github.com/hkacem/microquote/internal/modules/geo"
	"github.com/hkacem/microquote/internal/modules/pricing"
	"github.com/hkacem/microquote/internal/modules/products"
	"github.com/hkacem/microquote/internal/modules/risk"
	"github.com/hkacem/microquote/internal/modules/selection"
)

// newTestService wires the full pipeline with no model artifacts, so
// every estimator runs in its documented fallback mode and the quote
// math is fully predictable.
func newTestService(t *testing.T) *Service {
	t.Helper()
	return newTestServiceWithArtifacts(t, t.TempDir())
}

func newTestServiceWithArtifacts(t *testing.T, artifactsDir string) *Service {
	t.Helper()

	catalog := products.NewCatalog()
	require.NoError(t, catalog.Validate())

	return NewService(
		risk.NewService(artifactsDir, zerolog.Nop()),
		geo.NewResolver(nil, zerolog.Nop()),
		selection.NewEngine(catalog, zerolog.Nop()),
		pricing.NewEngine(pricing.DefaultConfig(), zerolog.Nop()),
		catalog,
		zerolog.Nop(),
	)
}

func testPayload() map[string]interface{} {
	return map[string]interface{}{
		"governorate":         "Tunis",
		"activity_type":       "epicerie",
		"shop_area_m2":        45.0,
		"years_active":        3.0,
		"assets_value_tnd":    20000.0,
		"revenue_monthly_tnd": 4000.0,
		"open_at_night":       false,
	}
}

func TestComputeQuote_FallbackPipeline(t *testing.T) {
	resp := newTestService(t).ComputeQuote(testPayload())

	assert.Equal(t, products.TemplateEssential, resp.Decision.TemplateID)
	assert.Equal(t, []string{products.TemplateEssential}, resp.Decision.Candidates)

	// Fallback risk signals: p=0.10, cost=3000 gives the standard
	// actuarial premium for the essential template.
	assert.Equal(t, 20000.0, resp.Offer.PlafondTND)
	assert.Equal(t, 800.0, resp.Offer.FranchiseTND)
	assert.InDelta(t, 320.71, resp.Offer.PrimeAnnuelleTND, 0.01)

	assert.True(t, resp.Offer.Flags[FlagFallbackUsed])
	assert.False(t, resp.Offer.Flags[pricing.FlagBudgetUnmet])

	// Pricing reasons are folded into the decision trail.
	assert.Nil(t, resp.Offer.Reasons)
}

func TestComputeQuote_ReasonTrail(t *testing.T) {
	resp := newTestService(t).ComputeQuote(testPayload())

	assert.Equal(t, []string{
		selection.ReasonChosenEssential,
		"derived_revenue_bucket:medium",
		"segmentation_cluster_id:none",
		"cluster_hint:none",
		"model:frequency=fallback",
		"model:severity=fallback",
		"model:uncertainty=fallback",
		"model:segmentation=fallback",
		"frequency_fallback:artifact_missing",
		"severity_fallback:artifact_missing",
		"uncertainty_fallback:artifact_missing",
		"segmentation_fallback:artifact_missing",
	}, resp.Decision.Reasons)
}

func TestComputeQuote_BudgetReasonInTrail(t *testing.T) {
	payload := testPayload()
	payload["budget_constraint_tnd"] = 100.0

	resp := newTestService(t).ComputeQuote(payload)

	assert.Equal(t, 120.0, resp.Offer.PrimeAnnuelleTND)
	assert.True(t, resp.Offer.Flags[pricing.FlagBudgetUnmet])
	assert.Contains(t, resp.Decision.Reasons, pricing.ReasonBudgetBelowMinPremium)
}

func TestComputeQuote_NightShop(t *testing.T) {
	payload := testPayload()
	payload["open_at_night"] = true

	resp := newTestService(t).ComputeQuote(payload)

	assert.Equal(t, products.TemplateNight, resp.Decision.TemplateID)
	assert.Contains(t, resp.Decision.Reasons, selection.ReasonOpenAtNight)
}

func TestComputeQuote_HighRiskFlagFromRawProbability(t *testing.T) {
	dir := t.TempDir()

	// A frequency model with a huge intercept predicts a near-certain
	// claim. Pricing caps the probability it discounts with, but the
	// high-risk flag must still fire on the uncapped value.
	model := risk.FrequencyModel{
		Meta: risk.ArtifactMeta{
			Version:  "freq-v1",
			Features: features.Schema{Num: []string{features.ColAssetsValueTND}},
			Encoder:  risk.EncoderMeta{NumMean: []float64{0}, NumScale: []float64{1}},
		},
		Weights:   []float64{0},
		Intercept: 20,
	}
	data, err := json.Marshal(model)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, risk.FrequencyArtifact), data, 0o644))

	resp := newTestServiceWithArtifacts(t, dir).ComputeQuote(testPayload())

	assert.True(t, resp.Offer.Flags[pricing.FlagHighRisk])
	assert.Equal(t, risk.PClaimCap, resp.Offer.Breakdown["p_claim"])
	assert.InDelta(t, 1.0, resp.Offer.Breakdown["p_claim_raw"], 1e-4)
}

func TestComputeQuote_Deterministic(t *testing.T) {
	svc := newTestService(t)

	first := svc.ComputeQuote(testPayload())
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, svc.ComputeQuote(testPayload()))
	}
}

func TestComputeQuote_MessyPayloadStillQuotes(t *testing.T) {
	resp := newTestService(t).ComputeQuote(map[string]interface{}{
		"governorate":         nil,
		"activity_type":       "",
		"assets_value_tnd":    "not a number",
		"revenue_monthly_tnd": "2500,75",
		"open_at_night":       "False",
	})

	// A complete offer comes back no matter how degraded the input.
	assert.Equal(t, products.TemplateEssential, resp.Decision.TemplateID)
	assert.Greater(t, resp.Offer.PrimeAnnuelleTND, 0.0)
	assert.Contains(t, resp.Decision.Reasons, "derived_revenue_bucket:low")
}
