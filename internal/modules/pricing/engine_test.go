package pricing

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkacem/microquote/internal/domain"
	"github.com/hkacem/microquote/internal/modules/products"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultConfig(), zerolog.Nop())
}

func essential(t *testing.T) products.Template {
	t.Helper()

	tpl, ok := products.NewCatalog().Get(products.TemplateEssential)
	require.True(t, ok)
	return tpl
}

func standardProfile() domain.MerchantProfile {
	return domain.MerchantProfile{
		Governorate:    "Tunis",
		ActivityType:   "epicerie",
		AssetsValueTND: 20000,
	}
}

func standardRisk() domain.RiskBundle {
	return domain.RiskBundle{
		PClaim:           0.10,
		ExpectedCostTND:  3000,
		UncertaintyScore: 0.50,
		UncertaintyBand:  domain.BandMedium,
	}
}

func TestPrice_StandardCase(t *testing.T) {
	offer := newTestEngine().Price(standardProfile(), standardRisk(), essential(t))

	// limit = max(base 20000, 0.9*20000) = 20000, factor 1.0
	// deductible = base 800, factor 1/(1+800/2000)
	// premium = 0.1*3000 * (1/1.4) * 1.0 * 1.38 + 25
	assert.Equal(t, 20000.0, offer.PlafondTND)
	assert.Equal(t, 800.0, offer.FranchiseTND)
	assert.InDelta(t, 320.71, offer.PrimeAnnuelleTND, 0.01)

	assert.False(t, offer.Flags[FlagHighRisk])
	assert.False(t, offer.Flags[FlagUnderwritingReview])
	assert.False(t, offer.Flags[FlagBudgetUnmet])
	assert.False(t, offer.Flags[FlagMinimumPremiumApplied])
	assert.Empty(t, offer.Reasons)

	// The breakdown must reconstruct the formula.
	assert.Equal(t, 300.0, offer.Breakdown["expected_loss"])
	assert.InDelta(t, 0.7143, offer.Breakdown["deductible_factor"], 0.0001)
	assert.Equal(t, 1.0, offer.Breakdown["limit_factor"])
	assert.Equal(t, 25.0, offer.Breakdown["admin_fee"])
	assert.Equal(t, 0.38, offer.Breakdown["expense_margin"])
	assert.Equal(t, 0.0, offer.Breakdown["budget_iterations"])
}

func TestPrice_LimitFollowsAssets(t *testing.T) {
	engine := newTestEngine()
	tpl := essential(t)

	p := standardProfile()
	p.AssetsValueTND = 30000 // 0.9 * 30000 = 27000 > base

	offer := engine.Price(p, standardRisk(), tpl)
	assert.Equal(t, 27000.0, offer.PlafondTND)

	// Above the template ceiling the limit clamps.
	p.AssetsValueTND = 100000
	offer = engine.Price(p, standardRisk(), tpl)
	assert.Equal(t, tpl.PlafondMaxTND, offer.PlafondTND)
}

func TestPrice_SecurityDiscountsCompound(t *testing.T) {
	engine := newTestEngine()
	tpl := essential(t)
	risk := standardRisk()

	p := standardProfile()
	prev := engine.Price(p, risk, tpl).FranchiseTND

	// Each added feature must strictly lower the deductible while it
	// stays above the template floor.
	p.SecurityAlarm = true
	withAlarm := engine.Price(p, risk, tpl).FranchiseTND
	assert.Less(t, withAlarm, prev)

	p.SecurityCamera = true
	withCamera := engine.Price(p, risk, tpl).FranchiseTND
	assert.Less(t, withCamera, withAlarm)

	p.FireExtinguisher = true
	offer := engine.Price(p, risk, tpl)
	assert.Less(t, offer.FranchiseTND, withCamera)

	// 800 * 0.92^3
	assert.InDelta(t, 622.95, offer.FranchiseTND, 0.01)
	assert.Equal(t, 3.0, offer.Breakdown["security_features"])

	// A guard is not a deductible-bearing feature.
	p.SecurityGuard = true
	assert.Equal(t, offer.FranchiseTND, engine.Price(p, risk, tpl).FranchiseTND)
}

func TestPrice_RiskSurcharges(t *testing.T) {
	engine := newTestEngine()
	tpl := essential(t)

	risk := standardRisk()
	risk.PClaim = 0.22
	risk.UncertaintyScore = 0.65

	offer := engine.Price(standardProfile(), risk, tpl)

	// 800 * 1.15 * 1.2
	assert.InDelta(t, 1104.0, offer.FranchiseTND, 0.01)
}

func TestPrice_MinimumPremiumFloor(t *testing.T) {
	tpl := essential(t)

	risk := standardRisk()
	risk.PClaim = 0.01
	risk.ExpectedCostTND = 500

	offer := newTestEngine().Price(standardProfile(), risk, tpl)

	assert.Equal(t, tpl.MinimumPremiumTND, offer.PrimeAnnuelleTND)
	assert.True(t, offer.Flags[FlagMinimumPremiumApplied])
	assert.False(t, offer.Flags[FlagBudgetUnmet])
}

func TestPrice_BudgetBelowMinimumPremium(t *testing.T) {
	tpl := essential(t)

	p := standardProfile()
	p.BudgetMaxTND = 100 // below the 120 TND floor

	offer := newTestEngine().Price(p, standardRisk(), tpl)

	assert.Equal(t, tpl.MinimumPremiumTND, offer.PrimeAnnuelleTND)
	assert.True(t, offer.Flags[FlagBudgetUnmet])
	assert.True(t, offer.Flags[FlagMinimumPremiumApplied])
	assert.Contains(t, offer.Reasons, ReasonBudgetBelowMinPremium)

	// Both knobs saturate at their least generous bounds.
	assert.Equal(t, tpl.FranchiseMaxTND, offer.FranchiseTND)
	assert.Equal(t, tpl.PlafondMinTND, offer.PlafondTND)
}

func TestPrice_BudgetFitConverges(t *testing.T) {
	tpl := essential(t)

	p := standardProfile()
	p.BudgetMaxTND = 300 // unconstrained premium is ~320.71

	offer := newTestEngine().Price(p, standardRisk(), tpl)

	assert.LessOrEqual(t, offer.PrimeAnnuelleTND, 300.0)
	assert.False(t, offer.Flags[FlagBudgetUnmet])
	assert.Contains(t, offer.Reasons, ReasonBudgetFitApplied)
	assert.Greater(t, offer.Breakdown["budget_iterations"], 0.0)

	// Fitting trades a worse deductible and limit for the lower price.
	assert.Greater(t, offer.FranchiseTND, tpl.FranchiseBaseTND)
	assert.Less(t, offer.PlafondTND, tpl.PlafondBaseTND)
}

func TestPrice_BudgetNotReachable(t *testing.T) {
	tpl := essential(t)

	risk := standardRisk()
	risk.PClaim = 0.25
	risk.ExpectedCostTND = 50000

	p := standardProfile()
	p.BudgetMaxTND = 200 // above the floor but far below any reachable premium

	offer := newTestEngine().Price(p, risk, tpl)

	assert.Greater(t, offer.PrimeAnnuelleTND, p.BudgetMaxTND)
	assert.True(t, offer.Flags[FlagBudgetUnmet])
	assert.Contains(t, offer.Reasons, ReasonBudgetNotReachable)
	assert.NotContains(t, offer.Reasons, ReasonBudgetFitApplied)

	// The search gave up only after saturating both knobs.
	assert.Equal(t, tpl.FranchiseMaxTND, offer.FranchiseTND)
	assert.Equal(t, tpl.PlafondMinTND, offer.PlafondTND)
}

func TestPrice_BudgetAlreadySatisfied(t *testing.T) {
	p := standardProfile()
	p.BudgetMaxTND = 1000

	offer := newTestEngine().Price(p, standardRisk(), essential(t))

	assert.InDelta(t, 320.71, offer.PrimeAnnuelleTND, 0.01)
	assert.Empty(t, offer.Reasons)
	assert.Equal(t, 0.0, offer.Breakdown["budget_iterations"])
	assert.Equal(t, 1000.0, offer.Breakdown["budget_ceiling"])
}

func TestPrice_HighRiskFlags(t *testing.T) {
	risk := standardRisk()
	risk.PClaim = 0.26
	risk.UncertaintyScore = 0.75

	offer := newTestEngine().Price(standardProfile(), risk, essential(t))

	assert.True(t, offer.Flags[FlagHighRisk])
	assert.True(t, offer.Flags[FlagUnderwritingReview])
}

func TestPrice_HighRiskFlagReadsRawProbability(t *testing.T) {
	risk := standardRisk()
	risk.PClaim = 0.25 // at the stability cap
	risk.PClaimRaw = 0.99

	offer := newTestEngine().Price(standardProfile(), risk, essential(t))

	assert.True(t, offer.Flags[FlagHighRisk])
	assert.Equal(t, 0.25, offer.Breakdown["p_claim"])
	assert.Equal(t, 0.99, offer.Breakdown["p_claim_raw"])
}

func TestPrice_Deterministic(t *testing.T) {
	engine := newTestEngine()
	tpl := essential(t)

	p := standardProfile()
	p.BudgetMaxTND = 300
	p.SecurityAlarm = true

	first := engine.Price(p, standardRisk(), tpl)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, engine.Price(p, standardRisk(), tpl))
	}
}
