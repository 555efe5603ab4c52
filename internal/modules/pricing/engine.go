package pricing

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/hkacem/microquote/internal/domain"
	"github.com/hkacem/microquote/internal/modules/products"
	"github.com/hkacem/microquote/pkg/formulas"
)

// Engine prices a selected template from the risk bundle: coverage
// limit, deductible, actuarial premium, and the bounded budget-fit
// search. All math is closed-form and deterministic; monetary values
// are rounded to 2 decimals only at presentation time.
type Engine struct {
	cfg Config
	log zerolog.Logger
}

// NewEngine creates a new pricing engine
func NewEngine(cfg Config, log zerolog.Logger) *Engine {
	return &Engine{
		cfg: cfg,
		log: log.With().Str("service", "pricing").Logger(),
	}
}

// premiumParts are the intermediates of one Step 3 evaluation.
type premiumParts struct {
	expectedLoss     float64
	deductibleFactor float64
	limitFactor      float64
	adjustedLoss     float64
	premiumRaw       float64
	premium          float64
	floorApplied     bool
}

// premiumFor evaluates the actuarial premium formula for a given
// deductible/limit pair.
func (e *Engine) premiumFor(t products.Template, risk domain.RiskBundle, deductible, limit float64) premiumParts {
	parts := premiumParts{
		expectedLoss: risk.PClaim * risk.ExpectedCostTND,
	}
	parts.deductibleFactor = 1 / (1 + deductible/e.cfg.DeductibleScaleTND)
	parts.limitFactor = formulas.Clamp(
		1+(limit-t.PlafondBaseTND)/t.PlafondBaseTND*e.cfg.LimitFactorSlope,
		e.cfg.LimitFactorMin,
		e.cfg.LimitFactorMax,
	)
	parts.adjustedLoss = parts.expectedLoss * parts.deductibleFactor * parts.limitFactor
	parts.premiumRaw = parts.adjustedLoss*(1+t.BaseExpenseMargin) + e.cfg.AdminFeeTND

	parts.premium = parts.premiumRaw
	if parts.premium < t.MinimumPremiumTND {
		parts.premium = t.MinimumPremiumTND
		parts.floorApplied = true
	}
	return parts
}

// Price computes the offer for the chosen template.
func (e *Engine) Price(p domain.MerchantProfile, risk domain.RiskBundle, t products.Template) Offer {
	// Step 1: coverage limit
	limit := formulas.Clamp(
		math.Max(t.PlafondBaseTND, e.cfg.AssetCoverRatio*p.AssetsValueTND),
		t.PlafondMinTND,
		t.PlafondMaxTND,
	)

	// Step 2: deductible, compounding security discounts then risk surcharges
	deductible := t.FranchiseBaseTND
	securityFeatures := 0
	for _, active := range []bool{p.SecurityAlarm, p.SecurityCamera, p.FireExtinguisher} {
		if active {
			securityFeatures++
			deductible *= 1 - e.cfg.SecurityFeatureDiscount
		}
	}
	if risk.PClaim > e.cfg.ClaimSurchargeThreshold {
		deductible *= e.cfg.ClaimSurchargeFactor
	}
	if risk.UncertaintyScore > e.cfg.UncertaintySurchargeThreshold {
		deductible *= e.cfg.UncertaintySurchargeFactor
	}
	deductible = formulas.Clamp(deductible, t.FranchiseMinTND, t.FranchiseMaxTND)

	// Step 3: premium
	parts := e.premiumFor(t, risk, deductible, limit)

	// Step 4: budget-fit search
	var reasons []string
	budgetUnmet := false
	iterations := 0
	budget := p.BudgetMaxTND

	if budget > 0 && parts.premium > budget {
		if budget < t.MinimumPremiumTND {
			// The floor is the lowest quote that will ever be issued.
			// Saturate both knobs, quote the floor, and flag the miss.
			deductible = t.FranchiseMaxTND
			limit = t.PlafondMinTND
			parts = e.premiumFor(t, risk, deductible, limit)
			parts.premium = t.MinimumPremiumTND
			parts.floorApplied = true
			budgetUnmet = true
			reasons = append(reasons, ReasonBudgetBelowMinPremium)
		} else {
			for iterations < e.cfg.BudgetFit.MaxIterations {
				deductibleSaturated := deductible >= t.FranchiseMaxTND
				limitSaturated := limit <= t.PlafondMinTND
				if deductibleSaturated && limitSaturated {
					break
				}
				iterations++
				deductible = math.Min(deductible*e.cfg.BudgetFit.GrowthFactor, t.FranchiseMaxTND)
				limit = math.Max(limit*e.cfg.BudgetFit.ShrinkFactor, t.PlafondMinTND)
				parts = e.premiumFor(t, risk, deductible, limit)
				if parts.premium <= budget {
					break
				}
			}
			if parts.premium <= budget {
				reasons = append(reasons, ReasonBudgetFitApplied)
			} else {
				budgetUnmet = true
				reasons = append(reasons, ReasonBudgetNotReachable)
			}
		}
	}

	// Step 5: underwriting flags. The high-risk check reads the raw
	// claim probability; the capped PClaim would never exceed the
	// threshold when cap and threshold coincide.
	rawPClaim := math.Max(risk.PClaim, risk.PClaimRaw)
	flags := map[string]bool{
		FlagUnderwritingReview:    risk.UncertaintyScore > e.cfg.UnderwritingReviewThreshold,
		FlagHighRisk:              rawPClaim > e.cfg.HighRiskThreshold,
		FlagBudgetUnmet:           budgetUnmet,
		FlagMinimumPremiumApplied: parts.floorApplied,
	}

	breakdown := map[string]float64{
		"p_claim":           formulas.Round4(risk.PClaim),
		"p_claim_raw":       formulas.Round4(rawPClaim),
		"expected_cost":     formulas.Round2(risk.ExpectedCostTND),
		"expected_loss":     formulas.Round2(parts.expectedLoss),
		"deductible_factor": formulas.Round4(parts.deductibleFactor),
		"limit_factor":      formulas.Round4(parts.limitFactor),
		"adjusted_loss":     formulas.Round2(parts.adjustedLoss),
		"expense_margin":    formulas.Round4(t.BaseExpenseMargin),
		"admin_fee":         formulas.Round2(e.cfg.AdminFeeTND),
		"premium_raw":       formulas.Round2(parts.premiumRaw),
		"minimum_premium":   formulas.Round2(t.MinimumPremiumTND),
		"security_features": float64(securityFeatures),
		"uncertainty_score": formulas.Round4(risk.UncertaintyScore),
		"budget_iterations": float64(iterations),
	}
	if budget > 0 {
		breakdown["budget_ceiling"] = formulas.Round2(budget)
	}

	e.log.Debug().
		Str("template", t.ID).
		Float64("premium", parts.premium).
		Int("budget_iterations", iterations).
		Bool("budget_unmet", budgetUnmet).
		Msg("Offer priced")

	return Offer{
		TemplateID:       t.ID,
		TemplateName:     t.Name,
		Coverages:        t.Coverages,
		PlafondTND:       formulas.Round2(limit),
		FranchiseTND:     formulas.Round2(deductible),
		PrimeAnnuelleTND: formulas.Round2(parts.premium),
		Breakdown:        breakdown,
		Flags:            flags,
		Reasons:          reasons,
	}
}
