package pricing

// Flag keys in the offer's boolean flag map.
const (
	FlagUnderwritingReview    = "underwriting_review"
	FlagHighRisk              = "high_risk"
	FlagBudgetUnmet           = "budget_unmet"
	FlagMinimumPremiumApplied = "minimum_premium_applied"
)

// Reason codes produced by the budget-fit search.
const (
	ReasonBudgetBelowMinPremium = "budget_below_min_premium"
	ReasonBudgetNotReachable    = "budget_not_reachable_within_constraints"
	ReasonBudgetFitApplied      = "budget_fit_applied"
)

// Offer is a fully priced quote for one template. Breakdown carries
// every pricing intermediate so the premium formula can be reconstructed
// from the response alone; this is an audit requirement.
type Offer struct {
	TemplateID   string   `json:"template_id"`
	TemplateName string   `json:"template_name"`
	Coverages    []string `json:"coverages"`

	PlafondTND       float64 `json:"plafond_tnd"`
	FranchiseTND     float64 `json:"franchise_tnd"`
	PrimeAnnuelleTND float64 `json:"prime_annuelle_tnd"`

	Breakdown map[string]float64 `json:"breakdown"`
	Flags     map[string]bool    `json:"flags"`

	// Reasons holds pricing-originated reason codes (budget fit),
	// appended by the assembler after the selection reasons.
	Reasons []string `json:"reasons,omitempty"`
}
