package products

import "fmt"

// Template ids. Declaration order is fixed and meaningful: the selector
// breaks score ties toward the earlier-declared template.
const (
	TemplateEssential = "T1_ESS"
	TemplatePlus      = "T2_PLUS"
	TemplateNight     = "T3_NIGHT"

	// DefaultTemplateID backs the no-eligible-candidate fallback.
	DefaultTemplateID = TemplateEssential
)

// Template is a predefined insurance product: coverage set, eligibility
// constraints and pricing bounds. Templates are static reference data,
// loaded at process start and never mutated at runtime.
type Template struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Coverages []string `json:"coverages"`

	// Eligibility constraints; nil means unconstrained.
	ActivityIn          []string `json:"activity_in,omitempty"`
	OpenAtNightRequired *bool    `json:"open_at_night_required,omitempty"`
	AssetsMinTND        *float64 `json:"assets_min_tnd,omitempty"`
	AssetsMaxTND        *float64 `json:"assets_max_tnd,omitempty"`

	// Coverage limit bounds (plafond).
	PlafondBaseTND float64 `json:"plafond_base_tnd"`
	PlafondMinTND  float64 `json:"plafond_min_tnd"`
	PlafondMaxTND  float64 `json:"plafond_max_tnd"`

	// Deductible bounds (franchise).
	FranchiseBaseTND float64 `json:"franchise_base_tnd"`
	FranchiseMinTND  float64 `json:"franchise_min_tnd"`
	FranchiseMaxTND  float64 `json:"franchise_max_tnd"`

	BaseExpenseMargin float64 `json:"base_expense_margin"`

	// MinimumPremiumTND is a hard floor the pricing engine never
	// undercuts, budget ceiling or not.
	MinimumPremiumTND float64 `json:"minimum_premium_tnd"`
}

func boolPtr(b bool) *bool      { return &b }
func f64Ptr(f float64) *float64 { return &f }

// Catalog is the fixed, ordered template set.
type Catalog struct {
	order []Template
	byID  map[string]int
}

// NewCatalog builds the built-in product catalogue.
func NewCatalog() *Catalog {
	templates := []Template{
		{
			ID:        TemplateEssential,
			Name:      "Commerce Essentiel",
			Coverages: []string{"fire_basic", "water_damage", "liability_basic", "theft_basic"},

			PlafondBaseTND: 20000,
			PlafondMinTND:  10000,
			PlafondMaxTND:  40000,

			FranchiseBaseTND: 800,
			FranchiseMinTND:  400,
			FranchiseMaxTND:  2500,

			BaseExpenseMargin: 0.38,
			MinimumPremiumTND: 120,
		},
		{
			ID:   TemplatePlus,
			Name: "Commerce Plus",
			Coverages: []string{
				"fire_extended",
				"water_damage",
				"liability_extended",
				"theft_extended",
				"business_interruption",
			},

			AssetsMinTND: f64Ptr(40000),

			PlafondBaseTND: 45000,
			PlafondMinTND:  25000,
			PlafondMaxTND:  120000,

			FranchiseBaseTND: 1200,
			FranchiseMinTND:  600,
			FranchiseMaxTND:  6000,

			BaseExpenseMargin: 0.42,
			MinimumPremiumTND: 240,
		},
		{
			ID:        TemplateNight,
			Name:      "Night & Cash Risk",
			Coverages: []string{"theft_extended", "cash_on_premises", "vandalism"},

			OpenAtNightRequired: boolPtr(true),

			PlafondBaseTND: 25000,
			PlafondMinTND:  15000,
			PlafondMaxTND:  60000,

			FranchiseBaseTND: 1500,
			FranchiseMinTND:  800,
			FranchiseMaxTND:  5000,

			BaseExpenseMargin: 0.45,
			MinimumPremiumTND: 180,
		},
	}

	byID := make(map[string]int, len(templates))
	for i, t := range templates {
		byID[t.ID] = i
	}
	return &Catalog{order: templates, byID: byID}
}

// All returns templates in fixed declaration order.
func (c *Catalog) All() []Template {
	return c.order
}

// Get looks up a template by id.
func (c *Catalog) Get(id string) (Template, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Template{}, false
	}
	return c.order[i], true
}

// Default returns the fallback template.
func (c *Catalog) Default() Template {
	t, _ := c.Get(DefaultTemplateID)
	return t
}

// Validate checks the bound invariants on every template:
// min <= base <= max for both limit and deductible, and a positive
// minimum premium.
func (c *Catalog) Validate() error {
	if len(c.order) == 0 {
		return fmt.Errorf("catalog is empty")
	}
	if _, ok := c.byID[DefaultTemplateID]; !ok {
		return fmt.Errorf("default template %s not in catalog", DefaultTemplateID)
	}
	for _, t := range c.order {
		if t.PlafondMinTND > t.PlafondBaseTND || t.PlafondBaseTND > t.PlafondMaxTND {
			return fmt.Errorf("template %s: plafond bounds violate min <= base <= max", t.ID)
		}
		if t.FranchiseMinTND > t.FranchiseBaseTND || t.FranchiseBaseTND > t.FranchiseMaxTND {
			return fmt.Errorf("template %s: franchise bounds violate min <= base <= max", t.ID)
		}
		if t.MinimumPremiumTND <= 0 {
			return fmt.Errorf("template %s: minimum premium must be positive", t.ID)
		}
		if t.BaseExpenseMargin < 0 {
			return fmt.Errorf("template %s: expense margin must be non-negative", t.ID)
		}
	}
	return nil
}
