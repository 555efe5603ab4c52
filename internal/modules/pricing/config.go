package pricing

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

// BudgetFitConfig holds the budget-fit search knobs. The growth/shrink
// factors and iteration cap are empirically chosen; they are
// configuration, not algorithm, so they can be tuned without touching
// the search itself.
type BudgetFitConfig struct {
	GrowthFactor  float64 `toml:"growth_factor"`
	ShrinkFactor  float64 `toml:"shrink_factor"`
	MaxIterations int     `toml:"max_iterations"`
}

// Config holds every pricing constant.
type Config struct {
	AssetCoverRatio    float64 `toml:"asset_cover_ratio"`
	AdminFeeTND        float64 `toml:"admin_fee_tnd"`
	DeductibleScaleTND float64 `toml:"deductible_scale_tnd"`

	LimitFactorSlope float64 `toml:"limit_factor_slope"`
	LimitFactorMin   float64 `toml:"limit_factor_min"`
	LimitFactorMax   float64 `toml:"limit_factor_max"`

	// Each active security feature (alarm, camera, extinguisher)
	// discounts the deductible multiplicatively by this share.
	SecurityFeatureDiscount float64 `toml:"security_feature_discount"`

	ClaimSurchargeThreshold       float64 `toml:"claim_surcharge_threshold"`
	ClaimSurchargeFactor          float64 `toml:"claim_surcharge_factor"`
	UncertaintySurchargeThreshold float64 `toml:"uncertainty_surcharge_threshold"`
	UncertaintySurchargeFactor    float64 `toml:"uncertainty_surcharge_factor"`

	HighRiskThreshold           float64 `toml:"high_risk_threshold"`
	UnderwritingReviewThreshold float64 `toml:"underwriting_review_threshold"`

	BudgetFit BudgetFitConfig `toml:"budget_fit"`
}

// DefaultConfig returns the compiled-in pricing constants.
func DefaultConfig() Config {
	return Config{
		AssetCoverRatio:    0.9,
		AdminFeeTND:        25,
		DeductibleScaleTND: 2000,

		LimitFactorSlope: 0.10,
		LimitFactorMin:   0.9,
		LimitFactorMax:   1.2,

		SecurityFeatureDiscount: 0.08,

		ClaimSurchargeThreshold:       0.20,
		ClaimSurchargeFactor:          1.15,
		UncertaintySurchargeThreshold: 0.60,
		UncertaintySurchargeFactor:    1.20,

		HighRiskThreshold:           0.25,
		UnderwritingReviewThreshold: 0.70,

		BudgetFit: BudgetFitConfig{
			GrowthFactor:  1.10,
			ShrinkFactor:  0.95,
			MaxIterations: 30,
		},
	}
}

// LoadConfig reads a pricing TOML file over the defaults. A missing
// file is not an error: the defaults apply unchanged.
func LoadConfig(path string, log zerolog.Logger) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Info().Str("path", path).Msg("No pricing config file, using defaults")
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse pricing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	log.Info().Str("path", path).Msg("Pricing configuration loaded")
	return cfg, nil
}

// Validate rejects configurations under which the budget-fit search
// would not be monotone or would not terminate.
func (c Config) Validate() error {
	if c.BudgetFit.GrowthFactor <= 1 {
		return fmt.Errorf("budget_fit growth_factor must exceed 1, got %v", c.BudgetFit.GrowthFactor)
	}
	if c.BudgetFit.ShrinkFactor <= 0 || c.BudgetFit.ShrinkFactor >= 1 {
		return fmt.Errorf("budget_fit shrink_factor must be in (0,1), got %v", c.BudgetFit.ShrinkFactor)
	}
	if c.BudgetFit.MaxIterations <= 0 {
		return fmt.Errorf("budget_fit max_iterations must be positive, got %d", c.BudgetFit.MaxIterations)
	}
	if c.DeductibleScaleTND <= 0 {
		return fmt.Errorf("deductible_scale_tnd must be positive, got %v", c.DeductibleScaleTND)
	}
	if c.SecurityFeatureDiscount < 0 || c.SecurityFeatureDiscount >= 1 {
		return fmt.Errorf("security_feature_discount must be in [0,1), got %v", c.SecurityFeatureDiscount)
	}
	if c.LimitFactorMin > c.LimitFactorMax {
		return fmt.Errorf("limit_factor_min exceeds limit_factor_max")
	}
	return nil
}
