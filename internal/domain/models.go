package domain

// Uncertainty bands derived from the uncertainty score via fixed thresholds.
const (
	BandLow    = "LOW"
	BandMedium = "MEDIUM"
	BandHigh   = "HIGH"
)

// Revenue buckets derived from monthly revenue.
const (
	RevenueBucketLow    = "low"
	RevenueBucketMedium = "medium"
	RevenueBucketHigh   = "high"
)

// MerchantProfile is the strictly-typed view of a quote request payload.
// All numeric fields are finite and non-negative; coercion from the raw
// payload happens in the features package, never at call sites.
type MerchantProfile struct {
	Governorate       string  `json:"governorate"`
	ActivityType      string  `json:"activity_type"`
	ShopAreaM2        float64 `json:"shop_area_m2"`
	YearsActive       int     `json:"years_active"`
	AssetsValueTND    float64 `json:"assets_value_tnd"`
	RevenueMonthlyTND float64 `json:"revenue_monthly_tnd"`
	RevenueBucket     string  `json:"revenue_bucket"`
	DensityPerKm2     float64 `json:"density_per_km2"`
	POIPerKm2         float64 `json:"poi_per_km2"`
	OpenAtNight       bool    `json:"open_at_night"`
	SecurityAlarm     bool    `json:"security_alarm"`
	SecurityCamera    bool    `json:"security_camera"`
	FireExtinguisher  bool    `json:"fire_extinguisher"`
	SecurityGuard     bool    `json:"security_guard"`
	BudgetMaxTND      float64 `json:"budget_constraint_tnd"` // 0 = no ceiling
}

// RiskBundle holds the risk estimator outputs for one quote request.
// Computed once per request, never persisted, never mutated after creation.
type RiskBundle struct {
	PClaim float64 `json:"p_claim"`

	// PClaimRaw is the claim probability before the stability cap.
	// Pricing consumes the capped PClaim; underwriting flags read the
	// raw value so a near-certain claim is not masked by the cap.
	PClaimRaw float64 `json:"p_claim_raw"`

	ExpectedCostTND  float64 `json:"expected_cost"`
	UncertaintyScore float64 `json:"uncertainty_score"`
	UncertaintyBand  string  `json:"uncertainty_band"`

	// ClusterID is -1 when segmentation fell back to a safe default.
	ClusterID      int    `json:"cluster_id"`
	HintTemplateID string `json:"cluster_hint_template_id,omitempty"`

	// ModelVersions maps estimator name to the artifact version that
	// produced its output ("fallback" when the safe default was used).
	ModelVersions map[string]string `json:"model_versions"`

	// FallbackReasons lists reason codes for every estimator that could
	// not produce a model-backed value, in estimator invocation order.
	FallbackReasons []string `json:"fallback_reasons,omitempty"`
}

// FallbackUsed reports whether any estimator degraded to a safe default.
func (b RiskBundle) FallbackUsed() bool {
	return len(b.FallbackReasons) > 0
}
