package features

// Canonical profile column names shared by every model artifact contract.
// Artifact metadata may use any subset, but only these names are valid.
const (
	ColGovernorate      = "governorate"
	ColActivityType     = "activity_type"
	ColRevenueBucket    = "revenue_bucket"
	ColDensityPerKm2    = "density_per_km2"
	ColPOIPerKm2        = "poi_per_km2"
	ColYearsActive      = "years_active"
	ColShopAreaM2       = "shop_area_m2"
	ColAssetsValueTND   = "assets_value_tnd"
	ColRevenueMonthly   = "revenue_monthly_tnd"
	ColOpenAtNight      = "open_at_night"
	ColSecurityAlarm    = "security_alarm"
	ColSecurityCamera   = "security_camera"
	ColFireExtinguisher = "fire_extinguisher"
	ColSecurityGuard    = "security_guard"
)

// Schema is the fixed, ordered feature-column contract of one model
// artifact: numeric columns first, then boolean (0/1) columns, then
// categorical columns. Order is part of the contract.
type Schema struct {
	Num  []string `json:"num"`
	Bool []string `json:"bool"`
	Cat  []string `json:"cat"`
}

// Columns returns the full ordered column list.
func (s Schema) Columns() []string {
	cols := make([]string, 0, len(s.Num)+len(s.Bool)+len(s.Cat))
	cols = append(cols, s.Num...)
	cols = append(cols, s.Bool...)
	cols = append(cols, s.Cat...)
	return cols
}

// Row is a single strictly-typed observation aligned to a Schema.
// Slice positions match the schema's column order.
type Row struct {
	Schema Schema
	Num    []float64
	Bool   []int
	Cat    []string
}
