package features

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hkacem/microquote/internal/domain"
)

// ToFloat coerces an arbitrarily-typed value to a finite non-negative
// float64. Strings may use either "." or "," as decimal separator.
// Unparseable, nil, negative or non-finite values become 0.
func ToFloat(v interface{}) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case bool:
		if x {
			f = 1
		}
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(x, ",", "."))
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

var truthyStrings = map[string]bool{
	"1": true, "true": true, "yes": true, "y": true, "oui": true, "vrai": true,
}

var falsyStrings = map[string]bool{
	"0": true, "false": true, "no": true, "n": true, "non": true, "faux": true,
}

// ToBool01 coerces an arbitrarily-typed value to 0 or 1 using explicit
// allow-lists. Unrecognized strings are false: language truthiness is
// never used, so "False" (non-empty) must map to 0.
func ToBool01(v interface{}) int {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case float64:
		if x >= 0.5 {
			return 1
		}
		return 0
	case float32:
		return ToBool01(float64(x))
	case int:
		return ToBool01(float64(x))
	case int64:
		return ToBool01(float64(x))
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		if truthyStrings[s] {
			return 1
		}
		if falsyStrings[s] {
			return 0
		}
		return 0
	default:
		return 0
	}
}

// ToCategory coerces a value to a categorical string. Nil and empty
// values map to the "UNKNOWN" sentinel, which trained encoders handle
// as an openly unknown level rather than rejecting it.
func ToCategory(v interface{}) string {
	if v == nil {
		return "UNKNOWN"
	}
	s := strings.TrimSpace(fmt.Sprintf("%v", v))
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

// RevenueBucket derives the deterministic revenue bucket from monthly
// revenue: low < 3000 <= medium < 8000 <= high.
func RevenueBucket(revenueMonthly float64) string {
	if revenueMonthly < 3000 {
		return domain.RevenueBucketLow
	}
	if revenueMonthly < 8000 {
		return domain.RevenueBucketMedium
	}
	return domain.RevenueBucketHigh
}

// ProfileFromPayload normalizes a loosely-typed request payload into a
// MerchantProfile. Defaulting is centralized here: every numeric field
// ends up finite and non-negative, booleans go through the allow-lists,
// and a missing revenue bucket is derived from monthly revenue.
// A nested "security" object (has_alarm, has_camera, has_extinguisher,
// has_guard) is accepted as an alternative to the flat keys.
func ProfileFromPayload(payload map[string]interface{}) domain.MerchantProfile {
	get := func(key string) interface{} { return payload[key] }

	alarm := get(ColSecurityAlarm)
	camera := get(ColSecurityCamera)
	extinguisher := get(ColFireExtinguisher)
	guard := get(ColSecurityGuard)
	if sec, ok := payload["security"].(map[string]interface{}); ok {
		if alarm == nil {
			alarm = sec["has_alarm"]
		}
		if camera == nil {
			camera = sec["has_camera"]
		}
		if extinguisher == nil {
			extinguisher = sec["has_extinguisher"]
		}
		if guard == nil {
			guard = sec["has_guard"]
		}
	}

	p := domain.MerchantProfile{
		Governorate:       ToCategory(get(ColGovernorate)),
		ActivityType:      ToCategory(get(ColActivityType)),
		ShopAreaM2:        ToFloat(get(ColShopAreaM2)),
		YearsActive:       int(ToFloat(get(ColYearsActive))),
		AssetsValueTND:    ToFloat(get(ColAssetsValueTND)),
		RevenueMonthlyTND: ToFloat(get(ColRevenueMonthly)),
		DensityPerKm2:     ToFloat(get(ColDensityPerKm2)),
		POIPerKm2:         ToFloat(get(ColPOIPerKm2)),
		OpenAtNight:       ToBool01(get(ColOpenAtNight)) == 1,
		SecurityAlarm:     ToBool01(alarm) == 1,
		SecurityCamera:    ToBool01(camera) == 1,
		FireExtinguisher:  ToBool01(extinguisher) == 1,
		SecurityGuard:     ToBool01(guard) == 1,
		BudgetMaxTND:      ToFloat(get("budget_constraint_tnd")),
	}

	if bucket := ToCategory(get(ColRevenueBucket)); bucket != "UNKNOWN" {
		p.RevenueBucket = bucket
	} else {
		p.RevenueBucket = RevenueBucket(p.RevenueMonthlyTND)
	}

	return p
}

// RowFromProfile builds a Row aligned to the given schema from a
// normalized profile. The output order depends only on the schema,
// never on map iteration order. A schema column outside the canonical
// profile columns is a configuration error.
func RowFromProfile(p domain.MerchantProfile, s Schema) (Row, error) {
	nums := map[string]float64{
		ColDensityPerKm2:  p.DensityPerKm2,
		ColPOIPerKm2:      p.POIPerKm2,
		ColYearsActive:    float64(p.YearsActive),
		ColShopAreaM2:     p.ShopAreaM2,
		ColAssetsValueTND: p.AssetsValueTND,
		ColRevenueMonthly: p.RevenueMonthlyTND,
	}
	bools := map[string]bool{
		ColOpenAtNight:      p.OpenAtNight,
		ColSecurityAlarm:    p.SecurityAlarm,
		ColSecurityCamera:   p.SecurityCamera,
		ColFireExtinguisher: p.FireExtinguisher,
		ColSecurityGuard:    p.SecurityGuard,
	}
	cats := map[string]string{
		ColGovernorate:   p.Governorate,
		ColActivityType:  p.ActivityType,
		ColRevenueBucket: p.RevenueBucket,
	}

	row := Row{
		Schema: s,
		Num:    make([]float64, len(s.Num)),
		Bool:   make([]int, len(s.Bool)),
		Cat:    make([]string, len(s.Cat)),
	}

	for i, col := range s.Num {
		v, ok := nums[col]
		if !ok {
			return Row{}, fmt.Errorf("unknown numeric feature column %q", col)
		}
		row.Num[i] = v
	}
	for i, col := range s.Bool {
		v, ok := bools[col]
		if !ok {
			return Row{}, fmt.Errorf("unknown boolean feature column %q", col)
		}
		if v {
			row.Bool[i] = 1
		}
	}
	for i, col := range s.Cat {
		v, ok := cats[col]
		if !ok {
			return Row{}, fmt.Errorf("unknown categorical feature column %q", col)
		}
		if v == "" {
			v = "UNKNOWN"
		}
		row.Cat[i] = v
	}

	return row, nil
}
