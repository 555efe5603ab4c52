package selection

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/hkacem/microquote/internal/domain"
	"github.com/hkacem/microquote/internal/modules/products"
	"github.com/hkacem/microquote/pkg/formulas"
)

// Rule thresholds and score increments. Scores only order candidates;
// their absolute values are meaningless outside this file.
const (
	clusterHintBoost     = 1.5
	nightBoost           = 2.0
	highExposureBoost    = 1.5
	highFrequencyBoost   = 0.4
	highUncertaintyBoost = 0.3

	highExposureAssetsTND    = 80000.0
	highFrequencyThreshold   = 0.15
	highUncertaintyThreshold = 0.70
)

// Activity substrings considered high-value exposure.
var highValueActivities = []string{"pharm", "electron", "bijou", "jewel"}

// Engine selects a product template with deterministic additive rules.
type Engine struct {
	catalog *products.Catalog
	log     zerolog.Logger
}

// NewEngine creates a new selection engine
func NewEngine(catalog *products.Catalog, log zerolog.Logger) *Engine {
	return &Engine{
		catalog: catalog,
		log:     log.With().Str("service", "selection").Logger(),
	}
}

// Select filters templates by eligibility, scores the candidates with
// fixed-order rules, and picks the strictly highest score. Ties break
// toward the first-declared template, never map iteration order.
// It never fails on valid inputs: a non-finite risk signal just means
// the corresponding rule does not fire.
func (e *Engine) Select(p domain.MerchantProfile, risk domain.RiskBundle) Decision {
	var reasons []string
	var candidates []string

	scores := map[string]float64{}
	for _, t := range e.catalog.All() {
		if eligible(t, p) {
			candidates = append(candidates, t.ID)
			scores[t.ID] = 0
		}
	}

	if len(candidates) == 0 {
		// The basic template carries no eligibility constraints, so
		// this path only fires on a misconfigured catalogue.
		e.log.Warn().Msg("No eligible template, falling back to default")
		return Decision{
			TemplateID: products.DefaultTemplateID,
			Reasons:    []string{ReasonFallback},
			Candidates: []string{},
		}
	}

	// 1) Segmentation hint (orientation only)
	if hint := risk.HintTemplateID; hint != "" {
		if _, ok := scores[hint]; ok {
			scores[hint] += clusterHintBoost
			reasons = append(reasons, ReasonClusterHintPrefix+hint)
		}
	}

	// 2) Night rule
	if p.OpenAtNight {
		if _, ok := scores[products.TemplateNight]; ok {
			scores[products.TemplateNight] += nightBoost
			reasons = append(reasons, ReasonOpenAtNight)
		}
	}

	// 3) High exposure rule (assets/activity)
	if p.AssetsValueTND >= highExposureAssetsTND || isHighValueActivity(p.ActivityType) {
		if _, ok := scores[products.TemplatePlus]; ok {
			scores[products.TemplatePlus] += highExposureBoost
			reasons = append(reasons, ReasonHighExposure)
		}
	}

	// 4) Frequency nudge toward the more protective templates
	if formulas.IsFinite(risk.PClaim) && risk.PClaim > highFrequencyThreshold {
		fired := false
		if _, ok := scores[products.TemplatePlus]; ok {
			scores[products.TemplatePlus] += highFrequencyBoost
			fired = true
		}
		if _, ok := scores[products.TemplateNight]; ok {
			scores[products.TemplateNight] += highFrequencyBoost
			fired = true
		}
		if fired {
			reasons = append(reasons, ReasonHighFrequency)
		}
	}

	// 5) Uncertainty nudge toward the simpler base product
	if formulas.IsFinite(risk.UncertaintyScore) && risk.UncertaintyScore > highUncertaintyThreshold {
		if _, ok := scores[products.TemplateEssential]; ok {
			scores[products.TemplateEssential] += highUncertaintyBoost
			reasons = append(reasons, ReasonHighUncertainty)
		}
	}

	// Pick in declaration order so ties are deterministic.
	chosen := candidates[0]
	best := scores[chosen]
	for _, t := range e.catalog.All() {
		score, ok := scores[t.ID]
		if !ok {
			continue
		}
		if score > best {
			best = score
			chosen = t.ID
		}
	}

	reasons = append(reasons, summaryReason(chosen))

	return Decision{
		TemplateID: chosen,
		Reasons:    reasons,
		Candidates: candidates,
	}
}

func eligible(t products.Template, p domain.MerchantProfile) bool {
	if t.ActivityIn != nil {
		activity := strings.ToLower(p.ActivityType)
		found := false
		for _, allowed := range t.ActivityIn {
			if activity == strings.ToLower(allowed) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if t.OpenAtNightRequired != nil && p.OpenAtNight != *t.OpenAtNightRequired {
		return false
	}

	if t.AssetsMinTND != nil && p.AssetsValueTND < *t.AssetsMinTND {
		return false
	}
	if t.AssetsMaxTND != nil && p.AssetsValueTND > *t.AssetsMaxTND {
		return false
	}

	return true
}

func isHighValueActivity(activity string) bool {
	a := strings.ToLower(activity)
	for _, k := range highValueActivities {
		if strings.Contains(a, k) {
			return true
		}
	}
	return false
}

func summaryReason(templateID string) string {
	switch templateID {
	case products.TemplateNight:
		return ReasonChosenNight
	case products.TemplatePlus:
		return ReasonChosenPlus
	default:
		return ReasonChosenEssential
	}
}
