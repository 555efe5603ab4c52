package quotes

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hkacem/microquote/internal/domain"
	"github.com/hkacem/microquote/internal/modules/features"
	"github.com/hkacem/microquote/internal/modules/geo"
	"github.com/hkacem/microquote/internal/modules/pricing"
	"github.com/hkacem/microquote/internal/modules/products"
	"github.com/hkacem/microquote/internal/modules/risk"
	"github.com/hkacem/microquote/internal/modules/selection"
)

// Estimator names in fixed audit order.
var estimatorOrder = []string{"frequency", "severity", "uncertainty", "segmentation"}

// FlagFallbackUsed marks offers whose risk signals include at least one
// safe default instead of a model output.
const FlagFallbackUsed = "fallback_used"

// Service runs the full quoting pipeline: normalize, fill geo proxies,
// evaluate risk, select a template, price it, and assemble the
// response. Degradation is communicated through flags and reason
// codes; the caller always receives a complete priced offer.
type Service struct {
	risk     *risk.Service
	geo      *geo.Resolver
	selector *selection.Engine
	pricer   *pricing.Engine
	catalog  *products.Catalog
	log      zerolog.Logger
}

// NewService creates a new quote service
func NewService(
	riskSvc *risk.Service,
	geoResolver *geo.Resolver,
	selector *selection.Engine,
	pricer *pricing.Engine,
	catalog *products.Catalog,
	log zerolog.Logger,
) *Service {
	return &Service{
		risk:     riskSvc,
		geo:      geoResolver,
		selector: selector,
		pricer:   pricer,
		catalog:  catalog,
		log:      log.With().Str("service", "quotes").Logger(),
	}
}

// ComputeQuote runs the pipeline against a loosely-typed request
// payload. Identical input against identical model artifacts yields an
// identical response.
func (s *Service) ComputeQuote(payload map[string]interface{}) QuoteResponse {
	profile := features.ProfileFromPayload(payload)
	return s.ComputeQuoteForProfile(profile)
}

// ComputeQuoteForProfile runs the pipeline against an already
// normalized profile.
func (s *Service) ComputeQuoteForProfile(profile domain.MerchantProfile) QuoteResponse {
	// Fill missing geo features from the proxy store.
	if profile.DensityPerKm2 <= 0 || profile.POIPerKm2 <= 0 {
		density, poi := s.geo.Resolve(profile.Governorate)
		if profile.DensityPerKm2 <= 0 {
			profile.DensityPerKm2 = density
		}
		if profile.POIPerKm2 <= 0 {
			profile.POIPerKm2 = poi
		}
	}

	bundle := s.risk.Evaluate(profile)
	decision := s.selector.Select(profile, bundle)

	template, ok := s.catalog.Get(decision.TemplateID)
	if !ok {
		// Selector only emits catalog ids; guard anyway.
		template = s.catalog.Default()
	}

	offer := s.pricer.Price(profile, bundle, template)

	return s.assemble(profile, bundle, decision, offer)
}

// assemble merges the selection decision and the priced offer into the
// response contract, appending the derived audit reason codes.
func (s *Service) assemble(
	profile domain.MerchantProfile,
	bundle domain.RiskBundle,
	decision selection.Decision,
	offer pricing.Offer,
) QuoteResponse {
	reasons := make([]string, 0, len(decision.Reasons)+len(offer.Reasons)+8)
	reasons = append(reasons, decision.Reasons...)
	reasons = append(reasons, offer.Reasons...)

	reasons = append(reasons, "derived_revenue_bucket:"+profile.RevenueBucket)
	if bundle.ClusterID >= 0 {
		reasons = append(reasons, fmt.Sprintf("segmentation_cluster_id:%d", bundle.ClusterID))
	} else {
		reasons = append(reasons, "segmentation_cluster_id:none")
	}
	if bundle.HintTemplateID != "" {
		reasons = append(reasons, "cluster_hint:"+bundle.HintTemplateID)
	} else {
		reasons = append(reasons, "cluster_hint:none")
	}
	for _, name := range estimatorOrder {
		reasons = append(reasons, fmt.Sprintf("model:%s=%s", name, bundle.ModelVersions[name]))
	}
	reasons = append(reasons, bundle.FallbackReasons...)

	offer.Flags[FlagFallbackUsed] = bundle.FallbackUsed()
	offer.Reasons = nil // folded into the decision reason trail

	s.log.Info().
		Str("template", decision.TemplateID).
		Float64("premium", offer.PrimeAnnuelleTND).
		Bool("fallback_used", bundle.FallbackUsed()).
		Msg("Quote computed")

	return QuoteResponse{
		Decision: Decision{
			TemplateID: decision.TemplateID,
			Candidates: decision.Candidates,
			Reasons:    reasons,
		},
		Offer: offer,
	}
}
