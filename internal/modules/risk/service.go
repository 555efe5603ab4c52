package risk

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/hkacem/microquote/internal/domain"
	"github.com/hkacem/microquote/internal/modules/features"
	"github.com/hkacem/microquote/pkg/formulas"
)

// Stability clamps and band thresholds applied to raw model outputs.
const (
	// PClaimCap guards pricing against rare extreme classifier outputs.
	PClaimCap = 0.25

	// Plausibility band for expected claim cost.
	SeverityFloorTND = 500.0
	SeverityCeilTND  = 50000.0

	UncertaintyMediumThreshold = 0.40
	UncertaintyHighThreshold   = 0.70
)

// Deterministic safe defaults used when a model cannot produce a value.
const (
	FallbackPClaim          = 0.10
	FallbackExpectedCostTND = 3000.0
	FallbackUncertainty     = 0.50
)

// Service wraps the four trained risk estimators. Each artifact is
// loaded lazily on first use, guarded by a sync.Once so concurrent
// first access never double-loads, and immutable afterward. A missing
// or corrupted artifact puts that estimator in permanent fallback mode;
// the quote path itself never fails.
type Service struct {
	dir string
	log zerolog.Logger

	freqOnce sync.Once
	freq     *FrequencyModel
	freqErr  error

	sevOnce sync.Once
	sev     *SeverityModel
	sevErr  error

	uncOnce sync.Once
	unc     *UncertaintyModel
	uncErr  error

	segOnce sync.Once
	seg     *SegmentationModel
	segErr  error
}

// NewService creates a new risk estimator service
func NewService(artifactsDir string, log zerolog.Logger) *Service {
	return &Service{
		dir: artifactsDir,
		log: log.With().Str("service", "risk").Logger(),
	}
}

func (s *Service) frequency() (*FrequencyModel, error) {
	s.freqOnce.Do(func() {
		s.freq, s.freqErr = loadFrequencyModel(s.dir)
		s.logLoad("frequency", s.freqErr)
	})
	return s.freq, s.freqErr
}

func (s *Service) severity() (*SeverityModel, error) {
	s.sevOnce.Do(func() {
		s.sev, s.sevErr = loadSeverityModel(s.dir)
		s.logLoad("severity", s.sevErr)
	})
	return s.sev, s.sevErr
}

func (s *Service) uncertainty() (*UncertaintyModel, error) {
	s.uncOnce.Do(func() {
		s.unc, s.uncErr = loadUncertaintyModel(s.dir)
		s.logLoad("uncertainty", s.uncErr)
	})
	return s.unc, s.uncErr
}

func (s *Service) segmentation() (*SegmentationModel, error) {
	s.segOnce.Do(func() {
		s.seg, s.segErr = loadSegmentationModel(s.dir)
		s.logLoad("segmentation", s.segErr)
	})
	return s.seg, s.segErr
}

func (s *Service) logLoad(model string, err error) {
	if err != nil {
		s.log.Warn().Err(err).Str("model", model).Msg("Model artifact unavailable, estimator in fallback mode")
		return
	}
	s.log.Info().Str("model", model).Msg("Model artifact loaded")
}

func fallbackCause(err error) string {
	if _, ok := err.(ErrArtifactMissing); ok {
		return "artifact_missing"
	}
	return "artifact_invalid"
}

// Evaluate runs all four estimators against a normalized profile and
// assembles the immutable risk signal bundle. Every degraded estimator
// contributes a reason code and a "fallback" version entry instead of
// an error: a quote is always computable.
func (s *Service) Evaluate(p domain.MerchantProfile) domain.RiskBundle {
	bundle := domain.RiskBundle{
		ClusterID:     -1,
		ModelVersions: make(map[string]string, 4),
	}

	pClaim := s.scoreFrequency(p)
	bundle.PClaimRaw = formulas.Clamp(pClaim.Value, 0, 1)
	bundle.PClaim = formulas.Clamp(bundle.PClaimRaw, 0, PClaimCap)
	s.record(&bundle, "frequency", pClaim, func() string { return s.freq.Meta.Version })

	sev := s.scoreSeverity(p)
	bundle.ExpectedCostTND = formulas.Clamp(sev.Value, SeverityFloorTND, SeverityCeilTND)
	s.record(&bundle, "severity", sev, func() string { return s.sev.Meta.Version })

	unc := s.scoreUncertainty(p)
	bundle.UncertaintyScore = formulas.Clamp(unc.Value, 0, 1)
	bundle.UncertaintyBand = BandForScore(bundle.UncertaintyScore)
	s.record(&bundle, "uncertainty", unc, func() string { return s.unc.Meta.Version })

	cluster, hint, segRes := s.scoreSegmentation(p)
	if segRes.Status == StatusOK {
		bundle.ClusterID = cluster
		bundle.HintTemplateID = hint
	}
	s.record(&bundle, "segmentation", segRes, func() string { return s.seg.Meta.Version })

	return bundle
}

// record stores the model version on success or the fallback reason on
// degradation. The version func is only called when the result is OK,
// so the model pointer is guaranteed loaded.
func (s *Service) record(bundle *domain.RiskBundle, model string, res Result, version func() string) {
	if res.Status == StatusOK {
		bundle.ModelVersions[model] = version()
		return
	}
	bundle.ModelVersions[model] = "fallback"
	bundle.FallbackReasons = append(bundle.FallbackReasons, res.Reason)
}

func (s *Service) scoreFrequency(p domain.MerchantProfile) Result {
	m, err := s.frequency()
	if err != nil {
		return Fallback(FallbackPClaim, "frequency_fallback:%s", fallbackCause(err))
	}
	row, err := features.RowFromProfile(p, m.Meta.Features)
	if err != nil {
		return Fallback(FallbackPClaim, "frequency_fallback:feature_contract_mismatch")
	}
	v, err := m.PredictPClaim(row)
	if err != nil {
		return Fallback(FallbackPClaim, "frequency_fallback:non_finite_output")
	}
	return OK(v)
}

func (s *Service) scoreSeverity(p domain.MerchantProfile) Result {
	m, err := s.severity()
	if err != nil {
		return Fallback(FallbackExpectedCostTND, "severity_fallback:%s", fallbackCause(err))
	}
	row, err := features.RowFromProfile(p, m.Meta.Features)
	if err != nil {
		return Fallback(FallbackExpectedCostTND, "severity_fallback:feature_contract_mismatch")
	}
	v, err := m.PredictExpectedCost(row)
	if err != nil {
		return Fallback(FallbackExpectedCostTND, "severity_fallback:non_finite_output")
	}
	return OK(v)
}

func (s *Service) scoreUncertainty(p domain.MerchantProfile) Result {
	m, err := s.uncertainty()
	if err != nil {
		return Fallback(FallbackUncertainty, "uncertainty_fallback:%s", fallbackCause(err))
	}
	row, err := features.RowFromProfile(p, m.Meta.Features)
	if err != nil {
		return Fallback(FallbackUncertainty, "uncertainty_fallback:feature_contract_mismatch")
	}
	v, err := m.PredictScore(row, p)
	if err != nil {
		return Fallback(FallbackUncertainty, "uncertainty_fallback:non_finite_output")
	}
	return OK(v)
}

func (s *Service) scoreSegmentation(p domain.MerchantProfile) (int, string, Result) {
	m, err := s.segmentation()
	if err != nil {
		return -1, "", Fallback(0, "segmentation_fallback:%s", fallbackCause(err))
	}
	row, err := features.RowFromProfile(p, m.Meta.Features)
	if err != nil {
		return -1, "", Fallback(0, "segmentation_fallback:feature_contract_mismatch")
	}
	cluster, err := m.PredictCluster(row)
	if err != nil {
		return -1, "", Fallback(0, "segmentation_fallback:non_finite_output")
	}
	return cluster, m.TemplateHint(cluster), OK(float64(cluster))
}
