package geo

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/hkacem/microquote/pkg/formulas"
)

// Hardcoded proxy pair used when no reference data is available at all.
const (
	DefaultDensityPerKm2 = 1500.0
	DefaultPOIPerKm2     = 60.0
)

type store struct {
	byGovernorate map[string][2]float64
	global        [2]float64
}

// Resolver maps a governorate to deterministic (density, POI density)
// proxies. The lookup table is loaded once on first use and immutable
// afterward, so concurrent resolves share it without locking.
// Resolve never fails: unknown governorates fall back to the global
// median pair, and an empty dataset falls back to fixed constants.
type Resolver struct {
	repo *Repository
	log  zerolog.Logger

	once  sync.Once
	cache store
}

// NewResolver creates a new geo proxy resolver
func NewResolver(repo *Repository, log zerolog.Logger) *Resolver {
	return &Resolver{
		repo: repo,
		log:  log.With().Str("service", "geo_resolver").Logger(),
	}
}

// Resolve returns (density_per_km2, poi_per_km2) for a governorate.
func (r *Resolver) Resolve(governorate string) (float64, float64) {
	r.once.Do(r.load)

	if pair, ok := r.cache.byGovernorate[governorate]; ok {
		return pair[0], pair[1]
	}
	return r.cache.global[0], r.cache.global[1]
}

func (r *Resolver) load() {
	r.cache = store{
		byGovernorate: map[string][2]float64{},
		global:        [2]float64{DefaultDensityPerKm2, DefaultPOIPerKm2},
	}

	if r.repo == nil {
		r.log.Warn().Msg("No region stats repository, using constant geo proxies")
		return
	}

	rows, err := r.repo.All()
	if err != nil {
		r.log.Warn().Err(err).Msg("Failed to load region stats, using constant geo proxies")
		return
	}
	if len(rows) == 0 {
		r.log.Warn().Msg("Region stats table empty, using constant geo proxies")
		return
	}

	densities := make([]float64, 0, len(rows))
	pois := make([]float64, 0, len(rows))
	for _, rs := range rows {
		r.cache.byGovernorate[rs.Governorate] = [2]float64{rs.DensityPerKm2, rs.POIPerKm2}
		densities = append(densities, rs.DensityPerKm2)
		pois = append(pois, rs.POIPerKm2)
	}
	r.cache.global = [2]float64{formulas.Median(densities), formulas.Median(pois)}

	r.log.Info().
		Int("governorates", len(rows)).
		Float64("global_density", r.cache.global[0]).
		Float64("global_poi", r.cache.global[1]).
		Msg("Geo proxies loaded")
}
