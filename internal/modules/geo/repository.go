package geo

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RegionStats is one governorate's precomputed geo proxy pair.
type RegionStats struct {
	Governorate   string  `json:"governorate"`
	DensityPerKm2 float64 `json:"density_per_km2"`
	POIPerKm2     float64 `json:"poi_per_km2"`
}

// Repository handles region_stats persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new region stats repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "region_stats").Logger(),
	}
}

// All returns every stored region stats row.
func (r *Repository) All() ([]RegionStats, error) {
	rows, err := r.db.Query(`
		SELECT governorate, density_per_km2, poi_per_km2
		FROM region_stats
		ORDER BY governorate
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query region stats: %w", err)
	}
	defer rows.Close()

	var out []RegionStats
	for rows.Next() {
		var rs RegionStats
		if err := rows.Scan(&rs.Governorate, &rs.DensityPerKm2, &rs.POIPerKm2); err != nil {
			return nil, fmt.Errorf("failed to scan region stats: %w", err)
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// Upsert inserts or replaces one region stats row.
func (r *Repository) Upsert(rs RegionStats) error {
	_, err := r.db.Exec(`
		INSERT INTO region_stats (governorate, density_per_km2, poi_per_km2, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(governorate) DO UPDATE SET
			density_per_km2 = excluded.density_per_km2,
			poi_per_km2 = excluded.poi_per_km2,
			updated_at = excluded.updated_at
	`, rs.Governorate, rs.DensityPerKm2, rs.POIPerKm2, time.Now().Format("2006-01-02 15:04:05"))
	if err != nil {
		return fmt.Errorf("failed to upsert region stats: %w", err)
	}
	return nil
}
