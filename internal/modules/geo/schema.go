package geo

import "database/sql"

// RegionStatsSchema holds per-governorate median density and
// point-of-interest density, precomputed offline from the reference
// dataset and loaded once at process start.
const RegionStatsSchema = `
CREATE TABLE IF NOT EXISTS region_stats (
    governorate TEXT PRIMARY KEY,
    density_per_km2 REAL NOT NULL,
    poi_per_km2 REAL NOT NULL,
    updated_at TEXT NOT NULL
);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(RegionStatsSchema)
	return err
}
