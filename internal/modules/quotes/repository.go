package quotes

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const timeLayout = "2006-01-02 15:04:05"

// Repository handles quote request persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new quote request repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "quotes").Logger(),
	}
}

// Create stores a new quote request in PENDING state.
func (r *Repository) Create(insuredID, requestJSON string) (*Record, error) {
	now := time.Now().UTC().Format(timeLayout)
	rec := &Record{
		ID:          uuid.NewString(),
		InsuredID:   insuredID,
		Status:      StatusPending,
		RequestJSON: requestJSON,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := r.db.Exec(`
		INSERT INTO quote_requests (id, insured_id, status, request_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.InsuredID, rec.Status, rec.RequestJSON, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert quote request: %w", err)
	}
	return rec, nil
}

const selectColumns = `
	SELECT id, insured_id, status, request_json, ai_quote_json, final_offer_json,
	       processed_by, processed_at, notes, created_at, updated_at
	FROM quote_requests
`

func scanRecord(row interface{ Scan(...interface{}) error }) (*Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.InsuredID, &rec.Status, &rec.RequestJSON,
		&rec.AIQuoteJSON, &rec.FinalOfferJSON,
		&rec.ProcessedBy, &rec.ProcessedAt, &rec.Notes,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetByID returns one quote request, or nil when it does not exist.
func (r *Repository) GetByID(id string) (*Record, error) {
	rec, err := scanRecord(r.db.QueryRow(selectColumns+` WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote request: %w", err)
	}
	return rec, nil
}

// ListByInsured returns an insured's requests, newest first.
func (r *Repository) ListByInsured(insuredID string) ([]*Record, error) {
	return r.list(selectColumns+` WHERE insured_id = ? ORDER BY created_at DESC`, insuredID)
}

// ListByStatus returns requests in a given status, oldest first.
func (r *Repository) ListByStatus(status string) ([]*Record, error) {
	return r.list(selectColumns+` WHERE status = ? ORDER BY created_at ASC`, status)
}

func (r *Repository) list(query string, args ...interface{}) ([]*Record, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quote requests: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote request: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SetAIQuote attaches the computed quote and moves the request to
// AI_PROPOSED.
func (r *Repository) SetAIQuote(id, quoteJSON string) (*Record, error) {
	now := time.Now().UTC().Format(timeLayout)
	res, err := r.db.Exec(`
		UPDATE quote_requests
		SET ai_quote_json = ?, status = ?, updated_at = ?
		WHERE id = ?
	`, quoteJSON, StatusAIProposed, now, id)
	if err != nil {
		return nil, fmt.Errorf("failed to set AI quote: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("quote request %s not found", id)
	}
	return r.GetByID(id)
}

// Finalize applies an insurer decision to an AI_PROPOSED request.
func (r *Repository) Finalize(id, action, finalOfferJSON, processedBy, notes string) (*Record, error) {
	rec, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("quote request %s not found", id)
	}
	if rec.Status != StatusAIProposed {
		return nil, fmt.Errorf("quote request %s is %s, only AI_PROPOSED requests can be finalized", id, rec.Status)
	}

	status := StatusProcessed
	if action == ActionReject {
		status = StatusRejected
	}

	now := time.Now().UTC().Format(timeLayout)
	var offerJSON interface{}
	if finalOfferJSON != "" {
		offerJSON = finalOfferJSON
	}
	var notesVal interface{}
	if notes != "" {
		notesVal = notes
	}

	_, err = r.db.Exec(`
		UPDATE quote_requests
		SET status = ?, final_offer_json = ?, processed_by = ?, processed_at = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, status, offerJSON, processedBy, now, notesVal, now, id)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize quote request: %w", err)
	}
	return r.GetByID(id)
}

// ExpireStale moves PENDING requests older than the cutoff to EXPIRED
// and returns how many were affected.
func (r *Repository) ExpireStale(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(timeLayout)
	now := time.Now().UTC().Format(timeLayout)
	res, err := r.db.Exec(`
		UPDATE quote_requests
		SET status = ?, updated_at = ?
		WHERE status = ? AND created_at < ?
	`, StatusExpired, now, StatusPending, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale quote requests: %w", err)
	}
	return res.RowsAffected()
}

// CountByStatus returns the number of requests per status.
func (r *Repository) CountByStatus() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM quote_requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count quote requests: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
