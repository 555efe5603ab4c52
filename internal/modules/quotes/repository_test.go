package quotes

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, InitSchema(db))

	return db
}

func TestCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	rec, err := repo.Create("merchant_1", `{"governorate":"Tunis"}`)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, StatusPending, rec.Status)

	got, err := repo.GetByID(rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "merchant_1", got.InsuredID)
	assert.Equal(t, `{"governorate":"Tunis"}`, got.RequestJSON)
	assert.Nil(t, got.AIQuoteJSON)
	assert.Nil(t, got.ProcessedBy)
}

func TestGetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	got, err := repo.GetByID("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListByInsured(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	_, err := repo.Create("merchant_1", `{}`)
	require.NoError(t, err)
	_, err = repo.Create("merchant_1", `{}`)
	require.NoError(t, err)
	_, err = repo.Create("merchant_2", `{}`)
	require.NoError(t, err)

	recs, err := repo.ListByInsured("merchant_1")
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = repo.ListByInsured("nobody")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSetAIQuote(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	rec, err := repo.Create("merchant_1", `{}`)
	require.NoError(t, err)

	updated, err := repo.SetAIQuote(rec.ID, `{"offer":{}}`)
	require.NoError(t, err)
	assert.Equal(t, StatusAIProposed, updated.Status)
	require.NotNil(t, updated.AIQuoteJSON)
	assert.Equal(t, `{"offer":{}}`, *updated.AIQuoteJSON)
}

func TestSetAIQuote_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	_, err := repo.SetAIQuote("missing", `{}`)
	assert.Error(t, err)
}

func TestFinalize_Accept(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	rec, err := repo.Create("merchant_1", `{}`)
	require.NoError(t, err)
	_, err = repo.SetAIQuote(rec.ID, `{"offer":{}}`)
	require.NoError(t, err)

	updated, err := repo.Finalize(rec.ID, ActionAccept, `{"premium":320.71}`, "agent_7", "ok")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, updated.Status)
	require.NotNil(t, updated.FinalOfferJSON)
	assert.Equal(t, `{"premium":320.71}`, *updated.FinalOfferJSON)
	require.NotNil(t, updated.ProcessedBy)
	assert.Equal(t, "agent_7", *updated.ProcessedBy)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "ok", *updated.Notes)
	assert.NotNil(t, updated.ProcessedAt)
}

func TestFinalize_Reject(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	rec, err := repo.Create("merchant_1", `{}`)
	require.NoError(t, err)
	_, err = repo.SetAIQuote(rec.ID, `{}`)
	require.NoError(t, err)

	updated, err := repo.Finalize(rec.ID, ActionReject, "", "agent_7", "too risky")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, updated.Status)
	assert.Nil(t, updated.FinalOfferJSON)
}

func TestFinalize_OnlyFromAIProposed(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	rec, err := repo.Create("merchant_1", `{}`)
	require.NoError(t, err)

	// Still PENDING: no quote has been generated yet.
	_, err = repo.Finalize(rec.ID, ActionAccept, "", "agent_7", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), StatusPending)
}

func TestExpireStale(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	old, err := repo.Create("merchant_1", `{}`)
	require.NoError(t, err)
	fresh, err := repo.Create("merchant_1", `{}`)
	require.NoError(t, err)

	// Backdate the first request beyond the cutoff.
	backdated := time.Now().UTC().Add(-40 * 24 * time.Hour).Format(timeLayout)
	_, err = db.Exec(`UPDATE quote_requests SET created_at = ? WHERE id = ?`, backdated, old.ID)
	require.NoError(t, err)

	n, err := repo.ExpireStale(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetByID(old.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)

	got, err = repo.GetByID(fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}

func TestExpireStale_SkipsNonPending(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	rec, err := repo.Create("merchant_1", `{}`)
	require.NoError(t, err)
	_, err = repo.SetAIQuote(rec.ID, `{}`)
	require.NoError(t, err)

	backdated := time.Now().UTC().Add(-40 * 24 * time.Hour).Format(timeLayout)
	_, err = db.Exec(`UPDATE quote_requests SET created_at = ? WHERE id = ?`, backdated, rec.ID)
	require.NoError(t, err)

	n, err := repo.ExpireStale(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCountByStatus(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	_, err := repo.Create("merchant_1", `{}`)
	require.NoError(t, err)
	rec, err := repo.Create("merchant_2", `{}`)
	require.NoError(t, err)
	_, err = repo.SetAIQuote(rec.ID, `{}`)
	require.NoError(t, err)

	counts, err := repo.CountByStatus()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		StatusPending:    1,
		StatusAIProposed: 1,
	}, counts)
}
