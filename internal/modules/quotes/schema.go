package quotes

import "database/sql"

// QuoteRequestsSchema stores quote requests and their status
// transitions. The quoting pipeline itself never reads this table;
// persistence consumes assembler output and does not influence it.
const QuoteRequestsSchema = `
CREATE TABLE IF NOT EXISTS quote_requests (
    id TEXT PRIMARY KEY,
    insured_id TEXT NOT NULL,
    status TEXT NOT NULL,
    request_json TEXT NOT NULL,
    ai_quote_json TEXT,
    final_offer_json TEXT,
    processed_by TEXT,
    processed_at TEXT,
    notes TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quote_requests_insured ON quote_requests(insured_id);
CREATE INDEX IF NOT EXISTS idx_quote_requests_status ON quote_requests(status);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(QuoteRequestsSchema)
	return err
}
