package quotes

import (
	"github.com/hkacem/microquote/internal/modules/pricing"
)

// Quote request lifecycle statuses.
const (
	StatusPending    = "PENDING"
	StatusAIProposed = "AI_PROPOSED"
	StatusProcessed  = "PROCESSED"
	StatusRejected   = "REJECTED"
	StatusExpired    = "EXPIRED"
)

// Finalize actions accepted from the insurer side.
const (
	ActionAccept = "ACCEPT"
	ActionModify = "MODIFY"
	ActionReject = "REJECT"
)

// Decision is the selector output enriched with the assembler's audit
// reason codes. Reasons are append-only; their order encodes the
// causal narrative of the decision.
type Decision struct {
	TemplateID string   `json:"template_id"`
	Candidates []string `json:"candidates"`
	Reasons    []string `json:"reasons"`
}

// QuoteResponse is the full quoting contract: selection decision plus
// priced offer.
type QuoteResponse struct {
	Decision Decision      `json:"decision"`
	Offer    pricing.Offer `json:"offer"`
}

// Record is one persisted quote request with its lifecycle state.
type Record struct {
	ID        string `json:"id"`
	InsuredID string `json:"insured_id"`
	Status    string `json:"status"`

	RequestJSON    string  `json:"request_json"`
	AIQuoteJSON    *string `json:"ai_quote_json,omitempty"`
	FinalOfferJSON *string `json:"final_offer_json,omitempty"`

	ProcessedBy *string `json:"processed_by,omitempty"`
	ProcessedAt *string `json:"processed_at,omitempty"`
	Notes       *string `json:"notes,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
