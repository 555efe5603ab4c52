package quotes

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles quote request HTTP endpoints
type Handler struct {
	repo    *Repository
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new quotes handler
func NewHandler(repo *Repository, service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		repo:    repo,
		service: service,
		log:     log.With().Str("handler", "quotes").Logger(),
	}
}

// finalizeBody is the insurer's finalize payload.
type finalizeBody struct {
	Action      string                 `json:"action"`
	FinalOffer  map[string]interface{} `json:"final_offer,omitempty"`
	ProcessedBy string                 `json:"processed_by"`
	Notes       string                 `json:"notes,omitempty"`
}

// HandlePreviewQuote computes a quote without persisting anything.
func (h *Handler) HandlePreviewQuote(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, h.service.ComputeQuote(payload))
}

// HandleCreateRequest stores a new quote request in PENDING state.
func (h *Handler) HandleCreateRequest(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}

	requestJSON, err := json.Marshal(payload)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_payload")
		return
	}

	rec, err := h.repo.Create(insuredID(r), string(requestJSON))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":     rec.ID,
		"status": rec.Status,
	})
}

// HandleListRequests returns the insured's quote requests.
func (h *Handler) HandleListRequests(w http.ResponseWriter, r *http.Request) {
	recs, err := h.repo.ListByInsured(insuredID(r))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"requests": publicList(recs)})
}

// HandleListPending returns requests awaiting a quote.
func (h *Handler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	recs, err := h.repo.ListByStatus(StatusPending)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"requests": publicList(recs)})
}

// HandleGetRequest returns one quote request.
func (h *Handler) HandleGetRequest(w http.ResponseWriter, r *http.Request) {
	rec, err := h.repo.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		h.writeError(w, http.StatusNotFound, "request_not_found")
		return
	}
	h.writeJSON(w, http.StatusOK, public(rec))
}

// HandleGenerateQuote runs the quoting pipeline for a stored request
// and moves it to AI_PROPOSED.
func (h *Handler) HandleGenerateQuote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.repo.GetByID(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		h.writeError(w, http.StatusNotFound, "request_not_found")
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(rec.RequestJSON), &payload); err != nil {
		h.writeError(w, http.StatusInternalServerError, "stored request payload unreadable")
		return
	}

	quote := h.service.ComputeQuote(payload)
	quoteJSON, err := json.Marshal(quote)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	updated, err := h.repo.SetAIQuote(id, string(quoteJSON))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, public(updated))
}

// HandleFinalize applies an insurer decision to a quoted request.
func (h *Handler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	var body finalizeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	action := strings.ToUpper(strings.TrimSpace(body.Action))
	if action != ActionAccept && action != ActionModify && action != ActionReject {
		h.writeError(w, http.StatusBadRequest, "invalid_action")
		return
	}

	finalOfferJSON := ""
	if body.FinalOffer != nil {
		data, err := json.Marshal(body.FinalOffer)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_final_offer")
			return
		}
		finalOfferJSON = string(data)
	}

	processedBy := body.ProcessedBy
	if processedBy == "" {
		processedBy = "demo_assureur"
	}

	id := chi.URLParam(r, "id")
	rec, err := h.repo.GetByID(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		h.writeError(w, http.StatusNotFound, "request_not_found")
		return
	}

	updated, err := h.repo.Finalize(id, action, finalOfferJSON, processedBy, body.Notes)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, public(updated))
}

func insuredID(r *http.Request) string {
	if id := r.URL.Query().Get("insured_id"); id != "" {
		return id
	}
	return "demo_user"
}

func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request) (map[string]interface{}, bool) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body")
		return nil, false
	}
	return payload, true
}

// public shapes a record for API consumers: JSON blobs are inlined as
// objects instead of strings.
func public(rec *Record) map[string]interface{} {
	out := map[string]interface{}{
		"id":         rec.ID,
		"insured_id": rec.InsuredID,
		"status":     rec.Status,
		"created_at": rec.CreatedAt,
		"updated_at": rec.UpdatedAt,
	}

	var request map[string]interface{}
	if json.Unmarshal([]byte(rec.RequestJSON), &request) == nil {
		out["request"] = request
	}
	if rec.AIQuoteJSON != nil {
		var quote map[string]interface{}
		if json.Unmarshal([]byte(*rec.AIQuoteJSON), &quote) == nil {
			out["ai_quote"] = quote
		}
	}
	if rec.FinalOfferJSON != nil {
		var offer map[string]interface{}
		if json.Unmarshal([]byte(*rec.FinalOfferJSON), &offer) == nil {
			out["final_offer"] = offer
		}
	}
	if rec.ProcessedBy != nil {
		out["processed_by"] = *rec.ProcessedBy
	}
	if rec.ProcessedAt != nil {
		out["processed_at"] = *rec.ProcessedAt
	}
	if rec.Notes != nil {
		out["notes"] = *rec.Notes
	}
	return out
}

func publicList(recs []*Record) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(recs))
	for _, rec := range recs {
		out = append(out, public(rec))
	}
	return out
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
