package selection

// Reason codes appended by the selection rules, in firing order.
// The order encodes the causal narrative and is never rearranged.
const (
	ReasonClusterHintPrefix = "cluster_profile_hint:"
	ReasonOpenAtNight       = "open_at_night"
	ReasonHighExposure      = "high_exposure_assets_or_activity"
	ReasonHighFrequency     = "high_frequency"
	ReasonHighUncertainty   = "high_uncertainty"
	ReasonFallback          = "fallback_no_candidate"

	ReasonChosenEssential = "chosen_essential_template"
	ReasonChosenPlus      = "chosen_plus_template"
	ReasonChosenNight     = "chosen_night_template"
)

// Decision is the product selector output: the chosen template, the
// append-only reason trail and the templates that passed eligibility.
// Except in the no-candidate fallback, the chosen id is always a
// member of Candidates.
type Decision struct {
	TemplateID string   `json:"template_id"`
	Reasons    []string `json:"reasons"`
	Candidates []string `json:"candidates"`
}
