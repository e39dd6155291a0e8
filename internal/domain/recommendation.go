package domain

// AIStatus is the outcome of an AI recommendation call.
type AIStatus string

const (
	AIStatusOK          AIStatus = "ok"
	AIStatusUnavailable AIStatus = "unavailable"
)

// Reasons an AI recommendation is unavailable.
const (
	ReasonMissingCredential = "missing_credential"
	ReasonRequestFailed     = "request_failed"
	ReasonMalformedResponse = "malformed_response"
)

// AIRecommendation is the raw result of the AI collaborator: either Ok with a
// platform and explanation, or Unavailable with a reason.
type AIRecommendation struct {
	Status      AIStatus `json:"status"`
	Platform    string   `json:"platform,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

// OK reports whether the AI produced a usable answer.
func (r AIRecommendation) OK() bool {
	return r.Status == AIStatusOK
}

// Recommendation sources.
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Recommendation is what callers always receive, whether the AI answered or
// the deterministic fallback was used.
type Recommendation struct {
	Platform       string `json:"platform"`
	Explanation    string `json:"explanation"`
	Source         string `json:"source"`
	FallbackReason string `json:"fallbackReason,omitempty"`
}
