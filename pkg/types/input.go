package types

// RequestInput is the caller's view of one decision request. The
// deterministic pathway matches on action/resource/env; the probabilistic
// pathway scores the numeric features.
type RequestInput struct {
	RequestID string             `json:"request_id,omitempty"`
	Action    string             `json:"action"`
	Resource  string             `json:"resource"`
	Env       string             `json:"env"`
	Features  map[string]float64 `json:"features,omitempty"`
	Intent    map[string]any     `json:"intent,omitempty"`
}
