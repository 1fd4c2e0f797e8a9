package engine

import (
	"encoding/json"
	"fmt"
)

// PausedState is the only state carried between invocations. The host stores
// and replays it verbatim and never inspects its fields.
type PausedState struct {
	RetryBudget          int             `json:"retryBudget"`
	CallbackDelaySeconds int             `json:"callbackDelaySeconds"`
	ResourceSummary      json.RawMessage `json:"resourceSummary,omitempty"`
}

// Validate checks the invariants every InProgress result honors.
func (p *PausedState) Validate() error {
	if p.RetryBudget < 0 {
		return fmt.Errorf("paused state: retry budget %d is negative", p.RetryBudget)
	}
	if p.CallbackDelaySeconds <= 0 {
		return fmt.Errorf("paused state: callback delay %d must be positive", p.CallbackDelaySeconds)
	}
	return nil
}

// EncodePausedState serializes p as the opaque string exchanged with hosts.
// A nil state encodes as the empty string.
func EncodePausedState(p *PausedState) (string, error) {
	if p == nil {
		return "", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode paused state: %w", err)
	}
	return string(b), nil
}

// DecodePausedState deserializes the opaque string produced by
// EncodePausedState. An empty string is treated as no state (nil).
func DecodePausedState(raw string) (*PausedState, error) {
	if raw == "" {
		return nil, nil
	}
	var p PausedState
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("invalid paused state JSON: %w", err)
	}
	return &p, nil
}

// summarize snapshots model into a resource summary.
func summarize[M any](model M) (json.RawMessage, error) {
	b, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("encode resource summary: %w", err)
	}
	return b, nil
}

// restore decodes a resource summary over fallback. An empty summary returns
// fallback unchanged.
func restore[M any](summary json.RawMessage, fallback M) (M, error) {
	if len(summary) == 0 || string(summary) == "null" {
		return fallback, nil
	}
	var m M
	if err := json.Unmarshal(summary, &m); err != nil {
		return fallback, fmt.Errorf("decode resource summary: %w", err)
	}
	return m, nil
}
