package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Extraction is the structured-output contract for the LLM extraction call.
// Any response that does not unmarshal into this shape, or that fails
// Validate, is treated as a parse failure by the caller.
type Extraction struct {
	IsRisk            bool     `json:"is_risk"`
	RiskType          string   `json:"risk_type"`
	AffectedEntities  []string `json:"affected_entities"`
	AffectedNodes     []string `json:"affected_supply_chain_nodes"`
	Severity          string   `json:"severity"`
	IsConfirmed       string   `json:"is_confirmed"`
	TimeHorizon       string   `json:"time_horizon"`
	Reasoning         string   `json:"reasoning"`
	RecommendedAction string   `json:"recommended_action"`
}

// ParseExtraction decodes and validates an LLM response. Models sometimes
// wrap JSON in a markdown fence; that is stripped before decoding.
func ParseExtraction(raw string) (*Extraction, error) {
	cleaned := stripJSONFence(raw)

	var ex Extraction
	dec := json.NewDecoder(strings.NewReader(cleaned))
	if err := dec.Decode(&ex); err != nil {
		return nil, fmt.Errorf("decoding extraction response: %w", err)
	}
	if err := ex.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extraction response: %w", err)
	}
	return &ex, nil
}

// Validate checks the closed enumerations. A non-risk result only needs a
// well-formed shape; a risk result must carry valid classification fields.
func (ex *Extraction) Validate() error {
	if !ex.IsRisk {
		return nil
	}
	if !RiskType(ex.RiskType).Valid() {
		return fmt.Errorf("unknown risk_type %q", ex.RiskType)
	}
	if !Severity(ex.Severity).Valid() {
		return fmt.Errorf("unknown severity %q", ex.Severity)
	}
	if !normalizeConfirmation(ex.IsConfirmed).Valid() {
		return fmt.Errorf("unknown is_confirmed %q", ex.IsConfirmed)
	}
	if !TimeHorizon(ex.TimeHorizon).Valid() {
		return fmt.Errorf("unknown time_horizon %q", ex.TimeHorizon)
	}
	return nil
}

// Confirmation returns the normalized confirmation status.
func (ex *Extraction) Confirmation() Confirmation {
	return normalizeConfirmation(ex.IsConfirmed)
}

// normalizeConfirmation maps the looser wire values ("true"/"false") some
// models emit onto the canonical enumeration.
func normalizeConfirmation(s string) Confirmation {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "confirmed", "true":
		return Confirmed
	case "unconfirmed", "false":
		return Unconfirmed
	case "uncertain":
		return Uncertain
	}
	return Confirmation(s)
}

func stripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
