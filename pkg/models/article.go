package models

import "time"

// Article is a normalized external event. The event ID doubles as the
// dedup fingerprint and is the store primary key.
type Article struct {
	EventID         string     `json:"event_id" db:"event_id"`
	Timestamp       time.Time  `json:"timestamp" db:"ts"`
	Source          string     `json:"source" db:"source"`
	Headline        string     `json:"headline" db:"headline"`
	Body            string     `json:"body" db:"body"`
	URL             string     `json:"url" db:"url"`
	Processed       bool       `json:"processed" db:"processed"`
	ProcessedReason string     `json:"processed_reason,omitempty" db:"processed_reason"`
	RiskEventID     *string    `json:"risk_event_id,omitempty" db:"risk_event_id"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty" db:"processed_at"`
}

// Processing outcome reasons recorded on the article.
const (
	ReasonIrrelevant   = "irrelevant"
	ReasonNotARisk     = "not_a_risk"
	ReasonExtracted    = "risk_extracted"
	ReasonMalformedLLM = "malformed_llm_output"
	ReasonInvalid      = "invalid_event"
)
