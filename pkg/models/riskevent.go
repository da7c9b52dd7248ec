package models

import "time"

// ScoreComponents is the breakdown behind a composite risk score.
type ScoreComponents struct {
	Probability float64 `json:"probability"`
	Impact      float64 `json:"impact"`
	Urgency     float64 `json:"urgency"`
	Mitigation  float64 `json:"mitigation"`
}

// RiskEvent is a typed risk extracted from an article, enriched by the
// scoring stage and immutable afterwards.
type RiskEvent struct {
	ID                string             `json:"id" db:"id"`
	ArticleID         string             `json:"article_id" db:"article_id"`
	IsRisk            bool               `json:"is_risk" db:"is_risk"`
	RiskType          RiskType           `json:"risk_type" db:"risk_type"`
	AffectedEntities  []string           `json:"affected_entities"`
	AffectedNodes     []string           `json:"affected_supply_chain_nodes"` // matched supplier names
	Severity          Severity           `json:"severity" db:"severity"`
	Confirmation      Confirmation       `json:"confirmation" db:"confirmation"`
	TimeHorizon       TimeHorizon        `json:"time_horizon" db:"time_horizon"`
	Reasoning         string             `json:"reasoning" db:"reasoning"`
	RecommendedAction string             `json:"recommended_action" db:"recommended_action"`
	Components        ScoreComponents    `json:"risk_score_components"`
	RiskScore         float64            `json:"risk_score" db:"risk_score"`
	SeverityBand      SeverityBand       `json:"severity_band" db:"severity_band"`
	Propagation       map[string]float64 `json:"propagation"` // node id -> propagated score
	CreatedAt         time.Time          `json:"created_at" db:"created_at"`
	ScoredAt          *time.Time         `json:"scored_at,omitempty" db:"scored_at"`
}

// Scored reports whether the scoring stage has enriched this event.
func (e *RiskEvent) Scored() bool { return e.ScoredAt != nil }

// PrimaryNode returns the first matched supplier name, or "".
func (e *RiskEvent) PrimaryNode() string {
	if len(e.AffectedNodes) == 0 {
		return ""
	}
	return e.AffectedNodes[0]
}
