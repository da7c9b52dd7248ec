package models

import "time"

// Alternate is a ranked alternate-supplier candidate attached to an alert.
type Alternate struct {
	SupplierID     string             `json:"supplier_id"`
	Name           string             `json:"name"`
	Country        string             `json:"country"`
	Score          float64            `json:"score"` // [0,10]
	LeadTimeWeeks  int                `json:"lead_time_weeks"`
	ApprovedVendor bool               `json:"approved_vendor"`
	Breakdown      map[string]float64 `json:"score_breakdown"`
}

// Alert is an actionable, explainable notification produced when a risk
// event's composite score meets the alert threshold.
type Alert struct {
	ID                string       `json:"id" db:"id"`
	RiskEventID       string       `json:"risk_event_id" db:"risk_event_id"`
	SeverityBand      SeverityBand `json:"severity_band" db:"severity_band"`
	RiskScore         float64      `json:"risk_score" db:"risk_score"`
	Title             string       `json:"title" db:"title"`
	Description       string       `json:"description" db:"description"`
	AffectedSuppliers []string     `json:"affected_suppliers"`
	AffectedMaterials []string     `json:"affected_materials"`
	Alternates        []Alternate  `json:"alternates"`
	Recommendation    string       `json:"recommendation" db:"recommendation"`
	Acknowledged      bool         `json:"acknowledged" db:"acknowledged"`
	AcknowledgedBy    string       `json:"acknowledged_by,omitempty" db:"acknowledged_by"`
	AcknowledgedAt    *time.Time   `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
	ResolvedAt        *time.Time   `json:"resolved_at,omitempty" db:"resolved_at"`
}
