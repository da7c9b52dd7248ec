package models

import "strings"

// UpstreamSupplier describes a tier-2+ source feeding a supplier. Matched by
// name against the supplier collection when the dependency graph is built.
type UpstreamSupplier struct {
	Name            string   `json:"name" yaml:"name"`
	Country         string   `json:"country" yaml:"country"`
	Materials       []string `json:"materials" yaml:"materials"`
	SupplyVolumePct float64  `json:"supply_volume_pct" yaml:"supply_volume_pct"`
}

// Supplier is a node in the company's supply base.
type Supplier struct {
	ID               string             `json:"id" yaml:"id"`
	Name             string             `json:"name" yaml:"name"`
	Country          string             `json:"country" yaml:"country"`
	Region           string             `json:"region" yaml:"region"`
	Tier             int                `json:"tier" yaml:"tier"` // 1 or 2
	Materials        []string           `json:"materials" yaml:"materials"`
	SupplyVolumePct  float64            `json:"supply_volume_pct" yaml:"supply_volume_pct"` // [0,100]
	Status           SupplierStatus     `json:"status" yaml:"status"`
	ApprovedVendor   bool               `json:"approved_vendor" yaml:"approved_vendor"`
	ESGScore         float64            `json:"esg_score" yaml:"esg_score"`       // [0,100]
	CreditRating     string             `json:"credit_rating" yaml:"credit_rating"` // AAA..C
	MaxCapacity      float64            `json:"max_capacity" yaml:"max_capacity"`
	LeadTimeWeeks    int                `json:"lead_time_weeks" yaml:"lead_time_weeks"`
	SwitchingCost    float64            `json:"switching_cost_estimate" yaml:"switching_cost_estimate"` // [0,10]
	Upstream         []UpstreamSupplier `json:"upstream_suppliers,omitempty" yaml:"upstream_suppliers,omitempty"`
	RiskScoreCurrent float64            `json:"risk_score_current" yaml:"risk_score_current"`
}

// PrimaryMaterial returns the first supplied material, or "" for an empty set.
func (s *Supplier) PrimaryMaterial() string {
	if len(s.Materials) == 0 {
		return ""
	}
	return s.Materials[0]
}

// SuppliesMaterial reports whether the supplier lists the material,
// case-insensitively.
func (s *Supplier) SuppliesMaterial(material string) bool {
	for _, m := range s.Materials {
		if strings.EqualFold(m, material) {
			return true
		}
	}
	return false
}

// Available reports whether the supplier can serve as an alternate source.
func (s *Supplier) Available() bool {
	switch s.Status {
	case StatusActive, StatusPreQualified, StatusAlternate:
		return true
	}
	return false
}
