// Package models defines the domain types shared by the risk pipeline:
// company profile, suppliers, articles, risk events, and alerts.
package models

import "fmt"

// RiskType classifies the nature of a detected risk event.
type RiskType string

// Risk type constants.
const (
	RiskGeopolitical    RiskType = "geopolitical"
	RiskNaturalDisaster RiskType = "natural_disaster"
	RiskFinancial       RiskType = "financial"
	RiskRegulatory      RiskType = "regulatory"
	RiskOperational     RiskType = "operational"
	RiskCybersecurity   RiskType = "cybersecurity"
	RiskESG             RiskType = "esg"
	RiskSupplyDisrupt   RiskType = "supply_disruption"
	RiskPriceVolatility RiskType = "price_volatility"
)

var validRiskTypes = map[RiskType]bool{
	RiskGeopolitical:    true,
	RiskNaturalDisaster: true,
	RiskFinancial:       true,
	RiskRegulatory:      true,
	RiskOperational:     true,
	RiskCybersecurity:   true,
	RiskESG:             true,
	RiskSupplyDisrupt:   true,
	RiskPriceVolatility: true,
}

// Valid reports whether t is a known risk type.
func (t RiskType) Valid() bool { return validRiskTypes[t] }

// Severity is the LLM-assessed severity of a risk event.
type Severity string

// Severity constants.
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Confirmation is the confirmation status reported by extraction.
type Confirmation string

// Confirmation constants.
const (
	Confirmed   Confirmation = "confirmed"
	Unconfirmed Confirmation = "unconfirmed"
	Uncertain   Confirmation = "uncertain"
)

// Valid reports whether c is a known confirmation status.
func (c Confirmation) Valid() bool {
	switch c {
	case Confirmed, Unconfirmed, Uncertain:
		return true
	}
	return false
}

// TimeHorizon is the expected window before a risk materializes.
type TimeHorizon string

// Time horizon constants.
const (
	HorizonImmediate TimeHorizon = "immediate"
	HorizonDays      TimeHorizon = "days"
	HorizonWeeks     TimeHorizon = "weeks"
	HorizonMonths    TimeHorizon = "months"
)

// Valid reports whether h is a known time horizon.
func (h TimeHorizon) Valid() bool {
	switch h {
	case HorizonImmediate, HorizonDays, HorizonWeeks, HorizonMonths:
		return true
	}
	return false
}

// SeverityBand is the discretized bucket of a composite risk score.
type SeverityBand string

// Severity band constants.
const (
	BandCritical SeverityBand = "critical"
	BandHigh     SeverityBand = "high"
	BandMedium   SeverityBand = "medium"
	BandLow      SeverityBand = "low"
)

// SupplierStatus is the lifecycle status of a supplier relationship.
type SupplierStatus string

// Supplier status constants.
const (
	StatusActive       SupplierStatus = "active"
	StatusPreQualified SupplierStatus = "pre_qualified"
	StatusAlternate    SupplierStatus = "alternate"
	StatusInactive     SupplierStatus = "inactive"
)

// Valid reports whether s is a known supplier status.
func (s SupplierStatus) Valid() bool {
	switch s {
	case StatusActive, StatusPreQualified, StatusAlternate, StatusInactive:
		return true
	}
	return false
}

// AvailableStatuses are the supplier statuses eligible as alternates.
var AvailableStatuses = []SupplierStatus{StatusActive, StatusPreQualified, StatusAlternate}

// ParseSupplierStatus converts a raw string to a SupplierStatus.
func ParseSupplierStatus(s string) (SupplierStatus, error) {
	st := SupplierStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown supplier status %q", s)
	}
	return st, nil
}
