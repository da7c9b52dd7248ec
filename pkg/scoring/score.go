// Package scoring turns extracted risk events into deterministic
// composite scores and propagates them through the dependency graph.
package scoring

import (
	"github.com/chainwatch/chainwatch/pkg/models"
)

var probabilityBySeverity = map[models.Severity]float64{
	models.SeverityCritical: 0.95,
	models.SeverityHigh:     0.80,
	models.SeverityMedium:   0.55,
	models.SeverityLow:      0.25,
}

var urgencyByHorizon = map[models.TimeHorizon]float64{
	models.HorizonImmediate: 2.0,
	models.HorizonDays:      1.5,
	models.HorizonWeeks:     1.0,
	models.HorizonMonths:    0.5,
}

// Probability maps severity to a base probability in [0,1], discounted by
// 0.7 when the event is not confirmed.
func Probability(severity models.Severity, confirmation models.Confirmation) float64 {
	p, ok := probabilityBySeverity[severity]
	if !ok {
		p = probabilityBySeverity[models.SeverityMedium]
	}
	if confirmation == models.Uncertain || confirmation == models.Unconfirmed {
		p *= 0.7
	}
	return p
}

// Impact computes the supplier's impact in [0,10]:
// dependency ratio, scaled by material criticality, damped by the
// inventory buffer. A zero dependency ratio yields zero impact.
func Impact(dependencyRatio, materialCriticality, inventoryDays float64) float64 {
	bufferScore := 1 / (1 + inventoryDays/30)
	impact := dependencyRatio * (materialCriticality / 10) * bufferScore * 10
	if impact > 10 {
		impact = 10
	}
	return impact
}

// Urgency maps the time horizon to a multiplier, defaulting to 1.0.
func Urgency(horizon models.TimeHorizon) float64 {
	if u, ok := urgencyByHorizon[horizon]; ok {
		return u
	}
	return 1.0
}

// Mitigation maps the alternate-supplier count to a divisor in [1,2].
func Mitigation(alternateCount int) float64 {
	bonus := 0.2 * float64(alternateCount)
	if bonus > 1.0 {
		bonus = 1.0
	}
	return 1.0 + bonus
}

// Composite combines the components: probability x impact x urgency / mitigation.
func Composite(c models.ScoreComponents) float64 {
	return c.Probability * c.Impact * c.Urgency / c.Mitigation
}

// Band buckets a composite score.
func Band(score float64) models.SeverityBand {
	switch {
	case score >= 10:
		return models.BandCritical
	case score >= 6:
		return models.BandHigh
	case score >= 3:
		return models.BandMedium
	default:
		return models.BandLow
	}
}

// AlternatesFor returns suppliers that could replace the disrupted one:
// overlapping material, available status, different identity.
func AlternatesFor(disrupted *models.Supplier, all []*models.Supplier) []*models.Supplier {
	var alternates []*models.Supplier
	for _, candidate := range all {
		if candidate.ID == disrupted.ID || !candidate.Available() {
			continue
		}
		for _, m := range disrupted.Materials {
			if candidate.SuppliesMaterial(m) {
				alternates = append(alternates, candidate)
				break
			}
		}
	}
	return alternates
}

// ComponentsFor computes the score components for one linked supplier.
// The supplier's primary material selects criticality and inventory buffer
// from the company profile.
func ComponentsFor(e *models.RiskEvent, sup *models.Supplier, company *models.Company, alternateCount int) models.ScoreComponents {
	material := sup.PrimaryMaterial()
	return models.ScoreComponents{
		Probability: Probability(e.Severity, e.Confirmation),
		Impact:      Impact(sup.SupplyVolumePct/100, company.CriticalityFor(material), company.BufferDaysFor(material)),
		Urgency:     Urgency(e.TimeHorizon),
		Mitigation:  Mitigation(alternateCount),
	}
}
