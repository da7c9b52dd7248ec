// Package alerting turns scored risk events into actionable alerts with
// ranked alternate suppliers, and fans alerts out to notification sinks.
package alerting

import (
	"sort"
	"strings"

	"github.com/chainwatch/chainwatch/pkg/models"
)

// Ranking weights. They sum to 1.0; the weighted sum is scaled to [0,10].
const (
	weightCapacity     = 0.25
	weightGeographic   = 0.20
	weightRelationship = 0.20
	weightESG          = 0.10
	weightFinancial    = 0.10
	weightLeadTime     = 0.10
	weightSwitching    = 0.05
)

// creditRatingScores is the ordinal mapping for the financial factor.
var creditRatingScores = map[string]float64{
	"AAA": 1.0,
	"AA":  0.90,
	"A":   0.80,
	"BBB": 0.65,
	"BB":  0.50,
	"B":   0.35,
	"CCC": 0.20,
	"CC":  0.10,
	"C":   0.05,
}

func creditScore(rating string) float64 {
	if s, ok := creditRatingScores[strings.ToUpper(strings.TrimSpace(rating))]; ok {
		return s
	}
	// Unrated suppliers land mid-table rather than at either extreme.
	return 0.50
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// scoreAlternate computes the composite fitness of a candidate replacing
// the disrupted supplier, with a per-factor breakdown for the alert.
func scoreAlternate(candidate, disrupted *models.Supplier) (float64, map[string]float64) {
	geographic := 0.3
	if !strings.EqualFold(candidate.Country, disrupted.Country) {
		geographic = 1.0
	}

	// Required volume is the disrupted supplier's share of supply. The
	// source data records it in percent, and capacity is compared against
	// it in those units.
	required := disrupted.SupplyVolumePct
	if required <= 0 {
		required = 50
	}
	capacity := 0.5 // unknown capacity
	if candidate.MaxCapacity > 0 {
		capacity = clamp01(candidate.MaxCapacity / required)
	}

	relationship := 0.4
	switch {
	case candidate.ApprovedVendor:
		relationship = 1.0
	case candidate.Status == models.StatusPreQualified:
		relationship = 0.8
	}

	esg := clamp01(candidate.ESGScore / 100)
	financial := creditScore(candidate.CreditRating)
	switching := clamp01(1 - candidate.SwitchingCost/10)
	leadTime := 1 / (1 + float64(candidate.LeadTimeWeeks)/4)

	breakdown := map[string]float64{
		"geographic_diversity": geographic,
		"capacity":             capacity,
		"relationship":         relationship,
		"esg":                  esg,
		"financial":            financial,
		"switching_cost":       switching,
		"lead_time":            leadTime,
	}

	score := (weightGeographic*geographic +
		weightCapacity*capacity +
		weightRelationship*relationship +
		weightESG*esg +
		weightFinancial*financial +
		weightSwitching*switching +
		weightLeadTime*leadTime) * 10

	return score, breakdown
}

// RankAlternates scores the candidates against the disrupted supplier and
// returns at most max of them, best first. Ties break on capacity, then
// lead time, then name.
func RankAlternates(disrupted *models.Supplier, candidates []*models.Supplier, max int) []models.Alternate {
	ranked := make([]models.Alternate, 0, len(candidates))
	capacities := make(map[string]float64, len(candidates))

	for _, c := range candidates {
		score, breakdown := scoreAlternate(c, disrupted)
		capacities[c.ID] = c.MaxCapacity
		ranked = append(ranked, models.Alternate{
			SupplierID:     c.ID,
			Name:           c.Name,
			Country:        c.Country,
			Score:          score,
			LeadTimeWeeks:  c.LeadTimeWeeks,
			ApprovedVendor: c.ApprovedVendor,
			Breakdown:      breakdown,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if capacities[a.SupplierID] != capacities[b.SupplierID] {
			return capacities[a.SupplierID] > capacities[b.SupplierID]
		}
		if a.LeadTimeWeeks != b.LeadTimeWeeks {
			return a.LeadTimeWeeks < b.LeadTimeWeeks
		}
		return a.Name < b.Name
	})

	if max > 0 && len(ranked) > max {
		ranked = ranked[:max]
	}
	return ranked
}
