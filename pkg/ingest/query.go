package ingest

import (
	"strings"

	"github.com/chainwatch/chainwatch/pkg/models"
)

// maxQueryTerms caps the search query length; news APIs reject very long
// boolean expressions.
const maxQueryTerms = 20

// SearchQuery builds a boolean OR query from the monitored profile:
// materials first, then supplier names, then geographies.
func SearchQuery(company *models.Company, suppliers []*models.Supplier) string {
	var terms []string
	seen := map[string]bool{}

	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] || len(terms) >= maxQueryTerms {
			return
		}
		seen[strings.ToLower(t)] = true
		terms = append(terms, `"`+t+`"`)
	}

	for _, m := range company.RawMaterials {
		add(m)
	}
	for _, s := range suppliers {
		add(s.Name)
	}
	for _, g := range company.KeyGeographies {
		add(g)
	}

	if len(terms) == 0 {
		return "supply chain disruption"
	}
	return strings.Join(terms, " OR ")
}
