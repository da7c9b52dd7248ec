package ingest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chainwatch/chainwatch/pkg/models"
)

func TestSearchQuery(t *testing.T) {
	company := &models.Company{
		RawMaterials:   []string{"lithium", "cobalt"},
		KeyGeographies: []string{"Chile"},
	}
	suppliers := []*models.Supplier{
		{Name: "Andes Lithium Co"},
		{Name: "Pacific Cobalt"},
	}

	q := SearchQuery(company, suppliers)
	assert.Equal(t, `"lithium" OR "cobalt" OR "Andes Lithium Co" OR "Pacific Cobalt" OR "Chile"`, q)
}

func TestSearchQueryDeduplicatesAndCaps(t *testing.T) {
	company := &models.Company{RawMaterials: []string{"lithium", "Lithium", " lithium "}}

	var suppliers []*models.Supplier
	for i := 0; i < 30; i++ {
		suppliers = append(suppliers, &models.Supplier{Name: fmt.Sprintf("Supplier %02d", i)})
	}

	q := SearchQuery(company, suppliers)
	assert.Equal(t, maxQueryTerms, strings.Count(q, " OR ")+1, "query capped")
	assert.Equal(t, 1, strings.Count(strings.ToLower(q), `"lithium"`), "case-insensitive dedup")
}

func TestSearchQueryEmptyProfile(t *testing.T) {
	q := SearchQuery(&models.Company{}, nil)
	assert.Equal(t, "supply chain disruption", q)
}
