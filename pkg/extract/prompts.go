package extract

import (
	"fmt"
	"strings"

	"github.com/chainwatch/chainwatch/pkg/llm"
	"github.com/chainwatch/chainwatch/pkg/models"
)

const extractionSchema = `{
  "is_risk": boolean,
  "risk_type": "geopolitical" | "natural_disaster" | "financial" | "regulatory" | "operational" | "cybersecurity" | "esg" | "supply_disruption" | "price_volatility",
  "affected_entities": [string],
  "affected_supply_chain_nodes": [string],
  "severity": "critical" | "high" | "medium" | "low",
  "is_confirmed": "confirmed" | "unconfirmed" | "uncertain",
  "time_horizon": "immediate" | "days" | "weeks" | "months",
  "reasoning": string,
  "recommended_action": string
}`

// geopoliticalTerms trigger the capable model tier in auto mode.
var geopoliticalTerms = []string{
	"war", "sanction", "tariff", "embargo", "coup", "invasion",
	"blockade", "export ban", "geopolit", "military",
}

// autoTierBodyThreshold is the article length above which auto mode
// escalates to the capable tier.
const autoTierBodyThreshold = 2000

// SelectTier picks the completion tier for an article. Explicit modes
// pass through; auto escalates long or geopolitically loaded articles.
func SelectTier(mode string, article *models.Article) llm.Tier {
	switch mode {
	case "fast":
		return llm.TierFast
	case "capable":
		return llm.TierCapable
	}

	if len(article.Body) > autoTierBodyThreshold {
		return llm.TierCapable
	}
	text := strings.ToLower(article.Headline + " " + article.Body)
	for _, term := range geopoliticalTerms {
		if strings.Contains(text, term) {
			return llm.TierCapable
		}
	}
	return llm.TierFast
}

// extractionPrompt asks for the typed risk record as strict JSON.
func extractionPrompt(company *models.Company, suppliers []*models.Supplier, article *models.Article) string {
	supplierNames := make([]string, len(suppliers))
	for i, s := range suppliers {
		supplierNames[i] = s.Name
	}

	return fmt.Sprintf(`You are a supply chain risk analyst for %s (%s industry).

Monitored suppliers: %s
Monitored materials: %s
Key geographies: %s

Analyze the following news article and decide whether it describes a risk to this company's supply chain.

Headline: %s
Body: %s

Respond with a single JSON object matching exactly this schema:
%s

Rules:
- "affected_supply_chain_nodes" must only contain names from the monitored supplier list that the article affects.
- "affected_entities" contains any other organizations, places or facilities involved.
- If the article is not a supply chain risk for this company, set "is_risk" to false and leave the other fields empty or null.
- Respond with JSON only, no prose.`,
		company.Name, company.Industry,
		strings.Join(supplierNames, ", "),
		strings.Join(company.RawMaterials, ", "),
		strings.Join(company.KeyGeographies, ", "),
		article.Headline, article.Body,
		extractionSchema)
}

// strictRetryPrompt is the second attempt after a parse failure.
func strictRetryPrompt(company *models.Company, suppliers []*models.Supplier, article *models.Article) string {
	return extractionPrompt(company, suppliers, article) + `

IMPORTANT: your previous response was not valid JSON. Output ONLY a raw JSON object conforming to the schema. No markdown fences, no commentary, no trailing text.`
}
