package alerting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/chainwatch/chainwatch/pkg/config"
	"github.com/chainwatch/chainwatch/pkg/llm"
	"github.com/chainwatch/chainwatch/pkg/models"
	"github.com/chainwatch/chainwatch/pkg/pipeline"
	"github.com/chainwatch/chainwatch/pkg/scoring"
	"github.com/chainwatch/chainwatch/pkg/store"
	"github.com/chainwatch/chainwatch/pkg/stream"
)

// Processor consumes scored risk events and creates alerts for those at
// or above the alert threshold, with ranked alternates and a sourcing
// recommendation.
type Processor struct {
	store  store.Store
	bus    stream.Bus
	client llm.Client
	cfg    config.AlertingConfig
}

// NewProcessor builds an alerting processor. client may be nil; the
// recommendation then always comes from the template.
func NewProcessor(st store.Store, bus stream.Bus, client llm.Client, cfg config.AlertingConfig) *Processor {
	return &Processor{store: st, bus: bus, client: client, cfg: cfg}
}

// Handle processes one risk_scores entry.
func (p *Processor) Handle(ctx context.Context, entry stream.Entry) error {
	eventID := entry.Fields["risk_event_id"]
	if eventID == "" {
		return pipeline.Permanent(errors.New("entry missing risk_event_id"))
	}

	event, err := p.store.GetRiskEvent(ctx, eventID)
	if errors.Is(err, store.ErrNotFound) {
		return pipeline.Permanent(fmt.Errorf("risk event %s not found", eventID))
	}
	if err != nil {
		return err
	}
	if !event.Scored() {
		return fmt.Errorf("risk event %s not scored yet", eventID)
	}

	// The threshold is inclusive: a score exactly at it alerts.
	if event.RiskScore < p.cfg.AlertThreshold {
		slog.Info("Risk score below alert threshold",
			"risk_event_id", eventID, "score", event.RiskScore, "threshold", p.cfg.AlertThreshold)
		return nil
	}

	suppliers, err := p.store.ListSuppliers(ctx)
	if err != nil {
		return err
	}
	affected := resolveSuppliers(event.AffectedNodes, suppliers)

	alert := p.buildAlert(event, affected, suppliers)

	alert.Recommendation = p.recommend(ctx, event, alert)

	if err := p.store.InsertAlert(ctx, alert); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return pipeline.ErrDuplicate
		}
		return err
	}

	_, err = p.bus.Publish(ctx, stream.StreamNewAlerts, map[string]string{
		"alert_id": alert.ID,
	})
	if err != nil {
		return err
	}

	slog.Info("Alert created",
		"alert_id", alert.ID,
		"risk_event_id", eventID,
		"band", string(alert.SeverityBand),
		"alternates", len(alert.Alternates))
	return nil
}

// buildAlert assembles the alert record: title, affected suppliers and
// materials, and alternates ranked for the primary affected supplier.
func (p *Processor) buildAlert(event *models.RiskEvent, affected, all []*models.Supplier) *models.Alert {
	alert := &models.Alert{
		ID:           uuid.NewString(),
		RiskEventID:  event.ID,
		SeverityBand: event.SeverityBand,
		RiskScore:    event.RiskScore,
		Title:        alertTitle(event, affected),
		Description:  event.Reasoning,
	}

	materials := map[string]bool{}
	for _, sup := range affected {
		alert.AffectedSuppliers = append(alert.AffectedSuppliers, sup.Name)
		for _, m := range sup.Materials {
			if !materials[strings.ToLower(m)] {
				materials[strings.ToLower(m)] = true
				alert.AffectedMaterials = append(alert.AffectedMaterials, m)
			}
		}
	}

	if len(affected) > 0 {
		primary := affected[0]
		candidates := scoring.AlternatesFor(primary, all)
		alert.Alternates = RankAlternates(primary, candidates, p.cfg.MaxAlternates)
	}
	return alert
}

func alertTitle(event *models.RiskEvent, affected []*models.Supplier) string {
	label := strings.ReplaceAll(string(event.RiskType), "_", " ")
	if len(affected) == 0 {
		return fmt.Sprintf("%s risk detected", label)
	}
	names := make([]string, len(affected))
	for i, sup := range affected {
		names[i] = sup.Name
	}
	return fmt.Sprintf("%s risk affecting %s", label, strings.Join(names, ", "))
}

// recommend asks the LLM for a short sourcing recommendation, falling back
// to a deterministic template when the call fails or no client is wired.
func (p *Processor) recommend(ctx context.Context, event *models.RiskEvent, alert *models.Alert) string {
	fallback := templateRecommendation(event, alert)
	if p.client == nil {
		return fallback
	}

	text, err := p.client.Complete(ctx, recommendationPrompt(event, alert),
		llm.Options{Tier: llm.TierFast, Temperature: 0.2})
	if err != nil || strings.TrimSpace(text) == "" {
		slog.Warn("Recommendation generation failed, using template",
			"risk_event_id", event.ID, "error", err)
		return fallback
	}
	return strings.TrimSpace(text)
}

func recommendationPrompt(event *models.RiskEvent, alert *models.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a procurement advisor. A supply chain alert fired:\n")
	fmt.Fprintf(&b, "Title: %s\nRisk score: %.2f (%s)\n", alert.Title, alert.RiskScore, alert.SeverityBand)
	if len(alert.AffectedSuppliers) > 0 {
		fmt.Fprintf(&b, "Affected suppliers: %s\n", strings.Join(alert.AffectedSuppliers, ", "))
	}
	if event.Reasoning != "" {
		fmt.Fprintf(&b, "Context: %s\n", event.Reasoning)
	}
	if len(alert.Alternates) > 0 {
		b.WriteString("Top alternate suppliers:\n")
		for i, alt := range alert.Alternates {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "- %s (%s), fitness %.1f/10, lead time %dw\n",
				alt.Name, alt.Country, alt.Score, alt.LeadTimeWeeks)
		}
	}
	b.WriteString("\nWrite a 2-3 sentence actionable recommendation for the sourcing team. Plain text only.")
	return b.String()
}

// templateRecommendation is the deterministic fallback.
func templateRecommendation(event *models.RiskEvent, alert *models.Alert) string {
	if len(alert.Alternates) > 0 {
		best := alert.Alternates[0]
		return fmt.Sprintf("Activate alternate supplier %s from %s; lead time %dw.",
			best.Name, best.Country, best.LeadTimeWeeks)
	}
	if event.RecommendedAction != "" {
		return event.RecommendedAction
	}
	return "No qualified alternate supplier available; escalate to the sourcing team."
}

func resolveSuppliers(names []string, suppliers []*models.Supplier) []*models.Supplier {
	var linked []*models.Supplier
	for _, name := range names {
		for _, sup := range suppliers {
			if strings.EqualFold(sup.Name, name) {
				linked = append(linked, sup)
				break
			}
		}
	}
	return linked
}
