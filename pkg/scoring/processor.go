package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chainwatch/chainwatch/pkg/graph"
	"github.com/chainwatch/chainwatch/pkg/models"
	"github.com/chainwatch/chainwatch/pkg/pipeline"
	"github.com/chainwatch/chainwatch/pkg/store"
	"github.com/chainwatch/chainwatch/pkg/stream"
)

// Processor scores risk events from the risk_entities stream: compute
// components per linked supplier, propagate through the graph, persist,
// and hand the event to the alerting stage.
type Processor struct {
	store                store.Store
	bus                  stream.Bus
	graphs               *graph.Cache
	propagationThreshold float64
}

// NewProcessor builds a scoring processor.
func NewProcessor(st store.Store, bus stream.Bus, graphs *graph.Cache, propagationThreshold float64) *Processor {
	return &Processor{
		store:                st,
		bus:                  bus,
		graphs:               graphs,
		propagationThreshold: propagationThreshold,
	}
}

// Handle processes one risk_entities entry.
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

	if event.Scored() {
		// Redelivery after a crash between persist and publish: re-emit so
		// alerting still sees the event, then ack as duplicate. The alert
		// store dedupes by risk event.
		if err := p.publish(ctx, eventID); err != nil {
			return err
		}
		return pipeline.ErrDuplicate
	}

	if !event.IsRisk {
		slog.Info("Skipping non-risk event", "risk_event_id", eventID)
		return nil
	}

	company, err := p.store.GetCompany(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return pipeline.Permanent(errors.New("company profile not seeded"))
	}
	if err != nil {
		return err
	}
	suppliers, err := p.store.ListSuppliers(ctx)
	if err != nil {
		return err
	}

	linked := resolveSuppliers(event.AffectedNodes, suppliers)

	// The highest-impact linked supplier drives the composite. Events
	// with no resolvable supplier score zero impact and fall through
	// the alert threshold naturally.
	var dominant *models.Supplier
	components := models.ScoreComponents{
		Probability: Probability(event.Severity, event.Confirmation),
		Impact:      0,
		Urgency:     Urgency(event.TimeHorizon),
		Mitigation:  Mitigation(0),
	}
	for _, sup := range linked {
		c := ComponentsFor(event, sup, company, len(AlternatesFor(sup, suppliers)))
		if dominant == nil || c.Impact > components.Impact {
			dominant = sup
			components = c
		}
	}

	composite := Composite(components)
	event.Components = components
	event.RiskScore = composite
	event.SeverityBand = Band(composite)

	// The persisted map keeps every touched node, the company included, so
	// the alert shows how far the disruption reached. Supplier score
	// updates below skip the company entry.
	event.Propagation = map[string]float64{}
	if dominant != nil {
		g, err := p.graphs.Get(ctx)
		if err != nil {
			return err
		}
		event.Propagation = g.Propagate(dominant.ID, composite, p.propagationThreshold)
	}

	if err := p.store.UpdateRiskEventScore(ctx, event); err != nil {
		return err
	}

	for nodeID, score := range event.Propagation {
		if nodeID == company.ID {
			continue
		}
		if err := p.store.UpdateSupplierRiskScore(ctx, nodeID, event.ID, score); err != nil {
			return err
		}
	}

	slog.Info("Risk event scored",
		"risk_event_id", eventID,
		"score", composite,
		"band", string(event.SeverityBand),
		"propagated_nodes", len(event.Propagation))

	return p.publish(ctx, eventID)
}

func (p *Processor) publish(ctx context.Context, eventID string) error {
	_, err := p.bus.Publish(ctx, stream.StreamRiskScores, map[string]string{
		"risk_event_id": eventID,
	})
	return err
}

// resolveSuppliers matches affected node names against supplier display
// names case-insensitively. Unmatched names stay free-form on the event.
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
