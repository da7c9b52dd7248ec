package extract

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
	"github.com/chainwatch/chainwatch/pkg/store"
	"github.com/chainwatch/chainwatch/pkg/stream"
)

// Processor handles one normalized article end to end: relevance gate,
// structured extraction, entity linking, persist, emit.
type Processor struct {
	store    store.Store
	bus      stream.Bus
	client   llm.Client
	embedder llm.Embedder
	profile  *ProfileEmbedder
	cfg      config.ExtractConfig
}

// NewProcessor builds an extraction processor.
func NewProcessor(st store.Store, bus stream.Bus, client llm.Client, embedder llm.Embedder, cfg config.ExtractConfig) *Processor {
	return &Processor{
		store:    st,
		bus:      bus,
		client:   client,
		embedder: embedder,
		profile:  NewProfileEmbedder(st, embedder),
		cfg:      cfg,
	}
}

// Handle processes one normalized_events entry.
func (p *Processor) Handle(ctx context.Context, entry stream.Entry) error {
	eventID := entry.Fields["event_id"]
	if eventID == "" {
		return pipeline.Permanent(errors.New("entry missing event_id"))
	}

	article, err := p.store.GetArticle(ctx, eventID)
	if errors.Is(err, store.ErrNotFound) {
		return pipeline.Permanent(fmt.Errorf("article %s not found", eventID))
	}
	if err != nil {
		return err
	}
	if article.Processed {
		// Redelivery after a crash between marking the article and publishing
		// downstream: re-emit the extracted event so scoring still sees it,
		// then ack as duplicate. Scoring absorbs the double delivery.
		if article.ProcessedReason == models.ReasonExtracted && article.RiskEventID != nil {
			if _, err := p.bus.Publish(ctx, stream.StreamRiskEntities, map[string]string{
				"risk_event_id": *article.RiskEventID,
				"article_id":    article.EventID,
			}); err != nil {
				return err
			}
		}
		return pipeline.ErrDuplicate
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

	relevant, similarity, err := p.isRelevant(ctx, article)
	if err != nil {
		return err
	}
	if !relevant {
		slog.Info("Article below relevance threshold",
			"event_id", eventID, "similarity", similarity, "threshold", p.cfg.RelevanceThreshold)
		return p.store.MarkArticleProcessed(ctx, eventID, models.ReasonIrrelevant, nil)
	}

	extraction, err := p.extract(ctx, company, suppliers, article)
	if err != nil {
		var malformed *malformedError
		if errors.As(err, &malformed) {
			// Both attempts produced unusable output. Record the article
			// as handled with a non-risk event so it is never retried.
			return p.persistMalformed(ctx, article, malformed)
		}
		return err
	}

	event := p.buildEvent(extraction, article, suppliers)
	if err := p.store.InsertRiskEvent(ctx, event); err != nil {
		return err
	}

	reason := models.ReasonExtracted
	if !event.IsRisk {
		reason = models.ReasonNotARisk
	}
	if err := p.store.MarkArticleProcessed(ctx, eventID, reason, &event.ID); err != nil {
		return err
	}

	if !event.IsRisk {
		slog.Info("Article classified as not a risk", "event_id", eventID)
		return nil
	}

	_, err = p.bus.Publish(ctx, stream.StreamRiskEntities, map[string]string{
		"risk_event_id": event.ID,
		"article_id":    article.EventID,
	})
	if err != nil {
		return err
	}

	slog.Info("Risk event extracted",
		"event_id", eventID,
		"risk_event_id", event.ID,
		"risk_type", string(event.RiskType),
		"linked_suppliers", len(event.AffectedNodes))
	return nil
}

// isRelevant embeds the article and compares it against the cached
// profile embedding. Similarity at or below the threshold rejects.
func (p *Processor) isRelevant(ctx context.Context, article *models.Article) (bool, float64, error) {
	profileVec, err := p.profile.Vector(ctx)
	if err != nil {
		return false, 0, err
	}

	articleVec, err := p.embedder.Embed(ctx, article.Headline+"\n"+article.Body)
	if err != nil {
		return false, 0, err
	}

	similarity := Cosine(articleVec, profileVec)
	return similarity > p.cfg.RelevanceThreshold, similarity, nil
}

// malformedError carries the final unparseable response for the audit
// trail.
type malformedError struct {
	lastErr error
}

func (e *malformedError) Error() string {
	return "llm output malformed after retry: " + e.lastErr.Error()
}

// extract calls the LLM, retrying once with a stricter prompt on parse
// failure.
func (p *Processor) extract(ctx context.Context, company *models.Company, suppliers []*models.Supplier, article *models.Article) (*models.Extraction, error) {
	tier := SelectTier(p.cfg.ModelTier, article)
	opts := llm.Options{Tier: tier, JSONMode: true, Temperature: 0.1}

	raw, err := p.client.Complete(ctx, extractionPrompt(company, suppliers, article), opts)
	if err != nil {
		return nil, err
	}
	extraction, parseErr := models.ParseExtraction(raw)
	if parseErr == nil {
		return extraction, nil
	}

	slog.Warn("Extraction response unparseable, retrying with strict prompt",
		"event_id", article.EventID, "error", parseErr)

	raw, err = p.client.Complete(ctx, strictRetryPrompt(company, suppliers, article), opts)
	if err != nil {
		return nil, err
	}
	extraction, parseErr = models.ParseExtraction(raw)
	if parseErr != nil {
		return nil, &malformedError{lastErr: parseErr}
	}
	return extraction, nil
}

// persistMalformed records the give-up outcome: a non-risk event bound to
// the article, article marked processed. The entry is acked via nil.
func (p *Processor) persistMalformed(ctx context.Context, article *models.Article, malformed *malformedError) error {
	event := &models.RiskEvent{
		ID:        uuid.NewString(),
		ArticleID: article.EventID,
		IsRisk:    false,
		Reasoning: malformed.Error(),
	}
	if err := p.store.InsertRiskEvent(ctx, event); err != nil {
		return err
	}
	slog.Warn("Recorded malformed extraction", "event_id", article.EventID, "risk_event_id", event.ID)
	return p.store.MarkArticleProcessed(ctx, article.EventID, models.ReasonMalformedLLM, &event.ID)
}

// buildEvent converts the extraction into the persisted risk event,
// linking supply chain node names to known suppliers.
func (p *Processor) buildEvent(ex *models.Extraction, article *models.Article, suppliers []*models.Supplier) *models.RiskEvent {
	linked, freeForm := linkEntities(ex.AffectedNodes, suppliers)

	entities := append([]string{}, ex.AffectedEntities...)
	entities = append(entities, freeForm...)

	return &models.RiskEvent{
		ID:                uuid.NewString(),
		ArticleID:         article.EventID,
		IsRisk:            ex.IsRisk,
		RiskType:          models.RiskType(ex.RiskType),
		AffectedEntities:  entities,
		AffectedNodes:     linked,
		Severity:          models.Severity(ex.Severity),
		Confirmation:      ex.Confirmation(),
		TimeHorizon:       models.TimeHorizon(ex.TimeHorizon),
		Reasoning:         ex.Reasoning,
		RecommendedAction: ex.RecommendedAction,
	}
}

// linkEntities matches names against supplier display names, exact match
// first, then substring, both case-insensitive. Unmatched names are
// returned as free-form entities.
func linkEntities(names []string, suppliers []*models.Supplier) (linked, freeForm []string) {
	for _, name := range names {
		if display, ok := matchSupplier(name, suppliers); ok {
			linked = append(linked, display)
		} else {
			freeForm = append(freeForm, name)
		}
	}
	return linked, freeForm
}

func matchSupplier(name string, suppliers []*models.Supplier) (string, bool) {
	for _, s := range suppliers {
		if strings.EqualFold(s.Name, name) {
			return s.Name, true
		}
	}
	lower := strings.ToLower(name)
	for _, s := range suppliers {
		supLower := strings.ToLower(s.Name)
		if strings.Contains(supLower, lower) || strings.Contains(lower, supLower) {
			return s.Name, true
		}
	}
	return "", false
}
