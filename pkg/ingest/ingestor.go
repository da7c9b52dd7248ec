package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/chainwatch/chainwatch/pkg/config"
	"github.com/chainwatch/chainwatch/pkg/models"
	"github.com/chainwatch/chainwatch/pkg/store"
	"github.com/chainwatch/chainwatch/pkg/stream"
)

const dedupKeyPrefix = "dedup:"

// Ingestor drives the registered connectors on a fixed interval and feeds
// deduplicated, normalized articles into the pipeline.
type Ingestor struct {
	bus        stream.Bus
	store      store.Store
	connectors []Connector
	cfg        config.IngestionConfig
}

// NewIngestor builds the ingestor.
func NewIngestor(bus stream.Bus, st store.Store, cfg config.IngestionConfig, connectors ...Connector) *Ingestor {
	return &Ingestor{
		bus:        bus,
		store:      st,
		connectors: connectors,
		cfg:        cfg,
	}
}

// Run fetches immediately, then on every tick until the context ends.
func (i *Ingestor) Run(ctx context.Context) {
	slog.Info("Ingestion scheduler started",
		"interval", i.cfg.FetchInterval().String(),
		"connectors", len(i.connectors))

	i.RunOnce(ctx)

	ticker := time.NewTicker(i.cfg.FetchInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Ingestion scheduler stopped")
			return
		case <-ticker.C:
			i.RunOnce(ctx)
		}
	}
}

// RunOnce runs one fetch cycle across all connectors. Connector errors
// are logged and skipped; the cycle always completes.
func (i *Ingestor) RunOnce(ctx context.Context) {
	for _, c := range i.connectors {
		items, err := c.Fetch(ctx)
		if err != nil {
			slog.Error("Connector fetch failed", "connector", c.Name(), "error", err)
			continue
		}

		published := 0
		for _, item := range items {
			ok, err := i.ingestItem(ctx, item)
			if err != nil {
				slog.Error("Failed to ingest item", "connector", c.Name(), "headline", item.Title, "error", err)
				continue
			}
			if ok {
				published++
			}
		}
		slog.Info("Connector cycle complete", "connector", c.Name(), "fetched", len(items), "published", published)
	}

	if i.cfg.MaxStreamLen > 0 {
		if err := i.bus.Trim(ctx, stream.StreamNormalizedEvents, i.cfg.MaxStreamLen); err != nil {
			slog.Warn("Stream trim failed", "error", err)
		}
	}
}

// ingestItem normalizes, deduplicates, commits and publishes one item.
// It reports whether the item was published as a new event.
func (i *Ingestor) ingestItem(ctx context.Context, item RawItem) (bool, error) {
	article := Normalize(item)

	inserted, err := i.bus.Dedup(ctx, dedupKeyPrefix+article.EventID, i.cfg.DedupTTL())
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil // fingerprint seen within TTL
	}

	// The unique key on event_id makes a re-insert after TTL expiry a
	// no-op, so the fingerprint set and the store never disagree for long.
	stored, err := i.store.InsertArticle(ctx, article)
	if err != nil {
		return false, err
	}
	if !stored {
		return false, nil
	}

	// Publish only after the article is committed.
	_, err = i.bus.Publish(ctx, stream.StreamNormalizedEvents, articleFields(article))
	if err != nil {
		return false, err
	}
	return true, nil
}

func articleFields(a *models.Article) map[string]string {
	return map[string]string{
		"event_id":  a.EventID,
		"timestamp": a.Timestamp.UTC().Format(time.RFC3339),
		"source":    a.Source,
		"headline":  a.Headline,
		"body":      a.Body,
		"url":       a.URL,
	}
}
