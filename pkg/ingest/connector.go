// Package ingest pulls raw items from external connectors on a fixed
// schedule, normalizes them to articles, deduplicates by headline
// fingerprint, and publishes them for extraction.
package ingest

import (
	"context"
	"time"
)

// RawItem is the minimum shape a connector must produce.
type RawItem struct {
	ID          string
	Title       string
	Body        string
	Description string
	URL         string
	Source      string
	PublishedAt time.Time
}

// Connector fetches a batch of raw items from one external source.
// Errors from one connector never block the others.
type Connector interface {
	Name() string
	Fetch(ctx context.Context) ([]RawItem, error)
}
