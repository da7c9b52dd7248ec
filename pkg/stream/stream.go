// Package stream provides the append-only stream substrate the pipeline
// stages communicate over: named streams with consumer groups,
// at-least-once delivery, explicit acknowledgement, reclaim of entries
// abandoned by dead consumers, and a short-TTL fingerprint set for
// ingestion dedup.
package stream

import (
	"context"
	"time"
)

// Stream names used by the pipeline. Data flows strictly left to right.
const (
	StreamRawEvents        = "raw_events"
	StreamNormalizedEvents = "normalized_events"
	StreamRiskEntities     = "risk_entities"
	StreamRiskScores       = "risk_scores"
	StreamNewAlerts        = "new_alerts"
)

// Consumer group names.
const (
	GroupExtraction = "risk_extraction_group"
	GroupScoring    = "risk_scoring_group"
	GroupAlerting   = "alerting_group"
	GroupNotify     = "notification_group"
)

// Entry is a single delivered stream entry.
type Entry struct {
	ID     string
	Fields map[string]string
}

// Bus is the substrate contract. Delivery is at-least-once: consumers must
// be idempotent. Ordering is FIFO per stream only.
type Bus interface {
	// Publish appends fields to a stream and returns the entry ID. The
	// entry is durable before Publish returns.
	Publish(ctx context.Context, stream string, fields map[string]string) (string, error)

	// Consume reads up to count new entries for the consumer within the
	// group, blocking up to block for the first entry. Entries stay
	// pending until acknowledged or claimed. An empty slice means the
	// block timed out.
	Consume(ctx context.Context, stream, group, consumer string, block time.Duration, count int64) ([]Entry, error)

	// Ack removes pending ownership of the given entries for the group.
	Ack(ctx context.Context, stream, group string, ids ...string) error

	// Claim transfers entries pending longer than minIdle to the calling
	// consumer so a live worker can take over for a dead peer.
	Claim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]Entry, error)

	// Dedup atomically records key with an expiry. It returns true when
	// the key was inserted and false when it was already present.
	Dedup(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Len returns the current stream length (backpressure observability).
	Len(ctx context.Context, stream string) (int64, error)

	// Trim caps a stream to approximately maxLen entries.
	Trim(ctx context.Context, stream string, maxLen int64) error

	Close() error
}
