package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBus implements Bus on Redis streams (XADD/XREADGROUP/XACK/XAUTOCLAIM)
// with SET NX EX for the dedup fingerprint set.
type RedisBus struct {
	client *redis.Client

	// groups tracks which (stream,group) pairs have been created so the
	// XGROUP CREATE round-trip happens once per process.
	groups sync.Map
}

// NewRedisBus connects to Redis and verifies the connection.
func NewRedisBus(ctx context.Context, addr, password string, db int) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return &RedisBus{client: client}, nil
}

// NewRedisBusFromClient wraps an existing client (used by tests).
func NewRedisBusFromClient(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

// Publish appends an entry. Redis persists the entry before replying.
func (b *RedisBus) Publish(ctx context.Context, stream string, fields map[string]string) (string, error) {
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	id, err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("publishing to %s: %w", stream, err)
	}
	return id, nil
}

// Consume reads new entries for a consumer group, creating the group on
// first use. Groups start at "0" so entries published before the first
// consumer attaches are not lost.
func (b *RedisBus) Consume(ctx context.Context, stream, group, consumer string, block time.Duration, count int64) ([]Entry, error) {
	if err := b.ensureGroup(ctx, stream, group); err != nil {
		return nil, err
	}

	res, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // block timeout, nothing to do
		}
		return nil, fmt.Errorf("consuming %s as %s/%s: %w", stream, group, consumer, err)
	}

	var entries []Entry
	for _, s := range res {
		for _, msg := range s.Messages {
			entries = append(entries, toEntry(msg))
		}
	}
	return entries, nil
}

// Ack removes pending ownership of entries.
func (b *RedisBus) Ack(ctx context.Context, stream, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := b.client.XAck(ctx, stream, group, ids...).Err(); err != nil {
		return fmt.Errorf("acking %d entries on %s: %w", len(ids), stream, err)
	}
	return nil
}

// Claim takes over entries pending longer than minIdle.
func (b *RedisBus) Claim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]Entry, error) {
	if err := b.ensureGroup(ctx, stream, group); err != nil {
		return nil, err
	}

	msgs, _, err := b.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    "0-0",
		Count:    count,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("claiming on %s for %s/%s: %w", stream, group, consumer, err)
	}

	entries := make([]Entry, 0, len(msgs))
	for _, msg := range msgs {
		entries = append(entries, toEntry(msg))
	}
	return entries, nil
}

// Dedup is an atomic set-if-absent with expiry.
func (b *RedisBus) Dedup(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	inserted, err := b.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup set for %s: %w", key, err)
	}
	return inserted, nil
}

// Len returns the stream length.
func (b *RedisBus) Len(ctx context.Context, stream string) (int64, error) {
	n, err := b.client.XLen(ctx, stream).Result()
	if err != nil {
		return 0, fmt.Errorf("reading length of %s: %w", stream, err)
	}
	return n, nil
}

// Trim caps the stream to approximately maxLen entries.
func (b *RedisBus) Trim(ctx context.Context, stream string, maxLen int64) error {
	if err := b.client.XTrimMaxLenApprox(ctx, stream, maxLen, 0).Err(); err != nil {
		return fmt.Errorf("trimming %s: %w", stream, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (b *RedisBus) Close() error {
	return b.client.Close()
}

func (b *RedisBus) ensureGroup(ctx context.Context, stream, group string) error {
	key := stream + "/" + group
	if _, ok := b.groups.Load(key); ok {
		return nil
	}
	err := b.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("creating group %s on %s: %w", group, stream, err)
	}
	b.groups.Store(key, struct{}{})
	return nil
}

func toEntry(msg redis.XMessage) Entry {
	fields := make(map[string]string, len(msg.Values))
	for k, v := range msg.Values {
		if s, ok := v.(string); ok {
			fields[k] = s
		} else {
			fields[k] = fmt.Sprint(v)
		}
	}
	return Entry{ID: msg.ID, Fields: fields}
}
