package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwatch/chainwatch/pkg/config"
	"github.com/chainwatch/chainwatch/pkg/store"
	"github.com/chainwatch/chainwatch/pkg/stream"
)

type stubConnector struct {
	name  string
	items []RawItem
	err   error
}

func (s *stubConnector) Name() string { return s.name }

func (s *stubConnector) Fetch(context.Context) ([]RawItem, error) {
	return s.items, s.err
}

func newIngestFixture(t *testing.T, connectors ...Connector) (*Ingestor, *store.MemoryStore, stream.Bus) {
	t.Helper()
	mr := miniredis.RunT(t)
	bus := stream.NewRedisBusFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = bus.Close() })

	st := store.NewMemoryStore()
	cfg := config.Default().Ingestion
	return NewIngestor(bus, st, cfg, connectors...), st, bus
}

func drainNormalized(t *testing.T, bus stream.Bus) []stream.Entry {
	t.Helper()
	entries, err := bus.Consume(context.Background(), stream.StreamNormalizedEvents,
		stream.GroupExtraction, "probe", 20*time.Millisecond, 100)
	require.NoError(t, err)
	return entries
}

func TestRunOncePublishesNormalizedEvents(t *testing.T) {
	conn := &stubConnector{name: "stub", items: []RawItem{
		{Title: "Earthquake halts lithium mining", Body: "7.1 magnitude", URL: "https://example.com/1", Source: "stub"},
		{Title: "Port strike in Valparaiso", Description: "indefinite walkout", Source: "stub"},
	}}
	ing, st, bus := newIngestFixture(t, conn)

	ing.RunOnce(context.Background())

	entries := drainNormalized(t, bus)
	require.Len(t, entries, 2)
	assert.Equal(t, "Earthquake halts lithium mining", entries[0].Fields["headline"])
	assert.Equal(t, Fingerprint("Earthquake halts lithium mining"), entries[0].Fields["event_id"])
	assert.Equal(t, "indefinite walkout", entries[1].Fields["body"], "description fallback carried through")

	// Articles committed before publish.
	a, err := st.GetArticle(context.Background(), entries[0].Fields["event_id"])
	require.NoError(t, err)
	assert.False(t, a.Processed)
}

func TestRunOnceDeduplicatesWithinTTL(t *testing.T) {
	conn := &stubConnector{name: "stub", items: []RawItem{
		{Title: "Earthquake halts lithium mining", Source: "stub"},
		{Title: "  EARTHQUAKE HALTS LITHIUM MINING ", Source: "other"},
	}}
	ing, st, bus := newIngestFixture(t, conn)

	ctx := context.Background()
	ing.RunOnce(ctx)
	// Second cycle re-fetches the same items.
	ing.RunOnce(ctx)

	assert.Len(t, drainNormalized(t, bus), 1, "one publish per unique headline within TTL")

	summary, err := st.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ArticlesIngested)
}

func TestRunOnceConnectorFailureDoesNotBlockOthers(t *testing.T) {
	broken := &stubConnector{name: "broken", err: errors.New("upstream 500")}
	working := &stubConnector{name: "working", items: []RawItem{
		{Title: "Cobalt export ban announced", Source: "working"},
	}}
	ing, _, bus := newIngestFixture(t, broken, working)

	ing.RunOnce(context.Background())

	entries := drainNormalized(t, bus)
	require.Len(t, entries, 1)
	assert.Equal(t, "Cobalt export ban announced", entries[0].Fields["headline"])
}

func TestNewsAPIConnectorFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.Contains(t, r.URL.Query().Get("q"), "lithium")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"articles": [
				{
					"source": {"name": "Example Wire"},
					"title": "Earthquake halts lithium mining",
					"description": "Operations suspended",
					"content": "Full article text",
					"url": "https://example.com/quake",
					"publishedAt": "2026-08-01T12:00:00Z"
				},
				{"source": {"name": "Empty"}, "title": ""}
			]
		}`))
	}))
	defer srv.Close()

	c := NewNewsAPIConnector("test-key", "lithium OR cobalt")
	c.baseURL = srv.URL

	items, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1, "untitled items dropped")
	assert.Equal(t, "Earthquake halts lithium mining", items[0].Title)
	assert.Equal(t, "Full article text", items[0].Body)
	assert.Equal(t, "newsapi:Example Wire", items[0].Source)
	assert.Equal(t, 2026, items[0].PublishedAt.Year())
}

func TestNewsAPIConnectorErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "error", "message": "apiKeyInvalid"}`))
	}))
	defer srv.Close()

	c := NewNewsAPIConnector("bad-key", "lithium")
	c.baseURL = srv.URL

	_, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apiKeyInvalid")
}
