package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintNormalizesHeadline(t *testing.T) {
	a := Fingerprint("Earthquake Halts Lithium Mining")
	b := Fingerprint("  earthquake halts lithium mining  ")
	c := Fingerprint("EARTHQUAKE HALTS LITHIUM MINING")

	assert.Equal(t, a, b, "case and surrounding whitespace do not change the fingerprint")
	assert.Equal(t, a, c)
	assert.Len(t, a, 32)

	assert.NotEqual(t, a, Fingerprint("earthquake halts cobalt mining"))
}

func TestNormalizeBodyFallback(t *testing.T) {
	withBody := Normalize(RawItem{Title: "t", Body: "full text", Description: "summary"})
	assert.Equal(t, "full text", withBody.Body)

	withDesc := Normalize(RawItem{Title: "t", Description: "summary"})
	assert.Equal(t, "summary", withDesc.Body)

	empty := Normalize(RawItem{Title: "t"})
	assert.Equal(t, "", empty.Body)
}

func TestNormalizeTimestamps(t *testing.T) {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	a := Normalize(RawItem{Title: "t", PublishedAt: ts})
	assert.Equal(t, ts, a.Timestamp)

	// Missing publication time falls back to ingestion time.
	b := Normalize(RawItem{Title: "t"})
	assert.WithinDuration(t, time.Now(), b.Timestamp, time.Minute)
}

func TestNormalizeEventIDIsFingerprint(t *testing.T) {
	a := Normalize(RawItem{Title: "Port Strike Announced"})
	assert.Equal(t, Fingerprint("Port Strike Announced"), a.EventID)
	assert.False(t, a.Processed)
}
