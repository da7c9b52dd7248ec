package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyClient struct {
	failures int
	calls    int
}

func (f *flakyClient) Complete(_ context.Context, _ string, _ Options) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("transient provider error")
	}
	return `{"is_risk": true}`, nil
}

type flakyEmbedder struct {
	failures int
	calls    int
}

func (f *flakyEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("transient provider error")
	}
	return []float32{0.1, 0.2}, nil
}

func TestResilientClientRetriesTransientFailures(t *testing.T) {
	inner := &flakyClient{failures: 2}
	c := NewResilientClient(inner)

	out, err := c.Complete(context.Background(), "classify this", Options{Tier: TierFast})
	require.NoError(t, err)
	assert.Equal(t, `{"is_risk": true}`, out)
	assert.Equal(t, 3, inner.calls)
}

func TestResilientClientGivesUpAfterMaxAttempts(t *testing.T) {
	inner := &flakyClient{failures: 100}
	c := NewResilientClient(inner)

	_, err := c.Complete(context.Background(), "classify this", Options{})
	require.Error(t, err)
	assert.Equal(t, maxAttempts, inner.calls)
}

func TestResilientClientStopsOnCancel(t *testing.T) {
	inner := &flakyClient{failures: 100}
	c := NewResilientClient(inner)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Complete(ctx, "classify this", Options{})
	require.Error(t, err)
	assert.LessOrEqual(t, inner.calls, 1, "no retries after cancellation")
}

func TestResilientEmbedderRetries(t *testing.T) {
	inner := &flakyEmbedder{failures: 1}
	e := NewResilientEmbedder(inner)

	vec, err := e.Embed(context.Background(), "lithium mining disruption")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, vec)
	assert.Equal(t, 2, inner.calls)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyClient{failures: 1000}
	c := NewResilientClient(inner)

	// Each Complete makes maxAttempts breaker calls; after 5 consecutive
	// failures the breaker opens and later calls fail fast.
	_, err := c.Complete(context.Background(), "x", Options{})
	require.Error(t, err)

	_, err = c.Complete(context.Background(), "x", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}
