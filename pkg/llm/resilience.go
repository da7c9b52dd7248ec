package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

const maxAttempts = 5

// ResilientClient wraps a Client with capped exponential retries and a
// circuit breaker. Context cancellation and open-breaker states are not
// retried; everything else is, up to maxAttempts.
type ResilientClient struct {
	inner   Client
	breaker *gobreaker.CircuitBreaker
}

// NewResilientClient wraps inner.
func NewResilientClient(inner Client) *ResilientClient {
	return &ResilientClient{
		inner:   inner,
		breaker: newBreaker("llm-completions"),
	}
}

// Complete calls the inner client through the breaker, retrying transient
// failures with exponential backoff.
func (c *ResilientClient) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	var out string
	op := func() error {
		res, err := c.breaker.Execute(func() (interface{}, error) {
			return c.inner.Complete(ctx, prompt, opts)
		})
		if err != nil {
			return classify(ctx, err)
		}
		out = res.(string)
		return nil
	}
	if err := retry(ctx, op); err != nil {
		return "", err
	}
	return out, nil
}

// ResilientEmbedder wraps an Embedder the same way.
type ResilientEmbedder struct {
	inner   Embedder
	breaker *gobreaker.CircuitBreaker
}

// NewResilientEmbedder wraps inner.
func NewResilientEmbedder(inner Embedder) *ResilientEmbedder {
	return &ResilientEmbedder{
		inner:   inner,
		breaker: newBreaker("llm-embeddings"),
	}
}

// Embed calls the inner embedder through the breaker with retries.
func (e *ResilientEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	op := func() error {
		res, err := e.breaker.Execute(func() (interface{}, error) {
			return e.inner.Embed(ctx, text)
		})
		if err != nil {
			return classify(ctx, err)
		}
		out = res.([]float32)
		return nil
	}
	if err := retry(ctx, op); err != nil {
		return nil, err
	}
	return out, nil
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// classify maps errors to retryable or permanent for the backoff loop.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return backoff.Permanent(ctx.Err())
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return backoff.Permanent(fmt.Errorf("%w: %s", ErrUnavailable, err))
	}
	return err
}

func retry(ctx context.Context, op backoff.Operation) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(newExponential(), maxAttempts-1), ctx)
	return backoff.Retry(op, policy)
}

func newExponential() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 2 * time.Minute
	return b
}
