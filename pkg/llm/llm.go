// Package llm wraps the language-model provider behind small interfaces:
// completions for risk extraction and recommendations, embeddings for the
// relevance gate. The resilient wrapper adds retries and a circuit
// breaker so a degraded provider slows the pipeline instead of failing it.
package llm

import (
	"context"
	"errors"
)

// Tier selects the completion model by capability.
type Tier string

// Model tiers. TierAuto lets the caller pick per request.
const (
	TierFast    Tier = "fast"
	TierCapable Tier = "capable"
	TierAuto    Tier = "auto"
)

// ErrUnavailable indicates the provider is unreachable or the circuit
// breaker is open. Callers treat it as transient.
var ErrUnavailable = errors.New("llm provider unavailable")

// Options tune a single completion request.
type Options struct {
	Tier        Tier
	JSONMode    bool
	Temperature float64
}

// Client produces text completions.
type Client interface {
	// Complete runs a single-prompt completion and returns the raw text.
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// Embedder produces embedding vectors for relevance comparison.
type Embedder interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
}
