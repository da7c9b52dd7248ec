// Package extract consumes normalized articles, filters them for
// relevance against the company profile, and turns relevant ones into
// typed risk events via the structured-output LLM.
package extract

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/chainwatch/chainwatch/pkg/llm"
	"github.com/chainwatch/chainwatch/pkg/models"
	"github.com/chainwatch/chainwatch/pkg/store"
)

// Keywords flattens the company profile into the text whose embedding
// anchors the relevance gate: company name, supplier names, materials and
// geographies.
func Keywords(company *models.Company, suppliers []*models.Supplier) string {
	parts := []string{company.Name, company.Industry}
	for _, s := range suppliers {
		parts = append(parts, s.Name)
	}
	parts = append(parts, company.RawMaterials...)
	parts = append(parts, company.KeyGeographies...)

	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// ProfileEmbedder caches the keyword embedding for the lifetime of a
// stable profile. The store's topology version doubles as the profile
// version: supplier or company changes invalidate the cache.
type ProfileEmbedder struct {
	store    store.Store
	embedder llm.Embedder

	mu      sync.RWMutex
	vector  []float32
	version int64
	built   bool
}

// NewProfileEmbedder binds the cache to the store and embedder.
func NewProfileEmbedder(st store.Store, embedder llm.Embedder) *ProfileEmbedder {
	return &ProfileEmbedder{store: st, embedder: embedder}
}

// Vector returns the current profile embedding, recomputing it when the
// profile changed.
func (p *ProfileEmbedder) Vector(ctx context.Context) ([]float32, error) {
	version := p.store.GraphVersion()

	p.mu.RLock()
	if p.built && p.version == version {
		v := p.vector
		p.mu.RUnlock()
		return v, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.built && p.version == version {
		return p.vector, nil
	}

	company, err := p.store.GetCompany(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading company for keyword embedding: %w", err)
	}
	suppliers, err := p.store.ListSuppliers(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading suppliers for keyword embedding: %w", err)
	}

	vector, err := p.embedder.Embed(ctx, Keywords(company, suppliers))
	if err != nil {
		return nil, err
	}

	p.vector = vector
	p.version = version
	p.built = true
	return vector, nil
}

// Cosine computes the cosine similarity of two vectors. Mismatched or
// zero-magnitude vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
