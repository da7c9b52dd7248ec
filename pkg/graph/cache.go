package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chainwatch/chainwatch/pkg/store"
)

// Cache keeps the most recently built graph and rebuilds it when the
// store's topology version moves. Risk score updates do not bump the
// version, so steady-state scoring reuses one graph across workers.
type Cache struct {
	store store.Store

	mu      sync.RWMutex
	graph   *Graph
	version int64
	built   bool
}

// NewCache returns a cache bound to the store.
func NewCache(st store.Store) *Cache {
	return &Cache{store: st}
}

// Get returns the current graph, rebuilding it if the topology changed
// since the last build.
func (c *Cache) Get(ctx context.Context) (*Graph, error) {
	version := c.store.GraphVersion()

	c.mu.RLock()
	if c.built && c.version == version {
		g := c.graph
		c.mu.RUnlock()
		return g, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another worker may have rebuilt while we waited for the lock.
	if c.built && c.version == version {
		return c.graph, nil
	}

	company, err := c.store.GetCompany(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading company for graph build: %w", err)
	}
	suppliers, err := c.store.ListSuppliers(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading suppliers for graph build: %w", err)
	}

	c.graph = Build(company, suppliers)
	c.version = version
	c.built = true
	slog.Info("Dependency graph rebuilt", "nodes", c.graph.Len(), "version", version)
	return c.graph, nil
}
