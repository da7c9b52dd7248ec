package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwatch/chainwatch/pkg/models"
	"github.com/chainwatch/chainwatch/pkg/store"
)

func twoTierFixture() (*models.Company, []*models.Supplier) {
	company := &models.Company{ID: "co-1", Name: "Volt Motors"}
	suppliers := []*models.Supplier{
		{
			ID:              "sup-x",
			Name:            "X Components",
			Tier:            1,
			SupplyVolumePct: 65,
			Upstream: []models.UpstreamSupplier{
				{Name: "Y Materials", SupplyVolumePct: 100},
			},
		},
		{
			ID:              "sup-y",
			Name:            "Y Materials",
			Tier:            2,
			SupplyVolumePct: 100,
		},
	}
	return company, suppliers
}

func TestBuildTwoTierTopology(t *testing.T) {
	company, suppliers := twoTierFixture()
	g := Build(company, suppliers)

	assert.Equal(t, 3, g.Len())

	id, ok := g.NodeIDByName("y materials")
	require.True(t, ok, "name lookup is case-insensitive")
	assert.Equal(t, "sup-y", id)

	// Tier-2 suppliers do not feed the company directly.
	require.Len(t, g.out["sup-y"], 1)
	assert.Equal(t, "sup-x", g.out["sup-y"][0].To)
	assert.Equal(t, 1.0, g.out["sup-y"][0].Weight)

	require.Len(t, g.out["sup-x"], 1)
	assert.Equal(t, "co-1", g.out["sup-x"][0].To)
	assert.InDelta(t, 0.65, g.out["sup-x"][0].Weight, 1e-9)
}

func TestPropagateTwoTier(t *testing.T) {
	company, suppliers := twoTierFixture()
	g := Build(company, suppliers)

	scores := g.Propagate("sup-y", 8.0, 1.0)

	assert.InDelta(t, 8.0, scores["sup-y"], 1e-9)
	assert.InDelta(t, 8.0, scores["sup-x"], 1e-9, "weight 1.0 and default vulnerability keep the score")
	assert.InDelta(t, 5.20, scores["co-1"], 1e-9)
}

func TestPropagateStopsAtThreshold(t *testing.T) {
	company, suppliers := twoTierFixture()
	g := Build(company, suppliers)

	// Origin score exactly at the threshold is recorded but not traversed.
	scores := g.Propagate("sup-y", 1.0, 1.0)
	assert.Equal(t, map[string]float64{"sup-y": 1.0}, scores)
}

func TestPropagateUnknownOrigin(t *testing.T) {
	company, suppliers := twoTierFixture()
	g := Build(company, suppliers)

	assert.Empty(t, g.Propagate("missing", 8.0, 1.0))
}

func TestPropagateTerminatesOnCycle(t *testing.T) {
	company := &models.Company{ID: "co-1", Name: "Volt Motors"}
	// A and B list each other upstream; propagation must still terminate
	// because attenuated revisits never strictly improve.
	suppliers := []*models.Supplier{
		{
			ID: "sup-a", Name: "A", Tier: 1, SupplyVolumePct: 50,
			Upstream: []models.UpstreamSupplier{{Name: "B", SupplyVolumePct: 80}},
		},
		{
			ID: "sup-b", Name: "B", Tier: 2, SupplyVolumePct: 100,
			Upstream: []models.UpstreamSupplier{{Name: "A", SupplyVolumePct: 80}},
		},
	}
	g := Build(company, suppliers)

	scores := g.Propagate("sup-b", 9.0, 1.0)
	assert.InDelta(t, 9.0, scores["sup-b"], 1e-9)
	assert.InDelta(t, 7.2, scores["sup-a"], 1e-9)
	assert.InDelta(t, 3.6, scores["co-1"], 1e-9)
}

func TestPropagateZeroWeightEdge(t *testing.T) {
	company := &models.Company{ID: "co-1", Name: "Volt Motors"}
	suppliers := []*models.Supplier{
		{ID: "sup-z", Name: "Zero Volume", Tier: 1, SupplyVolumePct: 0},
	}
	g := Build(company, suppliers)

	scores := g.Propagate("sup-z", 8.0, 1.0)
	assert.InDelta(t, 8.0, scores["sup-z"], 1e-9)
	_, touched := scores["co-1"]
	assert.False(t, touched, "zero-weight edges contribute nothing downstream")
}

func TestCacheRebuildsOnTopologyChange(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.UpsertCompany(ctx, &models.Company{ID: "co-1", Name: "Volt Motors"}))
	require.NoError(t, st.UpsertSupplier(ctx, &models.Supplier{ID: "sup-1", Name: "Acme", Tier: 1, SupplyVolumePct: 40}))

	cache := NewCache(st)
	g1, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, g1.Len())

	// Same version returns the identical graph instance.
	g2, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Same(t, g1, g2)

	// Risk score changes do not invalidate the cache.
	require.NoError(t, st.UpdateSupplierRiskScore(ctx, "sup-1", "evt-1", 6))
	g3, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Same(t, g1, g3)

	// Topology changes do.
	require.NoError(t, st.UpsertSupplier(ctx, &models.Supplier{ID: "sup-2", Name: "Borax", Tier: 1, SupplyVolumePct: 20}))
	g4, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.NotSame(t, g1, g4)
	assert.Equal(t, 3, g4.Len())
}
