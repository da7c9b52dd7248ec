package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwatch/chainwatch/pkg/graph"
	"github.com/chainwatch/chainwatch/pkg/models"
	"github.com/chainwatch/chainwatch/pkg/pipeline"
	"github.com/chainwatch/chainwatch/pkg/store"
	"github.com/chainwatch/chainwatch/pkg/stream"
)

type scoringFixture struct {
	store *store.MemoryStore
	bus   stream.Bus
	proc  *Processor
}

func newScoringFixture(t *testing.T) *scoringFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	bus := stream.NewRedisBusFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = bus.Close() })

	st := store.NewMemoryStore()
	return &scoringFixture{
		store: st,
		bus:   bus,
		proc:  NewProcessor(st, bus, graph.NewCache(st), 1.0),
	}
}

func (f *scoringFixture) seedTwoTier(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.UpsertCompany(ctx, &models.Company{
		ID:                  "co-1",
		Name:                "Volt Motors",
		RawMaterials:        []string{"lithium"},
		MaterialCriticality: map[string]float64{"lithium": 10},
		InventoryDays:       map[string]float64{"lithium": 15},
	}))
	require.NoError(t, f.store.UpsertSupplier(ctx, &models.Supplier{
		ID: "sup-x", Name: "X Components", Tier: 1, SupplyVolumePct: 65,
		Materials: []string{"lithium"}, Status: models.StatusActive,
		Upstream: []models.UpstreamSupplier{{Name: "Y Materials", SupplyVolumePct: 100}},
	}))
	require.NoError(t, f.store.UpsertSupplier(ctx, &models.Supplier{
		ID: "sup-y", Name: "Y Materials", Tier: 2, SupplyVolumePct: 100,
		Materials: []string{"lithium brine"}, Status: models.StatusActive,
	}))
}

func (f *scoringFixture) drainRiskScores(t *testing.T) []stream.Entry {
	t.Helper()
	entries, err := f.bus.Consume(context.Background(), stream.StreamRiskScores,
		stream.GroupAlerting, "probe", 20*time.Millisecond, 10)
	require.NoError(t, err)
	return entries
}

func TestHandleScoresAndPublishes(t *testing.T) {
	f := newScoringFixture(t)
	f.seedTwoTier(t)
	ctx := context.Background()

	event := &models.RiskEvent{
		ID:            "evt-1",
		ArticleID:     "fp-1",
		IsRisk:        true,
		RiskType:      models.RiskSupplyDisrupt,
		AffectedNodes: []string{"X Components"},
		Severity:      models.SeverityHigh,
		Confirmation:  models.Confirmed,
		TimeHorizon:   models.HorizonDays,
	}
	require.NoError(t, f.store.InsertRiskEvent(ctx, event))

	err := f.proc.Handle(ctx, stream.Entry{ID: "1-0", Fields: map[string]string{"risk_event_id": "evt-1"}})
	require.NoError(t, err)

	scored, err := f.store.GetRiskEvent(ctx, "evt-1")
	require.NoError(t, err)
	require.True(t, scored.Scored())
	assert.InDelta(t, 5.20, scored.RiskScore, 0.01)
	assert.Equal(t, models.BandMedium, scored.SeverityBand)
	assert.InDelta(t, 0.80, scored.Components.Probability, 1e-9)
	assert.InDelta(t, 1.0, scored.Components.Mitigation, 1e-9, "no other supplier shares the material")

	// Origin recorded in the propagation map.
	assert.InDelta(t, scored.RiskScore, scored.Propagation["sup-x"], 1e-9)

	// Touched suppliers carry the propagated score.
	sup, err := f.store.GetSupplier(ctx, "sup-x")
	require.NoError(t, err)
	assert.InDelta(t, scored.RiskScore, sup.RiskScoreCurrent, 1e-9)

	entries := f.drainRiskScores(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "evt-1", entries[0].Fields["risk_event_id"])
}

func TestHandleRedeliveryRepublishesAndDedupes(t *testing.T) {
	f := newScoringFixture(t)
	f.seedTwoTier(t)
	ctx := context.Background()

	event := &models.RiskEvent{
		ID: "evt-1", ArticleID: "fp-1", IsRisk: true,
		AffectedNodes: []string{"X Components"},
		Severity:      models.SeverityHigh, Confirmation: models.Confirmed,
		TimeHorizon: models.HorizonDays,
	}
	require.NoError(t, f.store.InsertRiskEvent(ctx, event))

	entry := stream.Entry{ID: "1-0", Fields: map[string]string{"risk_event_id": "evt-1"}}
	require.NoError(t, f.proc.Handle(ctx, entry))

	// Redelivery of an already-scored event re-emits and reports duplicate.
	err := f.proc.Handle(ctx, entry)
	assert.ErrorIs(t, err, pipeline.ErrDuplicate)
	assert.Len(t, f.drainRiskScores(t), 2)
}

func TestHandleMissingEventIsPermanent(t *testing.T) {
	f := newScoringFixture(t)
	f.seedTwoTier(t)

	err := f.proc.Handle(context.Background(), stream.Entry{ID: "1-0", Fields: map[string]string{"risk_event_id": "ghost"}})
	assert.True(t, pipeline.IsPermanent(err))

	err = f.proc.Handle(context.Background(), stream.Entry{ID: "1-1", Fields: map[string]string{}})
	assert.True(t, pipeline.IsPermanent(err))
}

func TestHandleUnlinkableSupplierScoresZeroImpact(t *testing.T) {
	f := newScoringFixture(t)
	f.seedTwoTier(t)
	ctx := context.Background()

	event := &models.RiskEvent{
		ID: "evt-1", ArticleID: "fp-1", IsRisk: true,
		AffectedNodes: []string{"Unknown Supplier GmbH"},
		Severity:      models.SeverityCritical, Confirmation: models.Confirmed,
		TimeHorizon: models.HorizonImmediate,
	}
	require.NoError(t, f.store.InsertRiskEvent(ctx, event))

	require.NoError(t, f.proc.Handle(ctx, stream.Entry{ID: "1-0", Fields: map[string]string{"risk_event_id": "evt-1"}}))

	scored, err := f.store.GetRiskEvent(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, scored.RiskScore, "unlinkable supplier means zero dependency ratio")
	assert.Equal(t, models.BandLow, scored.SeverityBand)
	assert.Empty(t, scored.Propagation)

	// Still emitted so the alerting stage can observe and drop it.
	assert.Len(t, f.drainRiskScores(t), 1)
}

func TestHandleTwoTierPropagationUpdatesDownstream(t *testing.T) {
	f := newScoringFixture(t)
	f.seedTwoTier(t)
	ctx := context.Background()

	// Risk originates at the tier-2 supplier with full volume.
	event := &models.RiskEvent{
		ID: "evt-1", ArticleID: "fp-1", IsRisk: true,
		AffectedNodes: []string{"Y Materials"},
		Severity:      models.SeverityCritical, Confirmation: models.Confirmed,
		TimeHorizon: models.HorizonImmediate,
	}
	require.NoError(t, f.store.InsertRiskEvent(ctx, event))

	require.NoError(t, f.proc.Handle(ctx, stream.Entry{ID: "1-0", Fields: map[string]string{"risk_event_id": "evt-1"}}))

	scored, err := f.store.GetRiskEvent(ctx, "evt-1")
	require.NoError(t, err)

	// Weight 1.0 into the tier-1 node preserves the score; 0.65 toward
	// the company attenuates it.
	assert.InDelta(t, scored.RiskScore, scored.Propagation["sup-y"], 1e-9)
	assert.InDelta(t, scored.RiskScore, scored.Propagation["sup-x"], 1e-9)
	assert.InDelta(t, scored.RiskScore*0.65, scored.Propagation["co-1"], 1e-9)

	supX, err := f.store.GetSupplier(ctx, "sup-x")
	require.NoError(t, err)
	assert.InDelta(t, scored.RiskScore, supX.RiskScoreCurrent, 1e-9)
}
