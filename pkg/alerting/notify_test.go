package alerting

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	goslack "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwatch/chainwatch/pkg/config"
	"github.com/chainwatch/chainwatch/pkg/models"
	"github.com/chainwatch/chainwatch/pkg/pipeline"
	"github.com/chainwatch/chainwatch/pkg/store"
	"github.com/chainwatch/chainwatch/pkg/stream"
)

func sampleAlert() *models.Alert {
	return &models.Alert{
		ID:                "alert-1",
		RiskEventID:       "evt-1",
		SeverityBand:      models.BandHigh,
		RiskScore:         7.4,
		Title:             "natural disaster risk affecting Andes Lithium Co",
		Description:       "Mine operations suspended after the earthquake.",
		AffectedSuppliers: []string{"Andes Lithium Co"},
		AffectedMaterials: []string{"lithium"},
		Alternates: []models.Alternate{
			{Name: "Outback Lithium", Country: "Australia", Score: 7.9, LeadTimeWeeks: 4},
		},
		Recommendation: "Activate alternate supplier Outback Lithium from Australia; lead time 4w.",
	}
}

func TestBuildAlertMessage(t *testing.T) {
	blocks := BuildAlertMessage(sampleAlert())

	require.Len(t, blocks, 4)

	header := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, header.Text.Text, ":red_circle:")
	assert.Contains(t, header.Text.Text, "natural disaster risk affecting Andes Lithium Co")
	assert.Contains(t, header.Text.Text, "7.40")

	details := blocks[1].(*goslack.SectionBlock)
	assert.Contains(t, details.Text.Text, "Andes Lithium Co")
	assert.Contains(t, details.Text.Text, "lithium")
	assert.Contains(t, details.Text.Text, "Mine operations suspended")

	alternates := blocks[2].(*goslack.SectionBlock)
	assert.Contains(t, alternates.Text.Text, "Outback Lithium")
	assert.Contains(t, alternates.Text.Text, "lead time 4w")

	recommendation := blocks[3].(*goslack.SectionBlock)
	assert.Contains(t, recommendation.Text.Text, "Activate alternate supplier")
}

func TestBuildAlertMessageMinimal(t *testing.T) {
	blocks := BuildAlertMessage(&models.Alert{
		SeverityBand: models.BandLow,
		RiskScore:    1.2,
		Title:        "operational risk detected",
	})

	require.Len(t, blocks, 1, "empty sections omitted")
	header := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, header.Text.Text, "operational risk detected")
}

func TestNotifierHandlePostsMessage(t *testing.T) {
	posted := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.URL.Path, "chat.postMessage")
		assert.Equal(t, "#supply-chain-alerts", r.Form.Get("channel"))
		posted++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "channel": "C123", "ts": "1724500000.000100"}`))
	}))
	defer srv.Close()

	st := store.NewMemoryStore()
	require.NoError(t, st.InsertAlert(context.Background(), sampleAlert()))

	n := NewNotifierWithAPIURL(st, "xoxb-test", srv.URL+"/", config.Default().Slack)

	err := n.Handle(context.Background(), stream.Entry{Fields: map[string]string{"alert_id": "alert-1"}})
	require.NoError(t, err)
	assert.Equal(t, 1, posted)
}

func TestNotifierHandleMissingAlertIsPermanent(t *testing.T) {
	n := NewNotifier(store.NewMemoryStore(), "xoxb-test", config.Default().Slack)

	err := n.Handle(context.Background(), stream.Entry{Fields: map[string]string{"alert_id": "missing"}})
	require.Error(t, err)
	assert.True(t, pipeline.IsPermanent(err))

	err = n.Handle(context.Background(), stream.Entry{Fields: map[string]string{}})
	require.Error(t, err)
	assert.True(t, pipeline.IsPermanent(err))
}

func TestNotifierHandleAPIFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": false, "error": "ratelimited"}`))
	}))
	defer srv.Close()

	st := store.NewMemoryStore()
	require.NoError(t, st.InsertAlert(context.Background(), sampleAlert()))

	n := NewNotifierWithAPIURL(st, "xoxb-test", srv.URL+"/", config.Default().Slack)

	err := n.Handle(context.Background(), stream.Entry{Fields: map[string]string{"alert_id": "alert-1"}})
	require.Error(t, err)
	assert.False(t, pipeline.IsPermanent(err), "rate limits retry on redelivery")
}
