package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtraction(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			name: "valid risk",
			raw: `{"is_risk": true, "risk_type": "geopolitical",
				"affected_entities": ["Taiwan"], "affected_supply_chain_nodes": ["Acme Metals"],
				"severity": "high", "is_confirmed": "confirmed", "time_horizon": "weeks",
				"reasoning": "export ban", "recommended_action": "diversify"}`,
		},
		{
			name: "markdown fenced",
			raw:  "```json\n{\"is_risk\": false}\n```",
		},
		{
			name:    "not json",
			raw:     "I think this is probably a risk to your supply chain.",
			wantErr: true,
		},
		{
			name:    "unknown severity",
			raw:     `{"is_risk": true, "risk_type": "financial", "severity": "apocalyptic", "is_confirmed": "confirmed", "time_horizon": "days"}`,
			wantErr: true,
		},
		{
			name:    "unknown risk type",
			raw:     `{"is_risk": true, "risk_type": "alien_invasion", "severity": "high", "is_confirmed": "confirmed", "time_horizon": "days"}`,
			wantErr: true,
		},
		{
			name: "non-risk skips enum validation",
			raw:  `{"is_risk": false, "risk_type": "", "severity": ""}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := ParseExtraction(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, ex)
		})
	}
}

func TestConfirmationNormalization(t *testing.T) {
	tests := []struct {
		in   string
		want Confirmation
	}{
		{"confirmed", Confirmed},
		{"true", Confirmed},
		{"false", Unconfirmed},
		{"unconfirmed", Unconfirmed},
		{"uncertain", Uncertain},
		{" Uncertain ", Uncertain},
	}
	for _, tt := range tests {
		ex := Extraction{IsConfirmed: tt.in}
		assert.Equal(t, tt.want, ex.Confirmation(), "input %q", tt.in)
	}
}

func TestSupplierHelpers(t *testing.T) {
	s := Supplier{
		Name:      "Acme Metals",
		Materials: []string{"Lithium", "Cobalt"},
		Status:    StatusPreQualified,
	}
	assert.Equal(t, "Lithium", s.PrimaryMaterial())
	assert.True(t, s.SuppliesMaterial("lithium"))
	assert.False(t, s.SuppliesMaterial("nickel"))
	assert.True(t, s.Available())

	s.Status = StatusInactive
	assert.False(t, s.Available())
}

func TestCompanyDefaults(t *testing.T) {
	c := Company{
		MaterialCriticality: map[string]float64{"Lithium": 9},
		InventoryDays:       map[string]float64{"Lithium": 15},
	}
	assert.Equal(t, 9.0, c.CriticalityFor("Lithium"))
	assert.Equal(t, 5.0, c.CriticalityFor("Unknownium"))
	assert.Equal(t, 15.0, c.BufferDaysFor("Lithium"))
	assert.Equal(t, 0.0, c.BufferDaysFor("Unknownium"))
}
