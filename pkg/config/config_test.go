package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 15*time.Minute, cfg.Ingestion.FetchInterval())
	assert.Equal(t, 48*time.Hour, cfg.Ingestion.DedupTTL())
	assert.Equal(t, 0.30, cfg.Extract.RelevanceThreshold)
	assert.Equal(t, 3.0, cfg.Alerting.AlertThreshold)
	assert.Equal(t, 1.0, cfg.Scoring.PropagationThreshold)
	assert.Equal(t, int64(10), cfg.Pipeline.WorkerBatchSize)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.WorkerBlock())
	assert.Equal(t, 5*time.Minute, cfg.Pipeline.ClaimMinIdle())
	assert.Equal(t, time.Minute, cfg.Pipeline.MessageDeadline())
	assert.Equal(t, 30*time.Second, cfg.LLM.LLMTimeout())
	assert.Equal(t, 10*time.Second, cfg.LLM.EmbeddingTimeout())
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chainwatch.yaml")
	data := []byte(`
extraction:
  relevance_threshold: 0.5
alerting:
  alert_threshold: 4.5
pipeline:
  worker_batch_size: 25
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Extract.RelevanceThreshold)
	assert.Equal(t, 4.5, cfg.Alerting.AlertThreshold)
	assert.Equal(t, int64(25), cfg.Pipeline.WorkerBatchSize)
	// Untouched sections keep defaults.
	assert.Equal(t, 15, cfg.Ingestion.FetchIntervalMinutes)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relevance out of range", func(c *Config) { c.Extract.RelevanceThreshold = 1.5 }},
		{"bad model tier", func(c *Config) { c.Extract.ModelTier = "psychic" }},
		{"negative alert threshold", func(c *Config) { c.Alerting.AlertThreshold = -1 }},
		{"zero batch size", func(c *Config) { c.Pipeline.WorkerBatchSize = 0 }},
		{"zero fetch interval", func(c *Config) { c.Ingestion.FetchIntervalMinutes = 0 }},
		{"zero dedup ttl", func(c *Config) { c.Ingestion.DedupTTLSeconds = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
