package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML config at path, layered over the built-in defaults.
// A missing file is not an error; the defaults are used as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("No config file found, using defaults", "path", path)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	slog.Info("Configuration loaded", "path", path)
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Extract.RelevanceThreshold < 0 || c.Extract.RelevanceThreshold > 1 {
		return fmt.Errorf("relevance_threshold %v outside [0,1]", c.Extract.RelevanceThreshold)
	}
	switch c.Extract.ModelTier {
	case "fast", "capable", "auto":
	default:
		return fmt.Errorf("extraction_model_tier must be fast, capable or auto, got %q", c.Extract.ModelTier)
	}
	if c.Alerting.AlertThreshold < 0 {
		return fmt.Errorf("alert_threshold must be non-negative, got %v", c.Alerting.AlertThreshold)
	}
	if c.Pipeline.WorkerBatchSize <= 0 {
		return fmt.Errorf("worker_batch_size must be positive, got %d", c.Pipeline.WorkerBatchSize)
	}
	if c.Ingestion.FetchIntervalMinutes <= 0 {
		return fmt.Errorf("fetch_interval_minutes must be positive, got %d", c.Ingestion.FetchIntervalMinutes)
	}
	if c.Ingestion.DedupTTLSeconds <= 0 {
		return fmt.Errorf("dedup_ttl_seconds must be positive, got %d", c.Ingestion.DedupTTLSeconds)
	}
	return nil
}
