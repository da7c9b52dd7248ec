// Package config loads and validates chainwatch configuration from YAML
// plus environment variables.
package config

import (
	"time"
)

// Config is the resolved application configuration.
type Config struct {
	Redis     RedisConfig     `yaml:"redis"`
	Database  DatabaseConfig  `yaml:"database"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Extract   ExtractConfig   `yaml:"extraction"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Alerting  AlertingConfig  `yaml:"alerting"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	LLM       LLMConfig       `yaml:"llm"`
	HTTP      HTTPConfig      `yaml:"http"`
	Slack     SlackConfig     `yaml:"slack"`
}

// RedisConfig locates the stream substrate.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DatabaseConfig holds connection settings for the event store. The DSN is
// assembled by pkg/database; credentials come from the environment.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// IngestionConfig controls the connector scheduler and dedup.
type IngestionConfig struct {
	FetchIntervalMinutes int    `yaml:"fetch_interval_minutes"`
	DedupTTLSeconds      int    `yaml:"dedup_ttl_seconds"`
	MaxStreamLen         int64  `yaml:"max_stream_len"`
	NewsAPIKeyEnv        string `yaml:"newsapi_key_env"`
}

// FetchInterval returns the scheduler period.
func (c IngestionConfig) FetchInterval() time.Duration {
	return time.Duration(c.FetchIntervalMinutes) * time.Minute
}

// DedupTTL returns the fingerprint retention window.
func (c IngestionConfig) DedupTTL() time.Duration {
	return time.Duration(c.DedupTTLSeconds) * time.Second
}

// ExtractConfig controls the relevance gate and model tier selection.
type ExtractConfig struct {
	RelevanceThreshold float64 `yaml:"relevance_threshold"`
	ModelTier          string  `yaml:"extraction_model_tier"` // fast | capable | auto
}

// ScoringConfig controls propagation.
type ScoringConfig struct {
	PropagationThreshold float64 `yaml:"propagation_threshold"`
}

// AlertingConfig controls alert creation.
type AlertingConfig struct {
	AlertThreshold float64 `yaml:"alert_threshold"`
	MaxAlternates  int     `yaml:"max_alternates"`
}

// PipelineConfig sizes the stage worker pools and consume/claim behavior.
type PipelineConfig struct {
	WorkerBatchSize   int64 `yaml:"worker_batch_size"`
	WorkerBlockMs     int   `yaml:"worker_block_ms"`
	ClaimMinIdleMs    int   `yaml:"claim_min_idle_ms"`
	MessageDeadlineMs int   `yaml:"message_deadline_ms"`
	ExtractionWorkers int   `yaml:"extraction_workers"`
	ScoringWorkers    int   `yaml:"scoring_workers"`
	AlertingWorkers   int   `yaml:"alerting_workers"`
}

// WorkerBlock returns the consume block timeout.
func (c PipelineConfig) WorkerBlock() time.Duration {
	return time.Duration(c.WorkerBlockMs) * time.Millisecond
}

// ClaimMinIdle returns the pending-reclaim threshold.
func (c PipelineConfig) ClaimMinIdle() time.Duration {
	return time.Duration(c.ClaimMinIdleMs) * time.Millisecond
}

// MessageDeadline returns the per-message processing budget.
func (c PipelineConfig) MessageDeadline() time.Duration {
	return time.Duration(c.MessageDeadlineMs) * time.Millisecond
}

// LLMConfig selects models and external-call timeouts.
type LLMConfig struct {
	Provider           string `yaml:"provider"`
	FastModel          string `yaml:"fast_model"`
	CapableModel       string `yaml:"capable_model"`
	EmbeddingModel     string `yaml:"embedding_model"`
	APIKeyEnv          string `yaml:"api_key_env"`
	LLMTimeoutMs       int    `yaml:"llm_timeout_ms"`
	EmbeddingTimeoutMs int    `yaml:"embedding_timeout_ms"`
}

// LLMTimeout returns the per-call completion timeout.
func (c LLMConfig) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutMs) * time.Millisecond
}

// EmbeddingTimeout returns the per-call embedding timeout.
func (c LLMConfig) EmbeddingTimeout() time.Duration {
	return time.Duration(c.EmbeddingTimeoutMs) * time.Millisecond
}

// HTTPConfig holds the query surface settings.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// SlackConfig holds the notification sink settings.
type SlackConfig struct {
	Enabled               bool   `yaml:"enabled"`
	TokenEnv              string `yaml:"token_env"`
	Channel               string `yaml:"channel"`
	NotificationTimeoutMs int    `yaml:"notification_timeout_ms"`
}

// NotificationTimeout returns the per-call webhook timeout.
func (c SlackConfig) NotificationTimeout() time.Duration {
	return time.Duration(c.NotificationTimeoutMs) * time.Millisecond
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "chainwatch",
			Name:    "chainwatch",
			SSLMode: "disable",
		},
		Ingestion: IngestionConfig{
			FetchIntervalMinutes: 15,
			DedupTTLSeconds:      172800,
			MaxStreamLen:         10000,
			NewsAPIKeyEnv:        "NEWSAPI_KEY",
		},
		Extract: ExtractConfig{
			RelevanceThreshold: 0.30,
			ModelTier:          "auto",
		},
		Scoring: ScoringConfig{
			PropagationThreshold: 1.0,
		},
		Alerting: AlertingConfig{
			AlertThreshold: 3.0,
			MaxAlternates:  5,
		},
		Pipeline: PipelineConfig{
			WorkerBatchSize:   10,
			WorkerBlockMs:     5000,
			ClaimMinIdleMs:    300000,
			MessageDeadlineMs: 60000,
			ExtractionWorkers: 2,
			ScoringWorkers:    2,
			AlertingWorkers:   2,
		},
		LLM: LLMConfig{
			Provider:           "openai",
			FastModel:          "gpt-4o-mini",
			CapableModel:       "gpt-4o",
			EmbeddingModel:     "text-embedding-3-small",
			APIKeyEnv:          "OPENAI_API_KEY",
			LLMTimeoutMs:       30000,
			EmbeddingTimeoutMs: 10000,
		},
		HTTP: HTTPConfig{
			Port: 8080,
		},
		Slack: SlackConfig{
			TokenEnv:              "SLACK_BOT_TOKEN",
			Channel:               "#supply-chain-alerts",
			NotificationTimeoutMs: 5000,
		},
	}
}
