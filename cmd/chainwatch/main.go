// Chainwatch server: runs the ingestion scheduler, the pipeline stages
// (extraction, scoring, alerting, notification) and the HTTP query API.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chainwatch/chainwatch/pkg/alerting"
	"github.com/chainwatch/chainwatch/pkg/api"
	"github.com/chainwatch/chainwatch/pkg/config"
	"github.com/chainwatch/chainwatch/pkg/database"
	"github.com/chainwatch/chainwatch/pkg/extract"
	"github.com/chainwatch/chainwatch/pkg/graph"
	"github.com/chainwatch/chainwatch/pkg/ingest"
	"github.com/chainwatch/chainwatch/pkg/llm"
	"github.com/chainwatch/chainwatch/pkg/pipeline"
	"github.com/chainwatch/chainwatch/pkg/scoring"
	"github.com/chainwatch/chainwatch/pkg/store"
	"github.com/chainwatch/chainwatch/pkg/stream"
	"github.com/chainwatch/chainwatch/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configPath := flag.String("config",
		getEnv("CHAINWATCH_CONFIG", "./config/chainwatch.yaml"),
		"Path to the YAML configuration file")
	profilePath := flag.String("profile",
		getEnv("CHAINWATCH_PROFILE", "./config/profile.yaml"),
		"Path to the company profile seed file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment", "error", err)
	}

	slog.Info("Starting chainwatch",
		"version", version.Full(),
		"config", *configPath,
		"profile", *profilePath)

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Database: YAML supplies defaults, DB_* env vars override.
	dbConfig, err := database.LoadConfigFromEnv(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		slog.Error("Failed to load database config", "error", err)
		os.Exit(1)
	}

	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("Error closing database client", "error", err)
		}
	}()
	slog.Info("Connected to PostgreSQL database")

	st := store.NewPostgresStore(dbClient.DB())

	if err := store.SeedFromFile(ctx, st, *profilePath); err != nil {
		slog.Error("Failed to seed company profile", "error", err)
		os.Exit(1)
	}

	bus, err := stream.NewRedisBus(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			slog.Error("Error closing stream bus", "error", err)
		}
	}()
	slog.Info("Connected to Redis streams", "addr", cfg.Redis.Addr)

	// LLM provider with retry and circuit breaking.
	provider, err := llm.NewOpenAIProvider(cfg.LLM)
	if err != nil {
		slog.Error("Failed to initialize LLM provider", "error", err)
		os.Exit(1)
	}
	client := llm.NewResilientClient(provider)
	embedder := llm.NewResilientEmbedder(provider)

	registry := prometheus.NewRegistry()
	metrics := pipeline.NewMetrics(registry)

	// Pipeline stages, upstream to downstream.
	extractStage := pipeline.NewStage(pipeline.StageConfig{
		Name:            "extraction",
		Stream:          stream.StreamNormalizedEvents,
		Group:           stream.GroupExtraction,
		Workers:         cfg.Pipeline.ExtractionWorkers,
		BatchSize:       cfg.Pipeline.WorkerBatchSize,
		Block:           cfg.Pipeline.WorkerBlock(),
		ClaimMinIdle:    cfg.Pipeline.ClaimMinIdle(),
		MessageDeadline: cfg.Pipeline.MessageDeadline(),
	}, bus, metrics, extract.NewProcessor(st, bus, client, embedder, cfg.Extract).Handle)

	graphs := graph.NewCache(st)
	scoringStage := pipeline.NewStage(pipeline.StageConfig{
		Name:            "scoring",
		Stream:          stream.StreamRiskEntities,
		Group:           stream.GroupScoring,
		Workers:         cfg.Pipeline.ScoringWorkers,
		BatchSize:       cfg.Pipeline.WorkerBatchSize,
		Block:           cfg.Pipeline.WorkerBlock(),
		ClaimMinIdle:    cfg.Pipeline.ClaimMinIdle(),
		MessageDeadline: cfg.Pipeline.MessageDeadline(),
	}, bus, metrics, scoring.NewProcessor(st, bus, graphs, cfg.Scoring.PropagationThreshold).Handle)

	alertingStage := pipeline.NewStage(pipeline.StageConfig{
		Name:            "alerting",
		Stream:          stream.StreamRiskScores,
		Group:           stream.GroupAlerting,
		Workers:         cfg.Pipeline.AlertingWorkers,
		BatchSize:       cfg.Pipeline.WorkerBatchSize,
		Block:           cfg.Pipeline.WorkerBlock(),
		ClaimMinIdle:    cfg.Pipeline.ClaimMinIdle(),
		MessageDeadline: cfg.Pipeline.MessageDeadline(),
	}, bus, metrics, alerting.NewProcessor(st, bus, client, cfg.Alerting).Handle)

	stages := []*pipeline.Stage{extractStage, scoringStage, alertingStage}

	if cfg.Slack.Enabled {
		token := os.Getenv(cfg.Slack.TokenEnv)
		if token == "" {
			slog.Error("Slack notifications enabled but token env var is empty", "env", cfg.Slack.TokenEnv)
			os.Exit(1)
		}
		notifyStage := pipeline.NewStage(pipeline.StageConfig{
			Name:            "notification",
			Stream:          stream.StreamNewAlerts,
			Group:           stream.GroupNotify,
			Workers:         1,
			BatchSize:       cfg.Pipeline.WorkerBatchSize,
			Block:           cfg.Pipeline.WorkerBlock(),
			ClaimMinIdle:    cfg.Pipeline.ClaimMinIdle(),
			MessageDeadline: cfg.Pipeline.MessageDeadline(),
		}, bus, metrics, alerting.NewNotifier(st, token, cfg.Slack).Handle)
		stages = append(stages, notifyStage)
		slog.Info("Slack notifications enabled", "channel", cfg.Slack.Channel)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, stage := range stages {
		stage.Start(runCtx)
	}

	// Ingestion scheduler.
	var connectors []ingest.Connector
	if key := os.Getenv(cfg.Ingestion.NewsAPIKeyEnv); key != "" {
		connectors = append(connectors,
			ingest.NewNewsAPIConnector(key, newsQuery(ctx, st)))
	} else {
		slog.Warn("NewsAPI key not set, ingestion runs without connectors",
			"env", cfg.Ingestion.NewsAPIKeyEnv)
	}
	ingestor := ingest.NewIngestor(bus, st, cfg.Ingestion, connectors...)
	go ingestor.Run(runCtx)

	// HTTP query surface.
	server := api.NewServer(st, dbClient, registry, cfg.HTTP.Port)
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTP.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("Chainwatch started successfully", "stages", len(stages))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	cancel()

	// Stop stages in pipeline order so in-flight work drains downstream.
	for _, stage := range stages {
		stage.Stop()
	}
	slog.Info("Pipeline stages stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// newsQuery builds the connector search query from the seeded profile:
// monitored materials plus supplier names.
func newsQuery(ctx context.Context, st store.Store) string {
	company, err := st.GetCompany(ctx)
	if err != nil {
		slog.Warn("Falling back to generic news query", "error", err)
		return "supply chain disruption"
	}
	suppliers, err := st.ListSuppliers(ctx)
	if err != nil {
		suppliers = nil
	}
	return ingest.SearchQuery(company, suppliers)
}
