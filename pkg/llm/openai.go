package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/chainwatch/chainwatch/pkg/config"
)

// OpenAIProvider implements Client and Embedder on the OpenAI API through
// langchaingo. Two completion models are held open, one per tier.
type OpenAIProvider struct {
	fast    *openai.LLM
	capable *openai.LLM
	timeout config.LLMConfig
}

// NewOpenAIProvider builds the provider from config. The API key is read
// from the environment variable named in cfg.APIKeyEnv.
func NewOpenAIProvider(cfg config.LLMConfig) (*OpenAIProvider, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key: set %s", cfg.APIKeyEnv)
	}

	fast, err := openai.New(
		openai.WithToken(key),
		openai.WithModel(cfg.FastModel),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("building fast model client: %w", err)
	}

	capable, err := openai.New(
		openai.WithToken(key),
		openai.WithModel(cfg.CapableModel),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("building capable model client: %w", err)
	}

	slog.Info("LLM provider configured",
		"provider", cfg.Provider,
		"fast_model", cfg.FastModel,
		"capable_model", cfg.CapableModel,
		"embedding_model", cfg.EmbeddingModel)

	return &OpenAIProvider{fast: fast, capable: capable, timeout: cfg}, nil
}

// Complete runs a single-prompt completion against the tiered model.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	model := p.fast
	if opts.Tier == TierCapable {
		model = p.capable
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout.LLMTimeout())
	defer cancel()

	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if opts.JSONMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, model, prompt, callOpts...)
	if err != nil {
		return "", fmt.Errorf("completion with %s tier: %w", opts.Tier, err)
	}
	return out, nil
}

// Embed returns the embedding vector for a single text.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout.EmbeddingTimeout())
	defer cancel()

	vectors, err := p.fast.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding text: provider returned no vectors")
	}
	return vectors[0], nil
}
