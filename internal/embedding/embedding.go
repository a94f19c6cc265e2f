package embedding

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"manual-rag/internal/config"
	"manual-rag/internal/models"
)

// NewEmbedder creates a batched embedder for the configured provider. The
// resulting embedder must be used for both ingest and query; the vector
// dimension is fixed by the model for the lifetime of a collection.
func NewEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithBatchSize(models.EmbedBatchSize))
	if err != nil {
		return nil, fmt.Errorf("%w: creating embedder: %v", models.ErrConfiguration, err)
	}
	return embedder, nil
}

func newClient(cfg *config.LLMConfig) (embeddings.EmbedderClient, error) {
	switch cfg.Provider {
	case "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: initializing ollama embedder: %v", models.ErrConfiguration, err)
		}
		return llm, nil
	case "openai":
		llm, err := openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
			openai.WithEmbeddingModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: initializing openai embedder: %v", models.ErrConfiguration, err)
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", models.ErrConfiguration, cfg.Provider)
	}
}
