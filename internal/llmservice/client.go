package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"manual-rag/internal/config"
	"manual-rag/internal/models"
)

// Client wraps a chat model with fixed decoding parameters. Low temperature
// keeps answers close to the supplied context.
type Client struct {
	llm         llms.Model
	temperature float64
	maxTokens   int
	topP        float64
}

func NewClient(cfg *config.LLMConfig, rag *config.RAGConfig) (*Client, error) {
	var llm llms.Model
	var err error
	switch cfg.Provider {
	case "ollama":
		llm, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case "openai":
		llm, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("%w: unknown chat provider %q", models.ErrConfiguration, cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: initializing chat model: %v", models.ErrConfiguration, err)
	}

	return &Client{
		llm:         llm,
		temperature: rag.Temperature,
		maxTokens:   rag.MaxTokens,
		topP:        rag.TopP,
	}, nil
}

// Complete runs one chat completion with a system and a user turn.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: systemPrompt}},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: userPrompt}},
		},
	}

	res, err := c.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(c.temperature),
		llms.WithMaxTokens(c.maxTokens),
		llms.WithTopP(c.topP),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGeneration, err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("%w: model returned no choices", models.ErrGeneration)
	}
	return strings.TrimSpace(res.Choices[0].Content), nil
}
