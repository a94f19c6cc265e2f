package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manual-rag/internal/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `
embed_llm:
  provider: ollama
  model: nomic-embed-text
chat_llm:
  provider: ollama
  model: llama3.1
`

func TestLoadConfigAppliesDefaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "chromem", cfg.Store.Backend)
	assert.Equal(t, "manual_chunks", cfg.Store.Collection)
	assert.Equal(t, models.DefaultChunkSize, cfg.RAG.ChunkSize)
	assert.Equal(t, models.DefaultOverlapWords, cfg.RAG.OverlapWords)
	assert.Equal(t, models.DefaultTopK, cfg.RAG.TopK)
	assert.InDelta(t, 0.3, cfg.RAG.Temperature, 1e-9)
	assert.Equal(t, 500, cfg.RAG.MaxTokens)
	assert.InDelta(t, 0.9, cfg.RAG.TopP, 1e-9)
}

func TestLoadConfigExplicitValuesKept(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	cfg, err := LoadConfig(writeConfig(t, minimalConfig+`
rag:
  chunk_size: 400
  top_k: 7
`))
	require.NoError(t, err)

	assert.Equal(t, 400, cfg.RAG.ChunkSize)
	assert.Equal(t, 7, cfg.RAG.TopK)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestLoadConfigUnknownBackend(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	_, err := LoadConfig(writeConfig(t, minimalConfig+`
store:
  backend: redis
`))
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestLoadConfigPostgresRequiresDSN(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	_, err := LoadConfig(writeConfig(t, minimalConfig+`
store:
  backend: postgres
`))
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestLoadConfigOpenAIRequiresKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	_, err := LoadConfig(writeConfig(t, `
embed_llm:
  provider: ollama
  model: nomic-embed-text
chat_llm:
  provider: openai
  model: meta-llama/llama-3.1-8b-instruct
`))
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestLoadConfigEnvKeyOverlay(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	cfg, err := LoadConfig(writeConfig(t, `
embed_llm:
  provider: ollama
  model: nomic-embed-text
chat_llm:
  provider: openai
  model: meta-llama/llama-3.1-8b-instruct
`))
	require.NoError(t, err)

	assert.Equal(t, "sk-or-test", cfg.ChatLLM.Key)
}

func TestLoadConfigEnvDoesNotOverrideExplicitKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-or-env")
	cfg, err := LoadConfig(writeConfig(t, `
embed_llm:
  provider: ollama
  model: nomic-embed-text
chat_llm:
  provider: openai
  key: sk-explicit
  model: meta-llama/llama-3.1-8b-instruct
`))
	require.NoError(t, err)

	assert.Equal(t, "sk-explicit", cfg.ChatLLM.Key)
}

func TestLoadConfigMissingModel(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	_, err := LoadConfig(writeConfig(t, `
embed_llm:
  provider: ollama
chat_llm:
  provider: ollama
  model: llama3.1
`))
	assert.ErrorIs(t, err, models.ErrConfiguration)
}
