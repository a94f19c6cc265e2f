package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"manual-rag/internal/models"
)

type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	ChatLLM  LLMConfig      `yaml:"chat_llm"`
	RAG      RAGConfig      `yaml:"rag"`
}

// StoreConfig selects and locates the vector index backend.
type StoreConfig struct {
	Backend    string `yaml:"backend"` // "chromem" (default) or "postgres"
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	InMemory   bool   `yaml:"in_memory"`
}

// DatabaseConfig is only used with the postgres backend.
type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"` // "ollama" or "openai"
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type RAGConfig struct {
	ChunkSize     int     `yaml:"chunk_size"`
	OverlapWords  int     `yaml:"overlap_words"`
	TopK          int     `yaml:"top_k"`
	Temperature   float64 `yaml:"temperature"`
	MaxTokens     int     `yaml:"max_tokens"`
	TopP          float64 `yaml:"top_p"`
	EncryptionKey string  `yaml:"encryption_key"`
}

const (
	defaultTemperature = 0.3
	defaultMaxTokens   = 500
	defaultTopP        = 0.9
)

// LoadConfig reads the YAML config, overlays credentials from the environment
// (a .env file is honored when present) and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfiguration, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfiguration, err)
	}

	_ = godotenv.Load()
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		if cfg.ChatLLM.Key == "" {
			cfg.ChatLLM.Key = key
		}
		if cfg.EmbedLLM.Key == "" {
			cfg.EmbedLLM.Key = key
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = "chromem"
	}
	if c.Store.Path == "" {
		c.Store.Path = "./data/chromemdb"
	}
	if c.Store.Collection == "" {
		c.Store.Collection = "manual_chunks"
	}
	if c.RAG.ChunkSize <= 0 {
		c.RAG.ChunkSize = models.DefaultChunkSize
	}
	if c.RAG.OverlapWords <= 0 {
		c.RAG.OverlapWords = models.DefaultOverlapWords
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = models.DefaultTopK
	}
	if c.RAG.Temperature <= 0 {
		c.RAG.Temperature = defaultTemperature
	}
	if c.RAG.MaxTokens <= 0 {
		c.RAG.MaxTokens = defaultMaxTokens
	}
	if c.RAG.TopP <= 0 {
		c.RAG.TopP = defaultTopP
	}
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "chromem":
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("%w: postgres backend requires database.dsn", models.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q", models.ErrConfiguration, c.Store.Backend)
	}
	for name, llm := range map[string]*LLMConfig{"embed_llm": &c.EmbedLLM, "chat_llm": &c.ChatLLM} {
		if llm.Model == "" {
			return fmt.Errorf("%w: %s.model is required", models.ErrConfiguration, name)
		}
		switch llm.Provider {
		case "ollama":
		case "openai":
			if llm.Key == "" {
				return fmt.Errorf("%w: %s uses an openai-compatible provider but no key is set (set %s.key or OPENROUTER_API_KEY)", models.ErrConfiguration, name, name)
			}
		default:
			return fmt.Errorf("%w: unknown %s.provider %q", models.ErrConfiguration, name, llm.Provider)
		}
	}
	return nil
}
