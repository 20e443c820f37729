package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppConfig is the startup configuration read once from config.yaml.
// Model identity, chunking policy and retrieval depth are fixed for the
// lifetime of the process; changing the embedding model requires clearing
// the vector store and re-ingesting.
type AppConfig struct {
	ChatConfig  ChatConfig        `yaml:"chat_config"`
	Splitter    SplitterConfig    `yaml:"pdf_text_splitter"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	LLM         LLMConfig         `yaml:"llm"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	History     HistoryConfig     `yaml:"history"`
	MCP         MCPConfig         `yaml:"mcp"`
}

type ChatConfig struct {
	ChatMemoryLength   int `yaml:"chat_memory_length"`
	RetrievedDocuments int `yaml:"number_of_retrieved_documents"`
}

type SplitterConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

type EmbedderConfig struct {
	Backend   string `yaml:"backend"` // "ollama" or "openai"
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension"`
}

type LLMConfig struct {
	Backend   string `yaml:"backend"` // "ollama" or "gemini"
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
}

type VectorStoreConfig struct {
	Backend    string `yaml:"backend"` // "sqlite" or "qdrant"
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
}

type HistoryConfig struct {
	Backend string `yaml:"backend"` // "sqlite" or "redis"
	Path    string `yaml:"path"`
}

type MCPConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// LoadAppConfig reads the yaml config from path. A missing file yields the
// defaults, any other read or parse failure is an error.
func LoadAppConfig(path string) (*AppConfig, error) {
	cfg := defaultAppConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	applyDefaults(cfg)

	if cfg.Splitter.ChunkSize <= 0 {
		return nil, fmt.Errorf("config: chunk_size must be positive, got %d", cfg.Splitter.ChunkSize)
	}
	if cfg.Splitter.Overlap < 0 || cfg.Splitter.Overlap >= cfg.Splitter.ChunkSize {
		return nil, fmt.Errorf("config: overlap must be in [0,chunk_size), got %d", cfg.Splitter.Overlap)
	}
	return cfg, nil
}

func defaultAppConfig() *AppConfig {
	return &AppConfig{
		ChatConfig: ChatConfig{
			ChatMemoryLength:   5,
			RetrievedDocuments: 3,
		},
		Splitter: SplitterConfig{
			ChunkSize: 500,
			Overlap:   50,
		},
		Embedder: EmbedderConfig{
			Backend:   "ollama",
			Model:     "bge-m3:latest",
			BaseURL:   "http://127.0.0.1:11434",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1024,
		},
		LLM: LLMConfig{
			Backend:   "ollama",
			Model:     "qwen2.5:latest",
			BaseURL:   "http://127.0.0.1:11434",
			APIKeyEnv: "GEMINI_API_KEY",
		},
		VectorStore: VectorStoreConfig{
			Backend:    "sqlite",
			Path:       "vector_data",
			Collection: "docchat",
		},
		History: HistoryConfig{
			Backend: "sqlite",
			Path:    "chat_sessions/chat_history.db",
		},
		MCP: MCPConfig{
			Enabled:    false,
			ListenAddr: ":3001",
		},
	}
}

func applyDefaults(cfg *AppConfig) {
	def := defaultAppConfig()
	if cfg.ChatConfig.ChatMemoryLength == 0 {
		cfg.ChatConfig.ChatMemoryLength = def.ChatConfig.ChatMemoryLength
	}
	if cfg.ChatConfig.RetrievedDocuments == 0 {
		cfg.ChatConfig.RetrievedDocuments = def.ChatConfig.RetrievedDocuments
	}
	if cfg.Splitter.ChunkSize == 0 {
		cfg.Splitter = def.Splitter
	}
	if cfg.Embedder.Backend == "" {
		cfg.Embedder.Backend = def.Embedder.Backend
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = def.Embedder.Model
	}
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = def.Embedder.BaseURL
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = def.Embedder.APIKeyEnv
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = def.Embedder.Dimension
	}
	if cfg.LLM.Backend == "" {
		cfg.LLM.Backend = def.LLM.Backend
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = def.LLM.Model
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = def.LLM.BaseURL
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = def.LLM.APIKeyEnv
	}
	if cfg.VectorStore.Backend == "" {
		cfg.VectorStore.Backend = def.VectorStore.Backend
	}
	if cfg.VectorStore.Path == "" {
		cfg.VectorStore.Path = def.VectorStore.Path
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = def.VectorStore.Collection
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = def.History.Backend
	}
	if cfg.History.Path == "" {
		cfg.History.Path = def.History.Path
	}
	if cfg.MCP.ListenAddr == "" {
		cfg.MCP.ListenAddr = def.MCP.ListenAddr
	}
}
