package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int               `json:"port"`
	CORSAllowlist []string          `json:"cors_allowlist"`
	LogConfig     logger.LogConfig  `json:"log_config"`
	Store         StoreConfig       `json:"store"`
	FileStore     FileStoreConfig   `json:"file_store"`
	AI            AIConfig          `json:"ai"`
	Media         MediaConfig       `json:"media"`
	Transcriber   TranscriberConfig `json:"transcriber"`
	Retrieval     RetrievalConfig   `json:"retrieval"`
	Session       SessionConfig     `json:"session"`
	EmbedCache    EmbedCacheConfig  `json:"embed_cache"`
	Cleanup       CleanupConfig     `json:"cleanup"`
}

type StoreConfig struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

type FileStoreConfig struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

type ProviderConfig struct {
	Provider string                 `json:"provider"`
	Model    string                 `json:"model"`
	Data     map[string]interface{} `json:"data"`
}

type AIConfig struct {
	Generation      []ProviderConfig `json:"generation"`
	Embedding       []ProviderConfig `json:"embedding"`
	Timeout         int              `json:"timeout"`
	MaxContextChars int              `json:"max_context_chars"`
}

type MediaConfig struct {
	Binary      string `json:"binary"`
	AudioDir    string `json:"audio_dir"`
	MaxDuration int64  `json:"max_duration"`
}

type TranscriberConfig struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	Timeout int    `json:"timeout"`
}

type RetrievalConfig struct {
	ChunkSize     int `json:"chunk_size"`
	Overlap       int `json:"overlap"`
	MinChunkChars int `json:"min_chunk_chars"`
	TopK          int `json:"top_k"`
}

type SessionConfig struct {
	MaxLibrary     int `json:"max_library"`
	MaxChatHistory int `json:"max_chat_history"`
	MaxSessions    int `json:"max_sessions"`
	TTLSeconds     int `json:"ttl_seconds"`
}

type EmbedCacheConfig struct {
	Size       int `json:"size"`
	TTLSeconds int `json:"ttl_seconds"`
}

type CleanupConfig struct {
	Cron        string `json:"cron"`
	MaxAgeHours int    `json:"max_age_hours"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.fillAndValidate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) fillAndValidate() error {
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}

	if cfg.Store.Type == "" {
		cfg.Store.Type = "sqlite"
	}
	if cfg.Store.Type == "sqlite" && cfg.Store.Data == nil {
		cfg.Store.Data = map[string]interface{}{"path": "./data/vidrag.db"}
	}

	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.FileStore.Type == "local" && cfg.FileStore.Data == nil {
		cfg.FileStore.Data = map[string]interface{}{"dir": "./data/transcripts"}
	}

	if len(cfg.AI.Generation) == 0 {
		return fmt.Errorf("ai.generation requires at least one provider")
	}
	if len(cfg.AI.Embedding) == 0 {
		return fmt.Errorf("ai.embedding requires at least one provider")
	}
	for i, p := range cfg.AI.Generation {
		if p.Provider == "" || p.Model == "" {
			return fmt.Errorf("ai.generation[%d] provider and model are required", i)
		}
	}
	for i, p := range cfg.AI.Embedding {
		if p.Provider == "" || p.Model == "" {
			return fmt.Errorf("ai.embedding[%d] provider and model are required", i)
		}
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 120
	}
	if cfg.AI.MaxContextChars <= 0 {
		cfg.AI.MaxContextChars = 30000
	}

	if cfg.Media.AudioDir == "" {
		cfg.Media.AudioDir = "./data/audio"
	}
	if cfg.Media.MaxDuration <= 0 {
		cfg.Media.MaxDuration = 7200
	}

	if cfg.Transcriber.BaseURL == "" {
		return fmt.Errorf("transcriber.base_url is required")
	}

	if cfg.Retrieval.ChunkSize <= 0 {
		cfg.Retrieval.ChunkSize = 1000
	}
	if cfg.Retrieval.Overlap <= 0 || cfg.Retrieval.Overlap >= cfg.Retrieval.ChunkSize {
		cfg.Retrieval.Overlap = 100
	}
	if cfg.Retrieval.MinChunkChars <= 0 {
		cfg.Retrieval.MinChunkChars = 10
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 3
	}

	if cfg.Session.MaxLibrary <= 0 {
		cfg.Session.MaxLibrary = 5
	}
	if cfg.Session.MaxChatHistory <= 0 {
		cfg.Session.MaxChatHistory = 20
	}
	if cfg.Session.MaxSessions <= 0 {
		cfg.Session.MaxSessions = 4096
	}
	if cfg.Session.TTLSeconds <= 0 {
		cfg.Session.TTLSeconds = 24 * 3600
	}

	if cfg.EmbedCache.Size <= 0 {
		cfg.EmbedCache.Size = 2048
	}
	if cfg.EmbedCache.TTLSeconds <= 0 {
		cfg.EmbedCache.TTLSeconds = 24 * 3600
	}

	if cfg.Cleanup.Cron == "" {
		cfg.Cleanup.Cron = "0 * * * *"
	}
	if cfg.Cleanup.MaxAgeHours <= 0 {
		cfg.Cleanup.MaxAgeHours = 6
	}
	return nil
}
