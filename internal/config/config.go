package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  string
	LogFormat string

	// LLM provider. An empty API key and base URL means no provider is
	// configured and answers take the extractive fallback path.
	LLMBaseURL   string
	LLMModelName string
	LLMAPIKey    string

	// Embeddings provider for the optional dense retrieval mode.
	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingAPIKey    string
	EmbeddingSize      int

	// Qdrant vector store, used only when dense retrieval is on.
	QdrantURL        string
	QdrantCollection string

	// Persistent index. DocsDir empty disables startup indexing; the
	// service then runs on upload sessions only.
	DBPath  string
	DocsDir string

	SessionTTL time.Duration

	// Pipeline tuning.
	RetrievalBoost    float64
	GroundingMin      float64
	MaxK              int
	ContextBudget     int
	ContextMaxBlocks  int
	SynonymsPath      string
	AnswerTimeoutSecs int
}

// Load reads configuration from environment variables and returns a Config
// struct. It applies defaults for optional fields and validates the rest.
// A .env file in the current directory or any parent up to the project root
// is loaded first; real environment variables take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "9000"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		LLMBaseURL:         getEnv("LLM_BASE_URL", ""),
		LLMModelName:       getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", ""),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", "dummy-key"),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "chunks"),
		DBPath:             getEnv("DB_PATH", "./data/docqa.db"),
		DocsDir:            getEnv("DOCS_DIR", ""),
		SynonymsPath:       getEnv("SYNONYMS_PATH", ""),
	}

	var parseErr error
	cfg.SessionTTL = time.Duration(intEnv("SESSION_TTL_MINUTES", 60, &parseErr)) * time.Minute
	cfg.MaxK = intEnv("MAX_K", 4, &parseErr)
	cfg.ContextBudget = intEnv("CONTEXT_BUDGET_CHARS", 1600, &parseErr)
	cfg.ContextMaxBlocks = intEnv("CONTEXT_MAX_BLOCKS", 4, &parseErr)
	cfg.AnswerTimeoutSecs = intEnv("ANSWER_TIMEOUT_SECONDS", 30, &parseErr)
	cfg.EmbeddingSize = intEnv("EMBEDDING_SIZE", 0, &parseErr)
	cfg.RetrievalBoost = floatEnv("RETRIEVAL_BOOST", 0.15, &parseErr)
	cfg.GroundingMin = floatEnv("GROUNDING_MIN", 0.3, &parseErr)
	if parseErr != nil {
		return nil, parseErr
	}

	if cfg.MaxK <= 0 {
		return nil, fmt.Errorf("MAX_K must be greater than 0")
	}
	if cfg.ContextBudget <= 0 {
		return nil, fmt.Errorf("CONTEXT_BUDGET_CHARS must be greater than 0")
	}
	if cfg.EmbeddingBaseURL != "" && cfg.EmbeddingSize <= 0 {
		return nil, fmt.Errorf("EMBEDDING_SIZE is required when EMBEDDING_BASE_URL is set")
	}

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// DenseEnabled reports whether dense retrieval is configured.
func (c *Config) DenseEnabled() bool {
	return c.EmbeddingBaseURL != ""
}

// ProviderEnabled reports whether a generative provider is configured.
func (c *Config) ProviderEnabled() bool {
	return c.LLMBaseURL != ""
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intEnv(key string, defaultValue int, parseErr *error) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil && *parseErr == nil {
		*parseErr = fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v
}

func floatEnv(key string, defaultValue float64, parseErr *error) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil && *parseErr == nil {
		*parseErr = fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return v
}
