package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

func TestLoad(t *testing.T) {
	// Save original env vars
	originalEnv := make(map[string]string)
	envVars := []string{
		"API_PORT", "LOG_LEVEL", "LOG_FORMAT",
		"LLM_BASE_URL", "LLM_API_KEY", "LLM_MODEL",
		"EMBEDDING_BASE_URL", "EMBEDDING_MODEL_NAME", "EMBEDDING_API_KEY", "EMBEDDING_SIZE",
		"QDRANT_URL", "QDRANT_COLLECTION",
		"DB_PATH", "DOCS_DIR", "SYNONYMS_PATH",
		"SESSION_TTL_MINUTES", "MAX_K", "CONTEXT_BUDGET_CHARS", "CONTEXT_MAX_BLOCKS",
		"ANSWER_TIMEOUT_SECONDS", "RETRIEVAL_BOOST", "GROUNDING_MIN",
	}
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}
	defer func() {
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	}()

	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name: "defaults apply with no env set",
			setupEnv: func(t *testing.T) {
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.APIPort == "9000" &&
					cfg.MaxK == 4 &&
					cfg.ContextBudget == 1600 &&
					cfg.SessionTTL == time.Hour &&
					cfg.RetrievalBoost == 0.15 &&
					cfg.GroundingMin == 0.3 &&
					!cfg.ProviderEnabled() &&
					!cfg.DenseEnabled()
			},
		},
		{
			name: "explicit values override defaults",
			setupEnv: func(t *testing.T) {
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
				setEnv("API_PORT", "8123")
				setEnv("MAX_K", "8")
				setEnv("SESSION_TTL_MINUTES", "5")
				setEnv("LLM_BASE_URL", "http://localhost:8080")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.APIPort == "8123" &&
					cfg.MaxK == 8 &&
					cfg.SessionTTL == 5*time.Minute &&
					cfg.ProviderEnabled()
			},
		},
		{
			name: "dense mode requires embedding size",
			setupEnv: func(t *testing.T) {
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
				setEnv("EMBEDDING_BASE_URL", "http://localhost:8081")
			},
			wantErr: true,
		},
		{
			name: "dense mode with embedding size",
			setupEnv: func(t *testing.T) {
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
				setEnv("EMBEDDING_BASE_URL", "http://localhost:8081")
				setEnv("EMBEDDING_SIZE", "1024")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.DenseEnabled() && cfg.EmbeddingSize == 1024
			},
		},
		{
			name: "non-numeric MAX_K is rejected",
			setupEnv: func(t *testing.T) {
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
				setEnv("MAX_K", "four")
			},
			wantErr: true,
		},
		{
			name: "non-positive MAX_K is rejected",
			setupEnv: func(t *testing.T) {
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
				setEnv("MAX_K", "0")
			},
			wantErr: true,
		},
		{
			name: "invalid RETRIEVAL_BOOST is rejected",
			setupEnv: func(t *testing.T) {
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
				setEnv("RETRIEVAL_BOOST", "lots")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range envVars {
				unsetEnv(key)
			}
			tt.setupEnv(t)

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("config check failed: %+v", cfg)
			}
		})
	}
}
