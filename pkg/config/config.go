package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Port               string
	DatabaseURL        string // empty keeps every store in memory
	JWTSecret          string
	JWTAccessExpiry    time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	EncryptionKey      string

	// AdminUserIDs may change process-wide settings such as the Ollama server
	AdminUserIDs []string

	// Embedding backend
	EmbeddingProvider    string // openai, gemini, ollama or auto
	EmbeddingDimension   int
	EmbeddingFallback    string
	EmbeddingRateLimit   int
	EmbeddingRateWindow  time.Duration
	OpenAIAPIKey         string
	OpenAIBaseURL        string
	OpenAIEmbeddingModel string
	GeminiAPIKey         string
	OllamaBaseURL        string
	OllamaModel          string

	BackfillWorkers   int
	BackfillQueueSize int

	RetrievalConfigPath string
	Retrieval           RetrievalConfig
}

// RetrievalConfig tunes ranking. It can be overridden by the TOML file
// named in RETRIEVAL_CONFIG.
type RetrievalConfig struct {
	EmailThreshold   float64 `toml:"email_threshold"`
	ContactThreshold float64 `toml:"contact_threshold"`
	NoteThreshold    float64 `toml:"note_threshold"`
	DefaultThreshold float64 `toml:"default_threshold"`
	PreviewLength    int     `toml:"preview_length"`
	PageSize         int     `toml:"page_size"`
	AllowEmptyQuery  bool    `toml:"allow_empty_query"`
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiry:    getEnvDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		EncryptionKey:      getEnv("ENCRYPTION_KEY", ""),
		AdminUserIDs:       getEnvList("ADMIN_USER_IDS"),

		EmbeddingProvider:    getEnv("EMBEDDING_PROVIDER", "auto"),
		EmbeddingDimension:   getEnvInt("EMBEDDING_DIMENSION", 0),
		EmbeddingFallback:    getEnv("EMBEDDING_FALLBACK", ""),
		EmbeddingRateLimit:   getEnvInt("EMBEDDING_RATE_LIMIT", 8),
		EmbeddingRateWindow:  getEnvDuration("EMBEDDING_RATE_WINDOW", time.Minute),
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", ""),
		OpenAIEmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", ""),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:          getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),

		BackfillWorkers:   getEnvInt("BACKFILL_WORKERS", 2),
		BackfillQueueSize: getEnvInt("BACKFILL_QUEUE_SIZE", 500),

		RetrievalConfigPath: getEnv("RETRIEVAL_CONFIG", ""),
		Retrieval: RetrievalConfig{
			EmailThreshold:   getEnvFloat("RETRIEVAL_EMAIL_THRESHOLD", 0.3),
			ContactThreshold: getEnvFloat("RETRIEVAL_CONTACT_THRESHOLD", 0.1),
			NoteThreshold:    getEnvFloat("RETRIEVAL_NOTE_THRESHOLD", 0.3),
			DefaultThreshold: getEnvFloat("RETRIEVAL_DEFAULT_THRESHOLD", 0.1),
			PreviewLength:    getEnvInt("RETRIEVAL_PREVIEW_LENGTH", 300),
			PageSize:         getEnvInt("RETRIEVAL_PAGE_SIZE", 100),
			AllowEmptyQuery:  getEnvBool("RETRIEVAL_ALLOW_EMPTY_QUERY", false),
		},
	}

	if cfg.RetrievalConfigPath != "" {
		if err := cfg.Retrieval.LoadFile(cfg.RetrievalConfigPath); err != nil {
			log.Printf("Warning: %v", err)
		}
	}

	return cfg
}

// LoadFile overlays the keys present in a TOML file onto r.
func (r *RetrievalConfig) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read retrieval config: %w", err)
	}
	if err := toml.Unmarshal(data, r); err != nil {
		return fmt.Errorf("failed to parse retrieval config %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
