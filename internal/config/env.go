package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config carries every runtime knob of the service. It is loaded once in
// main and passed explicitly to constructors; nothing reads the environment
// after Load returns.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Vector index backend: "chromem" (embedded) or "pgvector".
	VectorBackend  string `env:"VECTOR_BACKEND" envDefault:"chromem"`
	DatabaseURL    string `env:"DATABASE_URL"`
	ChromemPath    string `env:"CHROMEM_PATH" envDefault:"chromem_store"`
	CollectionName string `env:"COLLECTION_NAME" envDefault:"papers"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	EmbedModel   string `env:"EMBED_MODEL" envDefault:"text-embedding-004"`
	GenModel     string `env:"GEN_MODEL" envDefault:"gemini-1.5-flash"`

	// OCR fallback for scanned pages.
	OCRLang   string `env:"OCR_LANG" envDefault:"eng"`
	RenderDPI int    `env:"RENDER_DPI" envDefault:"300"`

	// Chunking defaults; requests may override per call.
	ChunkSize    int `env:"CHUNK_SIZE" envDefault:"500"`
	ChunkOverlap int `env:"CHUNK_OVERLAP" envDefault:"50"`

	// Retrieval defaults.
	TopK           int `env:"TOP_K" envDefault:"3"`
	MaxSourceChars int `env:"MAX_SOURCE_CHARS" envDefault:"4000"`

	DownloadTimeout time.Duration `env:"DOWNLOAD_TIMEOUT" envDefault:"30s"`
}

// Load reads .env (if present) and the process environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.VectorBackend == "pgvector" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL required when VECTOR_BACKEND=pgvector")
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}
	return cfg, nil
}
