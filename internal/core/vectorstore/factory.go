package vectorstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oluseyi-dev/paperscope/internal/config"
	"github.com/oluseyi-dev/paperscope/internal/core"
)

// New selects the vector index backend from config: "pgvector" for a shared
// Postgres deployment, "chromem" for the embedded store.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (core.VectorIndex, error) {
	switch cfg.VectorBackend {
	case "pgvector":
		return NewPgVectorIndex(ctx, cfg.DatabaseURL, cfg.CollectionName, log)
	case "chromem":
		return NewChromemIndex(cfg.ChromemPath, cfg.CollectionName, log)
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}
}
