package core

import (
	"context"

	"github.com/oluseyi-dev/paperscope/internal/models"
)

// VectorIndex stores chunk vectors and answers nearest-neighbor queries.
// It abstracts pgvector/chromem so higher layers never depend on a specific
// backend.
//
// Upsert takes four equal-length sequences; ids must be unique within the
// collection. Query returns at most k hits in ascending distance order.
type VectorIndex interface {
	Upsert(ctx context.Context, ids []string, documents []string, embeddings [][]float32, metadatas []models.ChunkMeta) error
	Query(ctx context.Context, embedding []float32, k int) ([]models.RetrievalHit, error)
	Close() error
}

// PageSource extracts the ordered page texts of a PDF along with the raw
// embedded metadata of the document. A failed page yields an empty string
// rather than an error; only opening the document can fail. An empty ocrLang
// uses the implementation's configured language.
type PageSource interface {
	ExtractPages(ctx context.Context, path string, dpi int, ocrLang string) ([]models.Page, map[string]string, error)
}
