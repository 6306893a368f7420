package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/oluseyi-dev/paperscope/internal/models"
)

// ChromemIndex is a VectorIndex backed by the embedded chromem-go store.
// Embeddings are always supplied by the caller; chromem never computes any.
type ChromemIndex struct {
	db  *chromem.DB
	col *chromem.Collection
	log *slog.Logger
}

// externalOnly guards against chromem ever being asked to embed.
var externalOnly chromem.EmbeddingFunc = func(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("chromem index accepts precomputed embeddings only")
}

func NewChromemIndex(path, collection string, log *slog.Logger) (*ChromemIndex, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open chromem db: %w", err)
	}
	col, err := db.GetOrCreateCollection(collection, nil, externalOnly)
	if err != nil {
		return nil, fmt.Errorf("open collection %q: %w", collection, err)
	}
	log.Info("chromem index ready", "path", path, "collection", collection)
	return &ChromemIndex{db: db, col: col, log: log}, nil
}

func (s *ChromemIndex) Close() error { return nil }

func (s *ChromemIndex) Upsert(ctx context.Context, ids []string, documents []string, embeddings [][]float32, metadatas []models.ChunkMeta) error {
	if err := checkLengths(ids, documents, embeddings, metadatas); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(ids))
	for i := range ids {
		docs[i] = chromem.Document{
			ID:        ids[i],
			Content:   documents[i],
			Embedding: embeddings[i],
			Metadata:  metaToMap(metadatas[i]),
		}
	}
	if err := s.col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("chromem add documents: %w", err)
	}
	s.log.Debug("upserted chunks", "count", len(ids))
	return nil
}

func (s *ChromemIndex) Query(ctx context.Context, embedding []float32, k int) ([]models.RetrievalHit, error) {
	// chromem rejects nResults larger than the collection.
	if count := s.col.Count(); k > count {
		k = count
	}
	if k == 0 {
		return nil, nil
	}

	results, err := s.col.QueryEmbedding(ctx, embedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	hits := make([]models.RetrievalHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, models.RetrievalHit{
			ID:       r.ID,
			Document: r.Content,
			Metadata: metaFromMap(r.Metadata),
			// chromem reports cosine similarity; the index contract is a
			// similarity-inverse distance.
			Distance: 1 - r.Similarity,
		})
	}
	return hits, nil
}

func metaToMap(m models.ChunkMeta) map[string]string {
	return map[string]string{
		"doc_id":      m.DocID,
		"source_file": m.SourceFile,
		"section":     m.Section,
		"page_start":  strconv.Itoa(m.PageStart),
		"page_end":    strconv.Itoa(m.PageEnd),
		"chunk_index": strconv.Itoa(m.ChunkIndex),
		"title":       m.Title,
		"authors":     m.Authors,
		"subject":     m.Subject,
		"keywords":    m.Keywords,
		"year":        m.Year,
	}
}

func metaFromMap(m map[string]string) models.ChunkMeta {
	pageStart, _ := strconv.Atoi(m["page_start"])
	pageEnd, _ := strconv.Atoi(m["page_end"])
	chunkIndex, _ := strconv.Atoi(m["chunk_index"])
	return models.ChunkMeta{
		DocID:      m["doc_id"],
		SourceFile: m["source_file"],
		Section:    m["section"],
		PageStart:  pageStart,
		PageEnd:    pageEnd,
		ChunkIndex: chunkIndex,
		Title:      m["title"],
		Authors:    m["authors"],
		Subject:    m["subject"],
		Keywords:   m["keywords"],
		Year:       m["year"],
	}
}
