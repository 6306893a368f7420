package vectorstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/oluseyi-dev/paperscope/internal/models"
)

//go:embed scripts/initdb.sql
var bootstrapFS embed.FS

// PgVectorIndex is a VectorIndex backed by Postgres with the pgvector
// extension. One index instance is bound to one collection.
type PgVectorIndex struct {
	db         *sql.DB
	collection string
	log        *slog.Logger
}

func NewPgVectorIndex(ctx context.Context, databaseURL, collection string, log *slog.Logger) (*PgVectorIndex, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := bootstrap(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	log.Info("pgvector index ready", "collection", collection)
	return &PgVectorIndex{db: db, collection: collection, log: log}, nil
}

func bootstrap(ctx context.Context, db *sql.DB) error {
	sqlBytes, err := bootstrapFS.ReadFile("scripts/initdb.sql")
	if err != nil {
		return fmt.Errorf("read initdb.sql: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("exec bootstrap: %w", err)
	}
	return nil
}

func (s *PgVectorIndex) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Upsert writes all chunks in a single transaction, so a failed batch
// leaves nothing behind for this call.
func (s *PgVectorIndex) Upsert(ctx context.Context, ids []string, documents []string, embeddings [][]float32, metadatas []models.ChunkMeta) error {
	if err := checkLengths(ids, documents, embeddings, metadatas); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO paper_chunks (id, collection, document, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET document = EXCLUDED.document,
		    metadata = EXCLUDED.metadata,
		    embedding = EXCLUDED.embedding
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range ids {
		meta, err := json.Marshal(metadatas[i])
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal metadata for %s: %w", ids[i], err)
		}
		vec := pgvector.NewVector(embeddings[i])
		if _, err := stmt.ExecContext(ctx, ids[i], s.collection, documents[i], meta, vec); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert chunk %s: %w", ids[i], err)
		}
	}

	s.log.Debug("upserted chunks", "count", len(ids))
	return tx.Commit()
}

// Query returns the k nearest chunks by cosine distance, ascending.
func (s *PgVectorIndex) Query(ctx context.Context, embedding []float32, k int) ([]models.RetrievalHit, error) {
	const q = `
		SELECT id, document, metadata, embedding <=> $2 AS distance
		FROM paper_chunks
		WHERE collection = $1
		ORDER BY embedding <=> $2
		LIMIT $3
	`
	vec := pgvector.NewVector(embedding)
	rows, err := s.db.QueryContext(ctx, q, s.collection, vec, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []models.RetrievalHit
	for rows.Next() {
		var (
			hit      models.RetrievalHit
			metaJSON []byte
			distance float64
		)
		if err := rows.Scan(&hit.ID, &hit.Document, &metaJSON, &distance); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metaJSON, &hit.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata for %s: %w", hit.ID, err)
		}
		hit.Distance = float32(distance)
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func checkLengths(ids, documents []string, embeddings [][]float32, metadatas []models.ChunkMeta) error {
	n := len(ids)
	if len(documents) != n || len(embeddings) != n || len(metadatas) != n {
		return fmt.Errorf("upsert: mismatched lengths ids=%d documents=%d embeddings=%d metadatas=%d",
			n, len(documents), len(embeddings), len(metadatas))
	}
	return nil
}
