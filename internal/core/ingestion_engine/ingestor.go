package ingestion_engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oluseyi-dev/paperscope/internal/core"
	"github.com/oluseyi-dev/paperscope/internal/models"
)

// maxIDPreview caps the chunk identifier list echoed in ingest results.
const maxIDPreview = 50

// Options are the per-call ingestion knobs. Zero values fall back to the
// ingestor's configured defaults.
type Options struct {
	Collection   string
	ChunkSize    int
	ChunkOverlap int
	DPI          int

	// OCRLang overrides the extractor's configured tesseract language for
	// this document only.
	OCRLang string

	// FileName is the document's display name when the path is a transient
	// file (uploads, downloads). Defaults to the path's base name.
	FileName string
}

// Ingestor sequences extraction, metadata resolution, segmentation,
// filtering and chunking for one document, then hands the chunk set to the
// embedding and index collaborators. It holds no per-document state, so
// concurrent ingestions are independent.
type Ingestor struct {
	index    core.VectorIndex
	embedder core.EmbeddingProvider
	pages    core.PageSource
	client   *http.Client

	defaultCollection string
	chunkSize         int
	chunkOverlap      int
	dpi               int

	log *slog.Logger
}

func NewIngestor(
	index core.VectorIndex,
	embedder core.EmbeddingProvider,
	pages core.PageSource,
	defaultCollection string,
	chunkSize, chunkOverlap, dpi int,
	downloadTimeout time.Duration,
	log *slog.Logger,
) *Ingestor {
	return &Ingestor{
		index:             index,
		embedder:          embedder,
		pages:             pages,
		client:            &http.Client{Timeout: downloadTimeout},
		defaultCollection: defaultCollection,
		chunkSize:         chunkSize,
		chunkOverlap:      chunkOverlap,
		dpi:               dpi,
		log:               log,
	}
}

// IngestFile runs the full pipeline over a local PDF.
func (ing *Ingestor) IngestFile(ctx context.Context, path string, opts Options) (*models.IngestResult, error) {
	opts = ing.withDefaults(opts)
	fileName := opts.FileName
	if fileName == "" {
		fileName = filepath.Base(path)
	}
	ing.log.Info("ingesting pdf", "file", fileName)

	docID, err := contentID(path, fileName)
	if err != nil {
		return nil, fmt.Errorf("derive doc id: %w", err)
	}

	pages, raw, err := ing.pages.ExtractPages(ctx, path, opts.DPI, opts.OCRLang)
	if err != nil {
		return nil, err
	}

	firstPage := ""
	if len(pages) > 0 {
		firstPage = pages[0].Text
	}
	meta := ResolveMetadata(raw, firstPage)

	sections := SegmentSections(pages)
	filtered := FilterSections(sections)
	chunks := ChunkSections(filtered, opts.ChunkSize, opts.ChunkOverlap)
	for i := range chunks {
		chunks[i].Meta.DocID = docID
		chunks[i].Meta.SourceFile = fileName
		chunks[i].Meta.Title = meta.Title
		chunks[i].Meta.Authors = meta.Authors
		chunks[i].Meta.Subject = meta.Subject
		chunks[i].Meta.Keywords = meta.Keywords
		chunks[i].Meta.Year = meta.Year
	}

	result := &models.IngestResult{
		OK:               true,
		PDF:              fileName,
		DocID:            docID,
		Pages:            len(pages),
		SectionsDetected: SectionNames(sections),
		SectionsIndexed:  SectionNames(filtered),
		Chunks:           len(chunks),
		Collection:       opts.Collection,
		Meta:             meta,
	}

	if len(chunks) == 0 {
		// Nothing indexable is a normal outcome, not an error.
		ing.log.Warn("no chunks to embed", "doc_id", docID)
		return result, nil
	}

	ids := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	metas := make([]models.ChunkMeta, len(chunks))
	for i, c := range chunks {
		ids[i] = c.Meta.ID()
		texts[i] = c.Text
		metas[i] = c.Meta
	}

	embeddings, err := ing.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(embeddings), len(texts))
	}

	if err := ing.index.Upsert(ctx, ids, texts, embeddings, metas); err != nil {
		return nil, fmt.Errorf("index upsert: %w", err)
	}

	result.Embedded = len(chunks)
	if len(ids) > maxIDPreview {
		ids = ids[:maxIDPreview]
	}
	result.IDs = ids

	ing.log.Info("ingest complete", "doc_id", docID, "pages", len(pages), "chunks", len(chunks))
	return result, nil
}

// IngestURL downloads a remote PDF to a transient file and ingests it.
// A non-2xx response or transport failure fails this call only.
func (ing *Ingestor) IngestURL(ctx context.Context, rawURL string, opts Options) (*models.IngestResult, error) {
	if opts.FileName == "" {
		if u, err := url.Parse(rawURL); err == nil {
			if base := filepath.Base(u.Path); base != "." && base != "/" {
				opts.FileName = base
			}
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := ing.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download pdf: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("download pdf: unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp("", "paperscope-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	return ing.IngestFile(ctx, tmp.Name(), opts)
}

func (ing *Ingestor) withDefaults(opts Options) Options {
	if opts.Collection == "" {
		opts.Collection = ing.defaultCollection
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = ing.chunkSize
	}
	// Zero overlap means unset: the request surface delivers omitted knobs
	// as 0, so overlap-free chunking is not expressible per call.
	if opts.ChunkOverlap <= 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = ing.chunkOverlap
	}
	if opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = 0
	}
	if opts.DPI <= 0 {
		opts.DPI = ing.dpi
	}
	return opts
}

// contentID derives a document identity from the file name and a prefix of
// the content hash. Identical bytes always map to the same id, so
// re-ingesting a file overwrites its chunks instead of duplicating them.
func contentID(path, fileName string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return fmt.Sprintf("%s_%s", base, hex.EncodeToString(h.Sum(nil))[:8]), nil
}
