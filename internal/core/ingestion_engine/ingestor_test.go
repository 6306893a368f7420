package ingestion_engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oluseyi-dev/paperscope/internal/models"
)

type fakePages struct {
	pages []models.Page
	raw   map[string]string
	err   error

	gotPath string
	gotDPI  int
	gotLang string
}

func (f *fakePages) ExtractPages(_ context.Context, path string, dpi int, ocrLang string) ([]models.Page, map[string]string, error) {
	f.gotPath = path
	f.gotDPI = dpi
	f.gotLang = ocrLang
	return f.pages, f.raw, f.err
}

type fakeEmbedder struct {
	gotTexts []string
	short    bool
	err      error
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	f.gotTexts = texts
	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

type fakeIndex struct {
	ids        []string
	documents  []string
	embeddings [][]float32
	metadatas  []models.ChunkMeta
	calls      int
}

func (f *fakeIndex) Upsert(_ context.Context, ids, documents []string, embeddings [][]float32, metadatas []models.ChunkMeta) error {
	f.calls++
	f.ids = ids
	f.documents = documents
	f.embeddings = embeddings
	f.metadatas = metadatas
	return nil
}

func (f *fakeIndex) Query(context.Context, []float32, int) ([]models.RetrievalHit, error) {
	return nil, nil
}

func (f *fakeIndex) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeTestPDF(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func newTestIngestor(index *fakeIndex, embedder *fakeEmbedder, pages *fakePages) *Ingestor {
	return NewIngestor(index, embedder, pages, "papers", 500, 50, 300, 5*time.Second, discardLogger())
}

func TestIngestFileRoundTrip(t *testing.T) {
	pages := &fakePages{
		pages: pagesFrom(
			"A Study of Things\nJane Doe and John Roe\nAbstract\nWe study things.",
			"Methods\nWe did things with a centrifuge.\nConclusion\nThings were studied.",
			"References\n[1] Someone, 1999.",
		),
		raw: map[string]string{"modDate": "D:20200101"},
	}
	embedder := &fakeEmbedder{}
	index := &fakeIndex{}
	ing := newTestIngestor(index, embedder, pages)

	content := []byte("%PDF-1.4 fake body")
	path := writeTestPDF(t, "paper.pdf", content)

	res, err := ing.IngestFile(context.Background(), path, Options{})
	require.NoError(t, err)

	sum := sha256.Sum256(content)
	wantID := "paper_" + hex.EncodeToString(sum[:])[:8]
	assert.Equal(t, wantID, res.DocID)
	assert.True(t, res.OK)
	assert.Equal(t, "paper.pdf", res.PDF)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, "papers", res.Collection)
	assert.Equal(t, "2020", res.Meta.Year)

	// Methods is detected but filtered out of the indexed set; the reference
	// list never even becomes a section.
	assert.Contains(t, res.SectionsDetected, "methods")
	assert.NotContains(t, res.SectionsIndexed, "methods")
	assert.NotContains(t, res.SectionsDetected, "references")
	assert.ElementsMatch(t, []string{"abstract", "conclusion"}, res.SectionsIndexed)

	require.Equal(t, 1, index.calls)
	require.Equal(t, res.Chunks, len(index.ids))
	require.Equal(t, res.Chunks, len(index.embeddings))
	assert.Equal(t, res.Chunks, res.Embedded)
	assert.Equal(t, index.ids, res.IDs)

	for i, meta := range index.metadatas {
		assert.Equal(t, wantID, meta.DocID)
		assert.Equal(t, "paper.pdf", meta.SourceFile)
		assert.Equal(t, i, meta.ChunkIndex)
		assert.Equal(t, fmt.Sprintf("%s_chunk_%d", wantID, i), index.ids[i])
	}
	for _, doc := range index.documents {
		assert.NotContains(t, doc, "centrifuge")
	}
}

func TestIngestFileNoIndexableSections(t *testing.T) {
	pages := &fakePages{
		pages: pagesFrom("Methods\nOnly procedure here."),
		raw:   map[string]string{},
	}
	embedder := &fakeEmbedder{}
	index := &fakeIndex{}
	ing := newTestIngestor(index, embedder, pages)

	path := writeTestPDF(t, "methods-only.pdf", []byte("content"))

	res, err := ing.IngestFile(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Zero(t, res.Chunks)
	assert.Zero(t, res.Embedded)
	assert.Equal(t, 0, index.calls)
	assert.Nil(t, embedder.gotTexts)
}

func TestIngestFileSameBytesSameID(t *testing.T) {
	pages := &fakePages{pages: pagesFrom("Abstract\nShort."), raw: map[string]string{}}
	ing := newTestIngestor(&fakeIndex{}, &fakeEmbedder{}, pages)

	content := []byte("identical bytes")
	a := writeTestPDF(t, "copy.pdf", content)
	b := writeTestPDF(t, "copy.pdf", content)

	resA, err := ing.IngestFile(context.Background(), a, Options{})
	require.NoError(t, err)
	resB, err := ing.IngestFile(context.Background(), b, Options{})
	require.NoError(t, err)
	assert.Equal(t, resA.DocID, resB.DocID)
}

func TestIngestFileFileNameOverride(t *testing.T) {
	pages := &fakePages{pages: pagesFrom("Abstract\nShort."), raw: map[string]string{}}
	ing := newTestIngestor(&fakeIndex{}, &fakeEmbedder{}, pages)

	path := writeTestPDF(t, "upload_3fa1.pdf", []byte("body"))

	res, err := ing.IngestFile(context.Background(), path, Options{FileName: "attention.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "attention.pdf", res.PDF)
	assert.True(t, len(res.DocID) > len("attention_"))
	assert.Equal(t, "attention_", res.DocID[:len("attention_")])
}

func TestIngestFileExtractionFailure(t *testing.T) {
	pages := &fakePages{err: errors.New("not a pdf")}
	ing := newTestIngestor(&fakeIndex{}, &fakeEmbedder{}, pages)

	path := writeTestPDF(t, "broken.pdf", []byte("junk"))

	_, err := ing.IngestFile(context.Background(), path, Options{})
	assert.ErrorContains(t, err, "not a pdf")
}

func TestIngestFileEmbeddingCountMismatch(t *testing.T) {
	pages := &fakePages{pages: pagesFrom("Abstract\nShort."), raw: map[string]string{}}
	embedder := &fakeEmbedder{short: true}
	ing := newTestIngestor(&fakeIndex{}, embedder, pages)

	path := writeTestPDF(t, "paper.pdf", []byte("body"))

	_, err := ing.IngestFile(context.Background(), path, Options{})
	assert.ErrorContains(t, err, "vectors")
}

func TestIngestFileOptionsPassedThrough(t *testing.T) {
	pages := &fakePages{pages: pagesFrom("Abstract\nShort."), raw: map[string]string{}}
	ing := newTestIngestor(&fakeIndex{}, &fakeEmbedder{}, pages)

	path := writeTestPDF(t, "paper.pdf", []byte("body"))

	res, err := ing.IngestFile(context.Background(), path, Options{Collection: "mine", DPI: 150, OCRLang: "deu"})
	require.NoError(t, err)
	assert.Equal(t, "mine", res.Collection)
	assert.Equal(t, 150, pages.gotDPI)
	assert.Equal(t, "deu", pages.gotLang)
}

func TestWithDefaultsFillsOmittedKnobs(t *testing.T) {
	ing := newTestIngestor(&fakeIndex{}, &fakeEmbedder{}, &fakePages{})

	got := ing.withDefaults(Options{})
	assert.Equal(t, "papers", got.Collection)
	assert.Equal(t, 500, got.ChunkSize)
	assert.Equal(t, 50, got.ChunkOverlap)
	assert.Equal(t, 300, got.DPI)
	assert.Empty(t, got.OCRLang)
}

func TestWithDefaultsOverlapOmittedGetsDefault(t *testing.T) {
	ing := newTestIngestor(&fakeIndex{}, &fakeEmbedder{}, &fakePages{})

	// An omitted chunk_overlap arrives as 0 from the request surface; it must
	// resolve to the configured default, not to overlap-free chunking.
	got := ing.withDefaults(Options{ChunkSize: 200})
	assert.Equal(t, 50, got.ChunkOverlap)

	got = ing.withDefaults(Options{ChunkSize: 200, ChunkOverlap: 20})
	assert.Equal(t, 20, got.ChunkOverlap)
}

func TestWithDefaultsOverlapClampedBelowSize(t *testing.T) {
	ing := newTestIngestor(&fakeIndex{}, &fakeEmbedder{}, &fakePages{})

	// Oversized overlap falls back to the default; when even the default
	// does not fit under the requested size, overlap is dropped.
	got := ing.withDefaults(Options{ChunkSize: 200, ChunkOverlap: 300})
	assert.Equal(t, 50, got.ChunkOverlap)

	got = ing.withDefaults(Options{ChunkSize: 40})
	assert.Equal(t, 0, got.ChunkOverlap)
}

func TestIngestURL(t *testing.T) {
	body := []byte("%PDF-1.4 downloaded")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	pages := &fakePages{pages: pagesFrom("Abstract\nDownloaded things."), raw: map[string]string{}}
	index := &fakeIndex{}
	ing := newTestIngestor(index, &fakeEmbedder{}, pages)

	res, err := ing.IngestURL(context.Background(), srv.URL+"/papers/attention.pdf", Options{})
	require.NoError(t, err)

	sum := sha256.Sum256(body)
	assert.Equal(t, "attention_"+hex.EncodeToString(sum[:])[:8], res.DocID)
	assert.Equal(t, "attention.pdf", res.PDF)
	assert.Equal(t, 1, index.calls)

	// The transient download is cleaned up after ingestion.
	_, statErr := os.Stat(pages.gotPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestIngestURLBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	ing := newTestIngestor(&fakeIndex{}, &fakeEmbedder{}, &fakePages{})

	_, err := ing.IngestURL(context.Background(), srv.URL+"/missing.pdf", Options{})
	assert.ErrorContains(t, err, "unexpected status")
}
