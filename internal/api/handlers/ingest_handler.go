package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/oluseyi-dev/paperscope/internal/core/ingestion_engine"
)

const maxUploadBytes = 64 << 20

type IngestHandler struct {
	ingestor *ingestion_engine.Ingestor
	log      *slog.Logger
}

func NewIngestHandler(ingestor *ingestion_engine.Ingestor, log *slog.Logger) *IngestHandler {
	return &IngestHandler{ingestor: ingestor, log: log}
}

// UploadPDF handles multipart PDF uploads: the file is spooled to a
// transient path, ingested, and the temp file removed.
func (h *IngestHandler) UploadPDF(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("pdf")
	if err != nil {
		http.Error(w, "missing pdf file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	opts := ingestion_engine.Options{
		Collection:   r.FormValue("collection_name"),
		ChunkSize:    formInt(r, "chunk_size"),
		ChunkOverlap: formInt(r, "chunk_overlap"),
		DPI:          formInt(r, "dpi"),
		OCRLang:      r.FormValue("ocr_lang"),
		FileName:     header.Filename,
	}

	tmpPath := filepath.Join(os.TempDir(), "upload_"+uuid.NewString()+".pdf")
	tmp, err := os.Create(tmpPath)
	if err != nil {
		http.Error(w, "could not store upload", http.StatusInternalServerError)
		return
	}
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		http.Error(w, "could not store upload", http.StatusInternalServerError)
		return
	}
	if err := tmp.Close(); err != nil {
		http.Error(w, "could not store upload", http.StatusInternalServerError)
		return
	}

	h.log.Info("upload received", "file", header.Filename, "size", header.Size)
	result, err := h.ingestor.IngestFile(r.Context(), tmpPath, opts)
	if err != nil {
		h.log.Error("ingest failed", "file", header.Filename, "err", err)
		http.Error(w, "ingest failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type ingestURLRequest struct {
	URL            string `json:"url"`
	CollectionName string `json:"collection_name"`
	ChunkSize      int    `json:"chunk_size"`
	ChunkOverlap   int    `json:"chunk_overlap"`
	DPI            int    `json:"dpi"`
	OCRLang        string `json:"ocr_lang"`
}

// IngestURL downloads a remote PDF and ingests it. Download failure fails
// this call only.
func (h *IngestHandler) IngestURL(w http.ResponseWriter, r *http.Request) {
	var req ingestURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}

	opts := ingestion_engine.Options{
		Collection:   req.CollectionName,
		ChunkSize:    req.ChunkSize,
		ChunkOverlap: req.ChunkOverlap,
		DPI:          req.DPI,
		OCRLang:      req.OCRLang,
	}
	result, err := h.ingestor.IngestURL(r.Context(), req.URL, opts)
	if err != nil {
		h.log.Error("url ingest failed", "url", req.URL, "err", err)
		http.Error(w, "ingest failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func formInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.FormValue(key))
	if err != nil {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
