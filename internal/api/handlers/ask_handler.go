package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/oluseyi-dev/paperscope/internal/models"
)

// AnswerService is the query-side surface the handler needs.
type AnswerService interface {
	Ask(ctx context.Context, question string, topK int) (*models.Answer, error)
	FindGaps(ctx context.Context, question string, topK int) (*models.Answer, error)
}

type AskHandler struct {
	svc         AnswerService
	defaultTopK int
	log         *slog.Logger
}

func NewAskHandler(svc AnswerService, defaultTopK int, log *slog.Logger) *AskHandler {
	return &AskHandler{svc: svc, defaultTopK: defaultTopK, log: log}
}

type askRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// Ask answers a question against the indexed material.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.svc.Ask)
}

// Gaps runs research-gap analysis against the indexed material.
func (h *AskHandler) Gaps(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.svc.FindGaps)
}

func (h *AskHandler) handle(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, int) (*models.Answer, error)) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Question == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}
	topK := req.TopK
	if topK < 1 {
		topK = h.defaultTopK
	}
	if topK > 10 {
		topK = 10
	}

	answer, err := fn(r.Context(), req.Question, topK)
	if err != nil {
		h.log.Error("query failed", "err", err)
		http.Error(w, "query failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}
