package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oluseyi-dev/paperscope/internal/core"
	"github.com/oluseyi-dev/paperscope/internal/core/llm"
	"github.com/oluseyi-dev/paperscope/internal/models"
)

// NoContextSentinel is returned by AssembleContext when retrieval produced
// nothing. The prompts instruct the model to treat it as insufficient
// context rather than license to invent.
const NoContextSentinel = "No context available."

const qaSystemPrompt = "You are a diligent Researcher. Your tasks:\n" +
	"1) Explain the provided research content in clear, simple language.\n" +
	"2) Answer the question using ONLY the provided context.\n" +
	"Rules:\n" +
	"- If the needed information is missing from the context, say you don't have enough information.\n" +
	"- Do NOT include your chain-of-thought, hidden analysis, or step-by-step reasoning. Return the final answer only.\n" +
	"- Be concise, specific, and cite which parts of the context you're using (e.g., 'From Source 2')."

const gapSystemPrompt = "You are a diligent Researcher. Your tasks:\n" +
	"1) Explain the provided research content in clear, simple language.\n" +
	"2) Identify potential research gaps, limitations, and future directions explicitly from the context.\n" +
	"Rules:\n" +
	"- Use ONLY the provided context; if needed info is missing, say you don't have enough information.\n" +
	"- Do NOT include your chain-of-thought, hidden analysis, or step-by-step reasoning. Return the final answer only.\n" +
	"- Be concise, specific, and cite which parts of the context you're using (e.g., 'From Source 2')."

const gapUserFormat = "Required format (adapt as needed):\n" +
	"1) Plain-English Explanation:\n" +
	"- <2-5 short bullets that summarize the key points relevant to the question>\n" +
	"2) Potential Research Gaps (based on the context):\n" +
	"- <bullet list of concrete, testable gaps or open directions>\n" +
	"3) If information is insufficient:\n" +
	"- State explicitly what is missing from the context to answer.\n"

// RAGService answers questions against the indexed material. It is
// stateless between calls; each query builds its context from scratch.
type RAGService struct {
	index    core.VectorIndex
	embedder core.EmbeddingProvider
	llm      core.LLMProvider

	maxSourceChars int
	log            *slog.Logger
}

func NewRAGService(index core.VectorIndex, embedder core.EmbeddingProvider, provider core.LLMProvider, maxSourceChars int, log *slog.Logger) *RAGService {
	return &RAGService{
		index:          index,
		embedder:       embedder,
		llm:            provider,
		maxSourceChars: maxSourceChars,
		log:            log,
	}
}

// Retrieve embeds the question and returns the top-k hits in ascending
// distance order. Read-only against the index.
func (s *RAGService) Retrieve(ctx context.Context, question string, topK int) ([]models.RetrievalHit, error) {
	vec, err := s.embedder.EmbedOne(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	hits, err := s.index.Query(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	s.log.Info("retrieved hits", "count", len(hits), "top_k", topK)
	return hits, nil
}

// AssembleContext builds the prompt context from ranked documents: each is
// labeled [Source i] in rank order, hard-truncated to maxSourceChars with a
// trailing ellipsis marker, and joined with blank lines. Rank order is
// never re-sorted; it is the relevance signal the generator sees.
func AssembleContext(docs []string, maxSourceChars int) string {
	if len(docs) == 0 {
		return NoContextSentinel
	}
	parts := make([]string, 0, len(docs))
	for i, d := range docs {
		snippet := d
		// Truncate on rune boundaries; a byte slice mid-rune would feed the
		// generator invalid UTF-8.
		if runes := []rune(d); len(runes) > maxSourceChars {
			snippet = string(runes[:maxSourceChars]) + " ..."
		}
		parts = append(parts, fmt.Sprintf("[Source %d]\n%s", i+1, snippet))
	}
	return strings.Join(parts, "\n\n")
}

// Ask answers a question from retrieved context.
func (s *RAGService) Ask(ctx context.Context, question string, topK int) (*models.Answer, error) {
	user := func(contextBlock string) string {
		return fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s\n", contextBlock, question)
	}
	return s.answer(ctx, question, topK, qaSystemPrompt, user)
}

// FindGaps runs the research-gap analysis prompt over retrieved context.
func (s *RAGService) FindGaps(ctx context.Context, question string, topK int) (*models.Answer, error) {
	user := func(contextBlock string) string {
		return fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s\n\n%s", contextBlock, question, gapUserFormat)
	}
	return s.answer(ctx, question, topK, gapSystemPrompt, user)
}

func (s *RAGService) answer(ctx context.Context, question string, topK int, systemPrompt string, user func(string) string) (*models.Answer, error) {
	hits, err := s.Retrieve(ctx, question, topK)
	if err != nil {
		return nil, err
	}

	docs := make([]string, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, h.Document)
	}
	contextBlock := AssembleContext(docs, s.maxSourceChars)
	s.log.Debug("context assembled", "chars", len(contextBlock))

	raw, err := s.llm.Generate(ctx, systemPrompt, user(contextBlock))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	answer := llm.SanitizeAnswer(raw)

	sources := make([]models.SourceRef, 0, len(hits))
	for _, h := range hits {
		sources = append(sources, models.SourceRef{
			ID:       h.ID,
			Document: h.Document,
			Metadata: h.Metadata,
			Distance: h.Distance,
		})
	}

	s.log.Info("answer complete", "answer_len", len(answer), "sources", len(sources))
	return &models.Answer{Question: question, Answer: answer, Sources: sources}, nil
}
