// Package summary turns result sets into short natural-language answers.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"insightd/internal/domain"
	"insightd/internal/llm"
)

// NoResultsMessage is returned verbatim when a query matched nothing.
const NoResultsMessage = "No results found matching your query."

const maxSampleRecords = 5

const systemPrompt = `You are a web analytics and SEO assistant. Given a user's question and a sample of the matching data, write a short, direct answer in plain language. Mention concrete numbers from the data. Do not invent values that are not in the sample. Two to four sentences.`

// Summarizer produces a human-readable answer for a result set. A
// Summarizer never fails the request; on error it degrades to a count.
type Summarizer interface {
	Summarize(ctx context.Context, question string, rs domain.ResultSet) string
}

// LLMSummarizer asks the language model to phrase the answer.
type LLMSummarizer struct {
	llm    llm.Client
	logger *slog.Logger
}

// NewLLMSummarizer builds a model-backed summarizer.
func NewLLMSummarizer(client llm.Client, logger *slog.Logger) *LLMSummarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMSummarizer{llm: client, logger: logger.With("component", "summarizer")}
}

// Summarize renders a short answer from the question and a sample of the
// results. Empty results short-circuit to a fixed message; a model failure
// degrades to a count so the caller always gets an answer string.
func (s *LLMSummarizer) Summarize(ctx context.Context, question string, rs domain.ResultSet) string {
	if rs.Empty() {
		return NoResultsMessage
	}

	user := buildPrompt(question, rs)
	answer, err := s.llm.CompleteWithSystem(ctx, systemPrompt, user)
	if err != nil || strings.TrimSpace(answer) == "" {
		if err != nil {
			s.logger.Warn("summary generation failed, using count fallback", "error", err)
		}
		return FallbackAnswer(rs)
	}
	return strings.TrimSpace(answer)
}

// FallbackAnswer is the deterministic answer used when no model summary is
// available.
func FallbackAnswer(rs domain.ResultSet) string {
	if rs.Empty() {
		return NoResultsMessage
	}
	n := rs.TotalBeforeLimit
	if n < len(rs.Records) {
		n = len(rs.Records)
	}
	return fmt.Sprintf("Found %d results matching your query.", n)
}

func buildPrompt(question string, rs domain.ResultSet) string {
	sample := rs.Records
	if len(sample) > maxSampleRecords {
		sample = sample[:maxSampleRecords]
	}

	data, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		data = []byte("[]")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", question)
	total := rs.TotalBeforeLimit
	if total < len(rs.Records) {
		total = len(rs.Records)
	}
	fmt.Fprintf(&b, "Showing %d of %d matching rows:\n%s\n", len(sample), total, data)
	return b.String()
}
