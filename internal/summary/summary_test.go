package summary

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"insightd/internal/domain"
)

type stubLLM struct {
	out string
	err error

	lastUser string
}

func (s *stubLLM) CompleteWithSystem(_ context.Context, _, user string) (string, error) {
	s.lastUser = user
	return s.out, s.err
}

func sampleResults(n, total int) domain.ResultSet {
	rs := domain.ResultSet{TotalBeforeLimit: total}
	for i := 0; i < n; i++ {
		rs.Records = append(rs.Records, domain.Record{
			"Address":     fmt.Sprintf("https://example.com/p%d", i),
			"Status Code": int64(404),
		})
	}
	return rs
}

func TestSummarize_EmptyResults(t *testing.T) {
	t.Parallel()

	stub := &stubLLM{out: "should not be called"}
	got := NewLLMSummarizer(stub, nil).Summarize(context.Background(), "broken pages?", domain.ResultSet{})
	assert.Equal(t, NoResultsMessage, got)
	assert.Empty(t, stub.lastUser, "no model call for empty results")
}

func TestSummarize_UsesModelAnswer(t *testing.T) {
	t.Parallel()

	stub := &stubLLM{out: "  There are 12 broken pages, mostly under /blog.  "}
	got := NewLLMSummarizer(stub, nil).Summarize(context.Background(), "broken pages?", sampleResults(3, 12))

	assert.Equal(t, "There are 12 broken pages, mostly under /blog.", got)
	assert.Contains(t, stub.lastUser, "broken pages?")
	assert.Contains(t, stub.lastUser, "Showing 3 of 12")
	assert.Contains(t, stub.lastUser, "https://example.com/p0")
}

func TestSummarize_SampleCapped(t *testing.T) {
	t.Parallel()

	stub := &stubLLM{out: "ok"}
	NewLLMSummarizer(stub, nil).Summarize(context.Background(), "q", sampleResults(9, 9))

	assert.Contains(t, stub.lastUser, "Showing 5 of 9")
	assert.NotContains(t, stub.lastUser, "https://example.com/p5")
}

func TestSummarize_ModelFailureFallsBackToCount(t *testing.T) {
	t.Parallel()

	stub := &stubLLM{err: fmt.Errorf("rate limited")}
	got := NewLLMSummarizer(stub, nil).Summarize(context.Background(), "q", sampleResults(3, 12))
	assert.Equal(t, "Found 12 results matching your query.", got)
}

func TestSummarize_BlankModelOutputFallsBack(t *testing.T) {
	t.Parallel()

	stub := &stubLLM{out: "   \n"}
	got := NewLLMSummarizer(stub, nil).Summarize(context.Background(), "q", sampleResults(2, 2))
	assert.Equal(t, "Found 2 results matching your query.", got)
}

func TestFallbackAnswer(t *testing.T) {
	t.Parallel()

	assert.Equal(t, NoResultsMessage, FallbackAnswer(domain.ResultSet{}))
	assert.Equal(t, "Found 4 results matching your query.",
		FallbackAnswer(sampleResults(4, 0)), "record count used when total is unset")
}
