package orchestrator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightd/internal/domain"
	"insightd/internal/fusion"
	"insightd/internal/summary"
)

type stubAnalyticsPlanner struct{ plan domain.ReportPlan }

func (s *stubAnalyticsPlanner) Plan(context.Context, string) domain.ReportPlan { return s.plan }

type stubTabularPlanner struct {
	plan        domain.TablePlan
	lastColumns []string
}

func (s *stubTabularPlanner) Plan(_ context.Context, _ string, columns []string) domain.TablePlan {
	s.lastColumns = columns
	return s.plan
}

type stubAnalyticsExecutor struct {
	rs    domain.ResultSet
	err   error
	calls int
}

func (s *stubAnalyticsExecutor) Execute(_ context.Context, _ domain.ReportPlan, propertyID string) (domain.ResultSet, error) {
	s.calls++
	if propertyID == "" {
		return domain.ResultSet{}, domain.ErrPropertyIDRequired
	}
	return s.rs, s.err
}

type stubTabularExecutor struct {
	rs    domain.ResultSet
	calls int
}

func (s *stubTabularExecutor) Execute(*domain.Snapshot, domain.TablePlan) domain.ResultSet {
	s.calls++
	return s.rs
}

type stubSnapshots struct {
	snap  *domain.Snapshot
	stale bool
	err   error
}

func (s *stubSnapshots) Get(context.Context) (*domain.Snapshot, bool, error) {
	return s.snap, s.stale, s.err
}

// echoSummarizer makes assertions on answers easy without a model.
type echoSummarizer struct{}

func (echoSummarizer) Summarize(_ context.Context, _ string, rs domain.ResultSet) string {
	if rs.Empty() {
		return summary.NoResultsMessage
	}
	return fmt.Sprintf("summary of %d rows", len(rs.Records))
}

func crawlSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Columns: []string{"Address", "Title 1", "Indexability"},
		Rows: []domain.Record{
			{"Address": "https://example.com/blog/a", "Title 1": "Post A", "Indexability": "Indexable"},
		},
		FetchedAt: time.Now(),
	}
}

type fixture struct {
	orch  *Orchestrator
	execA *stubAnalyticsExecutor
	execT *stubTabularExecutor
}

func newFixture(execA *stubAnalyticsExecutor, snaps SnapshotSource) *fixture {
	execT := &stubTabularExecutor{rs: domain.ResultSet{
		Records:          []domain.Record{{"Address": "https://example.com/blog/a"}},
		TotalBeforeLimit: 1,
	}}
	orch := New(Deps{
		AnalyticsPlanner:  &stubAnalyticsPlanner{},
		TabularPlanner:    &stubTabularPlanner{},
		AnalyticsExecutor: execA,
		TabularExecutor:   execT,
		Snapshots:         snaps,
		Fuser:             fusion.NewFuser(nil),
		Summarizer:        echoSummarizer{},
	})
	return &fixture{orch: orch, execA: execA, execT: execT}
}

func TestHandle_EmptyQuery(t *testing.T) {
	t.Parallel()

	f := newFixture(&stubAnalyticsExecutor{}, &stubSnapshots{snap: crawlSnapshot()})
	resp, err := f.orch.Handle(context.Background(), "   ", "")
	require.NoError(t, err)
	assert.Equal(t, EmptyQueryAnswer, resp.Answer)
	assert.Nil(t, resp.Data)
	assert.Zero(t, f.execA.calls)
	assert.Zero(t, f.execT.calls)
}

func TestHandle_AnalyticsWithoutPropertyID(t *testing.T) {
	t.Parallel()

	f := newFixture(&stubAnalyticsExecutor{}, &stubSnapshots{snap: crawlSnapshot()})
	_, err := f.orch.Handle(context.Background(), "show top pages by traffic", "")
	require.ErrorIs(t, err, domain.ErrPropertyIDRequired)
	assert.Zero(t, f.execA.calls, "no backend call for invalid input")
}

func TestHandle_SEOOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(&stubAnalyticsExecutor{}, &stubSnapshots{snap: crawlSnapshot()})
	resp, err := f.orch.Handle(context.Background(), "pages with missing meta descriptions", "")
	require.NoError(t, err)
	assert.Equal(t, "summary of 1 rows", resp.Answer)
	assert.Equal(t, 1, f.execT.calls)
	assert.Zero(t, f.execA.calls)
}

func TestHandle_FusedPath(t *testing.T) {
	t.Parallel()

	execA := &stubAnalyticsExecutor{rs: domain.ResultSet{
		Records: []domain.Record{
			{"pagePath": "/blog/a", "screenPageViews": int64(100)},
			{"pagePath": "/blog/b", "screenPageViews": int64(50)},
			{"pagePath": "/ghost", "screenPageViews": int64(10)},
		},
		TotalBeforeLimit: 3,
	}}
	f := newFixture(execA, &stubSnapshots{snap: crawlSnapshot()})

	resp, err := f.orch.Handle(context.Background(), "top pages and their titles", "123")
	require.NoError(t, err)

	composites, ok := resp.Data.([]domain.Composite)
	require.True(t, ok, "fused data payload is a composite list")
	require.Len(t, composites, 3, "one composite per analytics row")

	assert.Equal(t, "/blog/a", composites[0].Path)
	assert.Equal(t, "Post A", composites[0].SEO.Title)
	assert.Equal(t, domain.NotAvailable, composites[1].SEO.Title)
	assert.Equal(t, domain.NotAvailable, composites[2].SEO.Title)
	assert.Zero(t, f.execT.calls, "fused path does not run the tabular pipeline")
}

func TestHandle_FusedEmptyAnalyticsSkipsEnrichment(t *testing.T) {
	t.Parallel()

	f := newFixture(&stubAnalyticsExecutor{}, &stubSnapshots{snap: crawlSnapshot()})
	resp, err := f.orch.Handle(context.Background(), "sessions and title tags", "123")
	require.NoError(t, err)
	assert.Equal(t, summary.NoResultsMessage, resp.Answer)
	assert.Empty(t, resp.Data)
}

func TestHandle_AnalyticsErrorBecomesAnswer(t *testing.T) {
	t.Parallel()

	execA := &stubAnalyticsExecutor{err: fmt.Errorf("connection refused")}
	f := newFixture(execA, &stubSnapshots{snap: crawlSnapshot()})

	resp, err := f.orch.Handle(context.Background(), "weekly traffic trend", "123")
	require.NoError(t, err, "backend failure does not propagate")
	assert.Contains(t, resp.Answer, "Error")
	assert.Nil(t, resp.Data)
}

func TestHandle_BothParallelMergesAnswers(t *testing.T) {
	t.Parallel()

	execA := &stubAnalyticsExecutor{rs: domain.ResultSet{
		Records:          []domain.Record{{"pagePath": "/", "sessions": int64(9)}},
		TotalBeforeLimit: 1,
	}}
	f := newFixture(execA, &stubSnapshots{snap: crawlSnapshot()})

	// Analytics keyword plus a loose page hint, no strict SEO term.
	resp, err := f.orch.Handle(context.Background(), "traffic for top pages", "123")
	require.NoError(t, err)

	assert.Contains(t, resp.Answer, "Analytics:\n")
	assert.Contains(t, resp.Answer, "SEO Info:\n")
	assert.Equal(t, 1, f.execA.calls)
	assert.Equal(t, 1, f.execT.calls)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data, "analytics")
	assert.Contains(t, data, "seo")
}

func TestHandle_SEODatasetUnavailable(t *testing.T) {
	t.Parallel()

	f := newFixture(&stubAnalyticsExecutor{}, &stubSnapshots{err: fmt.Errorf("sheet fetch failed")})
	resp, err := f.orch.Handle(context.Background(), "missing titles", "")
	require.NoError(t, err)
	assert.Contains(t, resp.Answer, "Error loading the SEO dataset")
	assert.Zero(t, f.execT.calls)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		propertyID string
		want       domain.Intent
		wantErr    bool
	}{
		{name: "empty", query: "", want: domain.IntentNoBackend},
		{name: "whitespace", query: "  \t ", want: domain.IntentNoBackend},
		{name: "seo only", query: "pages with missing meta descriptions", want: domain.IntentSEOOnly},
		{name: "no recognizable intent defaults to seo", query: "tell me something interesting", want: domain.IntentSEOOnly},
		{name: "analytics with property", query: "how many sessions this month", propertyID: "123", want: domain.IntentAnalyticsOnly},
		{name: "analytics without property", query: "show traffic trends", wantErr: true},
		{name: "fused", query: "top pages and their titles", propertyID: "123", want: domain.IntentFused},
		{name: "parallel on loose page hint", query: "traffic for top pages", propertyID: "123", want: domain.IntentBothParallel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Classify(tt.query, tt.propertyID)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrPropertyIDRequired)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// Deterministic: same inputs, same path.
			again, err := Classify(tt.query, tt.propertyID)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}
