package planner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightd/internal/domain"
)

// stubLLM returns a fixed completion (or error) for every call.
type stubLLM struct {
	out string
	err error

	lastSystem string
	lastUser   string
}

func (s *stubLLM) CompleteWithSystem(_ context.Context, system, user string) (string, error) {
	s.lastSystem = system
	s.lastUser = user
	return s.out, s.err
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func newTestAnalyticsPlanner(stub *stubLLM) *AnalyticsPlanner {
	p := NewAnalyticsPlanner(stub, nil)
	p.now = fixedNow
	return p
}

func TestAnalyticsPlanner_WellFormedOutput(t *testing.T) {
	t.Parallel()

	stub := &stubLLM{out: "```json\n" + `{
		"metrics": ["screenPageViews", "bogusMetric"],
		"dimensions": ["pagePath"],
		"start_date": "2025-06-01",
		"end_date": "2025-06-14",
		"filters": {"pagePath": {"value": "/blog", "match_type": "begins_with"}},
		"order_by": [{"field_name": "screenPageViews", "sort_order": "DESCENDING"}],
		"limit": 25
	}` + "\n```"}

	plan := newTestAnalyticsPlanner(stub).Plan(context.Background(), "top blog pages by views")

	assert.Equal(t, []string{"screenPageViews"}, plan.Metrics, "unknown metric dropped")
	assert.Equal(t, []string{"pagePath"}, plan.Dimensions)
	assert.Equal(t, domain.DateRange{Start: "2025-06-01", End: "2025-06-14"}, plan.DateRange)
	assert.Equal(t, int64(25), plan.Limit)
	require.Len(t, plan.OrderBys, 1)
	assert.True(t, plan.OrderBys[0].Desc)

	f, ok := plan.Filters["pagePath"]
	require.True(t, ok)
	assert.Equal(t, domain.MatchBeginsWith, f.MatchType, "match type upper-cased")
}

func TestAnalyticsPlanner_ModelFailureYieldsDefaults(t *testing.T) {
	t.Parallel()

	stub := &stubLLM{err: fmt.Errorf("upstream timeout")}
	plan := newTestAnalyticsPlanner(stub).Plan(context.Background(), "how many users last week")

	assert.Equal(t, []string{"screenPageViews", "activeUsers", "sessions"}, plan.Metrics)
	assert.Equal(t, []string{"date"}, plan.Dimensions)
	assert.Equal(t, int64(ReportDefaultLimit), plan.Limit)
	assert.Equal(t, "2025-05-16", plan.DateRange.Start, "last 30 days from fixed now")
	assert.Equal(t, "2025-06-15", plan.DateRange.End)
	require.Len(t, plan.OrderBys, 1)
	assert.Equal(t, domain.OrderSpec{Field: "date", Desc: true}, plan.OrderBys[0])
}

func TestAnalyticsPlanner_GarbageOutputYieldsDefaults(t *testing.T) {
	t.Parallel()

	stub := &stubLLM{out: "I'm sorry, I can't produce a plan for that."}
	plan := newTestAnalyticsPlanner(stub).Plan(context.Background(), "anything")

	assert.Equal(t, []string{"screenPageViews", "activeUsers", "sessions"}, plan.Metrics)
	assert.Equal(t, []string{"date"}, plan.Dimensions)
}

func TestSanitizeReportPlan_Properties(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   domain.ReportPlan
	}{
		{
			name: "all unknown names",
			in: domain.ReportPlan{
				Metrics:    []string{"dropMe", "alsoDropMe"},
				Dimensions: []string{"nope"},
				Limit:      50,
			},
		},
		{
			name: "limit above maximum",
			in: domain.ReportPlan{
				Metrics:    []string{"sessions"},
				Dimensions: []string{"date"},
				Limit:      250000,
			},
		},
		{
			name: "negative limit",
			in: domain.ReportPlan{
				Metrics:    []string{"sessions"},
				Dimensions: []string{"country"},
				Limit:      -3,
			},
		},
		{
			name: "filter on unknown dimension dropped",
			in: domain.ReportPlan{
				Metrics:    []string{"sessions"},
				Dimensions: []string{"date"},
				Filters: map[string]domain.DimensionFilter{
					"madeUpField": {Value: "x", MatchType: "EXACT"},
					"pagePath":    {Value: "/a", MatchType: "weird"},
				},
				Limit: 10,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := SanitizeReportPlan(tt.in)

			require.NotEmpty(t, got.Metrics)
			require.NotEmpty(t, got.Dimensions)
			for _, m := range got.Metrics {
				assert.True(t, allowedMetrics[m], "metric %q outside allow-list", m)
			}
			for _, d := range got.Dimensions {
				assert.True(t, allowedDimensions[d], "dimension %q outside allow-list", d)
			}
			assert.LessOrEqual(t, got.Limit, int64(ReportMaxLimit))
			assert.Positive(t, got.Limit)
			for field, f := range got.Filters {
				assert.True(t, allowedDimensions[field])
				assert.Contains(t, []string{
					domain.MatchExact, domain.MatchBeginsWith, domain.MatchEndsWith,
					domain.MatchContains, domain.MatchFullRegexp,
				}, f.MatchType)
			}
		})
	}
}

func TestAnalyticsPlanner_PromptCarriesAllowLists(t *testing.T) {
	t.Parallel()

	stub := &stubLLM{out: `{}`}
	newTestAnalyticsPlanner(stub).Plan(context.Background(), "users by country")

	assert.Contains(t, stub.lastSystem, "activeUsers")
	assert.Contains(t, stub.lastSystem, "pagePath")
	assert.Equal(t, "users by country", stub.lastUser)
}
