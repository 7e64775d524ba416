// Package planner turns natural-language questions into validated,
// backend-specific query plans. Planning never hard-fails: malformed or
// missing model output degrades field-by-field to safe defaults, and the
// sanitizer runs on every plan regardless of how it was produced.
package planner

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"insightd/internal/domain"
	"insightd/internal/llm"
)

// ReportMaxLimit is the hard ceiling on report row limits.
const ReportMaxLimit = 10000

// ReportDefaultLimit is used when the model omits or botches the limit.
const ReportDefaultLimit = 1000

// Metric names the analytics planner may emit. Anything else is dropped.
var allowedMetrics = map[string]bool{
	// User metrics
	"activeUsers": true, "newUsers": true, "totalUsers": true,
	"sessionsPerUser": true, "userEngagementDuration": true,
	// Session metrics
	"sessions": true, "averageSessionDuration": true, "engagedSessions": true,
	// Engagement metrics
	"screenPageViews": true, "screenPageViewsPerSession": true,
	"screenPageViewsPerUser": true, "bounceRate": true, "engagementRate": true,
	"averageEngagementTime": true,
	// Ecommerce metrics
	"purchaseRevenue": true, "transactions": true, "totalRevenue": true,
	"ecommercePurchases": true, "itemsViewed": true, "itemsAddedToCart": true,
	"itemsPurchased": true,
	// Event metrics
	"eventCount": true, "eventsPerSession": true, "eventCountPerUser": true,
}

// Dimension names the analytics planner may emit.
var allowedDimensions = map[string]bool{
	// Time
	"date": true, "dayOfWeek": true, "hour": true, "month": true, "year": true,
	"dateHour": true, "dateHourMinute": true,
	// Traffic source
	"source": true, "medium": true, "campaign": true, "sourceMedium": true,
	"campaignId": true, "defaultChannelGrouping": true,
	// Page / screen
	"pageTitle": true, "pagePath": true, "pageLocation": true,
	"pageReferrer": true, "pagePathPlusQueryString": true,
	// User
	"country": true, "city": true, "region": true, "language": true,
	"deviceCategory": true, "browser": true, "operatingSystem": true,
	"platform": true,
	// Event
	"eventName": true,
}

var defaultMetrics = []string{"screenPageViews", "activeUsers", "sessions"}

var defaultDimensions = []string{"date"}

const analyticsSystemPrompt = `You are an expert at converting natural language questions into Google Analytics 4 report requests.
Analyze the user's question and extract metrics, dimensions, a date range, filters, sort order, and a row limit.

Respond with a single JSON object in exactly this structure:
{
  "metrics": ["metric1", ...],
  "dimensions": ["dimension1", ...],
  "start_date": "YYYY-MM-DD",
  "end_date": "YYYY-MM-DD",
  "filters": {
    "dimensionName": {"value": "value_to_match", "match_type": "EXACT" | "BEGINS_WITH" | "ENDS_WITH" | "CONTAINS" | "FULL_REGEXP"}
  },
  "order_by": [{"field_name": "metric_or_dimension_name", "sort_order": "ASCENDING" | "DESCENDING"}],
  "limit": 1000
}

Allowed metrics: %METRICS%
Allowed dimensions: %DIMENSIONS%

Only use names from the allowed lists. Respond with JSON only, no commentary.`

// reportPlanWire matches the JSON shape the model is asked to produce.
type reportPlanWire struct {
	Metrics    []string                          `json:"metrics"`
	Dimensions []string                          `json:"dimensions"`
	StartDate  string                            `json:"start_date"`
	EndDate    string                            `json:"end_date"`
	Filters    map[string]domain.DimensionFilter `json:"filters"`
	OrderBy    []orderWire                       `json:"order_by"`
	Limit      *int64                            `json:"limit"`
}

type orderWire struct {
	FieldName string `json:"field_name"`
	SortOrder string `json:"sort_order"`
}

// AnalyticsPlanner converts questions into ReportPlans with LLM assistance.
type AnalyticsPlanner struct {
	llm    llm.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewAnalyticsPlanner builds a planner around the given completion client.
func NewAnalyticsPlanner(client llm.Client, logger *slog.Logger) *AnalyticsPlanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsPlanner{llm: client, logger: logger, now: time.Now}
}

// Plan produces a validated report plan for the question. A failed model
// call or unparseable output yields the full default plan; it never errors.
func (p *AnalyticsPlanner) Plan(ctx context.Context, question string) domain.ReportPlan {
	var wire reportPlanWire

	raw, err := p.llm.CompleteWithSystem(ctx, analyticsPrompt(), question)
	if err != nil {
		p.logger.Warn("report planning call failed, using default plan", "error", err)
		return SanitizeReportPlan(fillReportDefaults(wire, p.now()))
	}

	text, err := llm.ExtractJSON(raw)
	if err == nil {
		err = json.Unmarshal([]byte(text), &wire)
	}
	if err != nil {
		p.logger.Warn("report plan output unparseable, using default plan", "error", err)
		wire = reportPlanWire{}
	}

	return SanitizeReportPlan(fillReportDefaults(wire, p.now()))
}

func analyticsPrompt() string {
	prompt := strings.Replace(analyticsSystemPrompt, "%METRICS%", strings.Join(sortedKeys(allowedMetrics), ", "), 1)
	return strings.Replace(prompt, "%DIMENSIONS%", strings.Join(sortedKeys(allowedDimensions), ", "), 1)
}

// fillReportDefaults converts the wire form into a plan, substituting
// defaults for every missing field. Pure: no I/O, deterministic given now.
func fillReportDefaults(wire reportPlanWire, now time.Time) domain.ReportPlan {
	plan := domain.ReportPlan{
		Metrics:    wire.Metrics,
		Dimensions: wire.Dimensions,
		Filters:    wire.Filters,
		Limit:      ReportDefaultLimit,
	}
	if wire.Limit != nil && *wire.Limit > 0 {
		plan.Limit = *wire.Limit
	}

	plan.DateRange = domain.DateRange{Start: wire.StartDate, End: wire.EndDate}
	if plan.DateRange.Start == "" || plan.DateRange.End == "" {
		end := now
		plan.DateRange = domain.DateRange{
			Start: end.AddDate(0, 0, -30).Format("2006-01-02"),
			End:   end.Format("2006-01-02"),
		}
	}

	for _, o := range wire.OrderBy {
		if o.FieldName == "" {
			continue
		}
		plan.OrderBys = append(plan.OrderBys, domain.OrderSpec{
			Field: o.FieldName,
			Desc:  !strings.EqualFold(o.SortOrder, "ASCENDING"),
		})
	}
	if len(plan.OrderBys) == 0 {
		plan.OrderBys = []domain.OrderSpec{{Field: "date", Desc: true}}
	}

	if plan.Filters == nil {
		plan.Filters = map[string]domain.DimensionFilter{}
	}
	return plan
}

// SanitizeReportPlan enforces the allow-lists and limits on a plan. It runs
// on every plan whether or not the model output parsed: unknown metrics and
// dimensions are dropped (defaults substituted when a list empties out),
// the limit is clamped, and filter match types are normalized.
func SanitizeReportPlan(plan domain.ReportPlan) domain.ReportPlan {
	plan.Metrics = keepAllowed(plan.Metrics, allowedMetrics)
	if len(plan.Metrics) == 0 {
		plan.Metrics = append([]string(nil), defaultMetrics...)
	}

	plan.Dimensions = keepAllowed(plan.Dimensions, allowedDimensions)
	if len(plan.Dimensions) == 0 {
		plan.Dimensions = append([]string(nil), defaultDimensions...)
	}

	if plan.Limit <= 0 {
		plan.Limit = ReportDefaultLimit
	}
	if plan.Limit > ReportMaxLimit {
		plan.Limit = ReportMaxLimit
	}

	sanitized := make(map[string]domain.DimensionFilter, len(plan.Filters))
	for field, f := range plan.Filters {
		if !allowedDimensions[field] {
			continue
		}
		switch strings.ToUpper(f.MatchType) {
		case domain.MatchBeginsWith, domain.MatchEndsWith, domain.MatchContains, domain.MatchFullRegexp:
			f.MatchType = strings.ToUpper(f.MatchType)
		default:
			f.MatchType = domain.MatchExact
		}
		sanitized[field] = f
	}
	plan.Filters = sanitized

	return plan
}

func keepAllowed(names []string, allowed map[string]bool) []string {
	out := names[:0:0]
	for _, n := range names {
		if allowed[n] {
			out = append(out, n)
		}
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Stable prompt text keeps planning deterministic across runs.
	sort.Strings(keys)
	return keys
}
