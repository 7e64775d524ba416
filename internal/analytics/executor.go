package analytics

import (
	"context"
	"log/slog"
	"sort"

	analyticsdata "google.golang.org/api/analyticsdata/v1beta"

	"insightd/internal/domain"
)

// Executor runs report plans against a ReportAPI and converts the columnar
// response into a record list.
type Executor struct {
	api    ReportAPI
	logger *slog.Logger
}

// NewExecutor builds an executor over the given reporting backend.
func NewExecutor(api ReportAPI, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{api: api, logger: logger}
}

// Execute maps the plan onto a report request, runs it against the given
// property, and parses the response. An empty upstream row set yields an
// empty result set, not an error.
func (e *Executor) Execute(ctx context.Context, plan domain.ReportPlan, propertyID string) (domain.ResultSet, error) {
	if propertyID == "" {
		return domain.ResultSet{}, domain.ErrPropertyIDRequired
	}

	req := BuildRequest(plan)
	resp, err := e.api.RunReport(ctx, "properties/"+propertyID, req)
	if err != nil {
		return domain.ResultSet{}, domain.ErrUpstream("analytics", err)
	}

	rs := parseResponse(resp)
	e.logger.Debug("report executed",
		"property", propertyID,
		"rows", len(rs.Records),
		"total", rs.TotalBeforeLimit,
	)
	return rs, nil
}

// BuildRequest maps a validated plan onto the reporting API's request
// shape. Per-field string filters are AND-combined into one dimension
// filter tree; orderings on plan metrics become metric orderings and
// everything else a dimension ordering, descending unless the plan says
// ascending.
func BuildRequest(plan domain.ReportPlan) *analyticsdata.RunReportRequest {
	req := &analyticsdata.RunReportRequest{
		Limit: plan.Limit,
		DateRanges: []*analyticsdata.DateRange{{
			StartDate: plan.DateRange.Start,
			EndDate:   plan.DateRange.End,
		}},
	}

	for _, m := range plan.Metrics {
		req.Metrics = append(req.Metrics, &analyticsdata.Metric{Name: m})
	}
	for _, d := range plan.Dimensions {
		req.Dimensions = append(req.Dimensions, &analyticsdata.Dimension{Name: d})
	}

	if expr := buildDimensionFilter(plan.Filters); expr != nil {
		req.DimensionFilter = expr
	}

	metricNames := make(map[string]bool, len(plan.Metrics))
	for _, m := range plan.Metrics {
		metricNames[m] = true
	}
	for _, o := range plan.OrderBys {
		ob := &analyticsdata.OrderBy{Desc: o.Desc}
		if metricNames[o.Field] {
			ob.Metric = &analyticsdata.MetricOrderBy{MetricName: o.Field}
		} else {
			ob.Dimension = &analyticsdata.DimensionOrderBy{DimensionName: o.Field}
		}
		req.OrderBys = append(req.OrderBys, ob)
	}

	return req
}

func buildDimensionFilter(filters map[string]domain.DimensionFilter) *analyticsdata.FilterExpression {
	if len(filters) == 0 {
		return nil
	}

	fields := make([]string, 0, len(filters))
	for f := range filters {
		fields = append(fields, f)
	}
	sort.Strings(fields) // deterministic request shape

	exprs := make([]*analyticsdata.FilterExpression, 0, len(fields))
	for _, field := range fields {
		f := filters[field]
		exprs = append(exprs, &analyticsdata.FilterExpression{
			Filter: &analyticsdata.Filter{
				FieldName: field,
				StringFilter: &analyticsdata.StringFilter{
					Value:     f.Value,
					MatchType: f.MatchType,
				},
			},
		})
	}

	if len(exprs) == 1 {
		return exprs[0]
	}
	return &analyticsdata.FilterExpression{
		AndGroup: &analyticsdata.FilterExpressionList{Expressions: exprs},
	}
}

// parseResponse converts the parallel header/value arrays back into
// records. Metric values are coerced to int64 when they parse as a whole
// number, float64 otherwise, and left as strings when unparseable.
func parseResponse(resp *analyticsdata.RunReportResponse) domain.ResultSet {
	if resp == nil || len(resp.Rows) == 0 {
		return domain.ResultSet{}
	}

	dimNames := make([]string, len(resp.DimensionHeaders))
	for i, h := range resp.DimensionHeaders {
		dimNames[i] = h.Name
	}
	metNames := make([]string, len(resp.MetricHeaders))
	for i, h := range resp.MetricHeaders {
		metNames[i] = h.Name
	}

	records := make([]domain.Record, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		rec := make(domain.Record, len(dimNames)+len(metNames))
		for i, v := range row.DimensionValues {
			if i < len(dimNames) {
				rec[dimNames[i]] = v.Value
			}
		}
		for i, v := range row.MetricValues {
			if i < len(metNames) {
				rec[metNames[i]] = domain.CoerceNumeric(v.Value)
			}
		}
		records = append(records, rec)
	}

	total := int(resp.RowCount)
	if total < len(records) {
		total = len(records)
	}
	return domain.ResultSet{Records: records, TotalBeforeLimit: total}
}
