package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"insightd/internal/domain"
	"insightd/internal/llm"
)

// TableDefaultLimit caps tabular results when the model omits a limit.
const TableDefaultLimit = 100

var allowedAggregations = map[string]string{
	"count":          domain.AggCount,
	"sum":            domain.AggSum,
	"mean":           domain.AggMean,
	"avg":            domain.AggMean,
	"average":        domain.AggMean,
	"min":            domain.AggMin,
	"max":            domain.AggMax,
	"nunique":        domain.AggCountDistinct,
	"count_distinct": domain.AggCountDistinct,
}

const tabularSystemPrompt = `You are an expert at converting natural language questions about SEO crawl data into structured queries.
Analyze the user's question and extract filters, grouping, aggregations, sorting, a limit, and the columns to return.

Respond with a single JSON object in exactly this structure:
{
  "filters": [{"column": "column_name", "operator": "==|!=|>|>=|<|<=|contains|not contains|in|not in", "value": "value"}],
  "group_by": ["column1", ...],
  "aggregations": {"column_name": ["count", "sum", "mean", "min", "max", "nunique"]},
  "sort_by": [{"column": "column_name", "order": "asc|desc"}],
  "limit": 100,
  "select_columns": ["column1", ...]
}

Available columns in the data:
%COLUMNS%

Only reference columns from the available list. Respond with JSON only, no commentary.`

// tablePlanWire matches the JSON shape the model is asked to produce.
type tablePlanWire struct {
	Filters       []domain.ColumnFilter `json:"filters"`
	GroupBy       []string              `json:"group_by"`
	Aggregations  map[string][]string   `json:"aggregations"`
	SortBy        []sortWire            `json:"sort_by"`
	Limit         *int                  `json:"limit"`
	SelectColumns []string              `json:"select_columns"`
}

type sortWire struct {
	Column string `json:"column"`
	Order  string `json:"order"`
}

// TabularPlanner converts questions into TablePlans against the live
// column set of the loaded dataset. A deterministic keyword path overrides
// the model for known high-value question shapes.
type TabularPlanner struct {
	llm    llm.Client
	logger *slog.Logger
}

// NewTabularPlanner builds a planner around the given completion client.
func NewTabularPlanner(client llm.Client, logger *slog.Logger) *TabularPlanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &TabularPlanner{llm: client, logger: logger}
}

// Plan produces a validated table plan. Model failure yields an empty
// (match-everything, limited) plan; it never errors. Keyword overrides are
// applied last so they win over whatever the model produced.
func (p *TabularPlanner) Plan(ctx context.Context, question string, columns []string) domain.TablePlan {
	var wire tablePlanWire

	raw, err := p.llm.CompleteWithSystem(ctx, tabularPrompt(columns), question)
	if err != nil {
		p.logger.Warn("table planning call failed, using default plan", "error", err)
	} else {
		text, jerr := llm.ExtractJSON(raw)
		if jerr == nil {
			jerr = json.Unmarshal([]byte(text), &wire)
		}
		if jerr != nil {
			p.logger.Warn("table plan output unparseable, using default plan", "error", jerr)
			wire = tablePlanWire{}
		}
	}

	plan := SanitizeTablePlan(wireToTablePlan(wire), columns)
	return ApplyOverrides(question, columns, plan)
}

func tabularPrompt(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return strings.Replace(tabularSystemPrompt, "%COLUMNS%", strings.Join(quoted, ", "), 1)
}

func wireToTablePlan(wire tablePlanWire) domain.TablePlan {
	plan := domain.TablePlan{
		Filters:       wire.Filters,
		GroupBy:       wire.GroupBy,
		Aggregations:  wire.Aggregations,
		SelectColumns: wire.SelectColumns,
		Limit:         TableDefaultLimit,
	}
	if wire.Limit != nil && *wire.Limit > 0 {
		plan.Limit = *wire.Limit
	}
	for _, s := range wire.SortBy {
		if s.Column == "" {
			continue
		}
		plan.SortBy = append(plan.SortBy, domain.SortSpec{
			Column: s.Column,
			Desc:   strings.EqualFold(s.Order, "desc"),
		})
	}
	return plan
}

// SanitizeTablePlan drops references to columns absent from the snapshot
// and aggregation functions outside the allow-list. The plan degrades to
// fewer constraints rather than erroring. Grouping that loses all of its
// aggregations falls back to a plain per-group row count, which the
// executor applies when Aggregations is empty.
func SanitizeTablePlan(plan domain.TablePlan, columns []string) domain.TablePlan {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}

	filters := plan.Filters[:0:0]
	for _, f := range plan.Filters {
		if known[f.Column] {
			filters = append(filters, f)
		}
	}
	plan.Filters = filters

	plan.GroupBy = keepKnown(plan.GroupBy, known)
	plan.SelectColumns = keepKnown(plan.SelectColumns, known)

	sorts := plan.SortBy[:0:0]
	for _, s := range plan.SortBy {
		// Post-aggregation names like "Address_count" are resolved by the
		// executor; only drop sorts on plainly unknown raw columns when no
		// grouping is requested.
		if known[s.Column] || len(plan.GroupBy) > 0 {
			sorts = append(sorts, s)
		}
	}
	plan.SortBy = sorts

	aggs := make(map[string][]string, len(plan.Aggregations))
	for col, funcs := range plan.Aggregations {
		if !known[col] {
			continue
		}
		var kept []string
		for _, fn := range funcs {
			if canonical, ok := allowedAggregations[strings.ToLower(fn)]; ok {
				kept = append(kept, canonical)
			}
		}
		if len(kept) > 0 {
			aggs[col] = kept
		}
	}
	plan.Aggregations = aggs

	if plan.Limit <= 0 {
		plan.Limit = TableDefaultLimit
	}
	return plan
}

func keepKnown(names []string, known map[string]bool) []string {
	out := names[:0:0]
	for _, n := range names {
		if known[n] {
			out = append(out, n)
		}
	}
	return out
}
