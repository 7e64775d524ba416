package planner

import (
	"strings"

	"insightd/internal/domain"
)

// ApplyOverrides rewrites the plan's filters for known high-value question
// shapes. These deterministic paths exist because the model is unreliable
// on exactly the questions users ask most; when one matches, its filters
// replace the model's for that slice of the plan. Sorting, limits, and
// projections from the model plan are kept.
func ApplyOverrides(question string, columns []string, plan domain.TablePlan) domain.TablePlan {
	q := strings.ToLower(question)

	switch {
	case strings.Contains(q, "missing") && strings.Contains(q, "meta description"):
		if col := firstColumnContaining(columns, "meta description"); col != "" {
			plan.Filters = []domain.ColumnFilter{
				{Column: col, Operator: domain.OpEq, Value: ""},
			}
			plan.SelectColumns = keepOrDefault(plan.SelectColumns, columns, "address", col)
		}

	case strings.Contains(q, "missing") && strings.Contains(q, "title"):
		if col := firstColumnContaining(columns, "title"); col != "" {
			plan.Filters = []domain.ColumnFilter{
				{Column: col, Operator: domain.OpEq, Value: ""},
			}
			plan.SelectColumns = keepOrDefault(plan.SelectColumns, columns, "address", col)
		}

	case strings.Contains(q, "broken") || strings.Contains(q, "4xx") || strings.Contains(q, "5xx"):
		if col := firstColumnContaining(columns, "status code"); col != "" {
			plan.Filters = []domain.ColumnFilter{
				{Column: col, Operator: domain.OpGe, Value: float64(400)},
			}
		}

	case strings.Contains(q, "not indexable") || strings.Contains(q, "non-indexable"):
		if col := firstColumnContaining(columns, "indexability"); col != "" {
			plan.Filters = []domain.ColumnFilter{
				{Column: col, Operator: domain.OpNe, Value: "Indexable"},
			}
		}

	case strings.Contains(q, "duplicate") && strings.Contains(q, "title"):
		if col := firstColumnContaining(columns, "duplicate"); col != "" {
			plan.Filters = []domain.ColumnFilter{
				{Column: col, Operator: domain.OpNe, Value: ""},
			}
		}
	}

	return plan
}

// firstColumnContaining returns the first column whose name contains the
// fragment, case-insensitively. Empty string when none match.
func firstColumnContaining(columns []string, fragment string) string {
	for _, c := range columns {
		if strings.Contains(strings.ToLower(c), fragment) {
			return c
		}
	}
	return ""
}

// keepOrDefault returns the existing projection when present, otherwise a
// minimal address + detail column pair.
func keepOrDefault(selected, columns []string, addressFragment, detail string) []string {
	if len(selected) > 0 {
		return selected
	}
	out := []string{}
	if addr := firstColumnContaining(columns, addressFragment); addr != "" {
		out = append(out, addr)
	}
	return append(out, detail)
}
