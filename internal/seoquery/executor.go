// Package seoquery evaluates tabular query plans against an in-memory
// crawl snapshot: filter, group, aggregate, sort, project, limit.
package seoquery

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"insightd/internal/domain"
)

// Executor applies table plans to snapshots. It holds no mutable state and
// is safe for concurrent use.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor builds a tabular executor.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{logger: logger}
}

// Execute runs the plan's stages in order against the snapshot. A filter
// that cannot be evaluated is skipped with a warning rather than failing
// the whole query. The returned total counts rows (or groups) that matched
// before the limit was applied.
func (e *Executor) Execute(snap *domain.Snapshot, plan domain.TablePlan) domain.ResultSet {
	if snap.Empty() {
		return domain.ResultSet{}
	}

	rows := snap.Rows
	for _, f := range plan.Filters {
		filtered, err := applyFilter(rows, f)
		if err != nil {
			e.logger.Warn("skipping unusable filter",
				"column", f.Column, "operator", f.Operator, "error", err)
			continue
		}
		rows = filtered
	}

	if len(plan.GroupBy) > 0 {
		rows = groupRows(rows, plan.GroupBy, plan.Aggregations)
	}

	if len(plan.SortBy) > 0 {
		rows = sortRows(rows, plan.SortBy)
	}

	total := len(rows)
	if plan.Limit > 0 && len(rows) > plan.Limit {
		rows = rows[:plan.Limit]
	}

	if len(plan.SelectColumns) > 0 {
		rows = project(rows, plan.SelectColumns)
	}

	return domain.ResultSet{Records: rows, TotalBeforeLimit: total}
}

// applyFilter returns the rows matching the filter. It fails fast on an
// unknown operator; a per-row type mismatch just excludes that row.
func applyFilter(rows []domain.Record, f domain.ColumnFilter) ([]domain.Record, error) {
	pred, err := predicate(f)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Record, 0, len(rows))
	for _, r := range rows {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func predicate(f domain.ColumnFilter) (func(domain.Record) bool, error) {
	switch f.Operator {
	case domain.OpEq:
		// Equality against the empty string doubles as an
		// empty-or-missing check.
		if s, ok := f.Value.(string); ok && s == "" {
			return func(r domain.Record) bool {
				v, present := r[f.Column]
				return !present || valueString(v) == ""
			}, nil
		}
		return func(r domain.Record) bool {
			return looseEqual(r[f.Column], f.Value)
		}, nil

	case domain.OpNe:
		return func(r domain.Record) bool {
			v, present := r[f.Column]
			if s, ok := f.Value.(string); ok && s == "" {
				return present && valueString(v) != ""
			}
			return !looseEqual(v, f.Value)
		}, nil

	case domain.OpGt, domain.OpGe, domain.OpLt, domain.OpLe:
		want, ok := toFloat(f.Value)
		if !ok {
			return nil, fmt.Errorf("operator %q needs a numeric value, got %T", f.Operator, f.Value)
		}
		return func(r domain.Record) bool {
			got, ok := toFloat(r[f.Column])
			if !ok {
				return false
			}
			switch f.Operator {
			case domain.OpGt:
				return got > want
			case domain.OpGe:
				return got >= want
			case domain.OpLt:
				return got < want
			default:
				return got <= want
			}
		}, nil

	case domain.OpContains:
		needle := strings.ToLower(valueString(f.Value))
		return func(r domain.Record) bool {
			return strings.Contains(strings.ToLower(valueString(r[f.Column])), needle)
		}, nil

	case domain.OpNotContains:
		needle := strings.ToLower(valueString(f.Value))
		return func(r domain.Record) bool {
			return !strings.Contains(strings.ToLower(valueString(r[f.Column])), needle)
		}, nil

	case domain.OpIn, domain.OpNotIn:
		list, ok := f.Value.([]any)
		if !ok {
			return nil, fmt.Errorf("operator %q needs a list value, got %T", f.Operator, f.Value)
		}
		return func(r domain.Record) bool {
			v := r[f.Column]
			found := false
			for _, candidate := range list {
				if looseEqual(v, candidate) {
					found = true
					break
				}
			}
			if f.Operator == domain.OpIn {
				return found
			}
			return !found
		}, nil
	}

	return nil, fmt.Errorf("unknown operator %q", f.Operator)
}

// groupRows buckets rows by the group-by columns, preserving first-seen
// group order, and computes the requested aggregations. Each aggregate
// lands in a field named "<column>_<function>". With no usable
// aggregations every group still reports its row count under "count".
func groupRows(rows []domain.Record, groupBy []string, aggs map[string][]string) []domain.Record {
	type bucket struct {
		key  domain.Record
		rows []domain.Record
	}

	order := []string{}
	buckets := map[string]*bucket{}
	for _, r := range rows {
		parts := make([]string, len(groupBy))
		keyRec := make(domain.Record, len(groupBy))
		for i, col := range groupBy {
			parts[i] = valueString(r[col])
			keyRec[col] = r[col]
		}
		k := strings.Join(parts, "\x1f")
		b, ok := buckets[k]
		if !ok {
			b = &bucket{key: keyRec}
			buckets[k] = b
			order = append(order, k)
		}
		b.rows = append(b.rows, r)
	}

	aggCols := make([]string, 0, len(aggs))
	for col := range aggs {
		aggCols = append(aggCols, col)
	}
	sort.Strings(aggCols)

	out := make([]domain.Record, 0, len(order))
	for _, k := range order {
		b := buckets[k]
		rec := make(domain.Record, len(b.key)+len(aggs)+1)
		for col, v := range b.key {
			rec[col] = v
		}

		wrote := false
		for _, col := range aggCols {
			for _, fn := range aggs[col] {
				if v, ok := aggregate(b.rows, col, fn); ok {
					rec[col+"_"+fn] = v
					wrote = true
				}
			}
		}
		if !wrote {
			rec["count"] = int64(len(b.rows))
		}
		out = append(out, rec)
	}
	return out
}

func aggregate(rows []domain.Record, col, fn string) (any, bool) {
	switch fn {
	case domain.AggCount:
		var n int64
		for _, r := range rows {
			if v, ok := r[col]; ok && valueString(v) != "" {
				n++
			}
		}
		return n, true

	case domain.AggCountDistinct:
		seen := map[string]struct{}{}
		for _, r := range rows {
			if v, ok := r[col]; ok && valueString(v) != "" {
				seen[valueString(v)] = struct{}{}
			}
		}
		return int64(len(seen)), true

	case domain.AggSum, domain.AggMean, domain.AggMin, domain.AggMax:
		var vals []float64
		for _, r := range rows {
			if f, ok := toFloat(r[col]); ok {
				vals = append(vals, f)
			}
		}
		if len(vals) == 0 {
			return nil, false
		}
		switch fn {
		case domain.AggSum:
			var s float64
			for _, v := range vals {
				s += v
			}
			return wholeOrFloat(s), true
		case domain.AggMean:
			var s float64
			for _, v := range vals {
				s += v
			}
			return s / float64(len(vals)), true
		case domain.AggMin:
			m := vals[0]
			for _, v := range vals[1:] {
				if v < m {
					m = v
				}
			}
			return wholeOrFloat(m), true
		default:
			m := vals[0]
			for _, v := range vals[1:] {
				if v > m {
					m = v
				}
			}
			return wholeOrFloat(m), true
		}
	}
	return nil, false
}

// sortRows orders rows by the sort keys in sequence, numerically when both
// sides are numeric and lexicographically otherwise. The sort is stable so
// earlier keys dominate.
func sortRows(rows []domain.Record, keys []domain.SortSpec) []domain.Record {
	out := make([]domain.Record, len(rows))
	copy(out, rows)

	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range keys {
			c := compareValues(out[i][k.Column], out[j][k.Column])
			if c == 0 {
				continue
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return out
}

// project keeps only the named fields. Names absent from a record are
// skipped; a projection that matches nothing leaves the record whole so
// the caller still sees data.
func project(rows []domain.Record, cols []string) []domain.Record {
	out := make([]domain.Record, len(rows))
	for i, r := range rows {
		p := make(domain.Record, len(cols))
		for _, c := range cols {
			if v, ok := r[c]; ok {
				p[c] = v
			}
		}
		if len(p) == 0 {
			out[i] = r
			continue
		}
		out[i] = p
	}
	return out
}

func compareValues(a, b any) int {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(valueString(a), valueString(b))
}

func looseEqual(a, b any) bool {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		return fa == fb
	}
	return valueString(a) == valueString(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func valueString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}

func wholeOrFloat(f float64) any {
	if f == float64(int64(f)) {
		return int64(f)
	}
	return f
}
