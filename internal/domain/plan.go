package domain

// Filter match types accepted by the analytics reporting API.
const (
	MatchExact      = "EXACT"
	MatchBeginsWith = "BEGINS_WITH"
	MatchEndsWith   = "ENDS_WITH"
	MatchContains   = "CONTAINS"
	MatchFullRegexp = "FULL_REGEXP"
)

// DimensionFilter is a single string condition on an analytics dimension.
type DimensionFilter struct {
	Value     string `json:"value"`
	MatchType string `json:"match_type"`
}

// OrderSpec orders an analytics report by one field.
type OrderSpec struct {
	Field string `json:"field_name"`
	Desc  bool   `json:"-"`
}

// ReportPlan is a validated, structured analytics report request derived
// from a natural-language question. It is immutable once handed to the
// executor: metrics and dimensions are guaranteed to be members of the
// planner's allow-lists and Limit is clamped to ReportMaxLimit.
type ReportPlan struct {
	Metrics    []string                   `json:"metrics"`
	Dimensions []string                   `json:"dimensions"`
	DateRange  DateRange                  `json:"date_range"`
	Filters    map[string]DimensionFilter `json:"filters"`
	OrderBys   []OrderSpec                `json:"order_by"`
	Limit      int64                      `json:"limit"`
}

// DateRange bounds a report by inclusive ISO dates (YYYY-MM-DD).
type DateRange struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// Tabular filter operators.
const (
	OpEq          = "=="
	OpNe          = "!="
	OpGt          = ">"
	OpGe          = ">="
	OpLt          = "<"
	OpLe          = "<="
	OpContains    = "contains"
	OpNotContains = "not contains"
	OpIn          = "in"
	OpNotIn       = "not in"
)

// Aggregation function names the tabular executor understands.
const (
	AggCount         = "count"
	AggSum           = "sum"
	AggMean          = "mean"
	AggMin           = "min"
	AggMax           = "max"
	AggCountDistinct = "nunique"
)

// ColumnFilter is one condition on a tabular dataset column. Filters whose
// Column is absent from the snapshot are skipped, not errors.
type ColumnFilter struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// SortSpec sorts tabular results by one column.
type SortSpec struct {
	Column string `json:"column"`
	Desc   bool   `json:"-"`
}

// TablePlan is the validated instruction set for querying the in-memory
// SEO dataset: filters, then grouping/aggregation, then sort, then column
// projection, then row limit.
type TablePlan struct {
	Filters       []ColumnFilter      `json:"filters"`
	GroupBy       []string            `json:"group_by"`
	Aggregations  map[string][]string `json:"aggregations"`
	SortBy        []SortSpec          `json:"sort_by"`
	Limit         int                 `json:"limit"`
	SelectColumns []string            `json:"select_columns"`
}
