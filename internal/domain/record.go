package domain

import (
	"strconv"
	"time"
)

// Record is one result row: a mapping from field name to a scalar value
// (string, int64, or float64).
type Record map[string]any

// ResultSet is an ordered sequence of records plus the row count observed
// before any limit truncation, so callers can render "showing N of M".
type ResultSet struct {
	Records          []Record
	TotalBeforeLimit int
}

// Empty reports whether the result set holds no records.
func (rs ResultSet) Empty() bool { return len(rs.Records) == 0 }

// Snapshot is a full, immutable copy of the tabular SEO dataset at a point
// in time. It is only ever replaced wholesale; rows are never mutated after
// load.
type Snapshot struct {
	Columns   []string
	Rows      []Record
	FetchedAt time.Time
}

// Empty reports whether the snapshot holds no rows.
func (s *Snapshot) Empty() bool { return s == nil || len(s.Rows) == 0 }

// HasColumn reports whether the snapshot contains the named column.
func (s *Snapshot) HasColumn(name string) bool {
	if s == nil {
		return false
	}
	for _, c := range s.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// CoerceNumeric converts a numeric-looking string to int64 when it parses
// as a whole number, float64 when it parses as a fraction, and returns the
// original string otherwise.
func CoerceNumeric(v string) any {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	if f == float64(int64(f)) {
		return int64(f)
	}
	return f
}
