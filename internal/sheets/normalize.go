package sheets

import (
	"regexp"
	"strings"
	"time"

	"insightd/internal/domain"
)

// Column-name patterns whose values carry numeric semantics in crawl
// exports ("Title 1 Length", "Word Count", "Status Code", "Crawl Depth",
// "Inlinks", ...). Matched case-insensitively against trimmed names.
var numericColumnPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)length$`),
	regexp.MustCompile(`(?i)count$`),
	regexp.MustCompile(`(?i)size$`),
	regexp.MustCompile(`(?i)score$`),
	regexp.MustCompile(`(?i)depth$`),
	regexp.MustCompile(`(?i)^h[1-6]`),
	regexp.MustCompile(`(?i)word.?count`),
	regexp.MustCompile(`(?i)status.?code`),
	regexp.MustCompile(`(?i)inlinks`),
	regexp.MustCompile(`(?i)outlinks`),
	regexp.MustCompile(`(?i)size.?bytes`),
}

// isNumericColumn reports whether the column name indicates numeric values.
func isNumericColumn(name string) bool {
	for _, p := range numericColumnPatterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// Normalize converts a raw header row plus data rows into an immutable
// snapshot: header names are trimmed, columns with empty names dropped,
// short rows padded with empty strings, and numeric-looking columns
// coerced to int64/float64 where the value parses.
func Normalize(headers []string, rows [][]string) *domain.Snapshot {
	type column struct {
		name    string
		index   int
		numeric bool
	}

	columns := make([]column, 0, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if name == "" {
			continue
		}
		columns = append(columns, column{name: name, index: i, numeric: isNumericColumn(name)})
	}

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.name
	}

	out := make([]domain.Record, 0, len(rows))
	for _, raw := range rows {
		rec := make(domain.Record, len(columns))
		for _, c := range columns {
			var v string
			if c.index < len(raw) {
				v = strings.TrimSpace(raw[c.index])
			}
			if c.numeric && v != "" {
				rec[c.name] = domain.CoerceNumeric(v)
			} else {
				rec[c.name] = v
			}
		}
		out = append(out, rec)
	}

	return &domain.Snapshot{Columns: names, Rows: out, FetchedAt: time.Now()}
}
