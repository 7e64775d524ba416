// Package fusion joins analytics report rows with crawl metadata on the
// page's URL path.
package fusion

import (
	"log/slog"
	"net/url"
	"strings"

	"insightd/internal/domain"
)

// Analytics dimension names that carry a page path, in lookup priority.
var pathFields = []string{"pagePath", "pagePathPlusQueryString", "pageLocation"}

// Fuser joins analytics records against a crawl snapshot.
type Fuser struct {
	logger *slog.Logger
}

// NewFuser builds a fuser.
func NewFuser(logger *slog.Logger) *Fuser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fuser{logger: logger}
}

// Fuse enriches every analytics record with the crawl row whose URL path
// matches. The join is total: each input record yields exactly one
// composite, in input order, with "N/A" standing in when no crawl row
// matches or the record carries no recognizable path.
func (f *Fuser) Fuse(analytics []domain.Record, snap *domain.Snapshot) []domain.Composite {
	if len(analytics) == 0 {
		return nil
	}

	idx := buildPathIndex(snap)
	pathField := detectPathField(analytics)
	if pathField == "" {
		f.logger.Warn("analytics rows carry no page path dimension, fusing with placeholders")
	}

	out := make([]domain.Composite, 0, len(analytics))
	matched := 0
	for _, rec := range analytics {
		c := domain.Composite{
			Path:    domain.NotAvailable,
			Metrics: metricsWithout(rec, pathField),
			SEO: domain.SEODetails{
				Title:        domain.NotAvailable,
				Indexability: domain.NotAvailable,
			},
		}
		if pathField != "" {
			if raw, ok := rec[pathField].(string); ok {
				p := NormalizePath(raw)
				c.Path = p
				if row, ok := idx.lookup(p); ok {
					c.SEO = row
					matched++
				}
			}
		}
		out = append(out, c)
	}

	f.logger.Debug("fused analytics with crawl data",
		"rows", len(out), "matched", matched)
	return out
}

// detectPathField returns the highest-priority path dimension present in
// any record, or empty when none is.
func detectPathField(records []domain.Record) string {
	for _, field := range pathFields {
		for _, rec := range records {
			if _, ok := rec[field]; ok {
				return field
			}
		}
	}
	return ""
}

// NormalizePath reduces a path or full URL to a canonical path: scheme and
// host stripped, query and fragment dropped, trailing slash removed, the
// bare root kept as "/".
func NormalizePath(raw string) string {
	p := raw
	if strings.Contains(raw, "://") {
		if u, err := url.Parse(raw); err == nil {
			p = u.Path
		}
	}
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimSuffix(p, "/")
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

type pathIndex map[string]domain.SEODetails

func (idx pathIndex) lookup(p string) (domain.SEODetails, bool) {
	d, ok := idx[p]
	return d, ok
}

// buildPathIndex keys the snapshot's rows by normalized path. The URL
// column is the first one named address or url; title and indexability
// come from the first columns containing those words. First writer wins
// on duplicate paths.
func buildPathIndex(snap *domain.Snapshot) pathIndex {
	idx := pathIndex{}
	if snap.Empty() {
		return idx
	}

	urlCol := ""
	for _, c := range snap.Columns {
		switch strings.ToLower(c) {
		case "address", "url":
			urlCol = c
		}
		if urlCol != "" {
			break
		}
	}
	if urlCol == "" {
		return idx
	}

	titleCol := firstColumnContaining(snap.Columns, "title")
	indexCol := firstColumnContaining(snap.Columns, "indexability")

	for _, row := range snap.Rows {
		raw, ok := row[urlCol].(string)
		if !ok || raw == "" {
			continue
		}
		p := NormalizePath(raw)
		if _, exists := idx[p]; exists {
			continue
		}
		idx[p] = domain.SEODetails{
			Title:        stringOr(row, titleCol, domain.NotAvailable),
			Indexability: stringOr(row, indexCol, domain.NotAvailable),
		}
	}
	return idx
}

func firstColumnContaining(columns []string, fragment string) string {
	for _, c := range columns {
		if strings.Contains(strings.ToLower(c), fragment) {
			return c
		}
	}
	return ""
}

// metricsWithout copies the record minus the join-key field, which is
// already surfaced as the composite's path.
func metricsWithout(rec domain.Record, pathField string) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		if k == pathField {
			continue
		}
		out[k] = v
	}
	return out
}

func stringOr(row domain.Record, col, fallback string) string {
	if col == "" {
		return fallback
	}
	if s, ok := row[col].(string); ok && s != "" {
		return s
	}
	return fallback
}
