package orchestrator

import (
	"strings"

	"insightd/internal/domain"
)

// Keyword sets for intent classification. Matching is substring-based on
// the lowercased query, so "pageview" also catches "pageviews".
var (
	analyticsKeywords = []string{
		"user", "session", "pageview", "page view", "traffic",
		"analytics", "visit", "trend", "top page", "ga4",
		"bounce", "conversion",
	}
	seoKeywords = []string{
		"seo", "title", "meta", "description", "index", "https",
		"status code", "missing", "tag", "crawl", "canonical",
		"redirect", "broken", "duplicate",
	}
	// Looser page-shaped hints that justify running the SEO pipeline
	// alongside analytics even when no strict SEO term appears.
	seoLooseKeywords = []string{"page", "url", "link", "site"}
)

// Classify maps a query and the presence of a property ID to an
// orchestration intent. It is a pure function of its inputs.
//
// Precedence: empty query terminates; a strict SEO term plus an analytics
// term plus a property ID selects the fused path; analytics with a
// property ID runs alone or alongside SEO depending on loose page hints;
// analytics without a property ID is a hard error; everything else falls
// through to the SEO-only path, which needs no external identifier.
func Classify(query, propertyID string) (domain.Intent, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return domain.IntentNoBackend, nil
	}

	analytics := matchesAny(q, analyticsKeywords)
	seoStrict := matchesAny(q, seoKeywords)
	seoLoose := seoStrict || matchesAny(q, seoLooseKeywords)

	switch {
	case analytics && seoStrict && propertyID != "":
		return domain.IntentFused, nil
	case analytics && propertyID != "" && seoLoose:
		return domain.IntentBothParallel, nil
	case analytics && propertyID != "":
		return domain.IntentAnalyticsOnly, nil
	case analytics:
		return domain.IntentNoBackend, domain.ErrPropertyIDRequired
	default:
		return domain.IntentSEOOnly, nil
	}
}

func matchesAny(q string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}
