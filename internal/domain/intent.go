package domain

// Intent is the orchestration path selected for a request. Classification
// is deterministic given the query text and property-ID presence.
type Intent int

const (
	// IntentNoBackend terminates immediately: empty or whitespace query.
	IntentNoBackend Intent = iota
	// IntentSEOOnly runs only the tabular pipeline. This is the safe
	// default since it needs no external identifier.
	IntentSEOOnly
	// IntentAnalyticsOnly runs only the reporting pipeline.
	IntentAnalyticsOnly
	// IntentBothParallel runs both pipelines concurrently and merges.
	IntentBothParallel
	// IntentFused runs analytics first, then enriches the result rows
	// with SEO details joined on URL path.
	IntentFused
)

func (i Intent) String() string {
	switch i {
	case IntentNoBackend:
		return "NO_BACKEND_NEEDED"
	case IntentSEOOnly:
		return "SEO_ONLY"
	case IntentAnalyticsOnly:
		return "ANALYTICS_ONLY"
	case IntentBothParallel:
		return "BOTH_PARALLEL"
	case IntentFused:
		return "FUSED"
	default:
		return "UNKNOWN"
	}
}
