package domain

// NotAvailable is the sentinel used in composite records when no matching
// SEO row exists for an analytics path.
const NotAvailable = "N/A"

// SEODetails carries the crawl fields attached to an analytics record
// during fusion.
type SEODetails struct {
	Title        string `json:"title"`
	Indexability string `json:"indexability"`
}

// Composite is the fusion output: one analytics record keyed by its
// normalized URL path, enriched with SEO crawl details. Metrics excludes
// the join-key field itself.
type Composite struct {
	Path    string         `json:"path"`
	Metrics map[string]any `json:"metrics"`
	SEO     SEODetails     `json:"seo_details"`
}
