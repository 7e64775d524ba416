package app

import (
	"context"

	analyticsdata "google.golang.org/api/analyticsdata/v1beta"

	"insightd/internal/domain"
)

// unavailableLoader stands in when no SEO dataset source is configured.
// Every fetch fails with a config error, which the SEO pipeline converts
// into a "dataset unavailable" answer.
type unavailableLoader struct{}

func (unavailableLoader) Fetch(context.Context) (*domain.Snapshot, error) {
	return nil, domain.ErrConfig("no SEO dataset source configured: set SEO_SPREADSHEET_URL or SEO_CSV_EXPORT_URL")
}

// unavailableReportAPI stands in when no Google credentials are configured.
type unavailableReportAPI struct{}

func (unavailableReportAPI) RunReport(context.Context, string, *analyticsdata.RunReportRequest) (*analyticsdata.RunReportResponse, error) {
	return nil, domain.ErrConfig("analytics access not configured: set GOOGLE_APPLICATION_CREDENTIALS")
}
