// Package analytics executes validated report plans against the Google
// Analytics Data API and normalizes the columnar response into records.
package analytics

import (
	"context"
	"fmt"

	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"
)

// ReportAPI is the narrow surface of the reporting backend the executor
// depends on; tests substitute a stub.
type ReportAPI interface {
	RunReport(ctx context.Context, property string, req *analyticsdata.RunReportRequest) (*analyticsdata.RunReportResponse, error)
}

// GoogleReportAPI implements ReportAPI against the real Analytics Data API.
type GoogleReportAPI struct {
	svc *analyticsdata.Service
}

// NewGoogleReportAPI builds a Data API client from a service-account
// credentials file with read-only analytics scope.
func NewGoogleReportAPI(ctx context.Context, credentialsFile string) (*GoogleReportAPI, error) {
	svc, err := analyticsdata.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(analyticsdata.AnalyticsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create analytics data service: %w", err)
	}
	return &GoogleReportAPI{svc: svc}, nil
}

// RunReport submits the report request scoped to the given property.
func (a *GoogleReportAPI) RunReport(ctx context.Context, property string, req *analyticsdata.RunReportRequest) (*analyticsdata.RunReportResponse, error) {
	return a.svc.Properties.RunReport(property, req).Context(ctx).Do()
}
