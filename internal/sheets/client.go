// Package sheets loads the SEO crawl dataset from its remote tabular
// source. The primary loader uses the Google Sheets API; a CSV-export
// fallback covers deployments without service-account credentials.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"insightd/internal/domain"
)

var spreadsheetIDPattern = regexp.MustCompile(`/d/([a-zA-Z0-9-_]+)`)

// ExtractSpreadsheetID pulls the document ID out of a Google Sheets URL.
func ExtractSpreadsheetID(url string) (string, error) {
	m := spreadsheetIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", domain.ErrValidation("no spreadsheet ID found in URL %q", url)
	}
	return m[1], nil
}

// Client fetches the full dataset through the Google Sheets API.
type Client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	sheetName     string // empty means "first sheet"
	logger        *slog.Logger
}

// NewClient builds a Sheets API loader scoped to one spreadsheet. The
// credentials file is a service account with spreadsheets.readonly scope.
func NewClient(ctx context.Context, credentialsFile, spreadsheetURL, sheetName string, logger *slog.Logger) (*Client, error) {
	id, err := ExtractSpreadsheetID(spreadsheetURL)
	if err != nil {
		return nil, err
	}

	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Client{svc: svc, spreadsheetID: id, sheetName: sheetName, logger: logger}, nil
}

// Fetch downloads the sheet and normalizes it into a snapshot. When no
// sheet name is configured, the spreadsheet's first sheet is used.
func (c *Client) Fetch(ctx context.Context) (*domain.Snapshot, error) {
	name := c.sheetName
	if name == "" {
		meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
		if err != nil {
			return nil, domain.ErrUpstream("seo", fmt.Errorf("spreadsheet metadata: %w", err))
		}
		if len(meta.Sheets) == 0 || meta.Sheets[0].Properties == nil {
			return nil, domain.ErrUpstream("seo", fmt.Errorf("spreadsheet %s has no sheets", c.spreadsheetID))
		}
		name = meta.Sheets[0].Properties.Title
	}

	resp, err := c.svc.Spreadsheets.Values.BatchGet(c.spreadsheetID).
		Ranges(name).Context(ctx).Do()
	if err != nil {
		return nil, domain.ErrUpstream("seo", fmt.Errorf("batch get values: %w", err))
	}
	if len(resp.ValueRanges) == 0 || len(resp.ValueRanges[0].Values) == 0 {
		c.logger.Warn("sheet returned no rows", "sheet", name)
		return &domain.Snapshot{FetchedAt: time.Now()}, nil
	}

	values := resp.ValueRanges[0].Values
	headers := make([]string, len(values[0]))
	for i, v := range values[0] {
		headers[i] = fmt.Sprintf("%v", v)
	}

	rows := make([][]string, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := make([]string, len(raw))
		for i, v := range raw {
			row[i] = fmt.Sprintf("%v", v)
		}
		rows = append(rows, row)
	}

	snap := Normalize(headers, rows)
	c.logger.Info("seo dataset loaded",
		"sheet", name,
		"rows", len(snap.Rows),
		"columns", len(snap.Columns),
	)
	return snap, nil
}
