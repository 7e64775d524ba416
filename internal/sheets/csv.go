package sheets

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"insightd/internal/domain"
)

// CSVClient loads the dataset through the spreadsheet's public CSV export
// endpoint. It needs no credentials, so it serves as the fallback loader
// when no service account is configured.
type CSVClient struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewCSVClient builds a CSV-export loader. The URL should be the
// spreadsheet's export?format=csv endpoint (or any URL serving CSV).
func NewCSVClient(url string, timeout time.Duration, logger *slog.Logger) *CSVClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Fetch downloads and parses the CSV export into a snapshot.
func (c *CSVClient) Fetch(ctx context.Context) (*domain.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.ErrUpstream("seo", fmt.Errorf("fetch csv export: %w", err))
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrUpstream("seo", fmt.Errorf("csv export returned status %d", resp.StatusCode))
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1 // sheets pad unevenly; Normalize handles it
	records, err := reader.ReadAll()
	if err != nil {
		return nil, domain.ErrUpstream("seo", fmt.Errorf("parse csv: %w", err))
	}
	if len(records) == 0 {
		c.logger.Warn("csv export returned no rows", "url", c.url)
		return &domain.Snapshot{FetchedAt: time.Now()}, nil
	}

	snap := Normalize(records[0], records[1:])
	c.logger.Info("seo dataset loaded via csv export",
		"rows", len(snap.Rows),
		"columns", len(snap.Columns),
	)
	return snap, nil
}
