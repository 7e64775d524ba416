package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a thin HTTP client for the query service.
type Client struct {
	BaseURL string
	http    *http.Client
}

// NewClient builds a client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		http:    &http.Client{Timeout: 120 * time.Second},
	}
}

// QueryResult mirrors the service's query response.
type QueryResult struct {
	Answer string          `json:"answer"`
	Data   json.RawMessage `json:"data"`
}

// HealthResult mirrors the service's health response.
type HealthResult struct {
	Status             string   `json:"status"`
	Version            string   `json:"version"`
	SnapshotAgeSeconds *float64 `json:"snapshot_age_seconds"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Ask submits a question, optionally scoped to an analytics property.
func (c *Client) Ask(ctx context.Context, question, propertyID string) (*QueryResult, error) {
	body, err := json.Marshal(map[string]string{
		"query":      question,
		"propertyId": propertyID,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && ae.Message != "" {
			return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, ae.Message)
		}
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var out QueryResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// Health fetches the service health status.
func (c *Client) Health(ctx context.Context) (*HealthResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var out HealthResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
