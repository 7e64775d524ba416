package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightd/internal/domain"
	"insightd/internal/orchestrator"
)

type stubQueries struct {
	resp orchestrator.Response
	err  error

	lastQuery    string
	lastProperty string
}

func (s *stubQueries) Handle(_ context.Context, query, propertyID string) (orchestrator.Response, error) {
	s.lastQuery = query
	s.lastProperty = propertyID
	return s.resp, s.err
}

type stubAge struct{ age time.Duration }

func (s stubAge) Age() time.Duration { return s.age }

func newTestRouter(q QueryHandler, ages SnapshotAge) *chi.Mux {
	r := chi.NewRouter()
	NewHandler(q, ages, "1.0.0", nil).Routes(r)
	return r
}

func TestHandleQuery_OK(t *testing.T) {
	t.Parallel()

	stub := &stubQueries{resp: orchestrator.Response{
		Answer: "Found 3 results matching your query.",
		Data:   []domain.Record{{"Address": "https://example.com/"}},
	}}
	r := newTestRouter(stub, stubAge{})

	body := `{"query": "missing titles", "propertyId": "123"}`
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "missing titles", stub.lastQuery)
	assert.Equal(t, "123", stub.lastProperty)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Found 3 results matching your query.", resp["answer"])
	assert.NotNil(t, resp["data"])
}

func TestHandleQuery_ValidationErrorIs400(t *testing.T) {
	t.Parallel()

	stub := &stubQueries{err: domain.ErrPropertyIDRequired}
	r := newTestRouter(stub, stubAge{})

	req := httptest.NewRequest(http.MethodPost, "/query",
		strings.NewReader(`{"query": "show traffic"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Message, "property ID")
}

func TestHandleQuery_MalformedBody(t *testing.T) {
	t.Parallel()

	r := newTestRouter(&stubQueries{}, stubAge{})
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	r := newTestRouter(&stubQueries{}, stubAge{age: 90 * time.Second})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.0.0", resp.Version)
	require.NotNil(t, resp.SnapshotAgeSeconds)
	assert.Equal(t, 90.0, *resp.SnapshotAgeSeconds)
}

func TestHandleHealth_NoSnapshotYet(t *testing.T) {
	t.Parallel()

	r := newTestRouter(&stubQueries{}, stubAge{age: -1})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.SnapshotAgeSeconds)
}
