package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/storm-drainage-service/internal/adapter/http"
	"github.com/couchcryptid/storm-drainage-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

// mockAnalyzer composes a plan from fallback inputs so responses carry real numbers.
type mockAnalyzer struct {
	err  error
	last domain.Catchment
}

func (m *mockAnalyzer) Analyze(_ context.Context, c domain.Catchment) (domain.DrainagePlan, error) {
	m.last = c
	if m.err != nil {
		return domain.DrainagePlan{}, m.err
	}
	at := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	return domain.ComposePlan(c, domain.DefaultTerrain(), domain.MunicipalOutlet(c.Center), domain.FallbackRainfall(), at), nil
}

func newTestServer(analyzer httpadapter.Analyzer, readyErr error) *httpadapter.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", analyzer, &mockReadiness{err: readyErr}, nil, logger)
}

func postAnalyze(srv *httpadapter.Server, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)
	return rec
}

func TestAnalyze_Success(t *testing.T) {
	analyzer := &mockAnalyzer{}
	rec := postAnalyze(newTestServer(analyzer, nil), `{"lat":41.0,"lon":29.0}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.InDelta(t, domain.DefaultRadiusM, analyzer.last.RadiusM, 0)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "reticular", body["system"])
	assert.InDelta(t, 3.013, body["q_flow"], 1e-9)
	assert.InDelta(t, 3.49, body["slope_pct"], 1e-9)
	assert.InDelta(t, 687, body["harvest_m3"], 0)

	discharge := body["discharge"].(map[string]any)
	assert.InDelta(t, 500, discharge["distance_m"], 0)
	assert.InDelta(t, 750, discharge["total_pipe_m"], 0)
	assert.Equal(t, domain.LabelMunicipalLine, discharge["target"])

	geometry := body["plan_geometry"].(map[string]any)
	assert.Len(t, geometry["pipe_path"], 2)
	assert.Equal(t, "Reticular desenli ana toplayıcı hattı.", geometry["description"])
}

func TestAnalyze_ExplicitRadius(t *testing.T) {
	analyzer := &mockAnalyzer{}
	rec := postAnalyze(newTestServer(analyzer, nil), `{"lat":41.0,"lon":29.0,"radius":800}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 800, analyzer.last.RadiusM, 0)
}

func TestAnalyze_ZeroCoordinatesAccepted(t *testing.T) {
	analyzer := &mockAnalyzer{}
	rec := postAnalyze(newTestServer(analyzer, nil), `{"lat":0,"lon":0}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Coordinate{Lat: 0, Lon: 0}, analyzer.last.Center)
	assert.InDelta(t, domain.DefaultRadiusM, analyzer.last.RadiusM, 0)
}

func TestAnalyze_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"malformed json", `{"lat":`, "invalid request body"},
		{"string coordinate", `{"lat":"41","lon":29}`, "invalid request body"},
		{"missing lat", `{"lon":29}`, "lat is required"},
		{"missing lon", `{"lat":41}`, "lon is required"},
		{"lat out of range", `{"lat":91,"lon":29}`, "lat must be a valid latitude"},
		{"lon out of range", `{"lat":41,"lon":-181}`, "lon must be a valid longitude"},
		{"zero radius", `{"lat":41,"lon":29,"radius":0}`, "radius must satisfy gt=0"},
		{"negative radius", `{"lat":41,"lon":29,"radius":-10}`, "radius must satisfy gt=0"},
		{"huge radius", `{"lat":41,"lon":29,"radius":100000}`, "radius must satisfy lte=50000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &mockAnalyzer{}
			rec := postAnalyze(newTestServer(analyzer, nil), tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "error", body["status"])
			assert.Contains(t, body["msg"], tt.wantMsg)
			assert.Equal(t, domain.Catchment{}, analyzer.last, "analyzer must not run")
		})
	}
}

func TestAnalyze_InvalidCatchmentIs400(t *testing.T) {
	analyzer := &mockAnalyzer{err: fmt.Errorf("%w: radius must be positive", domain.ErrInvalidCatchment)}
	rec := postAnalyze(newTestServer(analyzer, nil), `{"lat":41,"lon":29}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyze_InternalErrorIs500(t *testing.T) {
	analyzer := &mockAnalyzer{err: errors.New("context canceled")}
	rec := postAnalyze(newTestServer(analyzer, nil), `{"lat":41,"lon":29}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "context canceled", body["msg"])
	assert.NotContains(t, body, "q_flow")
}

func TestAnalyze_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&mockAnalyzer{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyze", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAnalyze_CORSPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	newTestServer(&mockAnalyzer{}, nil).ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(&mockAnalyzer{}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(&mockAnalyzer{}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(&mockAnalyzer{}, fmt.Errorf("geospatial provider unavailable"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&mockAnalyzer{}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
