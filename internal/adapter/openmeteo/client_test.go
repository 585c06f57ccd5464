package openmeteo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/storm-drainage-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_DailyPrecipitation_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "41", q.Get("latitude"))
		assert.Equal(t, "29.5", q.Get("longitude"))
		assert.Equal(t, "2015-01-01", q.Get("start_date"))
		assert.Equal(t, "2024-12-31", q.Get("end_date"))
		assert.Equal(t, "precipitation_sum", q.Get("daily"))
		assert.Equal(t, "UTC", q.Get("timezone"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"daily":{"time":["2015-01-01","2015-01-02","2015-01-03"],"precipitation_sum":[1.5,null,3.0]}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	series, err := c.DailyPrecipitation(context.Background(), 41, 29.5)
	require.NoError(t, err)

	assert.Equal(t, []float64{1.5, 3.0}, series)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.UpstreamRequests.WithLabelValues(providerName, "success")))
}

func TestClient_DailyPrecipitation_MissingDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"latitude":41}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	series, err := c.DailyPrecipitation(context.Background(), 41, 29)
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestClient_DailyPrecipitation_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":true,"reason":"Latitude must be in range of -90 to 90"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	_, err := c.DailyPrecipitation(context.Background(), 141, 29)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.UpstreamRequests.WithLabelValues(providerName, "error")))
}

func TestClient_DailyPrecipitation_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	_, err := c.DailyPrecipitation(context.Background(), 41, 29)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_DailyPrecipitation_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 50*time.Millisecond)
	_, err := c.DailyPrecipitation(context.Background(), 41, 29)
	require.Error(t, err)
}
