package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-drainage-service/internal/domain"
	"github.com/couchcryptid/storm-drainage-service/internal/observability"
)

const providerName = "openmeteo"

// Client implements domain.RainfallProvider using the Open-Meteo historical archive.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo archive client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// DailyPrecipitation returns the daily precipitation sums (mm) for the
// historical window. Days the archive reports as null are skipped.
func (c *Client) DailyPrecipitation(ctx context.Context, lat, lon float64) ([]float64, error) {
	params := url.Values{
		"latitude":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude":  {strconv.FormatFloat(lon, 'f', -1, 64)},
		"start_date": {domain.RainfallWindowStart.Format(time.DateOnly)},
		"end_date":   {domain.RainfallWindowEnd.Format(time.DateOnly)},
		"daily":      {"precipitation_sum"},
		"timezone":   {"UTC"},
	}

	start := time.Now()
	series, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.ObserveUpstream(providerName, time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("rainfall series fetched", "lat", lat, "lon", lon, "days", len(series))
	return series, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var archive response
	if err := json.NewDecoder(resp.Body).Decode(&archive); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	series := make([]float64, 0, len(archive.Daily.PrecipitationSum))
	for _, v := range archive.Daily.PrecipitationSum {
		if v != nil {
			series = append(series, *v)
		}
	}
	return series, nil
}

// Open-Meteo archive response types.

type response struct {
	Daily daily `json:"daily"`
}

type daily struct {
	Time             []string   `json:"time"`
	PrecipitationSum []*float64 `json:"precipitation_sum"`
}
