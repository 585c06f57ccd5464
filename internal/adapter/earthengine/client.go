package earthengine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/storm-drainage-service/internal/observability"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const providerName = "earthengine"

// Dataset identifiers.
const (
	worldCoverID = "ESA/WorldCover/v200"
	srtmID       = "USGS/SRTMGL1_003"
)

var scopes = []string{
	"https://www.googleapis.com/auth/earthengine",
	"https://www.googleapis.com/auth/cloud-platform",
}

// Client evaluates expression graphs against the Earth Engine REST API.
// It is built once at startup and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	project    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient authenticates with Application Default Credentials. The context
// must outlive the client since token refreshes use it. An empty project
// falls back to the project of the credentials.
func NewClient(ctx context.Context, project, baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) (*Client, error) {
	creds, err := google.FindDefaultCredentials(ctx, scopes...)
	if err != nil {
		return nil, fmt.Errorf("find default credentials: %w", err)
	}
	if project == "" {
		project = creds.ProjectID
	}
	if project == "" {
		return nil, errors.New("no Earth Engine project: set GEE_PROJECT")
	}

	httpClient := oauth2.NewClient(ctx, creds.TokenSource)
	httpClient.Timeout = timeout

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		project:    project,
		metrics:    metrics,
		logger:     logger,
	}, nil
}

// Project returns the Cloud project requests are billed to.
func (c *Client) Project() string {
	return c.project
}

type computeRequest struct {
	Expression expression `json:"expression"`
}

type computeResponse struct {
	Result json.RawMessage `json:"result"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// compute evaluates expr and decodes its result into out.
func (c *Client) compute(ctx context.Context, expr expression, out any) error {
	start := time.Now()
	err := c.doCompute(ctx, expr, out)
	c.metrics.ObserveUpstream(providerName, time.Since(start).Seconds(), err)
	return err
}

func (c *Client) doCompute(ctx context.Context, expr expression, out any) error {
	body, err := json.Marshal(computeRequest{Expression: expr})
	if err != nil {
		return fmt.Errorf("encode expression: %w", err)
	}

	u := fmt.Sprintf("%s/v1/projects/%s/value:compute", c.baseURL, url.PathEscape(c.project))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("compute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("earth engine API error: status %d: %s: %s", resp.StatusCode, apiErr.Error.Status, apiErr.Error.Message)
		}
		return fmt.Errorf("earth engine API error: status %d: %s", resp.StatusCode, data)
	}

	var computed computeResponse
	if err := json.Unmarshal(data, &computed); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(computed.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
