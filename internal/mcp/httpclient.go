package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/stats"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the LiftLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale). The server
// resolves the caller from its tailnet identity, so user IDs are not sent.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) Overview(ctx context.Context, _ int) (stats.Overview, error) {
	var o stats.Overview
	err := c.get(ctx, "/api/v1/stats/overview", &o)
	return o, err
}

func (c *HTTPClient) Records(ctx context.Context, _ int) ([]stats.RecordRow, error) {
	var rows []stats.RecordRow
	if err := c.get(ctx, "/api/v1/stats/records", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *HTTPClient) YearReview(ctx context.Context, _ int, year int) (stats.YearReview, error) {
	var y stats.YearReview
	err := c.get(ctx, "/api/v1/stats/year/"+strconv.Itoa(year), &y)
	return y, err
}

func (c *HTTPClient) ExerciseProgress(ctx context.Context, _ int, exerciseID uuid.UUID) (stats.ExerciseProgress, error) {
	var p stats.ExerciseProgress
	err := c.get(ctx, "/api/v1/stats/exercises/"+exerciseID.String(), &p)
	return p, err
}

func (c *HTTPClient) Leaderboard(ctx context.Context, _ int) ([]stats.LeaderboardEntry, error) {
	var board []stats.LeaderboardEntry
	if err := c.get(ctx, "/api/v1/leaderboard", &board); err != nil {
		return nil, err
	}
	return board, nil
}
