package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repcycle/internal/coach"
	"github.com/claude/repcycle/internal/models"
)

// HTTPClient implements Coach by calling the RepCycle REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale). The server
// resolves identity, so the userID arguments are ignored.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies Coach.
var _ Coach = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey is
// sent on mutating calls when non-empty.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// statusErrors restores the error taxonomy from the server's status mapping.
var statusErrors = map[int]error{
	http.StatusNotFound:   models.ErrNotFound,
	http.StatusConflict:   models.ErrInvariantViolation,
	http.StatusBadRequest: models.ErrIncompleteInput,
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: encode %s: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet && c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		if sentinel, ok := statusErrors[resp.StatusCode]; ok {
			return fmt.Errorf("httpclient: %s returned %d: %s: %w", path, resp.StatusCode, msg, sentinel)
		}
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) GetRecommendations(ctx context.Context, _ int) (coach.Recommendations, error) {
	var rec coach.Recommendations
	err := c.do(ctx, http.MethodGet, "/api/v1/recommendations", nil, &rec)
	return rec, err
}

func (c *HTTPClient) GetActiveMesocycle(ctx context.Context, _ int) (coach.MesocycleDetail, error) {
	var detail coach.MesocycleDetail
	err := c.do(ctx, http.MethodGet, "/api/v1/mesocycles/active", nil, &detail)
	return detail, err
}

func (c *HTTPClient) AdvanceWeek(ctx context.Context, _ int, mesocycleID uuid.UUID) (coach.AdvanceResult, error) {
	var result coach.AdvanceResult
	err := c.do(ctx, http.MethodPost, "/api/v1/mesocycles/"+mesocycleID.String()+"/advance", nil, &result)
	return result, err
}

func (c *HTTPClient) RecordFeedback(ctx context.Context, _ int, sessionID uuid.UUID, in models.FeedbackInput) (coach.FeedbackResult, error) {
	var result coach.FeedbackResult
	err := c.do(ctx, http.MethodPost, "/api/v1/sessions/"+sessionID.String()+"/feedback", in, &result)
	return result, err
}

func (c *HTTPClient) ListLandmarks(ctx context.Context, _ int) ([]models.Landmark, error) {
	var landmarks []models.Landmark
	if err := c.do(ctx, http.MethodGet, "/api/v1/landmarks", nil, &landmarks); err != nil {
		return nil, err
	}
	return landmarks, nil
}

func (c *HTTPClient) MesocycleSummary(ctx context.Context, _ int, mesocycleID uuid.UUID) (coach.MesocycleSummary, error) {
	var summary coach.MesocycleSummary
	err := c.do(ctx, http.MethodGet, "/api/v1/mesocycles/"+mesocycleID.String()+"/summary", nil, &summary)
	return summary, err
}

func (c *HTTPClient) LogExercise(ctx context.Context, _ int, exerciseRowID uuid.UUID, log coach.ExerciseLog) (models.SessionExercise, error) {
	var ex models.SessionExercise
	err := c.do(ctx, http.MethodPatch, "/api/v1/exercises/"+exerciseRowID.String(), log, &ex)
	return ex, err
}
