package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fridge-chef/internal/domain"
)

// LoadRequest is the request payload for the model load endpoint.
type LoadRequest struct {
	Model string `json:"model"`
}

// ScoreRequest is the request payload for the score endpoint.
type ScoreRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Passages  []string `json:"passages"`
	BatchSize int      `json:"batch_size,omitempty"`
}

// ScoreResponse is the response from the score endpoint.
type ScoreResponse struct {
	Scores           []float32 `json:"scores"`
	Model            string    `json:"model,omitempty"`
	ProcessingTimeMs *float64  `json:"processing_time_ms,omitempty"`
}

// CrossEncoderClient implements domain.CrossEncoder via HTTP calls to the
// cross-encoder sidecar. Scores are raw model logits; normalization is
// the caller's concern.
type CrossEncoderClient struct {
	BaseURL   string
	Model     string
	BatchSize int
	Client    *http.Client
	logger    *slog.Logger
}

// NewCrossEncoderClient constructs a new CrossEncoderClient.
// If client is nil, a default http.Client is created with the given timeout.
func NewCrossEncoderClient(baseURL, model string, batchSize int, timeout time.Duration, logger *slog.Logger, client ...*http.Client) *CrossEncoderClient {
	var c *http.Client
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	} else {
		c = &http.Client{Timeout: timeout}
	}
	return &CrossEncoderClient{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Model:     model,
		BatchSize: batchSize,
		Client:    c,
		logger:    logger,
	}
}

// Load asks the sidecar to bring the model into memory. The sidecar
// blocks until the model is usable, so a nil return means scoring can
// start immediately.
func (c *CrossEncoderClient) Load(ctx context.Context) error {
	startTime := time.Now()

	c.logger.Info("model_load_started", slog.String("model", c.Model))

	jsonPayload, err := json.Marshal(LoadRequest{Model: c.Model})
	if err != nil {
		return fmt.Errorf("failed to marshal load request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/load", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create load request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		c.logger.Warn("model_load_failed",
			slog.String("error", err.Error()),
			slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))
		return fmt.Errorf("failed to call load endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("model_load_failed",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", truncateString(string(body), 500)),
			slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))
		return fmt.Errorf("load endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Info("model_load_completed",
		slog.String("model", c.Model),
		slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))
	return nil
}

// Score rates each passage against the query with the cross-encoder.
// The returned slice is index-aligned with passages.
func (c *CrossEncoderClient) Score(ctx context.Context, query string, passages []string) ([]float32, error) {
	if len(passages) == 0 {
		return []float32{}, nil
	}

	startTime := time.Now()

	c.logger.Info("scoring_started",
		slog.String("query", truncateString(query, 100)),
		slog.Int("passage_count", len(passages)),
		slog.String("model", c.Model))

	reqBody := ScoreRequest{
		Model:     c.Model,
		Query:     query,
		Passages:  passages,
		BatchSize: c.BatchSize,
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal score request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/score", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		c.logger.Warn("scoring_failed",
			slog.String("error", err.Error()),
			slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))
		return nil, fmt.Errorf("failed to call score endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("scoring_failed",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", truncateString(string(body), 500)),
			slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))
		return nil, fmt.Errorf("score endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var scoreResp ScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&scoreResp); err != nil {
		return nil, fmt.Errorf("failed to decode score response: %w", err)
	}

	if len(scoreResp.Scores) != len(passages) {
		return nil, fmt.Errorf("got %d scores for %d passages", len(scoreResp.Scores), len(passages))
	}

	c.logger.Info("scoring_completed",
		slog.Int("score_count", len(scoreResp.Scores)),
		slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))

	return scoreResp.Scores, nil
}

// ModelName returns the model identifier for logging/debugging.
func (c *CrossEncoderClient) ModelName() string {
	return c.Model
}

var _ domain.CrossEncoder = (*CrossEncoderClient)(nil)

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
