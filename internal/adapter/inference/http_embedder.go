package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fridge-chef/internal/domain"
)

// HTTPEmbedder calls the sentence-transformer sidecar that also built the
// stored corpus embeddings. Query vectors must come from the same model,
// so the configured dimension is checked on every response.
type HTTPEmbedder struct {
	BaseURL   string
	Model     string
	Client    *http.Client
	dimension int
}

func NewHTTPEmbedder(baseURL, model string, dimension, timeoutSeconds int, client ...*http.Client) *HTTPEmbedder {
	var c *http.Client
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	} else {
		timeout := 30 * time.Second
		if timeoutSeconds > 0 {
			timeout = time.Duration(timeoutSeconds) * time.Second
		}
		c = &http.Client{Timeout: timeout}
	}
	return &HTTPEmbedder{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Model:     model,
		Client:    c,
		dimension: dimension,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (e *HTTPEmbedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	slog.Info("embed_started",
		slog.Int("text_count", len(texts)),
		slog.String("model", e.Model),
	)
	start := time.Now()

	reqBody := embedRequest{
		Model: e.Model,
		Input: texts,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/embed", e.BaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		slog.Error("embed_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)),
		)
		return nil, fmt.Errorf("failed to call embedder: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		slog.Error("embed_bad_status",
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", time.Since(start)),
		)
		return nil, fmt.Errorf("embedder returned status: %d", resp.StatusCode)
	}

	var respBody embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(respBody.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d embeddings for %d texts", len(respBody.Embeddings), len(texts))
	}
	for i, emb := range respBody.Embeddings {
		if len(emb) != e.dimension {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(emb), e.dimension)
		}
	}

	slog.Info("embed_completed",
		slog.Int("embedding_count", len(respBody.Embeddings)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return respBody.Embeddings, nil
}

func (e *HTTPEmbedder) Dimension() int {
	return e.dimension
}

func (e *HTTPEmbedder) Version() string {
	return e.Model
}

var _ domain.VectorEncoder = (*HTTPEmbedder)(nil)
