package inference

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestCrossEncoderClient_Load_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/models/load", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req LoadRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)
		assert.Equal(t, "cross-encoder/ms-marco-MiniLM-L-6-v2", req.Model)

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewCrossEncoderClient(server.URL, "cross-encoder/ms-marco-MiniLM-L-6-v2", 32, 30*time.Second, testLogger())

	err := client.Load(context.Background())
	assert.NoError(t, err)
}

func TestCrossEncoderClient_Load_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("model load failed"))
	}))
	defer server.Close()

	client := NewCrossEncoderClient(server.URL, "cross-encoder/ms-marco-MiniLM-L-6-v2", 32, 30*time.Second, testLogger())

	err := client.Load(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestCrossEncoderClient_Score_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/score", r.URL.Path)

		var req ScoreRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)

		assert.Equal(t, "Recipe with garlic and chicken", req.Query)
		assert.Equal(t, 3, len(req.Passages))
		assert.Equal(t, "cross-encoder/ms-marco-MiniLM-L-6-v2", req.Model)
		assert.Equal(t, 32, req.BatchSize)

		resp := ScoreResponse{
			Scores: []float32{0.5, -1.25, 3.0},
			Model:  "cross-encoder/ms-marco-MiniLM-L-6-v2",
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewCrossEncoderClient(server.URL, "cross-encoder/ms-marco-MiniLM-L-6-v2", 32, 30*time.Second, testLogger())

	scores, err := client.Score(context.Background(), "Recipe with garlic and chicken", []string{
		"Garlic Chicken Ingredients: chicken, garlic",
		"Tomato Soup Ingredients: tomatoes",
		"Roast Chicken Ingredients: chicken, garlic, butter",
	})
	require.NoError(t, err)

	assert.Equal(t, []float32{0.5, -1.25, 3.0}, scores, "scores stay index-aligned with passages")
}

func TestCrossEncoderClient_Score_EmptyPassages(t *testing.T) {
	client := NewCrossEncoderClient("http://localhost:8081", "cross-encoder/ms-marco-MiniLM-L-6-v2", 32, 30*time.Second, testLogger())

	scores, err := client.Score(context.Background(), "query", []string{})
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestCrossEncoderClient_Score_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := ScoreResponse{Scores: []float32{0.5}}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewCrossEncoderClient(server.URL, "cross-encoder/ms-marco-MiniLM-L-6-v2", 32, 30*time.Second, testLogger())

	scores, err := client.Score(context.Background(), "query", []string{"a", "b", "c"})
	assert.Error(t, err)
	assert.Nil(t, scores)
	assert.Contains(t, err.Error(), "3 passages")
}

func TestCrossEncoderClient_Score_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
	}))
	defer server.Close()

	client := NewCrossEncoderClient(server.URL, "cross-encoder/ms-marco-MiniLM-L-6-v2", 32, 30*time.Second, testLogger())

	scores, err := client.Score(context.Background(), "query", []string{"a"})
	assert.Error(t, err)
	assert.Nil(t, scores)
	assert.Contains(t, err.Error(), "500")
}

func TestCrossEncoderClient_Score_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond) // Delay longer than timeout
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewCrossEncoderClient(server.URL, "cross-encoder/ms-marco-MiniLM-L-6-v2", 32, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	scores, err := client.Score(ctx, "query", []string{"a"})
	assert.Error(t, err)
	assert.Nil(t, scores)
}

func TestCrossEncoderClient_ModelName(t *testing.T) {
	client := NewCrossEncoderClient("http://localhost:8081", "cross-encoder/ms-marco-MiniLM-L-6-v2", 32, 30*time.Second, testLogger())

	assert.Equal(t, "cross-encoder/ms-marco-MiniLM-L-6-v2", client.ModelName())
}
