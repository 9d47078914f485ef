package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testAnthropicClient(url string) *AnthropicClient {
	return NewAnthropicClientWithConfig(AnthropicConfig{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "claude-3-haiku-20240307",
		Timeout: 5 * time.Second,
	}, zap.NewNop())
}

func TestAnthropicDefine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/messages", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, 1000, req.MaxTokens)

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": `{"word":"blorp","definition":"a sudden squelch","part_of_speech":"noun","confidence":0.75}`},
			},
		})
	}))
	defer srv.Close()

	def, err := testAnthropicClient(srv.URL).Define(context.Background(), "blorp", "a wet sound", nil)
	require.NoError(t, err)
	require.Equal(t, "a sudden squelch", def.Definition)
	require.InDelta(t, 0.75, def.Confidence, 1e-9)
}

func TestAnthropicDefineMissingKey(t *testing.T) {
	_, err := NewAnthropicClient("", zap.NewNop()).Define(context.Background(), "blorp", "a wet sound", nil)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestAnthropicDefineHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testAnthropicClient(srv.URL).Define(context.Background(), "blorp", "a wet sound", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
	require.Contains(t, err.Error(), "overloaded")
}
