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

func testOpenAIClient(url string) *OpenAIClient {
	return NewOpenAIClientWithConfig(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "gpt-3.5-turbo",
		Timeout: 5 * time.Second,
	}, zap.NewNop())
}

func openAIReply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(b)
}

func TestOpenAIDefine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		require.Equal(t, "system", req.Messages[0].Role)

		w.Write([]byte(openAIReply(`{"word":"blorp","definition":"a sudden squelch","part_of_speech":"noun","confidence":0.8}`)))
	}))
	defer srv.Close()

	def, err := testOpenAIClient(srv.URL).Define(context.Background(), "blorp", "a wet sound", nil)
	require.NoError(t, err)
	require.Equal(t, "a sudden squelch", def.Definition)
	require.InDelta(t, 0.8, def.Confidence, 1e-9)
}

func TestOpenAIDefineMissingKey(t *testing.T) {
	client := NewOpenAIClient("", zap.NewNop())
	_, err := client.Define(context.Background(), "blorp", "a wet sound", nil)
	require.ErrorIs(t, err, ErrUnavailable)
	require.False(t, client.Available())
}

func TestOpenAIDefineHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testOpenAIClient(srv.URL).Define(context.Background(), "blorp", "a wet sound", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
	require.Contains(t, err.Error(), "quota exceeded")
}

func TestOpenAIDefineMalformedContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(openAIReply("Sorry, I can only answer in prose.")))
	}))
	defer srv.Close()

	// Unparseable content degrades instead of failing the call.
	def, err := testOpenAIClient(srv.URL).Define(context.Background(), "blorp", "a wet sound", nil)
	require.NoError(t, err)
	require.Equal(t, "a wet sound", def.Definition)
	require.Equal(t, "unknown", def.PartOfSpeech)
	require.InDelta(t, 0.5, def.Confidence, 1e-9)
}
