package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const defaultGoogleModel = "gemini-1.5-flash-latest"

// GoogleClient queries Gemini through the generative-ai-go SDK.
type GoogleClient struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGoogleClient builds the Gemini client. With an empty key the client is
// still registered so the fan-out records it as a per-provider failure, the
// same as the HTTP-based providers.
func NewGoogleClient(ctx context.Context, apiKey string, logger *zap.Logger) (*GoogleClient, error) {
	gc := &GoogleClient{model: defaultGoogleModel, logger: logger}
	if apiKey == "" {
		return gc, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	gc.client = client
	return gc, nil
}

func (c *GoogleClient) Close() {
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			c.logger.Warn("error closing GenAI client", zap.Error(err))
		}
	}
}

func (c *GoogleClient) Name() string { return "google" }

func (c *GoogleClient) Define(ctx context.Context, word, userDefinition string, wordContext *string) (*StructuredDefinition, error) {
	if c.client == nil {
		return nil, fmt.Errorf("google: %w", ErrUnavailable)
	}

	start := time.Now()

	model := c.client.GenerativeModel(c.model)
	temp := float32(0.3)
	maxTokens := int32(1000)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     &temp,
		MaxOutputTokens: &maxTokens,
	}

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(word, userDefinition, wordContext)))
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini response was empty or had no valid candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("gemini response contained no text parts")
	}

	c.logger.Debug("gemini request completed",
		zap.String("model", c.model),
		zap.Duration("elapsed", time.Since(start)))

	return parseDefinition(text.String(), word, userDefinition), nil
}
