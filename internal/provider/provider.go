// Package provider holds the clients for the external definition backends and
// the fan-out coordinator that queries all of them for one submission.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable means a client's required credential is not configured.
var ErrUnavailable = errors.New("provider credential not configured")

// StructuredDefinition is the shape every provider is asked to answer in.
type StructuredDefinition struct {
	Word          string            `json:"word"`
	Definition    string            `json:"definition"`
	PartOfSpeech  string            `json:"part_of_speech"`
	Etymology     string            `json:"etymology,omitempty"`
	Variations    map[string]string `json:"variations,omitempty"`
	UsageExamples []string          `json:"usage_examples,omitempty"`
	Confidence    float64           `json:"confidence"` // native scale, 0.0-1.0
}

// Definer is implemented by each remote definition backend.
type Definer interface {
	Name() string
	Define(ctx context.Context, word, userDefinition string, wordContext *string) (*StructuredDefinition, error)
}

// buildPrompt renders the standardized prompt shared by all providers.
func buildPrompt(word, userDefinition string, wordContext *string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Please analyze the neologism %q with the user-provided definition: %q\n\n", word, userDefinition)
	if wordContext != nil && *wordContext != "" {
		fmt.Fprintf(&sb, "Additional context: %s\n\n", *wordContext)
	}
	fmt.Fprintf(&sb, `Provide a response in the following JSON format:
{
    "word": %q,
    "definition": "A concise, dictionary-style definition",
    "part_of_speech": "noun/verb/adjective/etc",
    "etymology": "Likely word origin and formation",
    "variations": {"plural": "...", "adjective": "...", "verb": "..."},
    "usage_examples": ["Example sentence 1", "Example sentence 2"],
    "confidence": 0.85
}

Rate your confidence in this analysis on a scale of 0.0 to 1.0.`, word)
	return sb.String()
}

// parseDefinition decodes a provider's reply. Malformed content never fails
// the call: the fallback echoes the user's own definition at half confidence
// so the workflow can still record the provider as a success.
func parseDefinition(content, word, userDefinition string) *StructuredDefinition {
	var def StructuredDefinition
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &def); err != nil || def.Definition == "" {
		return &StructuredDefinition{
			Word:         word,
			Definition:   userDefinition,
			PartOfSpeech: "unknown",
			Confidence:   0.5,
		}
	}
	return &def
}

// stripCodeFence removes a surrounding markdown code fence, which models
// frequently wrap JSON answers in despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
