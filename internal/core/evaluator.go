package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"neologe/internal/provider"
)

// Verdict is the conflict evaluator's judgement over one submission's
// successful provider responses.
type Verdict struct {
	ConflictsDetected     []string `json:"conflicts_detected"`
	ResolutionRequired    bool     `json:"resolution_required"`
	OverallConfidence     float64  `json:"overall_confidence"`
	RecommendedDefinition string   `json:"recommended_definition"`
	Notes                 string   `json:"notes"`
}

// Evaluator decides whether successful provider responses materially
// disagree. Implementations are only invoked with two or more responses.
type Evaluator interface {
	Evaluate(ctx context.Context, word string, responses []provider.Result) (*Verdict, error)
}

// HeuristicEvaluator flags a conflict when providers return more than one
// distinct literal definition string. Deterministic and credential-free; this
// is the default policy.
type HeuristicEvaluator struct{}

func (HeuristicEvaluator) Evaluate(_ context.Context, word string, responses []provider.Result) (*Verdict, error) {
	var conflicts []string
	definitions := make([]string, 0, len(responses))
	distinct := make(map[string]struct{})

	for _, r := range responses {
		definitions = append(definitions, r.Definition.Definition)
		distinct[r.Definition.Definition] = struct{}{}
	}
	if len(distinct) > 1 {
		conflicts = append(conflicts, "Different definitions provided by LLM providers")
	}

	return &Verdict{
		ConflictsDetected:     conflicts,
		ResolutionRequired:    len(conflicts) > 0,
		OverallConfidence:     0.7,
		RecommendedDefinition: definitions[0],
		Notes:                 fmt.Sprintf("Evaluated %d responses for word '%s'", len(responses), word),
	}, nil
}

const arbiterSystemPrompt = "You are an expert linguist evaluating consistency between LLM responses. Always respond with valid JSON."

// ArbiterEvaluator hands the full response set to a remote judge model and
// asks it to flag disagreements across definition, part of speech and
// etymology.
type ArbiterEvaluator struct {
	arbiter *provider.OpenAIClient
}

func NewArbiterEvaluator(arbiter *provider.OpenAIClient) *ArbiterEvaluator {
	return &ArbiterEvaluator{arbiter: arbiter}
}

func (e *ArbiterEvaluator) Evaluate(ctx context.Context, word string, responses []provider.Result) (*Verdict, error) {
	if !e.arbiter.Available() {
		return nil, fmt.Errorf("arbiter: %w", ErrEvaluatorUnavailable)
	}

	content, err := e.arbiter.Complete(ctx, arbiterSystemPrompt, buildArbiterPrompt(word, responses), 0.1)
	if err != nil {
		return nil, fmt.Errorf("evaluation request failed: %w", err)
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		// Malformed arbiter output degrades to a neutral verdict instead of
		// failing the workflow.
		return &Verdict{
			ConflictsDetected:     []string{},
			ResolutionRequired:    false,
			OverallConfidence:     0.5,
			RecommendedDefinition: "Unable to evaluate",
			Notes:                 "Evaluation parsing failed",
		}, nil
	}
	return &verdict, nil
}

func buildArbiterPrompt(word string, responses []provider.Result) string {
	var responseText strings.Builder
	for i, r := range responses {
		payload, _ := json.MarshalIndent(r.Definition, "", "  ")
		fmt.Fprintf(&responseText, "\nProvider %d (%s):\n%s\n", i+1, r.Provider, payload)
	}

	return fmt.Sprintf(`Analyze these LLM responses for the neologism %q:
%s
Identify any significant conflicts or disagreements between the definitions, parts of speech, etymologies, or other aspects.

Respond with JSON in this format:
{
    "conflicts_detected": ["Description of conflict 1", "Description of conflict 2"],
    "resolution_required": true/false,
    "overall_confidence": 0.85,
    "recommended_definition": "Best synthesized definition",
    "notes": "Additional observations"
}

Only flag as requiring resolution if there are major disagreements about meaning or usage.`, word, responseText.String())
}
