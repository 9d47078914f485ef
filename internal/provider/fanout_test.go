package provider

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDefiner struct {
	name  string
	def   *StructuredDefinition
	err   error
	delay time.Duration
}

func (f *fakeDefiner) Name() string { return f.name }

func (f *fakeDefiner) Define(ctx context.Context, word, userDefinition string, wordContext *string) (*StructuredDefinition, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.def, nil
}

func okDefinition(word, definition string) *StructuredDefinition {
	return &StructuredDefinition{Word: word, Definition: definition, PartOfSpeech: "noun", Confidence: 0.8}
}

func TestCollectRegistryOrder(t *testing.T) {
	// The slowest provider is first; results must still come back in
	// registry order, not completion order.
	registry := NewRegistry(zap.NewNop(),
		&fakeDefiner{name: "slow", def: okDefinition("w", "slow def"), delay: 50 * time.Millisecond},
		&fakeDefiner{name: "fast", def: okDefinition("w", "fast def")},
		&fakeDefiner{name: "mid", def: okDefinition("w", "mid def"), delay: 10 * time.Millisecond},
	)

	results := registry.Collect(context.Background(), "w", "d", nil)
	require.Len(t, results, 3)
	require.Equal(t, []string{"slow", "fast", "mid"}, []string{results[0].Provider, results[1].Provider, results[2].Provider})
	require.Equal(t, "slow def", results[0].Definition.Definition)
}

func TestCollectPartialFailure(t *testing.T) {
	registry := NewRegistry(zap.NewNop(),
		&fakeDefiner{name: "a", err: fmt.Errorf("boom")},
		&fakeDefiner{name: "b", def: okDefinition("w", "def b")},
		&fakeDefiner{name: "c", err: fmt.Errorf("a: %w", ErrUnavailable)},
	)

	results := registry.Collect(context.Background(), "w", "d", nil)
	require.Len(t, results, 3)

	require.False(t, results[0].Success())
	require.True(t, results[1].Success())
	require.False(t, results[2].Success())
	require.ErrorIs(t, results[2].Err, ErrUnavailable)
}

func TestCollectAllFail(t *testing.T) {
	registry := NewRegistry(zap.NewNop(),
		&fakeDefiner{name: "a", err: fmt.Errorf("a: %w", ErrUnavailable)},
		&fakeDefiner{name: "b", err: fmt.Errorf("b: %w", ErrUnavailable)},
	)

	results := registry.Collect(context.Background(), "w", "d", nil)
	require.Len(t, results, 2)
	for _, r := range results {
		require.False(t, r.Success())
	}
}

func TestRegistryNames(t *testing.T) {
	registry := NewRegistry(zap.NewNop(),
		&fakeDefiner{name: "openai"},
		&fakeDefiner{name: "anthropic"},
		&fakeDefiner{name: "google"},
	)
	require.Equal(t, []string{"openai", "anthropic", "google"}, registry.Names())
}
