package provider

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result is one provider's outcome within a fan-out. Exactly one of
// Definition and Err is set.
type Result struct {
	Provider   string
	Definition *StructuredDefinition
	Err        error
}

func (r Result) Success() bool { return r.Err == nil }

// Registry is the fixed, ordered set of definition providers a submission
// fans out to.
type Registry struct {
	clients []Definer
	logger  *zap.Logger
}

func NewRegistry(logger *zap.Logger, clients ...Definer) *Registry {
	return &Registry{clients: clients, logger: logger}
}

// Names returns the provider names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.clients))
	for i, c := range r.clients {
		names[i] = c.Name()
	}
	return names
}

// Collect queries every registered provider for the word and gathers one
// Result per provider. Calls run concurrently; each goroutine writes only its
// own slot, so the returned slice is in registry order regardless of
// completion order. A failing provider never aborts the others.
func (r *Registry) Collect(ctx context.Context, word, userDefinition string, wordContext *string) []Result {
	results := make([]Result, len(r.clients))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(len(r.clients))

	for i, client := range r.clients {
		i, client := i, client // go directive is below 1.22; keep per-iteration capture
		g.Go(func() error {
			def, err := client.Define(ctx, word, userDefinition, wordContext)
			results[i] = Result{Provider: client.Name(), Definition: def, Err: err}
			if err != nil {
				r.logger.Warn("provider call failed",
					zap.String("provider", client.Name()),
					zap.String("word", word),
					zap.Error(err))
			}
			return nil // per-provider failures are recorded, never propagated
		})
	}
	_ = g.Wait()

	return results
}
