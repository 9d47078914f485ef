package core

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"neologe/internal/provider"
	"neologe/internal/store"
)

// NeologismService runs the submission workflow and the owner-scoped reads
// and the resolution step over it.
type NeologismService struct {
	dbStore   *store.SQLiteStore
	registry  *provider.Registry
	evaluator Evaluator
	logger    *zap.Logger
}

func NewNeologismService(db *store.SQLiteStore, registry *provider.Registry, evaluator Evaluator, logger *zap.Logger) *NeologismService {
	return &NeologismService{
		dbStore:   db,
		registry:  registry,
		evaluator: evaluator,
		logger:    logger,
	}
}

// User operations, used by the API's auth plumbing.

func (s *NeologismService) RegisterUser(username, email, passwordHash string) (*store.User, error) {
	exists, err := s.dbStore.UserExists(username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing users: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: username or email already exists", ErrValidation)
	}
	return s.dbStore.CreateUser(username, email, passwordHash)
}

func (s *NeologismService) GetUserByUsername(username string) (*store.User, error) {
	return s.dbStore.GetUserByUsername(username)
}

// Submit persists a new neologism, fans it out to every registered provider,
// records each successful response, and when at least two providers succeeded
// runs the conflict evaluator and stores its verdict. The neologism row is
// inserted and committed before any remote call so it survives every failure
// mode; later writes happen as one transaction.
func (s *NeologismService) Submit(ctx context.Context, userID int64, word, userDefinition string, wordContext *string) (*store.Neologism, error) {
	if strings.TrimSpace(word) == "" || strings.TrimSpace(userDefinition) == "" {
		return nil, fmt.Errorf("%w: word and user_definition are required", ErrValidation)
	}

	neologism, err := s.dbStore.CreateNeologism(userID, word, userDefinition, wordContext)
	if err != nil {
		return nil, fmt.Errorf("failed to create neologism: %w", err)
	}

	results := s.registry.Collect(ctx, word, userDefinition, wordContext)

	var successes []provider.Result
	var rows []store.ProviderResponse
	for _, r := range results {
		if !r.Success() {
			continue
		}
		data, err := json.Marshal(r.Definition)
		if err != nil {
			return s.failWorkflow(neologism, fmt.Errorf("failed to marshal provider response: %w", err))
		}
		rows = append(rows, store.ProviderResponse{
			Provider:     r.Provider,
			ResponseData: data,
			Confidence:   scaleConfidence(r.Definition.Confidence),
		})
		successes = append(successes, r)
	}

	var evaluation *store.Evaluation
	status := store.StatusPending

	switch {
	case len(successes) == 0:
		// Every provider failed; nothing to evaluate and nothing usable to show.
		return s.failWorkflow(neologism, fmt.Errorf("all providers failed for word %q", word))
	case len(successes) >= 2:
		verdict, err := s.evaluator.Evaluate(ctx, word, successes)
		if err != nil {
			return s.failWorkflow(neologism, fmt.Errorf("conflict evaluation failed: %w", err))
		}
		verdictJSON, err := json.Marshal(verdict)
		if err != nil {
			return s.failWorkflow(neologism, fmt.Errorf("failed to marshal verdict: %w", err))
		}
		evaluation = &store.Evaluation{
			ConflictsDetected:  verdict.ConflictsDetected,
			ResolutionRequired: verdict.ResolutionRequired,
			EvaluatorResponse:  verdictJSON,
		}
		if verdict.ResolutionRequired {
			status = store.StatusConflict
		} else {
			status = store.StatusEvaluated
		}
	default:
		// A single success is not enough to judge agreement; the record stays
		// pending with its one response on file.
	}

	if err := s.dbStore.RecordWorkflowResult(neologism.ID, rows, evaluation, status); err != nil {
		return s.failWorkflow(neologism, fmt.Errorf("failed to record workflow result: %w", err))
	}

	neologism.Status = status
	s.logger.Info("neologism processed",
		zap.String("id", neologism.ID),
		zap.String("word", word),
		zap.Int("successful_providers", len(successes)),
		zap.String("status", status))
	return neologism, nil
}

// failWorkflow marks the neologism llm_error and hands the triggering error
// back to the caller. The row itself is always preserved for inspection and
// resubmission.
func (s *NeologismService) failWorkflow(neologism *store.Neologism, cause error) (*store.Neologism, error) {
	s.logger.Error("neologism workflow failed",
		zap.String("id", neologism.ID),
		zap.String("word", neologism.Word),
		zap.Error(cause))
	if err := s.dbStore.UpdateNeologismStatus(neologism.ID, store.StatusLLMError); err != nil {
		s.logger.Error("failed to mark neologism llm_error",
			zap.String("id", neologism.ID), zap.Error(err))
	}
	neologism.Status = store.StatusLLMError
	return neologism, cause
}

func (s *NeologismService) List(_ context.Context, userID int64) ([]store.NeologismSummary, error) {
	return s.dbStore.ListNeologismsByUser(userID)
}

// Get returns the full record with its provider responses and evaluation,
// strictly scoped to the owner.
func (s *NeologismService) Get(_ context.Context, userID int64, id string) (*store.Neologism, []store.ProviderResponse, *store.Evaluation, error) {
	neologism, err := s.dbStore.GetNeologismByID(id, userID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get neologism: %w", err)
	}
	if neologism == nil {
		return nil, nil, nil, fmt.Errorf("%w: neologism", ErrNotFound)
	}

	responses, err := s.dbStore.GetProviderResponses(id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get provider responses: %w", err)
	}
	evaluation, err := s.dbStore.GetEvaluationByNeologismID(id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	return neologism, responses, evaluation, nil
}

// Resolve finalizes a conflicted neologism: the human's choice and feedback
// are merged into the evaluation's payload under user_resolution, the
// resolution flag is cleared, and the record moves to resolved. Only the
// owner can resolve, and only from conflict status, so a second resolve on
// the same record reports not found.
func (s *NeologismService) Resolve(_ context.Context, userID int64, id, choice string, feedback *string) error {
	if strings.TrimSpace(choice) == "" {
		return fmt.Errorf("%w: resolution_choice is required", ErrValidation)
	}

	neologism, err := s.dbStore.GetNeologismByID(id, userID)
	if err != nil {
		return fmt.Errorf("failed to get neologism: %w", err)
	}
	if neologism == nil || neologism.Status != store.StatusConflict {
		return fmt.Errorf("%w: neologism not found or not in conflict status", ErrNotFound)
	}

	evaluation, err := s.dbStore.GetEvaluationByNeologismID(id)
	if err != nil {
		return fmt.Errorf("failed to get evaluation: %w", err)
	}
	if evaluation == nil {
		return fmt.Errorf("neologism %s is in conflict but has no evaluation", id)
	}

	payload := map[string]any{}
	if len(evaluation.EvaluatorResponse) > 0 {
		if err := json.Unmarshal(evaluation.EvaluatorResponse, &payload); err != nil {
			// Start a fresh payload object rather than losing the resolution.
			payload = map[string]any{}
		}
	}
	resolution := map[string]any{"choice": choice}
	if feedback != nil {
		resolution["feedback"] = *feedback
	} else {
		resolution["feedback"] = nil
	}
	payload["user_resolution"] = resolution

	merged, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal resolution payload: %w", err)
	}

	if err := s.dbStore.ApplyResolution(id, evaluation.ID, merged); err != nil {
		return fmt.Errorf("failed to apply resolution: %w", err)
	}

	s.logger.Info("conflict resolved",
		zap.String("id", id),
		zap.String("choice", choice))
	return nil
}

// scaleConfidence converts a provider's native confidence in [0,1] to the
// stored integer scale, clamped to [0,100].
func scaleConfidence(native float64) int {
	scaled := int(math.Round(native * 100))
	if scaled < 0 {
		return 0
	}
	if scaled > 100 {
		return 100
	}
	return scaled
}
