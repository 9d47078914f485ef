package store

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUserLifecycle(t *testing.T) {
	s := newTestStore(t)

	exists, err := s.UserExists("alice", "alice@example.com")
	require.NoError(t, err)
	require.False(t, exists)

	user, err := s.CreateUser("alice", "alice@example.com", "hash")
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.Equal(t, "alice", user.Username)

	exists, err = s.UserExists("alice", "other@example.com")
	require.NoError(t, err)
	require.True(t, exists, "existing username should match regardless of email")

	exists, err = s.UserExists("someone", "alice@example.com")
	require.NoError(t, err)
	require.True(t, exists, "existing email should match regardless of username")

	got, err := s.GetUserByUsername("alice")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, "hash", got.PasswordHash)

	missing, err := s.GetUserByUsername("nobody")
	require.NoError(t, err)
	require.Nil(t, missing)

	// Unique constraints hold at the database level too.
	_, err = s.CreateUser("alice", "alice2@example.com", "hash")
	require.Error(t, err)
}

func TestNeologismLifecycle(t *testing.T) {
	s := newTestStore(t)
	user, err := s.CreateUser("alice", "alice@example.com", "hash")
	require.NoError(t, err)

	ctx := "casual speech"
	n, err := s.CreateNeologism(user.ID, "blorp", "a wet sound", &ctx)
	require.NoError(t, err)
	require.Equal(t, StatusPending, n.Status)
	require.NotEmpty(t, n.ID)

	got, err := s.GetNeologismByID(n.ID, user.ID)
	require.NoError(t, err)
	require.Equal(t, "blorp", got.Word)
	require.NotNil(t, got.Context)
	require.Equal(t, "casual speech", *got.Context)

	// Owner scoping: another user id sees nothing.
	foreign, err := s.GetNeologismByID(n.ID, user.ID+1)
	require.NoError(t, err)
	require.Nil(t, foreign)

	summaries, err := s.ListNeologismsByUser(user.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, n.ID, summaries[0].ID)

	require.NoError(t, s.UpdateNeologismStatus(n.ID, StatusLLMError))
	got, err = s.GetNeologismByID(n.ID, user.ID)
	require.NoError(t, err)
	require.Equal(t, StatusLLMError, got.Status)

	require.Error(t, s.UpdateNeologismStatus("no-such-id", StatusLLMError))
}

func TestRecordWorkflowResult(t *testing.T) {
	s := newTestStore(t)
	user, err := s.CreateUser("alice", "alice@example.com", "hash")
	require.NoError(t, err)
	n, err := s.CreateNeologism(user.ID, "blorp", "a wet sound", nil)
	require.NoError(t, err)

	rows := []ProviderResponse{
		{Provider: "openai", ResponseData: json.RawMessage(`{"definition":"a"}`), Confidence: 80},
		{Provider: "anthropic", ResponseData: json.RawMessage(`{"definition":"b"}`), Confidence: 90},
	}
	eval := &Evaluation{
		ConflictsDetected:  []string{"Different definitions provided by LLM providers"},
		ResolutionRequired: true,
		EvaluatorResponse:  json.RawMessage(`{"notes":"test"}`),
	}

	require.NoError(t, s.RecordWorkflowResult(n.ID, rows, eval, StatusConflict))

	got, err := s.GetNeologismByID(n.ID, user.ID)
	require.NoError(t, err)
	require.Equal(t, StatusConflict, got.Status)

	responses, err := s.GetProviderResponses(n.ID)
	require.NoError(t, err)
	require.Len(t, responses, 2)
	for _, r := range responses {
		require.Equal(t, n.ID, r.NeologismID)
		require.NotEmpty(t, r.ID)
	}

	storedEval, err := s.GetEvaluationByNeologismID(n.ID)
	require.NoError(t, err)
	require.NotNil(t, storedEval)
	require.True(t, storedEval.ResolutionRequired)
	require.Equal(t, eval.ConflictsDetected, storedEval.ConflictsDetected)
}

func TestRecordWorkflowResultNoEvaluation(t *testing.T) {
	s := newTestStore(t)
	user, err := s.CreateUser("alice", "alice@example.com", "hash")
	require.NoError(t, err)
	n, err := s.CreateNeologism(user.ID, "blorp", "a wet sound", nil)
	require.NoError(t, err)

	rows := []ProviderResponse{
		{Provider: "openai", ResponseData: json.RawMessage(`{"definition":"a"}`), Confidence: 50},
	}
	require.NoError(t, s.RecordWorkflowResult(n.ID, rows, nil, StatusPending))

	evaluation, err := s.GetEvaluationByNeologismID(n.ID)
	require.NoError(t, err)
	require.Nil(t, evaluation)

	responses, err := s.GetProviderResponses(n.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
}

func TestApplyResolution(t *testing.T) {
	s := newTestStore(t)
	user, err := s.CreateUser("alice", "alice@example.com", "hash")
	require.NoError(t, err)
	n, err := s.CreateNeologism(user.ID, "blorp", "a wet sound", nil)
	require.NoError(t, err)

	eval := &Evaluation{
		ConflictsDetected:  []string{"conflict"},
		ResolutionRequired: true,
		EvaluatorResponse:  json.RawMessage(`{"notes":"test"}`),
	}
	require.NoError(t, s.RecordWorkflowResult(n.ID, nil, eval, StatusConflict))

	merged := json.RawMessage(`{"notes":"test","user_resolution":{"choice":"accept_consensus","feedback":null}}`)
	require.NoError(t, s.ApplyResolution(n.ID, eval.ID, merged))

	got, err := s.GetNeologismByID(n.ID, user.ID)
	require.NoError(t, err)
	require.Equal(t, StatusResolved, got.Status)

	storedEval, err := s.GetEvaluationByNeologismID(n.ID)
	require.NoError(t, err)
	require.False(t, storedEval.ResolutionRequired)
	require.JSONEq(t, string(merged), string(storedEval.EvaluatorResponse))
}
