package store

import (
	"encoding/json"
	"time"
)

// Neologism workflow statuses. pending moves to evaluated, conflict or
// llm_error; conflict moves to resolved via the resolve operation. No
// transition leaves evaluated, llm_error or resolved.
const (
	StatusPending   = "pending"
	StatusEvaluated = "evaluated"
	StatusConflict  = "conflict"
	StatusLLMError  = "llm_error"
	StatusResolved  = "resolved"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	CreatedAt    time.Time `json:"created_at"`
}

type Neologism struct {
	ID             string    `json:"id"` // UUID
	Word           string    `json:"word"`
	UserDefinition string    `json:"user_definition"`
	Context        *string   `json:"context"` // Nullable
	Status         string    `json:"status"`
	UserID         int64     `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NeologismSummary is the list-view projection of a Neologism.
type NeologismSummary struct {
	ID        string    `json:"id"`
	Word      string    `json:"word"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ProviderResponse is one provider's successful structured definition for a
// neologism. Rows are immutable once written.
type ProviderResponse struct {
	ID           string          `json:"id"` // UUID
	NeologismID  string          `json:"neologism_id"`
	Provider     string          `json:"provider"`
	ResponseData json.RawMessage `json:"response_data"`
	Confidence   int             `json:"confidence"` // 0-100, round(native*100)
	CreatedAt    time.Time       `json:"created_at"`
}

type Evaluation struct {
	ID                 string          `json:"id"` // UUID
	NeologismID        string          `json:"neologism_id"`
	ConflictsDetected  []string        `json:"conflicts_detected"`
	ResolutionRequired bool            `json:"resolution_required"`
	EvaluatorResponse  json.RawMessage `json:"evaluator_response"`
	CreatedAt          time.Time       `json:"created_at"`
}
