package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        username TEXT UNIQUE NOT NULL,
        email TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS neologisms (
        id TEXT PRIMARY KEY, -- UUID
        word TEXT NOT NULL,
        user_definition TEXT NOT NULL,
        context TEXT,
        status TEXT NOT NULL DEFAULT 'pending'
            CHECK (status IN ('pending', 'evaluated', 'conflict', 'llm_error', 'resolved')),
        user_id INTEGER NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS provider_responses (
        id TEXT PRIMARY KEY, -- UUID
        neologism_id TEXT NOT NULL,
        provider TEXT NOT NULL,
        response_data TEXT NOT NULL,
        confidence INTEGER,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (neologism_id) REFERENCES neologisms (id)
    );

    CREATE TABLE IF NOT EXISTS evaluations (
        id TEXT PRIMARY KEY, -- UUID
        neologism_id TEXT NOT NULL,
        conflicts_detected TEXT,
        resolution_required BOOLEAN DEFAULT FALSE,
        evaluator_response TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (neologism_id) REFERENCES neologisms (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods

func (s *SQLiteStore) GetUserByUsername(username string) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, username, email, password_hash, created_at FROM users WHERE username = ?", username).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// UserExists reports whether a user with the given username or email already
// has an account.
func (s *SQLiteStore) UserExists(username, email string) (bool, error) {
	var id int64
	err := s.db.QueryRow("SELECT id FROM users WHERE username = ? OR email = ?", username, email).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) CreateUser(username, email, passwordHash string) (*User, error) {
	res, err := s.db.Exec("INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)",
		username, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.getUserByID(id)
}

func (s *SQLiteStore) getUserByID(id int64) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?", id).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// Neologism methods

func (s *SQLiteStore) CreateNeologism(userID int64, word, userDefinition string, context *string) (*Neologism, error) {
	id := uuid.NewString()
	now := time.Now()

	stmt, err := s.db.Prepare("INSERT INTO neologisms (id, word, user_definition, context, status, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare neologism insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(id, word, userDefinition, context, StatusPending, userID, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to execute neologism insert: %w", err)
	}

	return &Neologism{
		ID:             id,
		Word:           word,
		UserDefinition: userDefinition,
		Context:        context,
		Status:         StatusPending,
		UserID:         userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (s *SQLiteStore) GetNeologismByID(id string, userID int64) (*Neologism, error) {
	var n Neologism
	var context sql.NullString
	err := s.db.QueryRow("SELECT id, word, user_definition, context, status, user_id, created_at, updated_at FROM neologisms WHERE id = ? AND user_id = ?", id, userID).
		Scan(&n.ID, &n.Word, &n.UserDefinition, &context, &n.Status, &n.UserID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get neologism: %w", err)
	}
	if context.Valid {
		n.Context = &context.String
	}
	return &n, nil
}

func (s *SQLiteStore) ListNeologismsByUser(userID int64) ([]NeologismSummary, error) {
	rows, err := s.db.Query("SELECT id, word, status, created_at FROM neologisms WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query neologisms: %w", err)
	}
	defer rows.Close()

	var summaries []NeologismSummary
	for rows.Next() {
		var ns NeologismSummary
		if err := rows.Scan(&ns.ID, &ns.Word, &ns.Status, &ns.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan neologism row: %w", err)
		}
		summaries = append(summaries, ns)
	}
	return summaries, rows.Err()
}

func (s *SQLiteStore) UpdateNeologismStatus(id, status string) error {
	stmt, err := s.db.Prepare("UPDATE neologisms SET status = ?, updated_at = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare status update: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to execute status update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("neologism not found, status not updated")
	}
	return nil
}

// RecordWorkflowResult persists the outcome of one submission's fan-out in a
// single transaction: every successful provider response, the evaluation if
// one was produced, and the resulting status. A mid-write failure rolls the
// whole batch back so the stored status never disagrees with the stored rows.
func (s *SQLiteStore) RecordWorkflowResult(neologismID string, responses []ProviderResponse, eval *Evaluation, status string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for i := range responses {
		r := &responses[i]
		r.ID = uuid.NewString()
		r.NeologismID = neologismID
		r.CreatedAt = now
		_, err = tx.Exec("INSERT INTO provider_responses (id, neologism_id, provider, response_data, confidence, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			r.ID, r.NeologismID, r.Provider, string(r.ResponseData), r.Confidence, r.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert provider response: %w", err)
		}
	}

	if eval != nil {
		eval.ID = uuid.NewString()
		eval.NeologismID = neologismID
		eval.CreatedAt = now

		conflictsJSON, err := json.Marshal(eval.ConflictsDetected)
		if err != nil {
			return fmt.Errorf("failed to marshal conflicts: %w", err)
		}
		_, err = tx.Exec("INSERT INTO evaluations (id, neologism_id, conflicts_detected, resolution_required, evaluator_response, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			eval.ID, eval.NeologismID, string(conflictsJSON), eval.ResolutionRequired, string(eval.EvaluatorResponse), eval.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert evaluation: %w", err)
		}
	}

	_, err = tx.Exec("UPDATE neologisms SET status = ?, updated_at = ? WHERE id = ?", status, now, neologismID)
	if err != nil {
		return fmt.Errorf("failed to update neologism status: %w", err)
	}

	return tx.Commit()
}

// ProviderResponse methods

func (s *SQLiteStore) GetProviderResponses(neologismID string) ([]ProviderResponse, error) {
	rows, err := s.db.Query("SELECT id, neologism_id, provider, response_data, confidence, created_at FROM provider_responses WHERE neologism_id = ? ORDER BY created_at ASC, provider ASC", neologismID)
	if err != nil {
		return nil, fmt.Errorf("failed to query provider responses: %w", err)
	}
	defer rows.Close()

	var responses []ProviderResponse
	for rows.Next() {
		var r ProviderResponse
		var data string
		if err := rows.Scan(&r.ID, &r.NeologismID, &r.Provider, &data, &r.Confidence, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan provider response row: %w", err)
		}
		r.ResponseData = json.RawMessage(data)
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// Evaluation methods

func (s *SQLiteStore) GetEvaluationByNeologismID(neologismID string) (*Evaluation, error) {
	var e Evaluation
	var conflicts, evaluatorResponse sql.NullString
	err := s.db.QueryRow("SELECT id, neologism_id, conflicts_detected, resolution_required, evaluator_response, created_at FROM evaluations WHERE neologism_id = ?", neologismID).
		Scan(&e.ID, &e.NeologismID, &conflicts, &e.ResolutionRequired, &evaluatorResponse, &e.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No evaluation recorded
		}
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	if conflicts.Valid && conflicts.String != "" {
		if err := json.Unmarshal([]byte(conflicts.String), &e.ConflictsDetected); err != nil {
			return nil, fmt.Errorf("failed to unmarshal conflicts for evaluation %s: %w", e.ID, err)
		}
	}
	if evaluatorResponse.Valid {
		e.EvaluatorResponse = json.RawMessage(evaluatorResponse.String)
	}
	return &e, nil
}

// ApplyResolution writes a human resolution in one transaction: the merged
// evaluator payload with resolution_required cleared, and the neologism moved
// to resolved.
func (s *SQLiteStore) ApplyResolution(neologismID, evaluationID string, payload json.RawMessage) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec("UPDATE evaluations SET evaluator_response = ?, resolution_required = FALSE WHERE id = ?",
		string(payload), evaluationID)
	if err != nil {
		return fmt.Errorf("failed to update evaluation: %w", err)
	}

	_, err = tx.Exec("UPDATE neologisms SET status = ?, updated_at = ? WHERE id = ?",
		StatusResolved, time.Now(), neologismID)
	if err != nil {
		return fmt.Errorf("failed to update neologism status: %w", err)
	}

	return tx.Commit()
}
