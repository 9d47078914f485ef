package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"neologe/internal/auth"
	"neologe/internal/core"
	"neologe/internal/store"
)

type contextKey string

const userIDKey contextKey = "userID"

type APIHandler struct {
	service *core.NeologismService
	tokens  *auth.TokenIssuer
	logger  *zap.Logger
}

func NewAPIHandler(service *core.NeologismService, tokens *auth.TokenIssuer, logger *zap.Logger) *APIHandler {
	return &APIHandler{service: service, tokens: tokens, logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// AuthMiddleware verifies the bearer token and loads the caller's identity
// into the request context.
func (h *APIHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		username, err := h.tokens.Validate(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		user, err := h.service.GetUserByUsername(username)
		if err != nil {
			h.logger.Error("failed to load user for token", zap.String("username", username), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to process user identity")
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "User not found")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *APIHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to Neologe API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"POST /auth/register":           "Register a new user",
			"POST /auth/login":              "User login",
			"POST /neologisms":              "Submit a new neologism",
			"GET /neologisms":               "List user's neologisms",
			"GET /neologisms/{id}":          "Get neologism details",
			"POST /neologisms/{id}/resolve": "Resolve conflicts",
		},
	})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", zap.String("username", req.Username), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	user, err := h.service.RegisterUser(req.Username, req.Email, hashedPassword)
	if err != nil {
		if errors.Is(err, core.ErrValidation) {
			writeError(w, http.StatusBadRequest, "Username or email already exists")
			return
		}
		h.logger.Error("failed to create user", zap.String("username", req.Username), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing username or password")
		return
	}

	user, err := h.service.GetUserByUsername(req.Username)
	if err != nil {
		h.logger.Error("failed to look up user", zap.String("username", req.Username), zap.Error(err))
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.Generate(req.Username)
	if err != nil {
		h.logger.Error("failed to generate token", zap.String("username", req.Username), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

type CreateNeologismRequest struct {
	Word           string  `json:"word"`
	UserDefinition string  `json:"user_definition"`
	Context        *string `json:"context,omitempty"`
}

func (h *APIHandler) CreateNeologismHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(int64)

	var req CreateNeologismRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	neologism, err := h.service.Submit(r.Context(), userID, req.Word, req.UserDefinition, req.Context)
	if err != nil {
		if errors.Is(err, core.ErrValidation) {
			writeError(w, http.StatusBadRequest, "Missing word or definition")
			return
		}
		// The record, if created, is preserved in llm_error status.
		h.logger.Error("submission workflow failed", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error processing with LLM providers: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, neologism)
}

func (h *APIHandler) ListNeologismsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(int64)

	summaries, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list neologisms", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list neologisms")
		return
	}
	if summaries == nil {
		summaries = []store.NeologismSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

type NeologismDetailResponse struct {
	*store.Neologism
	ProviderResponses []store.ProviderResponse `json:"provider_responses"`
	Evaluation        *store.Evaluation        `json:"evaluation,omitempty"`
}

func (h *APIHandler) GetNeologismHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(int64)
	id := chi.URLParam(r, "neologismID")

	neologism, responses, evaluation, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Neologism not found")
			return
		}
		h.logger.Error("failed to get neologism", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to get neologism")
		return
	}
	if responses == nil {
		responses = []store.ProviderResponse{}
	}

	writeJSON(w, http.StatusOK, NeologismDetailResponse{
		Neologism:         neologism,
		ProviderResponses: responses,
		Evaluation:        evaluation,
	})
}

type ResolveRequest struct {
	ResolutionChoice string  `json:"resolution_choice"`
	UserFeedback     *string `json:"user_feedback,omitempty"`
}

func (h *APIHandler) ResolveNeologismHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(int64)
	id := chi.URLParam(r, "neologismID")

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	err := h.service.Resolve(r.Context(), userID, id, req.ResolutionChoice, req.UserFeedback)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrValidation):
			writeError(w, http.StatusBadRequest, "resolution_choice is required")
		case errors.Is(err, core.ErrNotFound):
			writeError(w, http.StatusNotFound, "Neologism not found or not in conflict status")
		default:
			h.logger.Error("failed to resolve conflict", zap.String("id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to resolve conflict")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Conflict resolved successfully"})
}
