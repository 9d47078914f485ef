package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(apiHandler *APIHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(CORS)

	// Public routes
	r.Get("/", apiHandler.IndexHandler)
	r.Get("/health", apiHandler.HealthHandler)
	r.Post("/auth/register", apiHandler.RegisterHandler)
	r.Post("/auth/login", apiHandler.LoginHandler)

	// User-authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(apiHandler.AuthMiddleware)

		r.Post("/neologisms", apiHandler.CreateNeologismHandler)
		r.Get("/neologisms", apiHandler.ListNeologismsHandler)
		r.Get("/neologisms/{neologismID}", apiHandler.GetNeologismHandler)
		r.Post("/neologisms/{neologismID}/resolve", apiHandler.ResolveNeologismHandler)
	})

	return r
}
