package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apiMiddleware "github.com/ali-aktas/hocalingo/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Word selection endpoints
			r.Post("/selection/start", app.selectionHandler.StartFlow)
			r.Post("/selection/decide", app.selectionHandler.Decide)
			r.Post("/selection/undo", app.selectionHandler.Undo)
			r.Post("/selection/prepare", app.selectionHandler.PrepareSession)
			r.Get("/selection/current", app.selectionHandler.CurrentState)

			// Study session endpoints
			r.Post("/study/start", app.studyHandler.StartSession)
			r.Post("/study/answer", app.studyHandler.SubmitAnswer)
			r.Post("/study/resume", app.studyHandler.ResumeSession)
			r.Post("/study/reload", app.studyHandler.ReloadSession)
			r.Post("/study/teardown", app.studyHandler.TeardownSession)
			r.Get("/study/current", app.studyHandler.CurrentCard)
		})
	})

	// Health check endpoint
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
