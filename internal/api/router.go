package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/filesnap/internal/taskservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *taskservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/tasks", h.ListTasks)
	r.Route("/tasks/{task}", func(r chi.Router) {
		r.Get("/", h.GetTask)
		r.Get("/snapshot", h.Snapshot)
		r.Get("/status", h.Status)
		r.Post("/record", h.Record)
		r.Delete("/record", h.Forget)

		r.Get("/properties/{property}/files", h.PropertyFiles)
		r.Get("/properties/{property}/tree", h.PropertyTree)
		r.Get("/properties/{property}/inspect", h.PropertyInspect)
	})

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
