package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arroyoseco/abate/internal/catalog"
	"github.com/arroyoseco/abate/internal/inspection"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *inspection.Service, cat *catalog.Catalog, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, cat)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Static reference data.
	r.Get("/catalog", h.GetCatalog)

	// Sessions.
	r.Post("/sessions", h.CreateSession)
	r.Get("/sessions", h.ListSessions)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.Put("/form", h.UpdateForm)
		r.Post("/violations/toggle", h.ToggleViolation)
		r.Post("/areas/toggle", h.ToggleArea)
		r.Get("/payload", h.GetPayload)
		r.Post("/report", h.GenerateReport)

		// Photo evidence.
		r.Post("/photos", h.UploadPhoto)
		r.Route("/photos/{photoID}", func(r chi.Router) {
			r.Delete("/", h.DeletePhoto)
			r.Get("/image", h.PhotoImage)
			r.Get("/suggestions", h.Suggestions)
			r.Post("/tags", h.AddTag)
			r.Delete("/tags/{tag}", h.RemoveTag)
			r.Put("/description", h.SetDescription)
			r.Post("/highlights", h.AddHighlight)
			r.Delete("/highlights/{highlightID}", h.RemoveHighlight)
			r.Post("/verify", h.VerifyPhoto)
		})
	})

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
