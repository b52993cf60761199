package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/daybook/internal/journal"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *journal.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	ih := NewImageHandler(svc)
	eh := NewEditorHandler(svc.Images(), svc.EditorConfig())

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Days.
	r.Get("/days", h.ListDays)
	r.Delete("/days", h.DeleteAll)
	r.Get("/days/{date}", h.GetDay)
	r.Put("/days/{date}", h.PutDay)
	r.Delete("/days/{date}", h.DeleteDay)

	// Calendar.
	r.Get("/calendar/{year}/{month}", h.Month)
	r.Post("/calendar/rebuild", h.RebuildCalendar)

	// Images.
	r.Post("/images", ih.Upload)
	r.Post("/images/import", ih.Import)
	r.Delete("/images/{name}", ih.Reclaim)

	// Editor.
	r.Post("/editor/{op}", eh.Apply)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
