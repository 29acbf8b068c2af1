package http

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires public and authenticated routes.
func NewRouter(h *Handler, jwtSecret string, log *logger.Logger, m *metrics.MetricsManager) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(Instrument(m))
	r.Use(RequestLogger(log.Named("HTTP")))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", h.ListCategories)
		r.Get("/listings", h.SearchListings)
		r.Get("/listings/{id}", h.GetListing)
		r.Get("/users/{id}/profile", h.GetProfile)

		r.Group(func(r chi.Router) {
			r.Use(JWTAuth(jwtSecret, log))

			r.Post("/listings", h.CreateListing)
			r.Put("/listings/{id}", h.UpdateListing)
			r.Post("/listings/{id}/close", h.CloseListing)
			r.Post("/listings/{id}/reunion", h.ConfirmReunion)
			r.Get("/listings/{id}/messages", h.ListListingMessages)
			r.Post("/listings/{id}/messages", h.SendMessage)
			r.Get("/messages/inbox", h.Inbox)
			r.Post("/messages/{id}/read", h.MarkRead)
			r.Get("/me/listings", h.MyListings)
			r.Post("/images", h.UploadImage)
		})
	})

	return r
}
