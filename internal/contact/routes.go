package contact

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the contact submission routes with the router.
func RegisterRoutes(r chi.Router, handler *Handler) {
	r.Post("/contact", handler.Submit)
}
