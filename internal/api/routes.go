package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		RequestID(h.logger),
		Logging(h.logger),
	)

	// Posts
	mux.Handle("GET /api/v1/posts/{id}", chain(http.HandlerFunc(h.GetPost)))
	mux.Handle("POST /api/v1/posts/{id}/publish", chain(http.HandlerFunc(h.PublishPost)))
	mux.Handle("POST /api/v1/posts/{id}/poke", chain(http.HandlerFunc(h.PokePost)))
}
