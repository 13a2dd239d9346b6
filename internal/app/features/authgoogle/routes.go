// internal/app/features/authgoogle/routes.go
package authgoogle

import "github.com/go-chi/chi/v5"

// Routes mounts the OAuth endpoints under "/auth/google".
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeBegin)
	r.Get("/callback", h.ServeCallback)
	return r
}
