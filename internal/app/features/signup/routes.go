// internal/app/features/signup/routes.go
package signup

import "github.com/go-chi/chi/v5"

// Routes mounts the signup form under its base path (typically "/signup").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeSignup)
	r.Post("/", h.HandleSignupPost)
	return r
}
