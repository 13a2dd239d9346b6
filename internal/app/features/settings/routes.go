// internal/app/features/settings/routes.go
package settings

import (
	"github.com/campushub/groupify/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeSettings)
		pr.Post("/", h.HandleUpdate)
		pr.Post("/leave-group", h.HandleLeaveGroup)
	})

	return r
}
