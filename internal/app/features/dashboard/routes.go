// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/campushub/groupify/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeDashboard)
		pr.Post("/invitations/{id}/accept", h.HandleAcceptInvite)
		pr.Post("/invitations/{id}/decline", h.HandleDeclineInvite)
	})

	return r
}
