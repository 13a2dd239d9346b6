// internal/app/features/admin/routes.go
package admin

import (
	"github.com/campushub/groupify/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("admin"))

		pr.Get("/", h.ServePanel)
		pr.Post("/freeze", h.HandleFreeze)
		pr.Post("/deadline", h.HandleDeadline)
		pr.Post("/students/reset", h.HandleResetStudent)
		pr.Get("/export", h.HandleExport)
	})

	return r
}
