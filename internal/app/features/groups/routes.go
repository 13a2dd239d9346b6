// internal/app/features/groups/routes.go
package groups

import (
	"github.com/campushub/groupify/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeBrowse)
		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleCreate)

		pr.Get("/{id}", h.ServeView)
		pr.Post("/{id}/apply", h.HandleApply)

		pr.Get("/{id}/manage", h.ServeManage)
		pr.Post("/{id}/edit", h.HandleEdit)
		pr.Post("/{id}/freeze", h.HandleFreeze)
		pr.Post("/{id}/delete", h.HandleDelete)
		pr.Post("/{id}/applications/{appID}/accept", h.HandleAcceptApplication)
		pr.Post("/{id}/applications/{appID}/decline", h.HandleDeclineApplication)
		pr.Post("/{id}/members/{userID}/remove", h.HandleRemoveMember)
	})

	return r
}
