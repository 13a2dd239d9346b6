// internal/app/features/chat/routes.go
package chat

import (
	"github.com/campushub/groupify/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeChat)
		pr.Get("/feed", h.ServeFeed)
		pr.Post("/messages", h.HandlePost)
		pr.Post("/messages/{id}/pin", h.HandlePin)
	})

	return r
}
