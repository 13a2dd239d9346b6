// internal/app/features/contact/handler.go
package contact

import (
	"net/http"

	"github.com/campushub/groupify/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger}
}

func (h *Handler) ServeContact(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "contact", struct {
		viewdata.BaseVM
	}{
		BaseVM: viewdata.NewBaseVM(r, h.DB, "Contact", "/"),
	})
}
