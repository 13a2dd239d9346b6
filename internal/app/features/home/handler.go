package home

import (
	"context"
	"net/http"

	clusterstore "github.com/campushub/groupify/internal/app/store/clusters"
	groupstore "github.com/campushub/groupify/internal/app/store/groups"
	"github.com/campushub/groupify/internal/app/system/timeouts"
	"github.com/campushub/groupify/internal/app/system/viewdata"
	"github.com/campushub/groupify/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds dependencies needed to serve the home page.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:  db,
		Log: logger,
	}
}

// clusterCard is one entry in the landing-page cluster showcase.
type clusterCard struct {
	models.Cluster
	GroupCount int64
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	// Signed-in users land on their dashboard instead.
	vm := viewdata.NewBaseVM(r, h.DB, "Welcome", "/")
	if vm.IsLoggedIn {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	clusters, err := clusterstore.New(h.DB).List(ctx)
	if err != nil {
		// The showcase is decorative; render the page without it.
		h.Log.Warn("home: list clusters failed", zap.Error(err))
	}

	groups := groupstore.New(h.DB)
	cards := make([]clusterCard, 0, len(clusters))
	for _, c := range clusters {
		n, err := groups.CountByCluster(ctx, c.ID)
		if err != nil {
			h.Log.Warn("home: count groups failed",
				zap.Int("cluster_id", c.ID), zap.Error(err))
			n = 0
		}
		cards = append(cards, clusterCard{Cluster: c, GroupCount: n})
	}

	data := struct {
		viewdata.BaseVM
		Clusters []clusterCard
	}{
		BaseVM:   vm,
		Clusters: cards,
	}

	templates.Render(w, r, "home", data)
}
