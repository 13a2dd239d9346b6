// internal/app/features/groups/browse.go
package groups

import (
	"context"
	"net/http"

	"github.com/campushub/groupify/internal/app/system/authz"
	"github.com/campushub/groupify/internal/app/system/timeouts"
	"github.com/campushub/groupify/internal/app/system/viewdata"
	"github.com/campushub/groupify/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	groupstore "github.com/campushub/groupify/internal/app/store/groups"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type browseItem struct {
	models.Group
	MemberCount int
	LeaderName  string
}

type browseData struct {
	viewdata.BaseVM
	ClusterName string
	Search      string
	Items       []browseItem
	CanApply    bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /groups – browse joinable groups in my cluster                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeBrowse(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Profiles.GetByID(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: load profile failed", err, "Unable to load groups.", "/dashboard")
		return
	}
	if p.CurrentClusterID == nil {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}

	q := query.Get(r, "q")
	items, err := h.browseCluster(ctx, *p.CurrentClusterID, q)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: browse failed", err, "Unable to load groups.", "/dashboard")
		return
	}

	data := browseData{
		BaseVM:   viewdata.NewBaseVM(r, h.DB, "Browse groups", "/dashboard"),
		Search:   q,
		Items:    items,
		CanApply: p.CurrentGroupID == nil,
	}
	if c, err := h.Clusters.GetByID(ctx, *p.CurrentClusterID); err == nil {
		data.ClusterName = c.Name
	}

	templates.Render(w, r, "groups_browse", data)
}

// browseCluster lists joinable groups (open or almost full) in a cluster,
// decorated with live member counts and leader names.
func (h *Handler) browseCluster(ctx context.Context, clusterID int, namePrefix string) ([]browseItem, error) {
	gs, err := h.Groups.List(ctx, groupstore.BrowseFilter{
		ClusterID:  &clusterID,
		Statuses:   []string{models.StatusOpen, models.StatusAlmostFull},
		NamePrefix: namePrefix,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(gs))
	leaderIDs := make([]primitive.ObjectID, 0, len(gs))
	for _, g := range gs {
		ids = append(ids, g.ID)
		leaderIDs = append(leaderIDs, g.LeaderID)
	}

	counts, err := h.Members.CountPerGroup(ctx, ids)
	if err != nil {
		return nil, err
	}

	leaders, err := h.Profiles.ListByIDs(ctx, leaderIDs)
	if err != nil {
		return nil, err
	}
	leaderName := make(map[primitive.ObjectID]string, len(leaders))
	for _, l := range leaders {
		leaderName[l.ID] = l.FullName
	}

	items := make([]browseItem, 0, len(gs))
	for _, g := range gs {
		items = append(items, browseItem{
			Group:       g,
			MemberCount: counts[g.ID],
			LeaderName:  leaderName[g.LeaderID],
		})
	}

	h.Log.Debug("groups browsed",
		zap.Int("cluster_id", clusterID),
		zap.Int("results", len(items)))
	return items, nil
}
