// internal/app/features/suggestions/handler.go
//
// Skill-based matchmaking: ranked joinable groups and ranked unattached
// teammates from the student's own cluster.
package suggestions

import (
	"context"
	"net/http"

	uierrors "github.com/campushub/groupify/internal/app/features/errors"
	groupstore "github.com/campushub/groupify/internal/app/store/groups"
	memberstore "github.com/campushub/groupify/internal/app/store/members"
	profilestore "github.com/campushub/groupify/internal/app/store/profiles"
	"github.com/campushub/groupify/internal/app/suggest"
	"github.com/campushub/groupify/internal/app/system/authz"
	"github.com/campushub/groupify/internal/app/system/timeouts"
	"github.com/campushub/groupify/internal/app/system/viewdata"
	"github.com/campushub/groupify/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger

	Profiles *profilestore.Store
	Groups   *groupstore.Store
	Members  *memberstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		Profiles: profilestore.New(db),
		Groups:   groupstore.New(db),
		Members:  memberstore.New(db),
	}
}

type groupSuggestionRow struct {
	suggest.GroupSuggestion
	LeaderName  string
	MemberCount int
}

type suggestionsData struct {
	viewdata.BaseVM
	HasSkills bool
	InGroup   bool
	Groups    []groupSuggestionRow
	Students  []suggest.StudentSuggestion
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /suggestions                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeSuggestions(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	me, err := h.Profiles.GetByID(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "suggestions: load profile failed", err, "A server error occurred.", "/dashboard")
		return
	}
	if me.CurrentClusterID == nil {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}

	data := suggestionsData{
		BaseVM:    viewdata.NewBaseVM(r, h.DB, "Suggestions", "/dashboard"),
		HasSkills: len(me.Skills) > 0,
		InGroup:   me.CurrentGroupID != nil,
	}

	// Group suggestions only matter for students who can still join one.
	if me.CurrentGroupID == nil {
		rows, err := h.rankGroups(ctx, me)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "suggestions: rank groups failed", err, "Unable to load suggestions.", "/dashboard")
			return
		}
		data.Groups = rows
	}

	candidates, err := h.Profiles.ListStudents(ctx, profilestore.DirectoryFilter{
		ClusterID:    me.CurrentClusterID,
		WithoutGroup: true,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "suggestions: list students failed", err, "Unable to load suggestions.", "/dashboard")
		return
	}
	others := candidates[:0]
	for _, p := range candidates {
		if p.ID != userID {
			others = append(others, p)
		}
	}
	data.Students = suggest.RankStudents(me.Skills, others)

	templates.Render(w, r, "suggestions", data)
}

func (h *Handler) rankGroups(ctx context.Context, me *models.Profile) ([]groupSuggestionRow, error) {
	candidates, err := h.Groups.List(ctx, groupstore.BrowseFilter{
		ClusterID: me.CurrentClusterID,
		Statuses:  []string{models.StatusOpen, models.StatusAlmostFull},
	})
	if err != nil {
		return nil, err
	}

	leaderIDs := make([]primitive.ObjectID, 0, len(candidates))
	for _, g := range candidates {
		leaderIDs = append(leaderIDs, g.LeaderID)
	}
	leaders, err := h.Profiles.ListByIDs(ctx, leaderIDs)
	if err != nil {
		return nil, err
	}
	leaderSkills := make(map[primitive.ObjectID][]string, len(leaders))
	leaderNames := make(map[primitive.ObjectID]string, len(leaders))
	for _, p := range leaders {
		leaderSkills[p.ID] = p.Skills
		leaderNames[p.ID] = p.FullName
	}

	ranked := suggest.RankGroups(me.Skills, candidates, leaderSkills)

	groupIDs := make([]primitive.ObjectID, 0, len(ranked))
	for _, s := range ranked {
		groupIDs = append(groupIDs, s.Group.ID)
	}
	counts, err := h.Members.CountPerGroup(ctx, groupIDs)
	if err != nil {
		return nil, err
	}

	rows := make([]groupSuggestionRow, 0, len(ranked))
	for _, s := range ranked {
		rows = append(rows, groupSuggestionRow{
			GroupSuggestion: s,
			LeaderName:      leaderNames[s.Group.LeaderID],
			MemberCount:     counts[s.Group.ID],
		})
	}
	return rows, nil
}
