// internal/app/features/students/handler.go
//
// Student directory: browse unattached students in your own cluster and,
// when you lead or belong to a group, invite them in.
package students

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/campushub/groupify/internal/app/features/errors"
	"github.com/campushub/groupify/internal/app/membership"
	clusterstore "github.com/campushub/groupify/internal/app/store/clusters"
	invitationstore "github.com/campushub/groupify/internal/app/store/invitations"
	profilestore "github.com/campushub/groupify/internal/app/store/profiles"
	"github.com/campushub/groupify/internal/app/system/auditlog"
	"github.com/campushub/groupify/internal/app/system/authz"
	"github.com/campushub/groupify/internal/app/system/timeouts"
	"github.com/campushub/groupify/internal/app/system/viewdata"
	"github.com/campushub/groupify/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	Engine   *membership.Engine
	AuditLog *auditlog.Logger

	Profiles    *profilestore.Store
	Invitations *invitationstore.Store
	Clusters    *clusterstore.Store
}

func NewHandler(db *mongo.Database, engine *membership.Engine, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		Log:         logger,
		ErrLog:      errLog,
		Engine:      engine,
		AuditLog:    audit,
		Profiles:    profilestore.New(db),
		Invitations: invitationstore.New(db),
		Clusters:    clusterstore.New(db),
	}
}

type directoryRow struct {
	models.Profile
	InvitePending bool
}

type directoryData struct {
	viewdata.BaseVM
	ClusterName string
	Search      string
	Skill       string
	Skills      []string
	Rows        []directoryRow
	CanInvite   bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /students                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDirectory(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	me, err := h.Profiles.GetByID(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "students: load profile failed", err, "A server error occurred.", "/dashboard")
		return
	}
	if me.CurrentClusterID == nil {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}

	search := strings.TrimSpace(query.Get(r, "q"))
	skill := strings.TrimSpace(query.Get(r, "skill"))
	if !models.IsKnownSkill(skill) {
		skill = ""
	}

	candidates, err := h.Profiles.ListStudents(ctx, profilestore.DirectoryFilter{
		ClusterID:    me.CurrentClusterID,
		WithoutGroup: true,
		NamePrefix:   search,
		Skill:        skill,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "students: list failed", err, "Unable to load the directory.", "/dashboard")
		return
	}

	rows := make([]directoryRow, 0, len(candidates))
	for _, p := range candidates {
		if p.ID == userID {
			continue
		}
		row := directoryRow{Profile: p}
		// The pending badge reflects an invitation from the viewer's group.
		if me.CurrentGroupID != nil {
			pending, err := h.Invitations.HasPending(ctx, *me.CurrentGroupID, p.ID)
			if err != nil {
				h.ErrLog.LogServerError(w, r, "students: invite lookup failed", err, "Unable to load the directory.", "/dashboard")
				return
			}
			row.InvitePending = pending
		}
		rows = append(rows, row)
	}

	clusterName := ""
	if c, err := h.Clusters.GetByID(ctx, *me.CurrentClusterID); err == nil {
		clusterName = c.Name
	} else {
		h.Log.Warn("students: cluster lookup failed", zap.Error(err))
	}

	templates.Render(w, r, "students", directoryData{
		BaseVM:      viewdata.NewBaseVM(r, h.DB, "Students", "/dashboard"),
		ClusterName: clusterName,
		Search:      search,
		Skill:       skill,
		Skills:      models.Skills,
		Rows:        rows,
		CanInvite:   me.CurrentGroupID != nil,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /students/{id}/invite                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	inviteeID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "students: bad invitee id", err, "Invalid student.", "/students")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	inv, err := h.Engine.SendInvite(ctx, userID, inviteeID)
	switch {
	case err == nil:
	case errors.Is(err, membership.ErrNoGroupToInviteInto):
		// Inviting only makes sense from inside a group; offer to start one.
		http.Redirect(w, r, "/groups/new", http.StatusSeeOther)
		return
	case errors.Is(err, membership.ErrSystemFrozen):
		uierrors.RenderForbidden(w, r, "Group formation is currently frozen.", "/students")
		return
	case errors.Is(err, invitationstore.ErrDuplicateInvite):
		h.ErrLog.LogBadRequest(w, r, "students: duplicate invite", err, "That student already has a pending invitation.", "/students")
		return
	case errors.Is(err, membership.ErrNotFound):
		h.ErrLog.LogBadRequest(w, r, "students: invitee missing", err, "That student no longer exists.", "/students")
		return
	default:
		h.ErrLog.LogServerError(w, r, "students: invite failed", err, "Unable to send the invitation.", "/students")
		return
	}

	h.AuditLog.InviteSent(ctx, r, userID, inviteeID, inv.GroupID)
	http.Redirect(w, r, "/students", http.StatusSeeOther)
}
