// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/campushub/groupify/internal/app/features/errors"
	"github.com/campushub/groupify/internal/app/membership"
	applicationstore "github.com/campushub/groupify/internal/app/store/applications"
	groupstore "github.com/campushub/groupify/internal/app/store/groups"
	invitationstore "github.com/campushub/groupify/internal/app/store/invitations"
	memberstore "github.com/campushub/groupify/internal/app/store/members"
	profilestore "github.com/campushub/groupify/internal/app/store/profiles"
	"github.com/campushub/groupify/internal/app/system/auth"
	"github.com/campushub/groupify/internal/app/system/authz"
	"github.com/campushub/groupify/internal/app/system/timeouts"
	"github.com/campushub/groupify/internal/app/system/viewdata"
	"github.com/campushub/groupify/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Engine *membership.Engine

	Profiles     *profilestore.Store
	Groups       *groupstore.Store
	Members      *memberstore.Store
	Applications *applicationstore.Store
	Invitations  *invitationstore.Store
}

func NewHandler(db *mongo.Database, engine *membership.Engine, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:           db,
		Log:          logger,
		ErrLog:       errLog,
		Engine:       engine,
		Profiles:     profilestore.New(db),
		Groups:       groupstore.New(db),
		Members:      memberstore.New(db),
		Applications: applicationstore.New(db),
		Invitations:  invitationstore.New(db),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type groupCard struct {
	Group       models.Group
	LeaderName  string
	MemberCount int64
	IsLeader    bool
}

type applicationRow struct {
	models.GroupApplication
	GroupName string
}

type invitationRow struct {
	models.GroupInvitation
	GroupName   string
	InviterName string
}

type dashboardData struct {
	viewdata.BaseVM
	ClusterName  string
	Group        *groupCard
	Applications []applicationRow
	Invitations  []invitationRow
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /dashboard                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	// Students cannot use the app until onboarding is done.
	if u, found := auth.CurrentUser(r); found && !u.ProfileCompleted && role != models.RoleAdmin {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}
	if role == models.RoleAdmin {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Profiles.GetByID(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard: load profile failed", err, "Unable to load your dashboard.", "/")
		return
	}

	data := dashboardData{
		BaseVM: viewdata.NewBaseVM(r, h.DB, "Dashboard", "/"),
	}

	if p.CurrentClusterID != nil {
		var c models.Cluster
		if err := h.DB.Collection("clusters").FindOne(ctx,
			map[string]interface{}{"_id": *p.CurrentClusterID}).Decode(&c); err == nil {
			data.ClusterName = c.Name
		}
	}

	if p.CurrentGroupID != nil {
		card, err := h.loadGroupCard(ctx, *p.CurrentGroupID, userID)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "dashboard: load group failed", err, "Unable to load your dashboard.", "/")
			return
		}
		data.Group = card
	}

	apps, err := h.Applications.ListByApplicant(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard: load applications failed", err, "Unable to load your dashboard.", "/")
		return
	}
	data.Applications, err = h.decorateApplications(ctx, apps)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard: resolve application groups failed", err, "Unable to load your dashboard.", "/")
		return
	}

	invites, err := h.Invitations.ListPendingByInvitee(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard: load invitations failed", err, "Unable to load your dashboard.", "/")
		return
	}
	data.Invitations, err = h.decorateInvitations(ctx, invites)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard: resolve invitations failed", err, "Unable to load your dashboard.", "/")
		return
	}

	templates.Render(w, r, "dashboard", data)
}

func (h *Handler) loadGroupCard(ctx context.Context, groupID, userID primitive.ObjectID) (*groupCard, error) {
	g, err := h.Groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	count, err := h.Members.CountByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	leaderName := ""
	if leader, err := h.Profiles.GetByID(ctx, g.LeaderID); err == nil {
		leaderName = leader.FullName
	}

	return &groupCard{
		Group:       g,
		LeaderName:  leaderName,
		MemberCount: count,
		IsLeader:    g.LeaderID == userID,
	}, nil
}

func (h *Handler) decorateApplications(ctx context.Context, apps []models.GroupApplication) ([]applicationRow, error) {
	rows := make([]applicationRow, 0, len(apps))
	for _, a := range apps {
		name := "(deleted group)"
		if g, err := h.Groups.GetByID(ctx, a.GroupID); err == nil {
			name = g.Name
		} else if err != mongo.ErrNoDocuments {
			return nil, err
		}
		rows = append(rows, applicationRow{GroupApplication: a, GroupName: name})
	}
	return rows, nil
}

func (h *Handler) decorateInvitations(ctx context.Context, invites []models.GroupInvitation) ([]invitationRow, error) {
	rows := make([]invitationRow, 0, len(invites))
	for _, inv := range invites {
		row := invitationRow{GroupInvitation: inv, GroupName: "(deleted group)"}
		if g, err := h.Groups.GetByID(ctx, inv.GroupID); err == nil {
			row.GroupName = g.Name
		} else if err != mongo.ErrNoDocuments {
			return nil, err
		}
		if p, err := h.Profiles.GetByID(ctx, inv.InviterID); err == nil {
			row.InviterName = p.FullName
		}
		rows = append(rows, row)
	}
	return rows, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /dashboard/invitations/{id}/accept | /decline                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	h.resolveInvite(w, r, true)
}

func (h *Handler) HandleDeclineInvite(w http.ResponseWriter, r *http.Request) {
	h.resolveInvite(w, r, false)
}

func (h *Handler) resolveInvite(w http.ResponseWriter, r *http.Request, accept bool) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	inviteID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "dashboard: bad invitation id", err, "Invalid invitation.", "/dashboard")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if accept {
		err = h.Engine.AcceptInvite(ctx, userID, inviteID)
	} else {
		err = h.Engine.DeclineInvite(ctx, userID, inviteID)
	}

	switch {
	case err == nil:
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	case errors.Is(err, membership.ErrSystemFrozen):
		uierrors.RenderForbidden(w, r, "Group formation is currently frozen.", "/dashboard")
	case errors.Is(err, membership.ErrUnauthorized):
		uierrors.RenderForbidden(w, r, "This invitation is not addressed to you.", "/dashboard")
	case errors.Is(err, membership.ErrNotFound):
		h.ErrLog.LogBadRequest(w, r, "dashboard: invitation not pending", err, "This invitation is no longer pending.", "/dashboard")
	case errors.Is(err, membership.ErrValidationFailed):
		h.ErrLog.LogBadRequest(w, r, "dashboard: invite accept rejected", err, "You already belong to a group.", "/dashboard")
	default:
		h.ErrLog.LogServerError(w, r, "dashboard: resolve invitation failed", err, "A server error occurred.", "/dashboard")
	}
}
