// internal/app/features/settings/handler.go
package settings

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/campushub/groupify/internal/app/features/errors"
	"github.com/campushub/groupify/internal/app/membership"
	groupstore "github.com/campushub/groupify/internal/app/store/groups"
	profilestore "github.com/campushub/groupify/internal/app/store/profiles"
	"github.com/campushub/groupify/internal/app/system/auditlog"
	"github.com/campushub/groupify/internal/app/system/authz"
	"github.com/campushub/groupify/internal/app/system/timeouts"
	"github.com/campushub/groupify/internal/app/system/viewdata"
	"github.com/campushub/groupify/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the student-facing settings page: profile edits and
// leaving the current group.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	Engine   *membership.Engine
	AuditLog *auditlog.Logger
	Profiles *profilestore.Store
	Groups   *groupstore.Store
}

func NewHandler(db *mongo.Database, engine *membership.Engine, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		Engine:   engine,
		AuditLog: audit,
		Profiles: profilestore.New(db),
		Groups:   groupstore.New(db),
	}
}

type settingsData struct {
	viewdata.BaseVM
	Error  string
	Notice string

	FullName       string
	Email          string
	RollNumber     string
	Branch         string
	Specialization string
	Picked         map[string]bool

	Skills   []string
	Branches []string

	GroupName string
	IsLeader  bool
	InGroup   bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /settings                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeSettings(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Profiles.GetByID(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "settings: load profile failed", err, "A server error occurred.", "/dashboard")
		return
	}
	if !p.ProfileCompleted {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}

	h.render(w, r, ctx, p, "", "")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, ctx context.Context, p *models.Profile, errMsg, notice string) {
	picked := make(map[string]bool, len(p.Skills))
	for _, s := range p.Skills {
		picked[s] = true
	}

	data := settingsData{
		BaseVM:         viewdata.NewBaseVM(r, h.DB, "Settings", "/dashboard"),
		Error:          errMsg,
		Notice:         notice,
		FullName:       p.FullName,
		Email:          p.Email,
		RollNumber:     p.RollNumber,
		Branch:         p.Branch,
		Specialization: p.Specialization,
		Picked:         picked,
		Skills:         models.Skills,
		Branches:       models.Branches,
	}

	if p.CurrentGroupID != nil {
		g, err := h.Groups.GetByID(ctx, *p.CurrentGroupID)
		if err == nil {
			data.InGroup = true
			data.GroupName = g.Name
			data.IsLeader = g.LeaderID == p.ID
		} else if err != mongo.ErrNoDocuments {
			h.Log.Warn("settings: load group failed", zap.Error(err))
		}
	}

	templates.Render(w, r, "settings", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /settings                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "settings: parse form failed", err, "Invalid form data.", "/settings")
		return
	}

	fullName := strings.TrimSpace(r.FormValue("full_name"))
	branch := strings.TrimSpace(r.FormValue("branch"))
	specialization := strings.TrimSpace(r.FormValue("specialization"))
	skills := r.Form["skills"]

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Profiles.GetByID(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "settings: load profile failed", err, "A server error occurred.", "/dashboard")
		return
	}
	if !p.ProfileCompleted {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}

	renderErr := func(msg string) {
		// Re-render with the submitted values, not the stored ones.
		draft := *p
		draft.FullName = fullName
		draft.Branch = branch
		draft.Specialization = specialization
		draft.Skills = skills
		h.render(w, r, ctx, &draft, msg, "")
	}

	if fullName == "" {
		renderErr("Please enter your full name.")
		return
	}
	if !models.IsKnownBranch(branch) {
		renderErr("Please choose your branch.")
		return
	}
	if len(skills) == 0 {
		renderErr("Please pick at least one skill.")
		return
	}
	for _, s := range skills {
		if !models.IsKnownSkill(s) {
			renderErr("Unknown skill: " + s)
			return
		}
	}

	// Roll number and preferred cluster are set once during onboarding and
	// stay out of this form.
	err = h.Profiles.Update(ctx, userID, profilestore.ProfileUpdate{
		FullName:       fullName,
		Branch:         branch,
		Specialization: specialization,
		Skills:         skills,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "settings: update profile failed", err, "A server error occurred.", "/settings")
		return
	}

	h.Log.Info("profile updated", zap.String("user_id", userID.Hex()))

	updated, err := h.Profiles.GetByID(ctx, userID)
	if err != nil {
		http.Redirect(w, r, "/settings", http.StatusSeeOther)
		return
	}
	h.render(w, r, ctx, updated, "", "Your profile has been updated.")
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /settings/leave-group                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "leave group")
	defer cancel()

	p, err := h.Profiles.GetByID(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "settings: load profile failed", err, "A server error occurred.", "/dashboard")
		return
	}
	if p.CurrentGroupID == nil {
		http.Redirect(w, r, "/settings", http.StatusSeeOther)
		return
	}
	groupID := *p.CurrentGroupID

	err = h.Engine.LeaveGroup(ctx, userID)
	switch {
	case errors.Is(err, membership.ErrUnauthorized):
		// Leaders delete the group from the manage page instead.
		uierrors.RenderForbidden(w, r, "Group leaders cannot leave their own group. Delete the group from its manage page instead.", "/settings")
		return
	case errors.Is(err, membership.ErrSystemFrozen):
		uierrors.RenderForbidden(w, r, "Group formation is currently frozen.", "/settings")
		return
	case errors.Is(err, membership.ErrNotFound):
		http.Redirect(w, r, "/settings", http.StatusSeeOther)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "settings: leave group failed", err, "Unable to leave the group.", "/settings")
		return
	}

	h.AuditLog.MemberLeft(ctx, r, userID, groupID)
	h.Log.Info("member left group",
		zap.String("user_id", userID.Hex()),
		zap.String("group_id", groupID.Hex()))

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
