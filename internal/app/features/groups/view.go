// internal/app/features/groups/view.go
package groups

import (
	"context"
	"net/http"
	"strings"

	"github.com/campushub/groupify/internal/app/system/authz"
	"github.com/campushub/groupify/internal/app/system/htmlsanitize"
	"github.com/campushub/groupify/internal/app/system/timeouts"
	"github.com/campushub/groupify/internal/app/system/viewdata"
	"github.com/campushub/groupify/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
)

type viewData struct {
	viewdata.BaseVM
	Group       models.Group
	LeaderName  string
	Members     []models.Profile
	MemberCount int
	Coverage    map[string]bool
	IsMember    bool
	IsLeader    bool
	CanApply    bool
	HasApplied  bool
	MySkills    []string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /groups/{id}                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	groupID, ok := h.groupIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.Groups.GetByID(ctx, groupID)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogBadRequest(w, r, "groups: view missing group", err, "That group no longer exists.", "/groups")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: load group failed", err, "Unable to load the group.", "/groups")
		return
	}

	members, err := h.memberProfiles(ctx, groupID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: load members failed", err, "Unable to load the group.", "/groups")
		return
	}

	me, err := h.Profiles.GetByID(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: load profile failed", err, "Unable to load the group.", "/groups")
		return
	}

	hasApplied, err := h.Applications.HasPending(ctx, groupID, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: check application failed", err, "Unable to load the group.", "/groups")
		return
	}

	isMember := false
	for _, m := range members {
		if m.ID == userID {
			isMember = true
			break
		}
	}

	data := viewData{
		BaseVM:      viewdata.NewBaseVM(r, h.DB, g.Name, "/groups"),
		Group:       g,
		Members:     members,
		MemberCount: len(members),
		Coverage:    skillCoverage(g.RequiredSkills, members),
		IsMember:    isMember,
		IsLeader:    g.LeaderID == userID,
		CanApply:    me.CurrentGroupID == nil && !hasApplied,
		HasApplied:  hasApplied,
		MySkills:    me.Skills,
	}
	for _, m := range members {
		if m.ID == g.LeaderID {
			data.LeaderName = m.FullName
			break
		}
	}

	templates.Render(w, r, "groups_view", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /groups/{id}/apply                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleApply(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	groupID, ok := h.groupIDParam(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "groups: parse apply form failed", err, "Invalid form data.", "/groups")
		return
	}

	// Motivation text is shown to the leader; strip any markup.
	message := htmlsanitize.Sanitize(strings.TrimSpace(r.FormValue("message")))
	offered := r.Form["skills_offered"]

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	back := "/groups/" + groupID.Hex()
	if _, err := h.Engine.SubmitApplication(ctx, userID, groupID, message, offered); err != nil {
		h.renderEngineError(w, r, err, "groups: apply", back)
		return
	}

	http.Redirect(w, r, back, http.StatusSeeOther)
}
