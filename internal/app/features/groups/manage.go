// internal/app/features/groups/manage.go
package groups

import (
	"context"
	"net/http"
	"strings"

	uierrors "github.com/campushub/groupify/internal/app/features/errors"
	"github.com/campushub/groupify/internal/app/policy/grouppolicy"
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

type pendingApplication struct {
	models.GroupApplication
	ApplicantName   string
	ApplicantSkills []string
}

type manageData struct {
	viewdata.BaseVM
	Group        models.Group
	Members      []models.Profile
	MemberCount  int
	Coverage     map[string]bool
	Applications []pendingApplication
	Skills       []string
	Picked       map[string]bool
}

// requireManager gates management endpoints to the group's leader (or an
// admin). A false return means the response has been written.
func (h *Handler) requireManager(w http.ResponseWriter, r *http.Request, groupID primitive.ObjectID) (primitive.ObjectID, bool) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return primitive.NilObjectID, false
	}

	canManage, err := grouppolicy.CanManageGroup(r.Context(), h.DB, r, groupID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: manage permission check failed", err, "A server error occurred.", "/groups")
		return primitive.NilObjectID, false
	}
	if !canManage {
		uierrors.RenderForbidden(w, r, "Only the group leader can manage the group.", "/groups/"+groupID.Hex())
		return primitive.NilObjectID, false
	}
	return userID, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /groups/{id}/manage                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeManage(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.groupIDParam(w, r)
	if !ok {
		return
	}
	if _, ok := h.requireManager(w, r, groupID); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.Groups.GetByID(ctx, groupID)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogBadRequest(w, r, "groups: manage missing group", err, "That group no longer exists.", "/groups")
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

	apps, err := h.pendingApplications(ctx, groupID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: load applications failed", err, "Unable to load the group.", "/groups")
		return
	}

	picked := make(map[string]bool, len(g.RequiredSkills))
	for _, s := range g.RequiredSkills {
		picked[s] = true
	}

	templates.Render(w, r, "groups_manage", manageData{
		BaseVM:       viewdata.NewBaseVM(r, h.DB, "Manage "+g.Name, "/groups/"+groupID.Hex()),
		Group:        g,
		Members:      members,
		MemberCount:  len(members),
		Coverage:     skillCoverage(g.RequiredSkills, members),
		Applications: apps,
		Skills:       models.Skills,
		Picked:       picked,
	})
}

func (h *Handler) pendingApplications(ctx context.Context, groupID primitive.ObjectID) ([]pendingApplication, error) {
	apps, err := h.Applications.ListPendingByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	rows := make([]pendingApplication, 0, len(apps))
	for _, a := range apps {
		row := pendingApplication{GroupApplication: a, ApplicantName: "(deleted account)"}
		if p, err := h.Profiles.GetByID(ctx, a.ApplicantID); err == nil {
			row.ApplicantName = p.FullName
			row.ApplicantSkills = p.Skills
		} else if err != mongo.ErrNoDocuments {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /groups/{id}/applications/{appID}/accept | /decline                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleAcceptApplication(w http.ResponseWriter, r *http.Request) {
	h.resolveApplication(w, r, true)
}

func (h *Handler) HandleDeclineApplication(w http.ResponseWriter, r *http.Request) {
	h.resolveApplication(w, r, false)
}

func (h *Handler) resolveApplication(w http.ResponseWriter, r *http.Request, accept bool) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	groupID, ok := h.groupIDParam(w, r)
	if !ok {
		return
	}
	back := "/groups/" + groupID.Hex() + "/manage"

	appID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "appID"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "groups: bad application id", err, "Invalid application.", back)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	app, err := h.Applications.GetByID(ctx, appID)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "groups: load application failed", err, "That application no longer exists.", back)
		return
	}

	if err := h.Engine.ResolveApplication(ctx, userID, appID, accept); err != nil {
		h.renderEngineError(w, r, err, "groups: resolve application", back)
		return
	}

	if accept {
		h.AuditLog.ApplicationApproved(ctx, r, userID, app.ApplicantID, groupID)
	} else {
		h.AuditLog.ApplicationDeclined(ctx, r, userID, app.ApplicantID, groupID)
	}

	http.Redirect(w, r, back, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /groups/{id}/members/{userID}/remove                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	groupID, ok := h.groupIDParam(w, r)
	if !ok {
		return
	}
	back := "/groups/" + groupID.Hex() + "/manage"

	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "groups: bad member id", err, "Invalid member.", back)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Engine.RemoveMember(ctx, actorID, groupID, targetID); err != nil {
		h.renderEngineError(w, r, err, "groups: remove member", back)
		return
	}

	h.AuditLog.MemberRemoved(ctx, r, actorID, targetID, groupID)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /groups/{id}/freeze                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleFreeze(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	groupID, ok := h.groupIDParam(w, r)
	if !ok {
		return
	}
	back := "/groups/" + groupID.Hex() + "/manage"

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "groups: parse freeze form failed", err, "Invalid form data.", back)
		return
	}
	frozen := r.FormValue("frozen") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Engine.SetGroupFreeze(ctx, actorID, groupID, frozen); err != nil {
		h.renderEngineError(w, r, err, "groups: freeze", back)
		return
	}

	h.AuditLog.GroupFreezeChanged(ctx, r, actorID, groupID, frozen)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /groups/{id}/edit                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.groupIDParam(w, r)
	if !ok {
		return
	}
	actorID, ok := h.requireManager(w, r, groupID)
	if !ok {
		return
	}
	back := "/groups/" + groupID.Hex() + "/manage"

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "groups: parse edit form failed", err, "Invalid form data.", back)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	description := strings.TrimSpace(r.FormValue("description"))
	required := r.Form["required_skills"]

	if name == "" {
		h.ErrLog.LogBadRequest(w, r, "groups: edit empty name", nil, "Group name is required.", back)
		return
	}
	if len(required) > models.MaxRequiredSkills {
		h.ErrLog.LogBadRequest(w, r, "groups: too many required skills", nil, "A group can require at most 5 skills.", back)
		return
	}
	for _, s := range required {
		if !models.IsKnownSkill(s) {
			h.ErrLog.LogBadRequest(w, r, "groups: unknown required skill", nil, "Unknown skill: "+s, back)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Groups.UpdateInfo(ctx, groupID, name, description, required); err != nil {
		h.renderEngineError(w, r, err, "groups: edit", back)
		return
	}

	h.AuditLog.GroupUpdated(ctx, r, actorID, groupID, "name,description,required_skills")
	http.Redirect(w, r, back, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /groups/{id}/delete                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	groupID, ok := h.groupIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	g, err := h.Groups.GetByID(ctx, groupID)
	if err != nil && err != mongo.ErrNoDocuments {
		h.ErrLog.LogServerError(w, r, "groups: load group failed", err, "A server error occurred.", "/groups")
		return
	}

	if err := h.Engine.DeleteGroup(ctx, actorID, groupID); err != nil {
		h.renderEngineError(w, r, err, "groups: delete", "/groups/"+groupID.Hex()+"/manage")
		return
	}

	h.AuditLog.GroupDeleted(ctx, r, actorID, groupID, g.Name)
	h.Log.Info("group deleted via web",
		zap.String("group_id", groupID.Hex()),
		zap.String("actor_id", actorID.Hex()))

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
