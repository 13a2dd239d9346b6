// internal/app/features/groups/create.go
package groups

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/campushub/groupify/internal/app/membership"
	"github.com/campushub/groupify/internal/app/system/authz"
	"github.com/campushub/groupify/internal/app/system/timeouts"
	"github.com/campushub/groupify/internal/app/system/viewdata"
	"github.com/campushub/groupify/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type createFormData struct {
	viewdata.BaseVM
	Error       string
	Name        string
	Description string
	MaxMembers  string
	Picked      map[string]bool

	Skills      []string
	Sizes       []int
	MinSize     int
	MaxSize     int
	MaxRequired int
}

func sizeOptions() []int {
	sizes := make([]int, 0, models.MaxGroupSize-models.MinGroupSize+1)
	for n := models.MinGroupSize; n <= models.MaxGroupSize; n++ {
		sizes = append(sizes, n)
	}
	return sizes
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /groups/new                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "groups_new", createFormData{
		BaseVM:      viewdata.NewBaseVM(r, h.DB, "Create a group", "/groups"),
		MaxMembers:  strconv.Itoa(models.MinGroupSize),
		Picked:      map[string]bool{},
		Skills:      models.Skills,
		Sizes:       sizeOptions(),
		MinSize:     models.MinGroupSize,
		MaxSize:     models.MaxGroupSize,
		MaxRequired: models.MaxRequiredSkills,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /groups – create                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "groups: parse create form failed", err, "Invalid form data.", "/groups/new")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	description := strings.TrimSpace(r.FormValue("description"))
	maxRaw := r.FormValue("max_members")
	required := r.Form["required_skills"]

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	renderErr := func(msg string) {
		picked := make(map[string]bool, len(required))
		for _, s := range required {
			picked[s] = true
		}
		templates.Render(w, r, "groups_new", createFormData{
			BaseVM:      viewdata.NewBaseVM(r, h.DB, "Create a group", "/groups"),
			Error:       msg,
			Name:        name,
			Description: description,
			MaxMembers:  maxRaw,
			Picked:      picked,
			Skills:      models.Skills,
			Sizes:       sizeOptions(),
			MinSize:     models.MinGroupSize,
			MaxSize:     models.MaxGroupSize,
			MaxRequired: models.MaxRequiredSkills,
		})
	}

	maxMembers, err := strconv.Atoi(maxRaw)
	if err != nil {
		renderErr("Please choose a team size.")
		return
	}

	p, err := h.Profiles.GetByID(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: load profile failed", err, "A server error occurred.", "/groups")
		return
	}
	if p.CurrentClusterID == nil {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}

	g, err := h.Engine.CreateGroup(ctx, userID, name, description, *p.CurrentClusterID, maxMembers, required)
	switch {
	case errors.Is(err, membership.ErrValidationFailed):
		renderErr(err.Error())
		return
	case errors.Is(err, membership.ErrSystemFrozen):
		renderErr("Group formation is currently frozen.")
		return
	case err != nil:
		h.renderEngineError(w, r, err, "groups: create", "/groups/new")
		return
	}

	h.AuditLog.GroupCreated(ctx, r, userID, g.ID, g.Name)
	h.Log.Info("group created via web",
		zap.String("group_id", g.ID.Hex()),
		zap.String("leader_id", userID.Hex()))

	http.Redirect(w, r, "/groups/"+g.ID.Hex()+"/manage", http.StatusSeeOther)
}
