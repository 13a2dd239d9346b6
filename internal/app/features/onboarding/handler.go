// internal/app/features/onboarding/handler.go
package onboarding

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	uierrors "github.com/campushub/groupify/internal/app/features/errors"
	clusterstore "github.com/campushub/groupify/internal/app/store/clusters"
	profilestore "github.com/campushub/groupify/internal/app/store/profiles"
	"github.com/campushub/groupify/internal/app/system/authz"
	"github.com/campushub/groupify/internal/app/system/timeouts"
	"github.com/campushub/groupify/internal/app/system/viewdata"
	"github.com/campushub/groupify/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	Profiles *profilestore.Store
	Clusters *clusterstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		Profiles: profilestore.New(db),
		Clusters: clusterstore.New(db),
	}
}

type onboardingFormData struct {
	viewdata.BaseVM
	Error          string
	FullName       string
	RollNumber     string
	Branch         string
	Specialization string
	Picked         map[string]bool
	ClusterID      string

	Skills   []string
	Branches []string
	Clusters []models.Cluster
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /onboarding                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Profiles.GetByID(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "onboarding: load profile failed", err, "A server error occurred.", "/")
		return
	}

	// Onboarding is one-time; the profile is immutable here once completed.
	if p.ProfileCompleted {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	clusters, err := h.Clusters.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "onboarding: list clusters failed", err, "A server error occurred.", "/")
		return
	}

	templates.Render(w, r, "onboarding", onboardingFormData{
		BaseVM:   viewdata.NewBaseVM(r, h.DB, "Complete your profile", "/"),
		FullName: p.FullName,
		Picked:   map[string]bool{},
		Skills:   models.Skills,
		Branches: models.Branches,
		Clusters: clusters,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /onboarding                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "onboarding: parse form failed", err, "Invalid form data.", "/onboarding")
		return
	}

	fullName := strings.TrimSpace(r.FormValue("full_name"))
	rollNumber := strings.TrimSpace(r.FormValue("roll_number"))
	branch := strings.TrimSpace(r.FormValue("branch"))
	specialization := strings.TrimSpace(r.FormValue("specialization"))
	clusterRaw := r.FormValue("preferred_cluster")
	skills := r.Form["skills"]

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Profiles.GetByID(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "onboarding: load profile failed", err, "A server error occurred.", "/")
		return
	}
	if p.ProfileCompleted {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	renderErr := func(msg string) {
		clusters, cerr := h.Clusters.List(ctx)
		if cerr != nil {
			h.ErrLog.LogServerError(w, r, "onboarding: list clusters failed", cerr, "A server error occurred.", "/")
			return
		}
		picked := make(map[string]bool, len(skills))
		for _, s := range skills {
			picked[s] = true
		}
		templates.Render(w, r, "onboarding", onboardingFormData{
			BaseVM:         viewdata.NewBaseVM(r, h.DB, "Complete your profile", "/"),
			Error:          msg,
			FullName:       fullName,
			RollNumber:     rollNumber,
			Branch:         branch,
			Specialization: specialization,
			Picked:         picked,
			ClusterID:      clusterRaw,
			Skills:         models.Skills,
			Branches:       models.Branches,
			Clusters:       clusters,
		})
	}

	if fullName == "" {
		renderErr("Please enter your full name.")
		return
	}
	if rollNumber == "" {
		renderErr("Please enter your roll number.")
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

	clusterID, err := strconv.Atoi(clusterRaw)
	if err != nil {
		renderErr("Please choose a cluster.")
		return
	}
	exists, err := h.Clusters.Exists(ctx, clusterID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "onboarding: check cluster failed", err, "A server error occurred.", "/onboarding")
		return
	}
	if !exists {
		renderErr("Please choose a cluster.")
		return
	}

	err = h.Profiles.Update(ctx, userID, profilestore.ProfileUpdate{
		FullName:           fullName,
		RollNumber:         rollNumber,
		Branch:             branch,
		Specialization:     specialization,
		Skills:             skills,
		PreferredClusterID: &clusterID,
	})
	switch {
	case errors.Is(err, profilestore.ErrDuplicateRollNumber):
		renderErr("That roll number is already registered.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "onboarding: update profile failed", err, "A server error occurred.", "/onboarding")
		return
	}

	// The preferred cluster becomes the assigned cluster.
	if err := h.Profiles.SetCluster(ctx, userID, clusterID); err != nil {
		h.ErrLog.LogServerError(w, r, "onboarding: assign cluster failed", err, "A server error occurred.", "/onboarding")
		return
	}

	h.Log.Info("onboarding completed",
		zap.String("user_id", userID.Hex()),
		zap.Int("cluster_id", clusterID))

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
