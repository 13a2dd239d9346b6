// internal/app/features/groups/handler.go
package groups

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/campushub/groupify/internal/app/features/errors"
	"github.com/campushub/groupify/internal/app/membership"
	applicationstore "github.com/campushub/groupify/internal/app/store/applications"
	clusterstore "github.com/campushub/groupify/internal/app/store/clusters"
	groupstore "github.com/campushub/groupify/internal/app/store/groups"
	memberstore "github.com/campushub/groupify/internal/app/store/members"
	profilestore "github.com/campushub/groupify/internal/app/store/profiles"
	"github.com/campushub/groupify/internal/app/system/auditlog"
	"github.com/campushub/groupify/internal/domain/models"
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

	Groups       *groupstore.Store
	Members      *memberstore.Store
	Profiles     *profilestore.Store
	Applications *applicationstore.Store
	Clusters     *clusterstore.Store
}

func NewHandler(db *mongo.Database, engine *membership.Engine, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:           db,
		Log:          logger,
		ErrLog:       errLog,
		Engine:       engine,
		AuditLog:     audit,
		Groups:       groupstore.New(db),
		Members:      memberstore.New(db),
		Profiles:     profilestore.New(db),
		Applications: applicationstore.New(db),
		Clusters:     clusterstore.New(db),
	}
}

// groupIDParam parses the {id} URL parameter. A false return means the
// error response has already been written.
func (h *Handler) groupIDParam(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "groups: bad group id", err, "Invalid group.", "/groups")
		return primitive.NilObjectID, false
	}
	return id, true
}

// renderEngineError maps membership engine errors onto user-facing
// responses. backURL is where the error page's back button points.
func (h *Handler) renderEngineError(w http.ResponseWriter, r *http.Request, err error, op, backURL string) {
	switch {
	case errors.Is(err, membership.ErrSystemFrozen):
		uierrors.RenderForbidden(w, r, "Group formation is currently frozen.", backURL)
	case errors.Is(err, membership.ErrUnauthorized):
		uierrors.RenderForbidden(w, r, "You are not allowed to do that.", backURL)
	case errors.Is(err, membership.ErrCapacityExceeded):
		h.ErrLog.LogBadRequest(w, r, op+": group full", err, "The group is already full.", backURL)
	case errors.Is(err, membership.ErrValidationFailed):
		h.ErrLog.LogBadRequest(w, r, op+": validation failed", err, err.Error(), backURL)
	case errors.Is(err, membership.ErrNotFound):
		h.ErrLog.LogBadRequest(w, r, op+": not found", err, "That record no longer exists.", backURL)
	case errors.Is(err, membership.ErrDuplicateInvite):
		h.ErrLog.LogBadRequest(w, r, op+": duplicate invite", err, "An invitation is already pending.", backURL)
	case errors.Is(err, applicationstore.ErrDuplicateApplication):
		h.ErrLog.LogBadRequest(w, r, op+": duplicate application", err, "You already have a pending application to this group.", backURL)
	case errors.Is(err, groupstore.ErrDuplicateGroupName):
		h.ErrLog.LogBadRequest(w, r, op+": duplicate name", err, "A group with that name already exists in your cluster.", backURL)
	default:
		h.ErrLog.LogServerError(w, r, op+" failed", err, "A server error occurred.", backURL)
	}
}

// skillCoverage reports which of the group's required skills are held by
// at least one member.
func skillCoverage(required []string, members []models.Profile) (covered map[string]bool) {
	covered = make(map[string]bool, len(required))
	for _, skill := range required {
		covered[skill] = false
		for _, m := range members {
			if m.HasSkill(skill) {
				covered[skill] = true
				break
			}
		}
	}
	return covered
}

// memberProfiles loads the profiles of a group's members in join order.
func (h *Handler) memberProfiles(ctx context.Context, groupID primitive.ObjectID) ([]models.Profile, error) {
	rows, err := h.Members.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.UserID)
	}
	profiles, err := h.Profiles.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// ListByIDs gives no ordering guarantee; restore join order.
	byID := make(map[primitive.ObjectID]models.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	ordered := make([]models.Profile, 0, len(rows))
	for _, m := range rows {
		if p, ok := byID[m.UserID]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}
