// internal/app/features/admin/handler.go
//
// Admin panel: formation stats, the global freeze switch, the deadline,
// student resets and the JSON export. Routes are mounted behind the
// admin role gate; handlers still re-check via authz.
package admin

import (
	"context"
	"net/http"

	uierrors "github.com/campushub/groupify/internal/app/features/errors"
	clusterstore "github.com/campushub/groupify/internal/app/store/clusters"
	groupstore "github.com/campushub/groupify/internal/app/store/groups"
	memberstore "github.com/campushub/groupify/internal/app/store/members"
	profilestore "github.com/campushub/groupify/internal/app/store/profiles"
	settingsstore "github.com/campushub/groupify/internal/app/store/settings"
	"github.com/campushub/groupify/internal/app/system/auditlog"
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
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger

	Profiles *profilestore.Store
	Groups   *groupstore.Store
	Members  *memberstore.Store
	Clusters *clusterstore.Store
	Settings *settingsstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
		Profiles: profilestore.New(db),
		Groups:   groupstore.New(db),
		Members:  memberstore.New(db),
		Clusters: clusterstore.New(db),
		Settings: settingsstore.New(db),
	}
}

// requireAdmin re-checks the role behind the route gate. A false return
// means the response has been written.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return primitive.NilObjectID, false
	}
	if role != models.RoleAdmin {
		uierrors.RenderForbidden(w, r, "Admin access required.", "/dashboard")
		return primitive.NilObjectID, false
	}
	return userID, true
}

type clusterStat struct {
	Cluster    models.Cluster
	Students   int64
	Unattached int64
	Groups     int64
}

type panelData struct {
	viewdata.BaseVM
	Settings      models.SystemSettings
	DeadlineValue string
	TotalStudents int64
	Unattached    int64
	Clusters      []clusterStat
	Error         string
	Notice        string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServePanel(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	h.renderPanel(w, r, "", "")
}

func (h *Handler) renderPanel(w http.ResponseWriter, r *http.Request, errMsg, notice string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	settings, err := h.Settings.Get(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin: load settings failed", err, "Unable to load the admin panel.", "/dashboard")
		return
	}

	clusters, err := h.Clusters.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin: load clusters failed", err, "Unable to load the admin panel.", "/dashboard")
		return
	}

	stats := make([]clusterStat, 0, len(clusters))
	for _, c := range clusters {
		id := c.ID
		students, err := h.Profiles.CountStudents(ctx, profilestore.DirectoryFilter{ClusterID: &id})
		if err != nil {
			h.ErrLog.LogServerError(w, r, "admin: count students failed", err, "Unable to load the admin panel.", "/dashboard")
			return
		}
		unattached, err := h.Profiles.CountStudents(ctx, profilestore.DirectoryFilter{ClusterID: &id, WithoutGroup: true})
		if err != nil {
			h.ErrLog.LogServerError(w, r, "admin: count unattached failed", err, "Unable to load the admin panel.", "/dashboard")
			return
		}
		groupCount, err := h.Groups.CountByCluster(ctx, id)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "admin: count groups failed", err, "Unable to load the admin panel.", "/dashboard")
			return
		}
		stats = append(stats, clusterStat{Cluster: c, Students: students, Unattached: unattached, Groups: groupCount})
	}

	total, err := h.Profiles.CountStudents(ctx, profilestore.DirectoryFilter{})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin: count total failed", err, "Unable to load the admin panel.", "/dashboard")
		return
	}
	unattached, err := h.Profiles.CountStudents(ctx, profilestore.DirectoryFilter{WithoutGroup: true})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin: count total unattached failed", err, "Unable to load the admin panel.", "/dashboard")
		return
	}

	deadlineValue := ""
	if settings.Deadline != nil {
		deadlineValue = settings.Deadline.Format("2006-01-02")
	}

	templates.Render(w, r, "admin", panelData{
		BaseVM:        viewdata.NewBaseVM(r, h.DB, "Admin", "/dashboard"),
		Settings:      settings,
		DeadlineValue: deadlineValue,
		TotalStudents: total,
		Unattached:    unattached,
		Clusters:      stats,
		Error:         errMsg,
		Notice:        notice,
	})
}
