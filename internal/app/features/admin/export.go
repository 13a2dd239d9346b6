// internal/app/features/admin/export.go
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	groupstore "github.com/campushub/groupify/internal/app/store/groups"
	profilestore "github.com/campushub/groupify/internal/app/store/profiles"
	"github.com/campushub/groupify/internal/app/system/timeouts"
	"github.com/campushub/groupify/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type exportStudent struct {
	ID         string   `json:"id"`
	FullName   string   `json:"full_name"`
	Email      string   `json:"email"`
	RollNumber string   `json:"roll_number,omitempty"`
	Branch     string   `json:"branch,omitempty"`
	Skills     []string `json:"skills,omitempty"`
}

type exportGroup struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Status         string          `json:"status"`
	IsFrozen       bool            `json:"is_frozen"`
	MaxMembers     int             `json:"max_members"`
	MemberCount    int             `json:"member_count"`
	RequiredSkills []string        `json:"required_skills,omitempty"`
	Leader         string          `json:"leader"`
	Members        []exportStudent `json:"members"`
}

type exportCluster struct {
	ID         int             `json:"id"`
	Name       string          `json:"name"`
	Groups     []exportGroup   `json:"groups"`
	Unattached []exportStudent `json:"unattached_students"`
}

type exportDoc struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Frozen      bool            `json:"system_frozen"`
	Deadline    *time.Time      `json:"deadline,omitempty"`
	Clusters    []exportCluster `json:"clusters"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin/export                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	doc, err := h.buildExport(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin: build export failed", err, "Unable to build the export.", "/admin")
		return
	}

	filename := "groupify-export-" + uuid.NewString() + ".json"
	h.AuditLog.DataExported(ctx, r, actorID, filename)
	h.Log.Info("formation data exported",
		zap.String("filename", filename),
		zap.String("actor_id", actorID.Hex()))

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		h.Log.Warn("admin: write export failed", zap.Error(err))
	}
}

func (h *Handler) buildExport(ctx context.Context) (exportDoc, error) {
	settings, err := h.Settings.Get(ctx)
	if err != nil {
		return exportDoc{}, err
	}

	clusters, err := h.Clusters.List(ctx)
	if err != nil {
		return exportDoc{}, err
	}

	doc := exportDoc{
		GeneratedAt: time.Now().UTC(),
		Frozen:      settings.IsSystemFrozen,
		Deadline:    settings.Deadline,
		Clusters:    make([]exportCluster, 0, len(clusters)),
	}

	for _, c := range clusters {
		ec := exportCluster{ID: c.ID, Name: c.Name}

		id := c.ID
		groups, err := h.Groups.List(ctx, groupstore.BrowseFilter{ClusterID: &id, Limit: 10000})
		if err != nil {
			return exportDoc{}, err
		}
		for _, g := range groups {
			eg, err := h.exportGroup(ctx, g)
			if err != nil {
				return exportDoc{}, err
			}
			ec.Groups = append(ec.Groups, eg)
		}

		unattached, err := h.Profiles.ListStudents(ctx, profilestore.DirectoryFilter{
			ClusterID:    &id,
			WithoutGroup: true,
			Limit:        10000,
		})
		if err != nil {
			return exportDoc{}, err
		}
		for _, p := range unattached {
			ec.Unattached = append(ec.Unattached, toExportStudent(p))
		}

		doc.Clusters = append(doc.Clusters, ec)
	}

	return doc, nil
}

func (h *Handler) exportGroup(ctx context.Context, g models.Group) (exportGroup, error) {
	rows, err := h.Members.ListByGroup(ctx, g.ID)
	if err != nil {
		return exportGroup{}, err
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.UserID)
	}
	profiles, err := h.Profiles.ListByIDs(ctx, ids)
	if err != nil {
		return exportGroup{}, err
	}

	eg := exportGroup{
		ID:             g.ID.Hex(),
		Name:           g.Name,
		Description:    g.Description,
		Status:         g.Status,
		IsFrozen:       g.IsFrozen,
		MaxMembers:     g.MaxMembers,
		MemberCount:    len(rows),
		RequiredSkills: g.RequiredSkills,
		Leader:         g.LeaderID.Hex(),
		Members:        make([]exportStudent, 0, len(profiles)),
	}
	for _, p := range profiles {
		eg.Members = append(eg.Members, toExportStudent(p))
	}
	return eg, nil
}

func toExportStudent(p models.Profile) exportStudent {
	return exportStudent{
		ID:         p.ID.Hex(),
		FullName:   p.FullName,
		Email:      p.Email,
		RollNumber: p.RollNumber,
		Branch:     p.Branch,
		Skills:     p.Skills,
	}
}
