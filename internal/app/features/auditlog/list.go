// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/campushub/groupify/internal/app/store/audit"
	profilestore "github.com/campushub/groupify/internal/app/store/profiles"
	"github.com/campushub/groupify/internal/app/system/authz"
	"github.com/campushub/groupify/internal/app/system/timeouts"
	"github.com/campushub/groupify/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

// ServeList handles GET /admin/audit: the filtered, paginated event list.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	if _, _, _, ok := authz.UserCtx(r); !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	eventType := strings.TrimSpace(q.Get("event_type"))
	startDate := strings.TrimSpace(q.Get("start_date"))
	endDate := strings.TrimSpace(q.Get("end_date"))

	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}
	if startDate != "" {
		if t, err := time.Parse("2006-01-02", startDate); err == nil {
			filter.StartTime = &t
		}
	}
	if endDate != "" {
		if t, err := time.Parse("2006-01-02", endDate); err == nil {
			endOfDay := t.Add(24*time.Hour - time.Second)
			filter.EndTime = &endOfDay
		}
	}

	auditStore := audit.New(h.DB)
	events, err := auditStore.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "audit: query failed", err, "Unable to load the audit log.", "/admin")
		return
	}
	total, err := auditStore.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "audit: count failed", err, "Unable to load the audit log.", "/admin")
		return
	}

	names := h.resolveNames(r, events)

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:        e.ID.Hex(),
			Timestamp: e.Timestamp,
			Category:  e.Category,
			EventType: e.EventType,
			IP:        e.IP,
			Success:   e.Success,
			Details:   e.Details,
		}
		if e.ActorID != nil {
			item.ActorName = nameOrHex(names, *e.ActorID)
		}
		if e.UserID != nil {
			item.TargetName = nameOrHex(names, *e.UserID)
		}
		items = append(items, item)
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	templates.Render(w, r, "audit_list", listData{
		BaseVM:     viewdata.NewBaseVM(r, h.DB, "Audit log", "/admin"),
		Items:      items,
		Category:   category,
		EventType:  eventType,
		StartDate:  startDate,
		EndDate:    endDate,
		Categories: allCategories(),
		EventTypes: eventTypesForCategory(category),
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		PrevPage:   page - 1,
		NextPage:   page + 1,
	})
}

// resolveNames batch-loads profile names for every actor and target in the
// event window. Unresolvable IDs fall back to their hex form.
func (h *Handler) resolveNames(r *http.Request, events []audit.Event) map[primitive.ObjectID]string {
	seen := make(map[primitive.ObjectID]struct{})
	for _, e := range events {
		if e.ActorID != nil {
			seen[*e.ActorID] = struct{}{}
		}
		if e.UserID != nil {
			seen[*e.UserID] = struct{}{}
		}
	}
	names := make(map[primitive.ObjectID]string, len(seen))
	if len(seen) == 0 {
		return names
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "audit name resolution")
	defer cancel()

	ids := make([]primitive.ObjectID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	profiles, err := profilestore.New(h.DB).ListByIDs(ctx, ids)
	if err != nil {
		h.Log.Warn("audit: name resolution failed", zap.Error(err))
		return names
	}
	for _, p := range profiles {
		names[p.ID] = p.FullName
	}
	return names
}

func nameOrHex(names map[primitive.ObjectID]string, id primitive.ObjectID) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id.Hex()
}
