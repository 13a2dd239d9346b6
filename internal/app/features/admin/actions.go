// internal/app/features/admin/actions.go
package admin

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/campushub/groupify/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/freeze                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleFreeze(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "admin: parse freeze form failed", err, "Invalid form data.", "/admin")
		return
	}
	frozen := r.FormValue("frozen") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Settings.SetFrozen(ctx, frozen); err != nil {
		h.ErrLog.LogServerError(w, r, "admin: set freeze failed", err, "Unable to change the freeze state.", "/admin")
		return
	}

	h.AuditLog.SystemFreezeChanged(ctx, r, actorID, frozen)
	h.Log.Info("system freeze changed",
		zap.Bool("frozen", frozen),
		zap.String("actor_id", actorID.Hex()))

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/deadline                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleDeadline(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "admin: parse deadline form failed", err, "Invalid form data.", "/admin")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	raw := strings.TrimSpace(r.FormValue("deadline"))
	if raw == "" {
		if err := h.Settings.SetDeadline(ctx, nil); err != nil {
			h.ErrLog.LogServerError(w, r, "admin: clear deadline failed", err, "Unable to update the deadline.", "/admin")
			return
		}
		h.AuditLog.DeadlineSet(ctx, r, actorID, "cleared")
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		h.renderPanel(w, r, "The deadline must be a date in YYYY-MM-DD form.", "")
		return
	}
	// The deadline is inclusive: the whole final day counts.
	deadline := day.Add(24*time.Hour - time.Second)

	if err := h.Settings.SetDeadline(ctx, &deadline); err != nil {
		h.ErrLog.LogServerError(w, r, "admin: set deadline failed", err, "Unable to update the deadline.", "/admin")
		return
	}

	h.AuditLog.DeadlineSet(ctx, r, actorID, deadline.Format(time.RFC3339))
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/students/reset                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleResetStudent(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "admin: parse reset form failed", err, "Invalid form data.", "/admin")
		return
	}

	targetID, err := primitive.ObjectIDFromHex(strings.TrimSpace(r.FormValue("user_id")))
	if err != nil {
		h.renderPanel(w, r, "Enter the student's ID to reset.", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	p, err := h.Profiles.GetByID(ctx, targetID)
	if err == mongo.ErrNoDocuments {
		h.renderPanel(w, r, "No student with that ID.", "")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin: load student failed", err, "Unable to reset the student.", "/admin")
		return
	}

	// A leader's group cannot outlive its leader; make the admin delete
	// the group first instead of silently orphaning it.
	if p.CurrentGroupID != nil {
		g, err := h.Groups.GetByID(ctx, *p.CurrentGroupID)
		if err == nil && g.LeaderID == targetID {
			h.renderPanel(w, r, "That student leads a group. Delete the group first.", "")
			return
		}
		if _, err := h.Members.Remove(ctx, *p.CurrentGroupID, targetID); err != nil {
			h.ErrLog.LogServerError(w, r, "admin: drop membership failed", err, "Unable to reset the student.", "/admin")
			return
		}
	}

	if err := h.Profiles.ResetStudent(ctx, targetID); err != nil {
		h.ErrLog.LogServerError(w, r, "admin: reset profile failed", err, "Unable to reset the student.", "/admin")
		return
	}

	h.AuditLog.StudentReset(ctx, r, actorID, targetID)
	h.Log.Info("student reset",
		zap.String("target_id", targetID.Hex()),
		zap.String("actor_id", actorID.Hex()))

	h.renderPanel(w, r, "", p.FullName+" has been reset to the onboarding state.")
}
