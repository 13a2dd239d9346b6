// internal/app/features/chat/handler.go
//
// Group chat. The page, the post endpoints, and the live feed are all
// scoped to the caller's current group; there is no cross-group access.
package chat

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	chathub "github.com/campushub/groupify/internal/app/chat"
	uierrors "github.com/campushub/groupify/internal/app/features/errors"
	groupstore "github.com/campushub/groupify/internal/app/store/groups"
	memberstore "github.com/campushub/groupify/internal/app/store/members"
	messagestore "github.com/campushub/groupify/internal/app/store/messages"
	profilestore "github.com/campushub/groupify/internal/app/store/profiles"
	"github.com/campushub/groupify/internal/app/system/authz"
	"github.com/campushub/groupify/internal/app/system/htmlsanitize"
	"github.com/campushub/groupify/internal/app/system/limits"
	"github.com/campushub/groupify/internal/app/system/ratelimit"
	"github.com/campushub/groupify/internal/app/system/timeouts"
	"github.com/campushub/groupify/internal/app/system/viewdata"
	"github.com/campushub/groupify/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// historyWindow is how many recent messages the page loads.
const historyWindow = 100

type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Hub     *chathub.Hub
	Limiter *ratelimit.Limiter

	Messages *messagestore.Store
	Members  *memberstore.Store
	Groups   *groupstore.Store
	Profiles *profilestore.Store
}

func NewHandler(db *mongo.Database, hub *chathub.Hub, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		Hub:      hub,
		Limiter:  ratelimit.NewChatLimiter(),
		Messages: messagestore.New(db),
		Members:  memberstore.New(db),
		Groups:   groupstore.New(db),
		Profiles: profilestore.New(db),
	}
}

// requireMembership resolves the caller's group and verifies the membership
// row still exists. A false return means the response has been written.
func (h *Handler) requireMembership(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, primitive.ObjectID, bool) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return primitive.NilObjectID, primitive.NilObjectID, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Profiles.GetByID(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "chat: load profile failed", err, "A server error occurred.", "/dashboard")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	if p.CurrentGroupID == nil {
		http.Redirect(w, r, "/groups", http.StatusSeeOther)
		return primitive.NilObjectID, primitive.NilObjectID, false
	}

	isMember, err := h.Members.Exists(ctx, *p.CurrentGroupID, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "chat: membership check failed", err, "A server error occurred.", "/dashboard")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	if !isMember {
		uierrors.RenderForbidden(w, r, "You are not a member of this group.", "/dashboard")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}

	return userID, *p.CurrentGroupID, true
}

type messageRow struct {
	models.Message
	SenderName string
	Mine       bool
}

type chatData struct {
	viewdata.BaseVM
	Group    models.Group
	IsLeader bool
	Pinned   []messageRow
	Messages []messageRow
	MaxChars int
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /chat                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeChat(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.requireMembership(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.Groups.GetByID(ctx, groupID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "chat: load group failed", err, "Unable to load the chat.", "/dashboard")
		return
	}

	msgs, err := h.Messages.ListByGroup(ctx, groupID, historyWindow)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "chat: load messages failed", err, "Unable to load the chat.", "/dashboard")
		return
	}
	pinned, err := h.Messages.ListPinned(ctx, groupID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "chat: load pinned failed", err, "Unable to load the chat.", "/dashboard")
		return
	}

	names, err := h.senderNames(ctx, groupID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "chat: load members failed", err, "Unable to load the chat.", "/dashboard")
		return
	}

	templates.Render(w, r, "chat", chatData{
		BaseVM:   viewdata.NewBaseVM(r, h.DB, g.Name+" chat", "/dashboard"),
		Group:    g,
		IsLeader: g.LeaderID == userID,
		Pinned:   decorate(pinned, names, userID),
		Messages: decorate(msgs, names, userID),
		MaxChars: limits.MaxChatMessageChars,
	})
}

func (h *Handler) senderNames(ctx context.Context, groupID primitive.ObjectID) (map[primitive.ObjectID]string, error) {
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
	names := make(map[primitive.ObjectID]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.FullName
	}
	return names, nil
}

func decorate(msgs []models.Message, names map[primitive.ObjectID]string, viewerID primitive.ObjectID) []messageRow {
	rows := make([]messageRow, 0, len(msgs))
	for _, m := range msgs {
		name := names[m.SenderID]
		if name == "" {
			// Senders who left the group no longer appear in the roster.
			name = "(former member)"
		}
		rows = append(rows, messageRow{Message: m, SenderName: name, Mine: m.SenderID == viewerID})
	}
	return rows
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /chat/messages                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.requireMembership(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxChatMessageSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "chat: parse message form failed", err, "Invalid form data.", "/chat")
		return
	}

	content := htmlsanitize.Sanitize(strings.TrimSpace(r.FormValue("content")))
	if content == "" {
		http.Redirect(w, r, "/chat", http.StatusSeeOther)
		return
	}
	if utf8.RuneCountInString(content) > limits.MaxChatMessageChars {
		h.ErrLog.LogBadRequest(w, r, "chat: message too long", nil, "That message is too long.", "/chat")
		return
	}

	if !h.Limiter.Allow(userID.Hex()) {
		h.ErrLog.LogBadRequest(w, r, "chat: rate limited", nil, "You are sending messages too quickly.", "/chat")
		return
	}

	msgType := models.MessageText
	if r.FormValue("type") == models.MessageResource {
		msgType = models.MessageResource
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	isAnnouncement := false
	if r.FormValue("announcement") == "true" {
		// Announcements are a leader-only channel.
		leads, err := h.Groups.GetByID(ctx, groupID)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "chat: load group failed", err, "Unable to post.", "/chat")
			return
		}
		if leads.LeaderID != userID {
			uierrors.RenderForbidden(w, r, "Only the group leader can post announcements.", "/chat")
			return
		}
		isAnnouncement = true
	}

	msg, err := h.Messages.Create(ctx, models.Message{
		GroupID:        groupID,
		SenderID:       userID,
		Content:        content,
		MessageType:    msgType,
		IsAnnouncement: isAnnouncement,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "chat: store message failed", err, "Unable to post.", "/chat")
		return
	}

	if err := h.Groups.AddActivity(ctx, groupID, 1); err != nil {
		h.Log.Warn("chat: activity bump failed", zap.Error(err))
	}

	h.Hub.BroadcastMessage(groupID, msg)
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /chat/messages/{id}/pin                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandlePin(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.requireMembership(w, r)
	if !ok {
		return
	}

	msgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "chat: bad message id", err, "Invalid message.", "/chat")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.Groups.GetByID(ctx, groupID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "chat: load group failed", err, "Unable to pin.", "/chat")
		return
	}
	if g.LeaderID != userID {
		uierrors.RenderForbidden(w, r, "Only the group leader can pin messages.", "/chat")
		return
	}

	msg, err := h.Messages.GetByID(ctx, msgID)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "chat: message missing", err, "That message no longer exists.", "/chat")
		return
	}
	if msg.GroupID != groupID {
		uierrors.RenderForbidden(w, r, "That message belongs to another group.", "/chat")
		return
	}

	if err := h.Messages.SetPinned(ctx, msgID, !msg.IsPinned); err != nil {
		h.ErrLog.LogServerError(w, r, "chat: pin toggle failed", err, "Unable to pin.", "/chat")
		return
	}

	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /chat/feed – websocket                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.requireMembership(w, r)
	if !ok {
		return
	}

	if err := chathub.Serve(h.Hub, w, r, groupID); err != nil {
		h.Log.Warn("chat: websocket upgrade failed",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
	}
}
