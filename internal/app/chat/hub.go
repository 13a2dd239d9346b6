// internal/app/chat/hub.go

// Package chat carries the realtime feed for group chat: a hub of per-group
// rooms broadcasting message-insert events to subscribed websocket clients.
// Posting a message happens over plain HTTP; the hub only fans the stored
// message out, so a missed event costs nothing but a refresh.
package chat

import (
	"sync"

	"github.com/campushub/groupify/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Event is the wire frame pushed to feed subscribers.
type Event struct {
	Type    string         `json:"type"` // "message"
	Message models.Message `json:"message"`
}

// Hub maintains the room map. All access is mutex-guarded; there is no
// coordinator goroutine.
type Hub struct {
	mu    sync.RWMutex
	rooms map[primitive.ObjectID]map[*Client]bool
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		rooms: make(map[primitive.ObjectID]map[*Client]bool),
		log:   log,
	}
}

// Register subscribes a client to its group's room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[c.groupID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[c.groupID] = room
	}
	room[c] = true

	h.log.Debug("chat client registered",
		zap.String("client_id", c.ID),
		zap.String("group_id", c.groupID.Hex()),
		zap.Int("room_size", len(room)))
}

// Unregister removes a client and closes its send channel. Idempotent; the
// second call for the same client is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *Hub) dropLocked(c *Client) {
	room, ok := h.rooms[c.groupID]
	if !ok || !room[c] {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.groupID)
	}
	close(c.send)
}

// BroadcastMessage fans one stored message out to the group's subscribers.
// A client whose send buffer is full is dropped rather than blocking the
// rest of the room.
func (h *Hub) BroadcastMessage(groupID primitive.ObjectID, msg models.Message) {
	event := Event{Type: "message", Message: msg}

	// Sends stay under the read lock: channels are only ever closed under
	// the write lock, so a send can never race a concurrent drop. The
	// select keeps a full buffer from blocking the room.
	h.mu.RLock()
	var slow []*Client
	for c := range h.rooms[groupID] {
		select {
		case c.send <- event:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	for _, c := range slow {
		h.log.Warn("dropping slow chat client",
			zap.String("client_id", c.ID),
			zap.String("group_id", groupID.Hex()))
		h.dropLocked(c)
	}
	h.mu.Unlock()
}

// RoomSize reports the current subscriber count for a group.
func (h *Hub) RoomSize(groupID primitive.ObjectID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[groupID])
}
