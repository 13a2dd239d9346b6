// internal/app/chat/client.go
package chat

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. The feed is read-only for the
	// client, so anything beyond control frames is noise.
	maxMessageSize = 512

	// Outbound event buffer per client; overflow marks the client slow.
	sendBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Session cookie auth happens before the upgrade; the feed carries
		// no state-changing operations.
		return true
	},
}

// Client is a single websocket subscriber to one group's feed.
type Client struct {
	ID      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan Event
	groupID primitive.ObjectID
	log     *zap.Logger
}

// NewClient builds a subscriber around an established connection. Tests use
// it with a nil conn and drive the send channel directly.
func NewClient(hub *Hub, conn *websocket.Conn, groupID primitive.ObjectID) *Client {
	return &Client{
		ID:      uuid.NewString(),
		hub:     hub,
		conn:    conn,
		send:    make(chan Event, sendBuffer),
		groupID: groupID,
		log:     hub.log,
	}
}

// Serve upgrades the request and runs the subscriber until the peer goes
// away. The caller has already authenticated the user and verified group
// membership.
func Serve(hub *Hub, w http.ResponseWriter, r *http.Request, groupID primitive.ObjectID) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := NewClient(hub, conn, groupID)
	hub.Register(client)

	go client.writePump()
	go client.readPump()
	return nil
}

// readPump discards inbound frames and watches for disconnect. The feed is
// one-directional; posting goes through the HTTP handler.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug("chat client read error",
					zap.String("client_id", c.ID),
					zap.Error(err))
			}
			return
		}
	}
}

// writePump pushes hub events and keepalive pings to the peer.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub dropped us.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			json.NewEncoder(w).Encode(event)

			// Flush any queued events in the same frame batch.
			n := len(c.send)
			for i := 0; i < n; i++ {
				json.NewEncoder(w).Encode(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
