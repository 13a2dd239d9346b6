// internal/domain/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a group chat message. Ordering within a group's stream is by
// store-assigned CreatedAt, not by any client-side sequencing.
type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID        primitive.ObjectID `bson:"group_id" json:"group_id"`
	SenderID       primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	Content        string             `bson:"content" json:"content"`
	MessageType    string             `bson:"message_type" json:"message_type"` // text | system | resource
	IsPinned       bool               `bson:"is_pinned" json:"is_pinned"`
	IsAnnouncement bool               `bson:"is_announcement" json:"is_announcement"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

// Message kinds.
const (
	MessageText     = "text"
	MessageSystem   = "system"
	MessageResource = "resource"
)
