// internal/domain/models/application.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GroupApplication is an applicant-initiated request to join a group,
// carrying a motivation message and the skills the applicant offers.
// pending → accepted | rejected; terminal once resolved.
type GroupApplication struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID       primitive.ObjectID `bson:"group_id" json:"group_id"`
	ApplicantID   primitive.ObjectID `bson:"applicant_id" json:"applicant_id"`
	Message       string             `bson:"message" json:"message"`
	SkillsOffered []string           `bson:"skills_offered" json:"skills_offered"`
	Status        string             `bson:"status" json:"status"` // pending | accepted | rejected
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	ReviewedAt    *time.Time         `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
}

// GroupInvitation is the inverse request: a group member invites an
// outsider. Same terminal states as GroupApplication.
type GroupInvitation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID `bson:"group_id" json:"group_id"`
	InviterID primitive.ObjectID `bson:"inviter_id" json:"inviter_id"`
	InviteeID primitive.ObjectID `bson:"invitee_id" json:"invitee_id"`
	Status    string             `bson:"status" json:"status"` // pending | accepted | rejected
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Application/invitation states.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)
