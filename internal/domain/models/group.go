// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group represents a student-formed team within one cluster.
//
// NOTE:
//   - Members are not embedded; membership lives in the group_members
//     collection. MemberCount displayed anywhere is a live count.
//   - Status is a stored display label derived from the member count
//     (see membership.DeriveStatus). IsFrozen is an independent flag; the
//     two can desynchronize because count-driven recomputes do not consult
//     IsFrozen. That behavior is deliberate and covered by tests.
type Group struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	NameCI         string             `bson:"name_ci" json:"name_ci"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	ClusterID      int                `bson:"cluster_id" json:"cluster_id"`
	LeaderID       primitive.ObjectID `bson:"leader_id" json:"leader_id"`
	MaxMembers     int                `bson:"max_members" json:"max_members"` // bounded [3,10]
	RequiredSkills []string           `bson:"required_skills" json:"required_skills"`

	Status        string  `bson:"status" json:"status"` // open | almost_full | full | frozen
	IsFrozen      bool    `bson:"is_frozen" json:"is_frozen"`
	ActivityScore float64 `bson:"activity_score" json:"activity_score"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Group status labels.
const (
	StatusOpen       = "open"
	StatusAlmostFull = "almost_full"
	StatusFull       = "full"
	StatusFrozen     = "frozen"
)

// Group capacity bounds.
const (
	MinGroupSize      = 3
	MaxGroupSize      = 10
	MaxRequiredSkills = 5
)
