// internal/domain/models/profile.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile represents a student or admin account.
//
// NOTE:
//   - Group membership is authoritatively stored in the group_members
//     collection. CurrentGroupID is a cached pointer the membership engine
//     keeps in sync on every join/leave/remove mutation.
//   - Role mirrors leadership of the current group ("leader" iff the profile
//     leads its current group, else "student"); "admin" is orthogonal and
//     never changed by membership mutations.
type Profile struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Email          string              `bson:"email" json:"email"`
	FullName       string              `bson:"full_name" json:"full_name"`
	FullNameCI     string              `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	RollNumber     string              `bson:"roll_number,omitempty" json:"roll_number"`
	Branch         string              `bson:"branch" json:"branch"`
	Specialization string              `bson:"specialization,omitempty" json:"specialization,omitempty"`
	Skills         []string            `bson:"skills" json:"skills"`
	PasswordHash   string              `bson:"password_hash,omitempty" json:"-"`
	AuthMethod     string              `bson:"auth_method,omitempty" json:"auth_method,omitempty"` // "internal" | "google"

	PreferredClusterID *int                `bson:"preferred_cluster_id,omitempty" json:"preferred_cluster_id,omitempty"`
	CurrentClusterID   *int                `bson:"current_cluster_id,omitempty" json:"current_cluster_id,omitempty"`
	CurrentGroupID     *primitive.ObjectID `bson:"current_group_id,omitempty" json:"current_group_id,omitempty"`

	Role             string `bson:"role" json:"role"` // student | leader | admin
	ProfileCompleted bool   `bson:"profile_completed" json:"profile_completed"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Profile roles.
const (
	RoleStudent = "student"
	RoleLeader  = "leader"
	RoleAdmin   = "admin"
)

// HasGroup reports whether the profile currently belongs to a group.
func (p *Profile) HasGroup() bool {
	return p.CurrentGroupID != nil
}

// HasSkill reports whether the profile lists the given skill.
func (p *Profile) HasSkill(skill string) bool {
	for _, s := range p.Skills {
		if s == skill {
			return true
		}
	}
	return false
}
