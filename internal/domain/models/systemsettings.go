// internal/domain/models/systemsettings.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SystemSettings is the singleton record holding the formation deadline and
// the global freeze flag. When frozen, the membership engine rejects all
// create/apply/invite/accept mutations.
type SystemSettings struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Deadline       *time.Time         `bson:"deadline,omitempty" json:"deadline,omitempty"`
	IsSystemFrozen bool               `bson:"is_system_frozen" json:"is_system_frozen"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// DaysUntilDeadline returns whole days remaining until the deadline,
// clamped at zero, and false when no deadline is set.
func (s *SystemSettings) DaysUntilDeadline(now time.Time) (int, bool) {
	if s.Deadline == nil {
		return 0, false
	}
	d := s.Deadline.Sub(now)
	if d <= 0 {
		return 0, true
	}
	days := int(d.Hours() / 24)
	if d.Hours() > float64(days)*24 {
		days++
	}
	return days, true
}
