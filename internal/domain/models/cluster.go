// internal/domain/models/cluster.go
package models

import "time"

// Cluster is a named interest category students and groups belong to.
// Immutable reference data; seeded at startup and read-only afterwards.
type Cluster struct {
	ID          int       `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
