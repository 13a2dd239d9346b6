// internal/app/store/settings/settingsstore.go
package settingsstore

import (
	"context"
	"time"

	"github.com/campushub/groupify/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the system_settings collection.
// There is one settings document for the whole deployment.
type Store struct {
	c *mongo.Collection
}

// New creates a new settings store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("system_settings")}
}

// Get returns the system settings. If no settings document exists yet,
// defaults are returned (not frozen, no deadline).
func (s *Store) Get(ctx context.Context) (models.SystemSettings, error) {
	var settings models.SystemSettings
	err := s.c.FindOne(ctx, bson.M{}).Decode(&settings)
	if err == mongo.ErrNoDocuments {
		return models.SystemSettings{}, nil
	}
	if err != nil {
		return models.SystemSettings{}, err
	}
	return settings, nil
}

// SetFrozen sets the global freeze flag.
// Uses upsert so it works whether the settings document exists or not.
func (s *Store) SetFrozen(ctx context.Context, frozen bool) error {
	update := bson.M{
		"$set": bson.M{
			"is_system_frozen": frozen,
			"updated_at":       time.Now().UTC(),
		},
		"$setOnInsert": bson.M{
			"_id": primitive.NewObjectID(),
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := s.c.UpdateOne(ctx, bson.M{}, update, opts)
	return err
}

// SetDeadline sets or clears the group-formation deadline.
// Pass nil to clear.
func (s *Store) SetDeadline(ctx context.Context, deadline *time.Time) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
	}
	unset := bson.M{}
	if deadline != nil {
		set["deadline"] = deadline.UTC()
	} else {
		unset["deadline"] = ""
	}

	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"_id": primitive.NewObjectID(),
		},
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.Update().SetUpsert(true)
	_, err := s.c.UpdateOne(ctx, bson.M{}, update, opts)
	return err
}

// Exists checks whether the settings document has been created.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	count, err := s.c.CountDocuments(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
