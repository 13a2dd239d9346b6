package profilestore

import (
	"context"
	"strconv"

	"github.com/campushub/groupify/internal/app/system/auth"
	"github.com/campushub/groupify/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher by loading session state from the
// profiles collection on every request. Keeping this per-request means a
// membership change (joining a group, being removed) shows up on the
// student's next page load without touching their session cookie.
type Fetcher struct {
	c *mongo.Collection
}

// NewFetcher creates a Fetcher backed by the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{c: db.Collection("profiles")}
}

// FetchUser loads the profile fields the session layer caches per request.
// Returns nil if the ID is malformed or the profile no longer exists, which
// LoadSessionUser treats as signed out.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var doc struct {
		FullName         string              `bson:"full_name"`
		Email            string              `bson:"email"`
		Role             string              `bson:"role"`
		ProfileCompleted bool                `bson:"profile_completed"`
		CurrentClusterID *int                `bson:"current_cluster_id"`
		CurrentGroupID   *primitive.ObjectID `bson:"current_group_id"`
	}

	proj := options.FindOne().SetProjection(bson.M{
		"full_name":          1,
		"email":              1,
		"role":               1,
		"profile_completed":  1,
		"current_cluster_id": 1,
		"current_group_id":   1,
	})
	if err := f.c.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&doc); err != nil {
		return nil
	}

	u := &auth.SessionUser{
		ID:               userID,
		Name:             doc.FullName,
		Email:            doc.Email,
		Role:             doc.Role,
		ProfileCompleted: doc.ProfileCompleted,
	}
	if doc.CurrentClusterID != nil {
		u.ClusterID = strconv.Itoa(*doc.CurrentClusterID)
	}
	if doc.CurrentGroupID != nil {
		u.GroupID = doc.CurrentGroupID.Hex()
	}
	return u
}
