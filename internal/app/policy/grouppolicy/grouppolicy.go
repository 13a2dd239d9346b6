// internal/app/policy/grouppolicy.go
package grouppolicy

import (
	"context"
	"net/http"

	"github.com/campushub/groupify/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// IsLeader returns true if the given user leads the given group. Leadership
// is recorded on the group document itself; the role field on profiles is a
// display mirror and never consulted here.
func IsLeader(ctx context.Context, db *mongo.Database, groupID, userID primitive.ObjectID) (bool, error) {
	c := db.Collection("groups")
	n, err := c.CountDocuments(ctx, bson.M{
		"_id":       groupID,
		"leader_id": userID,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsMember returns true if the user holds a membership document for the
// group in the authoritative group_members collection.
func IsMember(ctx context.Context, db *mongo.Database, groupID, userID primitive.ObjectID) (bool, error) {
	c := db.Collection("group_members")
	n, err := c.CountDocuments(ctx, bson.M{
		"group_id": groupID,
		"user_id":  userID,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CanManageGroup reports whether the current request user can manage the
// group:
// - Admins always can
// - Everyone else must be the group's leader
// Returns an error if the database check fails, allowing callers to
// distinguish between "not authorized" (false, nil) and "database error"
// (false, err).
func CanManageGroup(ctx context.Context, db *mongo.Database, r *http.Request, groupID primitive.ObjectID) (bool, error) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false, nil
	}
	if role == "admin" {
		return true, nil
	}
	return IsLeader(ctx, db, groupID, uid)
}
