// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/campushub/groupify/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "visitor", "", NilObjectID, false. This ensures callers can trust that
// ok=true means a valid, authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed for security.
		// This should not happen in normal operation; indicates session corruption.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "admin"
}

// IsLeader reports whether the current request's user is a group leader.
func IsLeader(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "leader"
}

// IsStudent reports whether the current request's user is a student.
func IsStudent(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "student"
}

// ProfileCompleted reports whether the current user has finished onboarding.
// Visitors count as not completed.
func ProfileCompleted(r *http.Request) bool {
	user, ok := auth.CurrentUser(r)
	return ok && user.ProfileCompleted
}

// UserGroupID returns the current user's group ID as an ObjectID.
// Returns NilObjectID if the user is not logged in or has no group.
// The value is a cache loaded by the session UserFetcher; authorization
// for group actions still goes through the policy layer.
func UserGroupID(r *http.Request) primitive.ObjectID {
	user, ok := auth.CurrentUser(r)
	if !ok || user.GroupID == "" {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(user.GroupID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// HasGroup reports whether the current user belongs to a group.
func HasGroup(r *http.Request) bool {
	return UserGroupID(r) != primitive.NilObjectID
}
