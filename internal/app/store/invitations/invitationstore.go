// internal/app/store/invitations/invitationstore.go
package invitationstore

import (
	"context"
	"errors"
	"time"

	"github.com/campushub/groupify/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_invitations")}
}

// ErrDuplicateInvite is returned when the group already has a pending
// invitation for the invitee (partial unique index).
var ErrDuplicateInvite = errors.New("a pending invitation for this student already exists")

// Create inserts a pending invitation.
func (s *Store) Create(ctx context.Context, inv models.GroupInvitation) (models.GroupInvitation, error) {
	inv.ID = primitive.NewObjectID()
	inv.Status = models.RequestPending
	inv.CreatedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		if wafflemongo.IsDup(err) {
			return models.GroupInvitation{}, ErrDuplicateInvite
		}
		return models.GroupInvitation{}, err
	}
	return inv, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.GroupInvitation, error) {
	var inv models.GroupInvitation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&inv); err != nil {
		return models.GroupInvitation{}, err
	}
	return inv, nil
}

// Resolve stamps a terminal status on one invitation.
func (s *Store) Resolve(ctx context.Context, id primitive.ObjectID, status string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": status}})
	return err
}

// ListPendingByInvitee returns a student's pending invitations, newest first,
// for the dashboard inbox.
func (s *Store) ListPendingByInvitee(ctx context.Context, inviteeID primitive.ObjectID) ([]models.GroupInvitation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"invitee_id": inviteeID, "status": models.RequestPending}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var invites []models.GroupInvitation
	if err := cur.All(ctx, &invites); err != nil {
		return nil, err
	}
	return invites, nil
}

// HasPending reports whether the group already invited the student.
func (s *Store) HasPending(ctx context.Context, groupID, inviteeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"group_id":   groupID,
		"invitee_id": inviteeID,
		"status":     models.RequestPending,
	}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// DeletePendingByGroup removes a group's pending invitations when the group
// is deleted. Resolved invitations are kept as history.
func (s *Store) DeletePendingByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID, "status": models.RequestPending})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountPendingByInvitee returns the size of the student's invitation inbox.
func (s *Store) CountPendingByInvitee(ctx context.Context, inviteeID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"invitee_id": inviteeID, "status": models.RequestPending})
}
