// internal/app/store/applications/applicationstore.go
package applicationstore

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
	return &Store{c: db.Collection("group_applications")}
}

// ErrDuplicateApplication is returned when the applicant already has a
// pending application for the same group (partial unique index).
var ErrDuplicateApplication = errors.New("a pending application for this group already exists")

// Create inserts a pending application.
func (s *Store) Create(ctx context.Context, app models.GroupApplication) (models.GroupApplication, error) {
	app.ID = primitive.NewObjectID()
	app.Status = models.RequestPending
	app.CreatedAt = time.Now().UTC()
	app.ReviewedAt = nil

	if _, err := s.c.InsertOne(ctx, app); err != nil {
		if wafflemongo.IsDup(err) {
			return models.GroupApplication{}, ErrDuplicateApplication
		}
		return models.GroupApplication{}, err
	}
	return app, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.GroupApplication, error) {
	var app models.GroupApplication
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&app); err != nil {
		return models.GroupApplication{}, err
	}
	return app, nil
}

// Resolve stamps a terminal status and the review time on one application.
func (s *Store) Resolve(ctx context.Context, id primitive.ObjectID, status string) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":      status,
		"reviewed_at": now,
	}})
	return err
}

// RejectOtherPending flips the applicant's other pending applications to
// rejected, one write per document. Status only; no reviewed_at stamp.
// A failure partway leaves the earlier flips in place.
func (s *Store) RejectOtherPending(ctx context.Context, applicantID, exceptAppID primitive.ObjectID) (int64, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"applicant_id": applicantID,
		"status":       models.RequestPending,
		"_id":          bson.M{"$ne": exceptAppID},
	}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return 0, err
		}
		ids = append(ids, row.ID)
	}
	if err := cur.Err(); err != nil {
		return 0, err
	}

	var rejected int64
	for _, id := range ids {
		if _, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": models.RequestRejected}}); err != nil {
			return rejected, err
		}
		rejected++
	}
	return rejected, nil
}

// ListPendingByGroup returns a group's pending applications, oldest first,
// for the leader's review queue.
func (s *Store) ListPendingByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.GroupApplication, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID, "status": models.RequestPending}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var apps []models.GroupApplication
	if err := cur.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// ListByApplicant returns all of a student's applications, newest first.
func (s *Store) ListByApplicant(ctx context.Context, applicantID primitive.ObjectID) ([]models.GroupApplication, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"applicant_id": applicantID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var apps []models.GroupApplication
	if err := cur.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// HasPending reports whether the applicant already has a pending application
// for the group.
func (s *Store) HasPending(ctx context.Context, groupID, applicantID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"group_id":     groupID,
		"applicant_id": applicantID,
		"status":       models.RequestPending,
	}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// DeletePendingByGroup removes a group's pending applications when the group
// is deleted. Resolved applications are kept as history.
func (s *Store) DeletePendingByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID, "status": models.RequestPending})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountPendingByGroup returns the size of the leader's review queue.
func (s *Store) CountPendingByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"group_id": groupID, "status": models.RequestPending})
}
