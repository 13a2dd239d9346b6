// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/campushub/groupify/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateGroupName = errors.New("a group with this name already exists in the cluster")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.NameCI = text.Fold(g.Name)
	if g.Status == "" {
		g.Status = models.StatusOpen
	}
	g.CreatedAt = now
	g.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, g)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Group{}, ErrDuplicateGroupName
		}
		return models.Group{}, err
	}
	return g, nil
}

// UpdateInfo changes the fields a leader can edit on the manage page.
// Name uniqueness within the cluster is enforced by the unique index.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name, desc string, requiredSkills []string) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
	}
	if strings.TrimSpace(name) != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	// Description can be cleared (set to empty)
	set["description"] = desc
	if requiredSkills != nil {
		set["required_skills"] = requiredSkills
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateGroupName
		}
		return err
	}
	return nil
}

// SetStatus writes the stored status label unconditionally.
// Callers decide whether to skip unchanged writes; the store does not.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// SetFrozen flips the freeze flag and writes the paired status label in the
// same update.
func (s *Store) SetFrozen(ctx context.Context, id primitive.ObjectID, frozen bool, status string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"is_frozen":  frozen,
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// AddActivity bumps the activity score used by chat-driven ranking.
func (s *Store) AddActivity(ctx context.Context, id primitive.ObjectID, delta float64) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"activity_score": delta},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// Delete removes a group by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// BrowseFilter selects groups for the browse page and the suggestion engine.
type BrowseFilter struct {
	ClusterID  *int
	Statuses   []string // empty means any status
	NamePrefix string   // folded prefix match on name_ci
	LeaderID   *primitive.ObjectID
	Limit      int64
	Skip       int64
}

// List returns groups matching the filter, sorted by folded name with _id as
// the tiebreak.
func (s *Store) List(ctx context.Context, filter BrowseFilter) ([]models.Group, error) {
	query := bson.M{}
	if filter.ClusterID != nil {
		query["cluster_id"] = *filter.ClusterID
	}
	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": filter.Statuses}
	}
	if filter.NamePrefix != "" {
		folded := text.Fold(filter.NamePrefix)
		query["name_ci"] = bson.M{"$gte": folded, "$lt": folded + "￿"}
	}
	if filter.LeaderID != nil {
		query["leader_id"] = *filter.LeaderID
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit).
		SetSkip(filter.Skip)

	cur, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var groups []models.Group
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// GetByLeader returns the group the user currently leads, or
// mongo.ErrNoDocuments.
func (s *Store) GetByLeader(ctx context.Context, leaderID primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"leader_id": leaderID}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// CountByCluster returns the number of groups in a cluster.
func (s *Store) CountByCluster(ctx context.Context, clusterID int) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"cluster_id": clusterID})
}
