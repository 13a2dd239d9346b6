package profilestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/campushub/groupify/internal/app/system/normalize"
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

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profiles")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a profile with an email that already exists.
	ErrDuplicateEmail = errors.New("a profile with this email already exists")
	// ErrDuplicateRollNumber is returned when the roll number is already registered.
	ErrDuplicateRollNumber = errors.New("a profile with this roll number already exists")
	errBadRole             = errors.New(`role must be "admin"|"leader"|"student"`)
)

func dupError(err error) error {
	if !wafflemongo.IsDup(err) {
		return err
	}
	if strings.Contains(err.Error(), "rollnumber") {
		return ErrDuplicateRollNumber
	}
	return ErrDuplicateEmail
}

// GetByID loads a profile by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	var p models.Profile
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByEmail looks up a profile by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByRollNumber looks up a profile by campus roll number.
func (s *Store) GetByRollNumber(ctx context.Context, rollNumber string) (*models.Profile, error) {
	var p models.Profile
	if err := s.c.FindOne(ctx, bson.M{"roll_number": normalize.RollNumber(rollNumber)}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new profile after normalizing fields.
// Membership cache fields (current group, role mirror) start empty.
func (s *Store) Create(ctx context.Context, p models.Profile) (models.Profile, error) {
	p.ID = primitive.NewObjectID()
	p.FullName = normalize.Name(p.FullName)
	p.FullNameCI = text.Fold(p.FullName)
	p.Email = normalize.Email(p.Email)
	p.RollNumber = normalize.RollNumber(p.RollNumber)
	if p.Role == "" {
		p.Role = models.RoleStudent
	}

	switch p.Role {
	case models.RoleAdmin, models.RoleLeader, models.RoleStudent:
		// ok
	default:
		return models.Profile{}, errBadRole
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Profile{}, dupError(err)
	}
	return p, nil
}

// ProfileUpdate holds the fields a student can change during onboarding and
// from the settings page.
type ProfileUpdate struct {
	FullName           string
	RollNumber         string // written only when non-empty (onboarding sets it once)
	Branch             string
	Specialization     string
	Skills             []string
	PreferredClusterID *int
}

// Update applies a ProfileUpdate and marks the profile completed.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	set := bson.M{
		"full_name":         normalize.Name(upd.FullName),
		"full_name_ci":      text.Fold(normalize.Name(upd.FullName)),
		"branch":            upd.Branch,
		"specialization":    upd.Specialization,
		"skills":            upd.Skills,
		"profile_completed": true,
		"updated_at":        time.Now(),
	}
	if upd.RollNumber != "" {
		set["roll_number"] = normalize.RollNumber(upd.RollNumber)
	}
	if upd.PreferredClusterID != nil {
		set["preferred_cluster_id"] = *upd.PreferredClusterID
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return dupError(err)
}

// SetCluster records the cluster a profile currently belongs to.
// SetRole changes a profile's role directly. Used for admin promotion;
// membership mutations go through SetGroup/ClearGroup instead.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"role":       normalize.Role(role),
		"updated_at": time.Now(),
	}})
	return err
}

func (s *Store) SetCluster(ctx context.Context, id primitive.ObjectID, clusterID int) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"current_cluster_id": clusterID,
		"updated_at":         time.Now(),
	}})
	return err
}

// SetGroup caches the profile's current group and role mirror.
// The group_members collection stays authoritative; this cache is what the
// session fetcher and directory filters read.
func (s *Store) SetGroup(ctx context.Context, id, groupID primitive.ObjectID, role string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"current_group_id": groupID,
		"role":             normalize.Role(role),
		"updated_at":       time.Now(),
	}})
	return err
}

// SetGroupPointer caches the current group without touching the role mirror.
func (s *Store) SetGroupPointer(ctx context.Context, id, groupID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"current_group_id": groupID,
		"updated_at":       time.Now(),
	}})
	return err
}

// ClearGroup resets the membership cache after a leave/remove/delete.
// Admin profiles keep their role.
func (s *Store) ClearGroup(ctx context.Context, id primitive.ObjectID) error {
	var p models.Profile
	proj := options.FindOne().SetProjection(bson.M{"role": 1})
	if err := s.c.FindOne(ctx, bson.M{"_id": id}, proj).Decode(&p); err != nil {
		return err
	}

	set := bson.M{"updated_at": time.Now()}
	if p.Role != models.RoleAdmin {
		set["role"] = models.RoleStudent
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":   set,
		"$unset": bson.M{"current_group_id": ""},
	})
	return err
}

// DirectoryFilter selects profiles for the student directory.
type DirectoryFilter struct {
	ClusterID    *int   // nil means all clusters
	WithoutGroup bool   // only students not currently in a group
	NamePrefix   string // folded prefix match on full_name_ci
	Skill        string // exact match against the skills array
	Limit        int64
	Skip         int64
}

// ListStudents returns student/leader profiles matching the filter, sorted by
// folded name with _id as the tiebreak.
func (s *Store) ListStudents(ctx context.Context, filter DirectoryFilter) ([]models.Profile, error) {
	query := bson.M{"role": bson.M{"$ne": models.RoleAdmin}}
	if filter.ClusterID != nil {
		query["current_cluster_id"] = *filter.ClusterID
	}
	if filter.WithoutGroup {
		query["current_group_id"] = bson.M{"$exists": false}
	}
	if filter.NamePrefix != "" {
		folded := text.Fold(filter.NamePrefix)
		query["full_name_ci"] = bson.M{"$gte": folded, "$lt": folded + "￿"}
	}
	if filter.Skill != "" {
		query["skills"] = filter.Skill
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit).
		SetSkip(filter.Skip)

	cur, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var profiles []models.Profile
	if err := cur.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// CountStudents counts student/leader profiles matching the filter.
func (s *Store) CountStudents(ctx context.Context, filter DirectoryFilter) (int64, error) {
	query := bson.M{"role": bson.M{"$ne": models.RoleAdmin}}
	if filter.ClusterID != nil {
		query["current_cluster_id"] = *filter.ClusterID
	}
	if filter.WithoutGroup {
		query["current_group_id"] = bson.M{"$exists": false}
	}
	if filter.Skill != "" {
		query["skills"] = filter.Skill
	}
	return s.c.CountDocuments(ctx, query)
}

// ResetStudent returns a profile to its pre-onboarding state: cluster,
// group cache, branch, skills and the completed flag are all cleared. The
// account itself (email, auth method, password hash) is untouched.
// Membership rows are the caller's responsibility.
func (s *Store) ResetStudent(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"role":              models.RoleStudent,
			"skills":            []string{},
			"profile_completed": false,
			"updated_at":        time.Now(),
		},
		"$unset": bson.M{
			"current_group_id":     "",
			"current_cluster_id":   "",
			"preferred_cluster_id": "",
			"branch":               "",
			"specialization":       "",
			"roll_number":          "",
		},
	})
	return err
}

// ListByIDs loads the given profiles in one query. Order is not preserved.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var profiles []models.Profile
	if err := cur.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// ListByCluster returns every profile currently in the given cluster.
// Used by the export and the suggestion engine.
func (s *Store) ListByCluster(ctx context.Context, clusterID int) ([]models.Profile, error) {
	cur, err := s.c.Find(ctx, bson.M{"current_cluster_id": clusterID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var profiles []models.Profile
	if err := cur.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// EmailExistsForOther checks if an email already exists for a profile other than the given ID.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"email": normalize.Email(email),
		"_id":   bson.M{"$ne": excludeID},
	}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}
