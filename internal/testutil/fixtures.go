package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/campushub/groupify/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Chained calls accumulate parameters on the same route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// SeedClusters inserts the five fixed clusters.
func (f *Fixtures) SeedClusters(ctx context.Context) {
	f.t.Helper()

	for _, c := range []models.Cluster{
		{ID: 1, Name: "Generative AI"},
		{ID: 2, Name: "Full Stack + Java"},
		{ID: 3, Name: "Python + ML + Cloud"},
		{ID: 4, Name: "ML + Cloud Security"},
		{ID: 5, Name: "Cloud Computing"},
	} {
		if _, err := f.db.Collection("clusters").InsertOne(ctx, c); err != nil {
			f.t.Fatalf("failed to seed cluster %d: %v", c.ID, err)
		}
	}
}

// CreateProfile inserts a completed student profile in the given cluster.
func (f *Fixtures) CreateProfile(ctx context.Context, name, email string, clusterID int) models.Profile {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Profile{
		ID:               primitive.NewObjectID(),
		Email:            email,
		FullName:         name,
		FullNameCI:       text.Fold(name),
		RollNumber:       "CS" + primitive.NewObjectID().Hex()[18:],
		Branch:           "Computer Science",
		Skills:           []string{"Python", "SQL"},
		AuthMethod:       "internal",
		CurrentClusterID: &clusterID,
		Role:             models.RoleStudent,
		ProfileCompleted: true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if _, err := f.db.Collection("profiles").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
	return p
}

// CreateProfileWithSkills inserts a completed profile with the given skills.
func (f *Fixtures) CreateProfileWithSkills(ctx context.Context, name, email string, clusterID int, skills []string) models.Profile {
	f.t.Helper()

	p := f.CreateProfile(ctx, name, email, clusterID)
	p.Skills = skills
	if _, err := f.db.Collection("profiles").UpdateByID(ctx, p.ID,
		map[string]interface{}{"$set": map[string]interface{}{"skills": skills}}); err != nil {
		f.t.Fatalf("failed to set skills: %v", err)
	}
	return p
}

// CreateAccount inserts a completed internal-auth profile with the given
// password hashed via bcrypt, placed in cluster 1.
func (f *Fixtures) CreateAccount(ctx context.Context, name, email, password string) models.Profile {
	f.t.Helper()

	p := f.CreateProfile(ctx, name, email, 1)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash test password: %v", err)
	}
	if _, err := f.db.Collection("profiles").UpdateByID(ctx, p.ID,
		map[string]interface{}{"$set": map[string]interface{}{"password_hash": string(hash)}}); err != nil {
		f.t.Fatalf("failed to set password hash: %v", err)
	}
	p.PasswordHash = string(hash)
	return p
}

// CreateAdmin inserts an admin profile.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string) models.Profile {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Profile{
		ID:               primitive.NewObjectID(),
		Email:            email,
		FullName:         name,
		FullNameCI:       text.Fold(name),
		AuthMethod:       "internal",
		Role:             models.RoleAdmin,
		ProfileCompleted: true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if _, err := f.db.Collection("profiles").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test admin: %v", err)
	}
	return p
}

// CreateGroup inserts a group led by leaderID, adds the leader membership
// row, and points the leader profile at the group.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, clusterID int, leaderID primitive.ObjectID, maxMembers int) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.Group{
		ID:         primitive.NewObjectID(),
		Name:       name,
		NameCI:     text.Fold(name),
		ClusterID:  clusterID,
		LeaderID:   leaderID,
		MaxMembers: maxMembers,
		Status:     models.StatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	f.AddMember(ctx, g.ID, leaderID)
	f.pointProfileAtGroup(ctx, leaderID, g.ID, models.RoleLeader)
	return g
}

// AddMember inserts a membership row only; profile pointers are untouched.
func (f *Fixtures) AddMember(ctx context.Context, groupID, userID primitive.ObjectID) {
	f.t.Helper()

	m := models.GroupMember{
		ID:       primitive.NewObjectID(),
		GroupID:  groupID,
		UserID:   userID,
		JoinedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("group_members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to add test member: %v", err)
	}
}

// JoinGroup adds a membership row and updates the member's profile cache.
func (f *Fixtures) JoinGroup(ctx context.Context, groupID, userID primitive.ObjectID) {
	f.t.Helper()

	f.AddMember(ctx, groupID, userID)
	f.pointProfileAtGroup(ctx, userID, groupID, models.RoleStudent)
}

func (f *Fixtures) pointProfileAtGroup(ctx context.Context, userID, groupID primitive.ObjectID, role string) {
	f.t.Helper()

	_, err := f.db.Collection("profiles").UpdateByID(ctx, userID,
		map[string]interface{}{"$set": map[string]interface{}{
			"current_group_id": groupID,
			"role":             role,
		}})
	if err != nil {
		f.t.Fatalf("failed to update profile group pointer: %v", err)
	}
}

// CreateApplication inserts a pending application.
func (f *Fixtures) CreateApplication(ctx context.Context, groupID, applicantID primitive.ObjectID, message string) models.GroupApplication {
	f.t.Helper()

	app := models.GroupApplication{
		ID:          primitive.NewObjectID(),
		GroupID:     groupID,
		ApplicantID: applicantID,
		Message:     message,
		Status:      models.RequestPending,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := f.db.Collection("group_applications").InsertOne(ctx, app); err != nil {
		f.t.Fatalf("failed to create test application: %v", err)
	}
	return app
}

// CreateInvitation inserts a pending invitation.
func (f *Fixtures) CreateInvitation(ctx context.Context, groupID, inviterID, inviteeID primitive.ObjectID) models.GroupInvitation {
	f.t.Helper()

	inv := models.GroupInvitation{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		InviterID: inviterID,
		InviteeID: inviteeID,
		Status:    models.RequestPending,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("group_invitations").InsertOne(ctx, inv); err != nil {
		f.t.Fatalf("failed to create test invitation: %v", err)
	}
	return inv
}

// CreateMessage inserts a chat message into the group's stream.
func (f *Fixtures) CreateMessage(ctx context.Context, groupID, senderID primitive.ObjectID, content string) models.Message {
	f.t.Helper()

	m := models.Message{
		ID:          primitive.NewObjectID(),
		GroupID:     groupID,
		SenderID:    senderID,
		Content:     content,
		MessageType: models.MessageText,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := f.db.Collection("messages").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test message: %v", err)
	}
	return m
}
