package profilestore_test

import (
	"testing"

	profilestore "github.com/campushub/groupify/internal/app/store/profiles"
	"github.com/campushub/groupify/internal/domain/models"
	"github.com/campushub/groupify/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create_Student(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	profile := models.Profile{
		FullName:   "  Asha Rao ",
		Email:      "Asha.Rao@Example.com",
		RollNumber: "cs21b042",
		Branch:     "CSE",
	}

	created, err := store.Create(ctx, profile)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Verify ID was assigned
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}

	// Verify normalized fields
	if created.FullName != "Asha Rao" {
		t.Errorf("expected trimmed name, got %q", created.FullName)
	}
	if created.FullNameCI != "asha rao" {
		t.Errorf("expected folded FullNameCI, got %q", created.FullNameCI)
	}
	if created.Email != "asha.rao@example.com" {
		t.Errorf("expected lowercased email, got %q", created.Email)
	}
	if created.RollNumber != "CS21B042" {
		t.Errorf("expected uppercased roll number, got %q", created.RollNumber)
	}

	// Verify default role
	if created.Role != models.RoleStudent {
		t.Errorf("expected role %q, got %q", models.RoleStudent, created.Role)
	}

	// Verify timestamps
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if created.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}

	// New profiles have no membership cache
	if created.CurrentGroupID != nil {
		t.Error("new profile should not have current_group_id")
	}
}

func TestStore_Create_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.Profile{
		FullName: "Bad Role",
		Email:    "bad@example.com",
		Role:     "coordinator",
	})
	if err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestStore_GetByEmail_CaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.Profile{
		FullName: "Dev Mehta",
		Email:    "dev.mehta@example.com",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := store.GetByEmail(ctx, "  DEV.MEHTA@Example.COM ")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if found.FullName != "Dev Mehta" {
		t.Errorf("expected Dev Mehta, got %q", found.FullName)
	}

	if _, err := store.GetByEmail(ctx, "nobody@example.com"); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_GetByRollNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.Profile{
		FullName:   "Kiran Shah",
		Email:      "kiran@example.com",
		RollNumber: "EE21B007",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := store.GetByRollNumber(ctx, "ee21b007")
	if err != nil {
		t.Fatalf("GetByRollNumber failed: %v", err)
	}
	if found.Email != "kiran@example.com" {
		t.Errorf("unexpected profile: %q", found.Email)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Profile{
		FullName: "Initial Name",
		Email:    "update@example.com",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ProfileCompleted {
		t.Fatal("new profile should not be completed")
	}

	preferred := 2
	err = store.Update(ctx, created.ID, profilestore.ProfileUpdate{
		FullName:           "Updated Name",
		Branch:             "ECE",
		Specialization:     "Signal Processing",
		Skills:             []string{"Python", "MATLAB"},
		PreferredClusterID: &preferred,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.FullName != "Updated Name" {
		t.Errorf("expected updated name, got %q", got.FullName)
	}
	if got.FullNameCI != "updated name" {
		t.Errorf("expected folded name, got %q", got.FullNameCI)
	}
	if !got.ProfileCompleted {
		t.Error("expected profile_completed after update")
	}
	if got.PreferredClusterID == nil || *got.PreferredClusterID != 2 {
		t.Errorf("expected preferred cluster 2, got %v", got.PreferredClusterID)
	}
	if len(got.Skills) != 2 {
		t.Errorf("expected 2 skills, got %d", len(got.Skills))
	}
}

func TestStore_SetGroup_And_ClearGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Profile{
		FullName: "Group Member",
		Email:    "member@example.com",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	groupID := primitive.NewObjectID()
	if err := store.SetGroup(ctx, created.ID, groupID, models.RoleLeader); err != nil {
		t.Fatalf("SetGroup failed: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.CurrentGroupID == nil || *got.CurrentGroupID != groupID {
		t.Error("expected current_group_id to be cached")
	}
	if got.Role != models.RoleLeader {
		t.Errorf("expected role mirror %q, got %q", models.RoleLeader, got.Role)
	}

	if err := store.ClearGroup(ctx, created.ID); err != nil {
		t.Fatalf("ClearGroup failed: %v", err)
	}

	got, err = store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.CurrentGroupID != nil {
		t.Error("expected current_group_id cleared")
	}
	if got.Role != models.RoleStudent {
		t.Errorf("expected role reset to student, got %q", got.Role)
	}
}

func TestStore_ClearGroup_AdminKeepsRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Profile{
		FullName: "Admin User",
		Email:    "admin@example.com",
		Role:     models.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.ClearGroup(ctx, created.ID); err != nil {
		t.Fatalf("ClearGroup failed: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Role != models.RoleAdmin {
		t.Errorf("admin role should survive ClearGroup, got %q", got.Role)
	}
}

func TestStore_ListStudents_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cluster1, cluster2 := 1, 2
	grouped := primitive.NewObjectID()

	seed := []struct {
		name    string
		email   string
		cluster int
		group   bool
	}{
		{"Anita Desai", "anita@example.com", cluster1, false},
		{"Arun Kumar", "arun@example.com", cluster1, true},
		{"Bela Singh", "bela@example.com", cluster2, false},
	}
	for _, s := range seed {
		created, err := store.Create(ctx, models.Profile{FullName: s.name, Email: s.email})
		if err != nil {
			t.Fatalf("Create %s failed: %v", s.name, err)
		}
		if err := store.SetCluster(ctx, created.ID, s.cluster); err != nil {
			t.Fatalf("SetCluster failed: %v", err)
		}
		if s.group {
			if err := store.SetGroup(ctx, created.ID, grouped, models.RoleStudent); err != nil {
				t.Fatalf("SetGroup failed: %v", err)
			}
		}
	}
	// Admins never appear in the directory.
	if _, err := store.Create(ctx, models.Profile{
		FullName: "Admin User",
		Email:    "admin@example.com",
		Role:     models.RoleAdmin,
	}); err != nil {
		t.Fatalf("Create admin failed: %v", err)
	}

	t.Run("by cluster", func(t *testing.T) {
		got, err := store.ListStudents(ctx, profilestore.DirectoryFilter{ClusterID: &cluster1})
		if err != nil {
			t.Fatalf("ListStudents failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 profiles in cluster 1, got %d", len(got))
		}
		// Sorted by folded name
		if got[0].FullName != "Anita Desai" || got[1].FullName != "Arun Kumar" {
			t.Errorf("unexpected order: %q, %q", got[0].FullName, got[1].FullName)
		}
	})

	t.Run("without group", func(t *testing.T) {
		got, err := store.ListStudents(ctx, profilestore.DirectoryFilter{
			ClusterID:    &cluster1,
			WithoutGroup: true,
		})
		if err != nil {
			t.Fatalf("ListStudents failed: %v", err)
		}
		if len(got) != 1 || got[0].FullName != "Anita Desai" {
			t.Fatalf("expected only ungrouped Anita Desai, got %d results", len(got))
		}
	})

	t.Run("name prefix", func(t *testing.T) {
		got, err := store.ListStudents(ctx, profilestore.DirectoryFilter{NamePrefix: "be"})
		if err != nil {
			t.Fatalf("ListStudents failed: %v", err)
		}
		if len(got) != 1 || got[0].FullName != "Bela Singh" {
			t.Fatalf("expected Bela Singh, got %d results", len(got))
		}
	})
}

func TestStore_SkillFilter_And_Counts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cluster := 3
	seed := []struct {
		name   string
		email  string
		skills []string
	}{
		{"Chitra Rao", "chitra@example.com", []string{"Python", "SQL"}},
		{"Dev Patel", "dev@example.com", []string{"Java"}},
	}
	for _, s := range seed {
		created, err := store.Create(ctx, models.Profile{
			FullName: s.name,
			Email:    s.email,
			Skills:   s.skills,
		})
		if err != nil {
			t.Fatalf("Create %s failed: %v", s.name, err)
		}
		if err := store.SetCluster(ctx, created.ID, cluster); err != nil {
			t.Fatalf("SetCluster failed: %v", err)
		}
	}

	got, err := store.ListStudents(ctx, profilestore.DirectoryFilter{ClusterID: &cluster, Skill: "SQL"})
	if err != nil {
		t.Fatalf("ListStudents failed: %v", err)
	}
	if len(got) != 1 || got[0].FullName != "Chitra Rao" {
		t.Fatalf("expected only Chitra Rao for skill SQL, got %d results", len(got))
	}

	n, err := store.CountStudents(ctx, profilestore.DirectoryFilter{ClusterID: &cluster})
	if err != nil {
		t.Fatalf("CountStudents failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 students in cluster, got %d", n)
	}

	n, err = store.CountStudents(ctx, profilestore.DirectoryFilter{ClusterID: &cluster, Skill: "Java"})
	if err != nil {
		t.Fatalf("CountStudents failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 student with Java, got %d", n)
	}
}

func TestStore_SetRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Profile{FullName: "Promote Me", Email: "promote@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.SetRole(ctx, created.ID, "Admin"); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	// Roles are stored lowercased.
	if got.Role != models.RoleAdmin {
		t.Errorf("role: got %q, want %q", got.Role, models.RoleAdmin)
	}
}

func TestStore_ResetStudent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Profile{
		FullName:   "Reset Me",
		Email:      "reset@example.com",
		RollNumber: "R900",
		Branch:     "Computer Science",
		Skills:     []string{"Python"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.SetCluster(ctx, created.ID, 2); err != nil {
		t.Fatalf("SetCluster failed: %v", err)
	}
	if err := store.SetGroup(ctx, created.ID, primitive.NewObjectID(), models.RoleLeader); err != nil {
		t.Fatalf("SetGroup failed: %v", err)
	}

	if err := store.ResetStudent(ctx, created.ID); err != nil {
		t.Fatalf("ResetStudent failed: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Role != models.RoleStudent {
		t.Errorf("role: got %q, want student", got.Role)
	}
	if got.ProfileCompleted {
		t.Error("profile_completed should be false after reset")
	}
	if got.CurrentGroupID != nil || got.CurrentClusterID != nil || got.PreferredClusterID != nil {
		t.Error("group and cluster state should be cleared")
	}
	if got.RollNumber != "" || got.Branch != "" || len(got.Skills) != 0 {
		t.Error("onboarding fields should be cleared")
	}
	// The account itself survives a reset.
	if got.Email != "reset@example.com" {
		t.Errorf("email should be untouched, got %q", got.Email)
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	// Duplicate detection needs the unique index in place.
	testutil.EnsureIndexes(t, db)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first := models.Profile{FullName: "First", Email: "dup@example.com", RollNumber: "R001"}
	if _, err := store.Create(ctx, first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := store.Create(ctx, models.Profile{FullName: "Second", Email: "DUP@example.com", RollNumber: "R002"})
	if err != profilestore.ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}

	_, err = store.Create(ctx, models.Profile{FullName: "Third", Email: "third@example.com", RollNumber: "r001"})
	if err != profilestore.ErrDuplicateRollNumber {
		t.Errorf("expected ErrDuplicateRollNumber, got %v", err)
	}
}
