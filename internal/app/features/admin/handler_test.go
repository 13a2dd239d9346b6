package admin_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/campushub/groupify/internal/app/features/admin"
	uierrors "github.com/campushub/groupify/internal/app/features/errors"
	"github.com/campushub/groupify/internal/domain/models"
	"github.com/campushub/groupify/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*admin.Handler, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	h := admin.NewHandler(db, uierrors.NewErrorLogger(logger), nil, logger)
	return h, testutil.NewFixtures(t, db), db
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHandleFreeze_SetsAndClears(t *testing.T) {
	h, _, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := testutil.WithUser(postForm("/admin/freeze", url.Values{"frozen": {"true"}}), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.HandleFreeze(rec, req)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin" {
		t.Fatalf("freeze: got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	var s models.SystemSettings
	if err := db.Collection("system_settings").FindOne(ctx, bson.M{}).Decode(&s); err != nil {
		t.Fatalf("reload settings: %v", err)
	}
	if !s.IsSystemFrozen {
		t.Error("system was not frozen")
	}

	req = testutil.WithUser(postForm("/admin/freeze", url.Values{"frozen": {"false"}}), testutil.AdminUser())
	rec = httptest.NewRecorder()
	h.HandleFreeze(rec, req)

	if err := db.Collection("system_settings").FindOne(ctx, bson.M{}).Decode(&s); err != nil {
		t.Fatalf("reload settings: %v", err)
	}
	if s.IsSystemFrozen {
		t.Error("system was not unfrozen")
	}
}

func TestHandleFreeze_StudentForbidden(t *testing.T) {
	h, _, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := testutil.WithUser(postForm("/admin/freeze", url.Values{"frozen": {"true"}}), testutil.StudentUser())
	rec := httptest.NewRecorder()
	func() {
		defer func() { recover() }()
		h.HandleFreeze(rec, req)
	}()

	n, err := db.Collection("system_settings").CountDocuments(ctx, bson.M{"is_system_frozen": true})
	if err != nil {
		t.Fatalf("count settings: %v", err)
	}
	if n != 0 {
		t.Error("a student must not be able to freeze the system")
	}
}

func TestHandleDeadline_SetsInclusiveEndOfDay(t *testing.T) {
	h, _, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := testutil.WithUser(postForm("/admin/deadline", url.Values{"deadline": {"2026-10-15"}}), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.HandleDeadline(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("deadline: got status %d", rec.Code)
	}

	var s models.SystemSettings
	if err := db.Collection("system_settings").FindOne(ctx, bson.M{}).Decode(&s); err != nil {
		t.Fatalf("reload settings: %v", err)
	}
	if s.Deadline == nil {
		t.Fatal("deadline was not stored")
	}
	want := time.Date(2026, 10, 15, 23, 59, 59, 0, time.UTC)
	if !s.Deadline.UTC().Equal(want) {
		t.Errorf("deadline: got %v, want %v", s.Deadline.UTC(), want)
	}
}

func TestHandleDeadline_EmptyClears(t *testing.T) {
	h, _, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := testutil.WithUser(postForm("/admin/deadline", url.Values{"deadline": {"2026-10-15"}}), testutil.AdminUser())
	h.HandleDeadline(httptest.NewRecorder(), req)

	req = testutil.WithUser(postForm("/admin/deadline", url.Values{"deadline": {""}}), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.HandleDeadline(rec, req)

	var s models.SystemSettings
	if err := db.Collection("system_settings").FindOne(ctx, bson.M{}).Decode(&s); err != nil {
		t.Fatalf("reload settings: %v", err)
	}
	if s.Deadline != nil {
		t.Errorf("deadline was not cleared: %v", s.Deadline)
	}
}

func TestHandleResetStudent_ClearsProfileAndMembership(t *testing.T) {
	h, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fixtures.CreateProfile(ctx, "Lena Lead", "lena@example.edu", 1)
	member := fixtures.CreateProfile(ctx, "Mira Member", "mira@example.edu", 1)
	g := fixtures.CreateGroup(ctx, "Raft Group", 1, leader.ID, 5)
	fixtures.JoinGroup(ctx, g.ID, member.ID)

	form := url.Values{"user_id": {member.ID.Hex()}}
	req := testutil.WithUser(postForm("/admin/students/reset", form), testutil.AdminUser())

	rec := httptest.NewRecorder()
	func() {
		defer func() { recover() }()
		h.HandleResetStudent(rec, req)
	}()

	var p models.Profile
	if err := db.Collection("profiles").FindOne(ctx, bson.M{"_id": member.ID}).Decode(&p); err != nil {
		t.Fatalf("reload profile: %v", err)
	}
	if p.ProfileCompleted || p.CurrentGroupID != nil || p.CurrentClusterID != nil {
		t.Errorf("profile not reset: completed=%v group=%v cluster=%v",
			p.ProfileCompleted, p.CurrentGroupID, p.CurrentClusterID)
	}
	if p.Email != "mira@example.edu" {
		t.Errorf("account identity must survive a reset, got %q", p.Email)
	}

	n, err := db.Collection("group_members").CountDocuments(ctx,
		bson.M{"group_id": g.ID, "user_id": member.ID})
	if err != nil {
		t.Fatalf("count membership: %v", err)
	}
	if n != 0 {
		t.Error("membership row survived the reset")
	}
}

func TestHandleResetStudent_RefusesLeaders(t *testing.T) {
	h, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fixtures.CreateProfile(ctx, "Lena Lead", "lena@example.edu", 1)
	fixtures.CreateGroup(ctx, "Raft Group", 1, leader.ID, 5)

	form := url.Values{"user_id": {leader.ID.Hex()}}
	req := testutil.WithUser(postForm("/admin/students/reset", form), testutil.AdminUser())

	rec := httptest.NewRecorder()
	func() {
		defer func() { recover() }()
		h.HandleResetStudent(rec, req)
	}()

	var p models.Profile
	if err := db.Collection("profiles").FindOne(ctx, bson.M{"_id": leader.ID}).Decode(&p); err != nil {
		t.Fatalf("reload profile: %v", err)
	}
	if !p.ProfileCompleted {
		t.Error("a leader must not be reset while their group exists")
	}
}

func TestHandleExport_WritesGroupedJSON(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.SeedClusters(ctx)
	leader := fixtures.CreateProfile(ctx, "Lena Lead", "lena@example.edu", 1)
	fixtures.CreateGroup(ctx, "Raft Group", 1, leader.ID, 5)
	fixtures.CreateProfile(ctx, "Solo Sam", "sam@example.edu", 1)

	req := testutil.WithUser(httptest.NewRequest("GET", "/admin/export", nil), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.HandleExport(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("export: got status %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "groupify-export-") {
		t.Errorf("content disposition: %q", cd)
	}

	var doc struct {
		Clusters []struct {
			ID     int `json:"id"`
			Groups []struct {
				Name        string `json:"name"`
				MemberCount int    `json:"member_count"`
			} `json:"groups"`
			Unattached []struct {
				Email string `json:"email"`
			} `json:"unattached_students"`
		} `json:"clusters"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode export: %v", err)
	}

	if len(doc.Clusters) != 5 {
		t.Fatalf("expected 5 clusters in the export, got %d", len(doc.Clusters))
	}
	first := doc.Clusters[0]
	if len(first.Groups) != 1 || first.Groups[0].Name != "Raft Group" || first.Groups[0].MemberCount != 1 {
		t.Errorf("cluster 1 groups: %+v", first.Groups)
	}
	if len(first.Unattached) != 1 || first.Unattached[0].Email != "sam@example.edu" {
		t.Errorf("cluster 1 unattached: %+v", first.Unattached)
	}
}
