package settings_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	uierrors "github.com/campushub/groupify/internal/app/features/errors"
	"github.com/campushub/groupify/internal/app/features/settings"
	"github.com/campushub/groupify/internal/app/membership"
	"github.com/campushub/groupify/internal/domain/models"
	"github.com/campushub/groupify/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*settings.Handler, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	engine := membership.NewEngine(db, logger)
	h := settings.NewHandler(db, engine, uierrors.NewErrorLogger(logger), nil, logger)
	return h, testutil.NewFixtures(t, db), db
}

func asProfile(req *http.Request, p models.Profile) *http.Request {
	u := testutil.TestUser{
		ID:               p.ID.Hex(),
		Name:             p.FullName,
		Email:            p.Email,
		Role:             p.Role,
		ProfileCompleted: p.ProfileCompleted,
	}
	if p.CurrentGroupID != nil {
		u.GroupID = p.CurrentGroupID.Hex()
	}
	return testutil.WithUser(req, u)
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestServeSettings_AnonymousRedirectsToLogin(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeSettings(rec, httptest.NewRequest("GET", "/settings", nil))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("anonymous request: got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestHandleUpdate_SavesProfileChanges(t *testing.T) {
	h, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreateProfileWithSkills(ctx, "Rae Renamed", "rae@example.edu", 1, []string{"Python"})

	form := url.Values{
		"full_name":      {"Rae Updated"},
		"branch":         {models.Branches[0]},
		"specialization": {"distributed systems"},
		"skills":         {"Docker", "Kubernetes"},
	}
	req := asProfile(postForm("/settings", form), p)
	rec := httptest.NewRecorder()
	func() {
		// The shared layout templates are not registered in unit tests.
		defer func() { recover() }()
		h.HandleUpdate(rec, req)
	}()

	var got models.Profile
	if err := db.Collection("profiles").FindOne(ctx, bson.M{"_id": p.ID}).Decode(&got); err != nil {
		t.Fatalf("reload profile: %v", err)
	}
	if got.FullName != "Rae Updated" {
		t.Errorf("full name = %q, want %q", got.FullName, "Rae Updated")
	}
	if got.Specialization != "distributed systems" {
		t.Errorf("specialization = %q", got.Specialization)
	}
	if len(got.Skills) != 2 || got.Skills[0] != "Docker" {
		t.Errorf("skills = %v", got.Skills)
	}
	if got.Email != "rae@example.edu" {
		t.Errorf("email changed to %q", got.Email)
	}
}

func TestHandleUpdate_RejectsUnknownSkill(t *testing.T) {
	h, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreateProfileWithSkills(ctx, "Val Unchanged", "val@example.edu", 1, []string{"Python"})

	form := url.Values{
		"full_name": {"Val Unchanged"},
		"branch":    {models.Branches[0]},
		"skills":    {"underwater basket weaving"},
	}
	req := asProfile(postForm("/settings", form), p)
	rec := httptest.NewRecorder()
	func() {
		defer func() { recover() }()
		h.HandleUpdate(rec, req)
	}()

	var got models.Profile
	if err := db.Collection("profiles").FindOne(ctx, bson.M{"_id": p.ID}).Decode(&got); err != nil {
		t.Fatalf("reload profile: %v", err)
	}
	if len(got.Skills) != 1 || got.Skills[0] != "Python" {
		t.Errorf("skills were changed to %v", got.Skills)
	}
}

func TestHandleLeaveGroup_MemberLeaves(t *testing.T) {
	h, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fixtures.CreateProfile(ctx, "Lena Lead", "lena@example.edu", 1)
	member := fixtures.CreateProfile(ctx, "Mia Member", "mia@example.edu", 1)
	g := fixtures.CreateGroup(ctx, "Boat Builders", 1, leader.ID, 5)
	fixtures.JoinGroup(ctx, g.ID, member.ID)
	member.CurrentGroupID = &g.ID

	req := asProfile(postForm("/settings/leave-group", nil), member)
	rec := httptest.NewRecorder()
	h.HandleLeaveGroup(rec, req)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("got %d %q, want redirect to /dashboard", rec.Code, rec.Header().Get("Location"))
	}

	n, err := db.Collection("group_members").CountDocuments(ctx, bson.M{"group_id": g.ID, "user_id": member.ID})
	if err != nil {
		t.Fatalf("count members: %v", err)
	}
	if n != 0 {
		t.Error("membership row survived the leave")
	}

	var got models.Profile
	if err := db.Collection("profiles").FindOne(ctx, bson.M{"_id": member.ID}).Decode(&got); err != nil {
		t.Fatalf("reload profile: %v", err)
	}
	if got.CurrentGroupID != nil {
		t.Error("profile still points at the group")
	}
}

func TestHandleLeaveGroup_LeaderRefused(t *testing.T) {
	h, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fixtures.CreateProfile(ctx, "Lena Lead", "lena@example.edu", 1)
	g := fixtures.CreateGroup(ctx, "Boat Builders", 1, leader.ID, 5)
	leader.CurrentGroupID = &g.ID
	leader.Role = models.RoleLeader

	req := asProfile(postForm("/settings/leave-group", nil), leader)
	rec := httptest.NewRecorder()
	func() {
		// RenderForbidden needs the layout templates; the membership row
		// is the assertion that matters.
		defer func() { recover() }()
		h.HandleLeaveGroup(rec, req)
	}()

	n, err := db.Collection("group_members").CountDocuments(ctx, bson.M{"group_id": g.ID, "user_id": leader.ID})
	if err != nil {
		t.Fatalf("count members: %v", err)
	}
	if n != 1 {
		t.Error("leader's membership row was removed")
	}
}

func TestHandleLeaveGroup_GrouplessRedirectsBack(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreateProfile(ctx, "Solo Sam", "sam@example.edu", 1)

	req := asProfile(postForm("/settings/leave-group", nil), p)
	rec := httptest.NewRecorder()
	h.HandleLeaveGroup(rec, req)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/settings" {
		t.Errorf("got %d %q, want redirect to /settings", rec.Code, rec.Header().Get("Location"))
	}
}
