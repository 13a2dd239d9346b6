package suggest_test

import (
	"fmt"
	"testing"

	"github.com/campushub/groupify/internal/app/suggest"
	"github.com/campushub/groupify/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRankGroups_Scoring(t *testing.T) {
	leaderA := primitive.NewObjectID()
	leaderB := primitive.NewObjectID()

	groups := []models.Group{
		{Name: "Alpha", LeaderID: leaderA, RequiredSkills: []string{"Go", "SQL"}},
		{Name: "Beta", LeaderID: leaderB, RequiredSkills: []string{"Rust"}},
	}
	leaderSkills := map[primitive.ObjectID][]string{
		leaderA: {"Go", "Docker"},
		leaderB: {"Go"},
	}

	// User holds Go and SQL: Alpha scores 3+3 required + 1 leader Go = 7;
	// Beta scores 0 required + 1 leader Go = 1.
	ranked := suggest.RankGroups([]string{"Go", "SQL"}, groups, leaderSkills)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(ranked))
	}
	if ranked[0].Group.Name != "Alpha" || ranked[0].Score != 7 {
		t.Errorf("expected Alpha with score 7, got %q %v", ranked[0].Group.Name, ranked[0].Score)
	}
	if ranked[1].Group.Name != "Beta" || ranked[1].Score != 1 {
		t.Errorf("expected Beta with score 1, got %q %v", ranked[1].Group.Name, ranked[1].Score)
	}
}

func TestRankGroups_RequiredAndLeaderMix(t *testing.T) {
	leader := primitive.NewObjectID()
	groups := []models.Group{
		{Name: "Mix", LeaderID: leader, RequiredSkills: []string{"A", "C"}},
	}
	leaderSkills := map[primitive.ObjectID][]string{leader: {"B"}}

	// User {A, B}: required A hits for 3, leader B shares for 1.
	ranked := suggest.RankGroups([]string{"A", "B"}, groups, leaderSkills)
	if ranked[0].Score != 4 {
		t.Errorf("expected score 4, got %v", ranked[0].Score)
	}
}

func TestRankGroups_TiesKeepInputOrder(t *testing.T) {
	groups := []models.Group{
		{Name: "First", LeaderID: primitive.NewObjectID()},
		{Name: "Second", LeaderID: primitive.NewObjectID()},
		{Name: "Third", LeaderID: primitive.NewObjectID()},
	}

	ranked := suggest.RankGroups([]string{"Go"}, groups, nil)
	for i, want := range []string{"First", "Second", "Third"} {
		if ranked[i].Group.Name != want {
			t.Errorf("position %d: expected %q, got %q", i, want, ranked[i].Group.Name)
		}
	}
}

func TestRankGroups_TopSix(t *testing.T) {
	var groups []models.Group
	for i := 0; i < 10; i++ {
		groups = append(groups, models.Group{
			Name:     fmt.Sprintf("Group %d", i),
			LeaderID: primitive.NewObjectID(),
		})
	}

	ranked := suggest.RankGroups(nil, groups, nil)
	if len(ranked) != suggest.MaxSuggestions {
		t.Errorf("expected %d suggestions, got %d", suggest.MaxSuggestions, len(ranked))
	}
}

func TestRankStudents_Scoring(t *testing.T) {
	candidates := []models.Profile{
		{FullName: "Complement Carl", Skills: []string{"Rust", "Kubernetes"}},
		{FullName: "Overlap Olive", Skills: []string{"Go", "SQL"}},
		{FullName: "Mixed Mia", Skills: []string{"Go", "Rust"}},
	}

	// User holds Go and SQL.
	// Carl: two new skills = 2+2 = 4. Olive: two shared = 1.0. Mia: one new,
	// one shared = 2 + 0.5 = 2.5.
	ranked := suggest.RankStudents([]string{"Go", "SQL"}, candidates)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(ranked))
	}
	want := []struct {
		name  string
		score float64
	}{
		{"Complement Carl", 4},
		{"Mixed Mia", 2.5},
		{"Overlap Olive", 1},
	}
	for i, w := range want {
		if ranked[i].Profile.FullName != w.name || ranked[i].Score != w.score {
			t.Errorf("position %d: expected %q score %v, got %q score %v",
				i, w.name, w.score, ranked[i].Profile.FullName, ranked[i].Score)
		}
	}
}

func TestRankStudents_ComplementBeatsOverlap(t *testing.T) {
	// The leader scenario: user has {A, B}. A candidate with {A, C} offers
	// one new and one shared skill; a pure-overlap candidate with {B} only a
	// half point.
	candidates := []models.Profile{
		{FullName: "Shares B", Skills: []string{"B"}},
		{FullName: "Brings C", Skills: []string{"A", "C"}},
	}

	ranked := suggest.RankStudents([]string{"A", "B"}, candidates)
	if ranked[0].Profile.FullName != "Brings C" || ranked[0].Score != 2.5 {
		t.Errorf("expected Brings C at 2.5, got %q %v", ranked[0].Profile.FullName, ranked[0].Score)
	}
	if ranked[1].Profile.FullName != "Shares B" || ranked[1].Score != 0.5 {
		t.Errorf("expected Shares B at 0.5, got %q %v", ranked[1].Profile.FullName, ranked[1].Score)
	}
}

func TestRankStudents_NoSkills(t *testing.T) {
	ranked := suggest.RankStudents(nil, []models.Profile{
		{FullName: "Skilled", Skills: []string{"Go"}},
		{FullName: "Unskilled"},
	})
	if ranked[0].Profile.FullName != "Skilled" || ranked[0].Score != 2 {
		t.Errorf("every candidate skill is new to a skill-less user, got %q %v",
			ranked[0].Profile.FullName, ranked[0].Score)
	}
	if ranked[1].Score != 0 {
		t.Errorf("expected zero score, got %v", ranked[1].Score)
	}
}
