// internal/app/suggest/suggest.go

// Package suggest ranks groups and teammates for a student by simple skill
// arithmetic. Pure and deterministic; the feature layer loads the candidate
// sets (same-cluster open/almost_full groups, same-cluster group-less
// completed profiles) and renders the results.
package suggest

import (
	"sort"

	"github.com/campushub/groupify/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxSuggestions caps each ranked list.
const MaxSuggestions = 6

// GroupSuggestion pairs a candidate group with its match score.
type GroupSuggestion struct {
	Group models.Group
	Score float64
}

// StudentSuggestion pairs a candidate teammate with its match score.
type StudentSuggestion struct {
	Profile models.Profile
	Score   float64
}

func skillSet(skills []string) map[string]bool {
	set := make(map[string]bool, len(skills))
	for _, s := range skills {
		set[s] = true
	}
	return set
}

// RankGroups scores each candidate group for the user: +3 per required skill
// the user holds, +1 per leader skill the user shares. Descending stable
// sort (ties keep candidate order), top MaxSuggestions.
func RankGroups(userSkills []string, groups []models.Group, leaderSkills map[primitive.ObjectID][]string) []GroupSuggestion {
	mine := skillSet(userSkills)

	ranked := make([]GroupSuggestion, 0, len(groups))
	for _, g := range groups {
		var score float64
		for _, skill := range g.RequiredSkills {
			if mine[skill] {
				score += 3
			}
		}
		for _, skill := range leaderSkills[g.LeaderID] {
			if mine[skill] {
				score += 1
			}
		}
		ranked = append(ranked, GroupSuggestion{Group: g, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > MaxSuggestions {
		ranked = ranked[:MaxSuggestions]
	}
	return ranked
}

// RankStudents scores each candidate teammate: +2 per skill the candidate
// has that the user lacks, +0.5 per shared skill. Descending stable sort,
// top MaxSuggestions. Callers exclude the user and grouped profiles before
// calling.
func RankStudents(userSkills []string, candidates []models.Profile) []StudentSuggestion {
	mine := skillSet(userSkills)

	ranked := make([]StudentSuggestion, 0, len(candidates))
	for _, p := range candidates {
		var complement, overlap float64
		for _, skill := range p.Skills {
			if mine[skill] {
				overlap += 1
			} else {
				complement += 2
			}
		}
		ranked = append(ranked, StudentSuggestion{Profile: p, Score: complement + overlap*0.5})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > MaxSuggestions {
		ranked = ranked[:MaxSuggestions]
	}
	return ranked
}
