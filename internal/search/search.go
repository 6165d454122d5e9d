// Package search derives problem lists from a set of topics. Nothing here
// holds state; every call recomputes from the topics it is given.
package search

import (
	"strings"

	"codenotes/internal/domain/model"
)

// Predicate selects problems.
type Predicate func(model.Problem) bool

// Filter returns the problems matching pred, in topic order and then by
// title and id within a topic.
func Filter(topics []model.Topic, pred Predicate) []model.Problem {
	out := []model.Problem{}
	for _, t := range topics {
		for _, p := range t.Problems.Sorted() {
			if pred(p) {
				out = append(out, p)
			}
		}
	}
	return out
}

// Matches reports whether q is a case-insensitive substring of the title or
// statement, or names the difficulty.
func Matches(p model.Problem, q string) bool {
	needle := strings.ToLower(q)
	return strings.Contains(strings.ToLower(p.Title), needle) ||
		strings.Contains(strings.ToLower(p.Statement), needle) ||
		strings.EqualFold(string(p.Difficulty), q)
}

// Query runs a free-text search. A blank query matches nothing.
func Query(topics []model.Topic, q string) []model.Problem {
	if strings.TrimSpace(q) == "" {
		return []model.Problem{}
	}
	return Filter(topics, func(p model.Problem) bool { return Matches(p, q) })
}

func ByFlag(topics []model.Topic, flag model.MembershipFlag) []model.Problem {
	return Filter(topics, func(p model.Problem) bool { return p.Flag(flag) })
}

func Favorites(topics []model.Topic) []model.Problem {
	return ByFlag(topics, model.FlagFavorite)
}

func SavedForLater(topics []model.Topic) []model.Problem {
	return ByFlag(topics, model.FlagSavedForLater)
}

func Solved(topics []model.Topic) []model.Problem {
	return ByFlag(topics, model.FlagSolved)
}

// ByDifficulty matches the difficulty name case-insensitively.
func ByDifficulty(topics []model.Topic, d string) []model.Problem {
	return Filter(topics, func(p model.Problem) bool { return strings.EqualFold(string(p.Difficulty), d) })
}
