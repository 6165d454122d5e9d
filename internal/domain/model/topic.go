package model

import (
	"sort"
	"time"
)

// TopicProblems maps a problem id to the denormalized copy of that problem.
type TopicProblems map[string]Problem

type Topic struct {
	TopicID   string        `json:"topicId"`
	Title     string        `json:"title"`
	OwnerID   string        `json:"ownerId"`
	Problems  TopicProblems `json:"problems"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Sorted returns the embedded problems ordered by title, then id.
func (tp TopicProblems) Sorted() []Problem {
	out := make([]Problem, 0, len(tp))
	for _, p := range tp {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ProblemID < out[j].ProblemID
	})
	return out
}

// Clone copies the map so callers can mutate it without aliasing t.
func (tp TopicProblems) Clone() TopicProblems {
	out := make(TopicProblems, len(tp))
	for k, v := range tp {
		out[k] = v
	}
	return out
}
