package model

import (
	"time"
)

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "Easy"
	DifficultyMedium ProblemDifficulty = "Medium"
	DifficultyHard   ProblemDifficulty = "Hard"
)

// DefaultStatement is stored when a problem is created without one.
const DefaultStatement = "No statement provided"

type Problem struct {
	ProblemID       string            `json:"problemId"`
	Title           string            `json:"title"`
	Statement       string            `json:"statement"`
	Difficulty      ProblemDifficulty `json:"difficulty"`
	Language        Language          `json:"language"`
	Constraints     string            `json:"constraints"`
	Explanation     string            `json:"explanation"`
	Code            string            `json:"code"`
	TimeComplexity  string            `json:"timeComplexity"`
	SpaceComplexity string            `json:"spaceComplexity"`
	IsFavorite      bool              `json:"isFavorite"`
	IsSavedForLater bool              `json:"isSavedForLater"`
	IsSolved        bool              `json:"isSolved"`
	TopicID         string            `json:"topicId"`
	OwnerID         string            `json:"ownerId"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// Flag reports the boolean the given membership flag mirrors on p.
func (p Problem) Flag(f MembershipFlag) bool {
	switch f {
	case FlagFavorite:
		return p.IsFavorite
	case FlagSavedForLater:
		return p.IsSavedForLater
	case FlagSolved:
		return p.IsSolved
	}
	return false
}

// WithFlag returns a copy of p with the given flag set to value.
func (p Problem) WithFlag(f MembershipFlag, value bool) Problem {
	switch f {
	case FlagFavorite:
		p.IsFavorite = value
	case FlagSavedForLater:
		p.IsSavedForLater = value
	case FlagSolved:
		p.IsSolved = value
	}
	return p
}
