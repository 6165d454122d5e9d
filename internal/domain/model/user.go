package model

import (
	"time"
)

type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Favorites      []string  `json:"favorites"`
	SavedForLater  []string  `json:"savedForLater"`
	SolvedProblems []string  `json:"solvedProblems"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// List returns the membership set backing the given flag.
func (u User) List(f MembershipFlag) []string {
	switch f {
	case FlagFavorite:
		return u.Favorites
	case FlagSavedForLater:
		return u.SavedForLater
	case FlagSolved:
		return u.SolvedProblems
	}
	return nil
}

// Has reports whether problemID is in the set backing f.
func (u User) Has(f MembershipFlag, problemID string) bool {
	for _, id := range u.List(f) {
		if id == problemID {
			return true
		}
	}
	return false
}
