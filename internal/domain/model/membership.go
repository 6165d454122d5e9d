package model

import "fmt"

// MembershipFlag names one of the boolean facts that is stored twice: as a
// column on the problem and as a per-user set of problem ids.
type MembershipFlag string

const (
	FlagFavorite      MembershipFlag = "favorites"
	FlagSavedForLater MembershipFlag = "savedForLater"
	FlagSolved        MembershipFlag = "solvedProblems"
)

var AllFlags = []MembershipFlag{FlagFavorite, FlagSavedForLater, FlagSolved}

// ParseMembershipFlag accepts the list name or its short route name.
func ParseMembershipFlag(s string) (MembershipFlag, error) {
	switch s {
	case string(FlagFavorite), "favorite":
		return FlagFavorite, nil
	case string(FlagSavedForLater), "saved":
		return FlagSavedForLater, nil
	case string(FlagSolved), "solved":
		return FlagSolved, nil
	}
	return "", fmt.Errorf("unknown membership flag %q", s)
}

// Column is the problems column holding the flag.
func (f MembershipFlag) Column() string {
	switch f {
	case FlagFavorite:
		return "is_favorite"
	case FlagSavedForLater:
		return "is_saved_for_later"
	case FlagSolved:
		return "is_solved"
	}
	return ""
}

// Route is the path segment under /users used to toggle the flag.
func (f MembershipFlag) Route() string {
	switch f {
	case FlagFavorite:
		return "favorites"
	case FlagSavedForLater:
		return "saved"
	case FlagSolved:
		return "solved"
	}
	return ""
}
