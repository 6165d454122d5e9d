package client

import (
	"codenotes/internal/domain/model"
)

// State is everything the client remembers between runs. It is persisted
// as one record and replaced wholesale.
type State struct {
	User             *model.User     `json:"user"`
	Token            string          `json:"token"`
	Topics           []model.Topic   `json:"topics"`
	SelectedTopic    *model.Topic    `json:"selectedTopic"`
	SelectedProblem  *model.Problem  `json:"selectedProblem"`
	IsDarkMode       bool            `json:"isDarkMode"`
	IsSidebarVisible bool            `json:"isSidebarVisible"`
	SearchResults    []model.Problem `json:"searchResults"`
}

// emptyState is the state of a fresh install or of a logged out session.
func emptyState() State {
	return State{
		Topics:           []model.Topic{},
		IsSidebarVisible: true,
		SearchResults:    []model.Problem{},
	}
}

func (s State) IsAuthenticated() bool {
	return s.Token != ""
}

// clone deep-copies the parts of s a caller could mutate.
func (s State) clone() State {
	out := s
	out.Topics = make([]model.Topic, len(s.Topics))
	for i, t := range s.Topics {
		t.Problems = t.Problems.Clone()
		out.Topics[i] = t
	}
	out.SearchResults = append([]model.Problem{}, s.SearchResults...)
	if s.User != nil {
		u := *s.User
		u.Favorites = append([]string(nil), u.Favorites...)
		u.SavedForLater = append([]string(nil), u.SavedForLater...)
		u.SolvedProblems = append([]string(nil), u.SolvedProblems...)
		out.User = &u
	}
	if s.SelectedTopic != nil {
		t := *s.SelectedTopic
		t.Problems = t.Problems.Clone()
		out.SelectedTopic = &t
	}
	if s.SelectedProblem != nil {
		p := *s.SelectedProblem
		out.SelectedProblem = &p
	}
	return out
}

func (s *State) topicIndex(topicID string) int {
	for i, t := range s.Topics {
		if t.TopicID == topicID {
			return i
		}
	}
	return -1
}

// findProblem returns the cached copy of a problem and the index of the
// topic holding it.
func (s *State) findProblem(problemID string) (model.Problem, int, bool) {
	for i, t := range s.Topics {
		if p, ok := t.Problems[problemID]; ok {
			return p, i, true
		}
	}
	return model.Problem{}, -1, false
}

// putProblem stores p under its topic, creating the topic locally when it
// is not cached. title names such a topic; empty means the topic id.
func (s *State) putProblem(p model.Problem, title string) {
	if i := s.topicIndex(p.TopicID); i >= 0 {
		problems := s.Topics[i].Problems.Clone()
		problems[p.ProblemID] = p
		s.Topics[i].Problems = problems
	} else {
		if title == "" {
			title = p.TopicID
		}
		s.Topics = append(s.Topics, model.Topic{
			TopicID:  p.TopicID,
			Title:    title,
			OwnerID:  p.OwnerID,
			Problems: model.TopicProblems{p.ProblemID: p},
		})
	}
	s.syncSelection(p)
}

// syncSelection keeps the selection aliases pointing at the latest copy.
func (s *State) syncSelection(p model.Problem) {
	if s.SelectedProblem != nil && s.SelectedProblem.ProblemID == p.ProblemID {
		cp := p
		s.SelectedProblem = &cp
	}
	if s.SelectedTopic != nil && s.SelectedTopic.TopicID == p.TopicID {
		if i := s.topicIndex(p.TopicID); i >= 0 {
			t := s.Topics[i]
			t.Problems = t.Problems.Clone()
			s.SelectedTopic = &t
		}
	}
}

// syncSelectedTopic refreshes or clears the selected topic after the topic
// list changed.
func (s *State) syncSelectedTopic() {
	if s.SelectedTopic == nil {
		return
	}
	i := s.topicIndex(s.SelectedTopic.TopicID)
	if i < 0 {
		s.SelectedTopic = nil
		return
	}
	t := s.Topics[i]
	t.Problems = t.Problems.Clone()
	s.SelectedTopic = &t
}

// syncSelectedProblem drops or refreshes the selected problem after a full
// resync.
func (s *State) syncSelectedProblem() {
	if s.SelectedProblem == nil {
		return
	}
	p, _, ok := s.findProblem(s.SelectedProblem.ProblemID)
	if !ok {
		s.SelectedProblem = nil
		return
	}
	s.SelectedProblem = &p
}
