package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"codenotes/internal/app/service"
	"codenotes/internal/common"
	"codenotes/internal/domain/model"
	"codenotes/internal/platform/logger"
	"codenotes/internal/search"
)

var (
	ErrNotAuthenticated = errors.New("not logged in")
	// ErrToggleInFlight rejects a flag toggle while an earlier toggle of the
	// same problem is still waiting for the server.
	ErrToggleInFlight = errors.New("a change to this problem is still in flight")
	// ErrMissingIdentity means the server accepted a create but returned no
	// problem id to merge under.
	ErrMissingIdentity = errors.New("server response carried no problem id")
)

// Remote is the part of the server API a Session drives.
type Remote interface {
	ListTopics(ctx context.Context, token string) ([]model.Topic, error)
	CreateTopic(ctx context.Context, token string, req service.CreateTopicRequest) (*model.Topic, error)
	UpdateTopic(ctx context.Context, token, topicID string, req service.UpdateTopicRequest) (*model.Topic, error)
	DeleteTopic(ctx context.Context, token, topicID string) error
	ListProblems(ctx context.Context, token string) ([]model.Problem, error)
	CreateProblem(ctx context.Context, token string, req service.CreateProblemRequest) (*model.Problem, error)
	UpdateProblem(ctx context.Context, token, problemID string, req service.UpdateProblemRequest) (*model.Problem, error)
	DeleteProblem(ctx context.Context, token, problemID string) error
	SetMembership(ctx context.Context, token string, flag model.MembershipFlag, problemID string, value bool) (*model.User, error)
	Profile(ctx context.Context, token string) (*model.User, error)
	UpdateProfile(ctx context.Context, token string, req service.UpdateProfileRequest) (*model.User, error)
}

// Session mirrors one user's topics and problems. Writes are
// confirm-then-merge: local state changes only after the server accepted
// the call, and a failed call leaves it untouched. Every merge is saved
// through the Persister.
type Session struct {
	mu       sync.Mutex
	api      Remote
	store    Persister
	log      *logger.Logger
	state    State
	inFlight map[string]bool
}

func NewSession(api Remote, store Persister, log *logger.Logger) *Session {
	if log == nil {
		log = logger.Nop()
	}
	return &Session{
		api:      api,
		store:    store,
		log:      log.With("component", "client_session"),
		state:    emptyState(),
		inFlight: map[string]bool{},
	}
}

// Load restores the saved state. Nothing saved leaves the session empty.
func (s *Session) Load() error {
	if s.store == nil {
		return nil
	}
	saved, err := s.store.Load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if saved == nil {
		s.state = emptyState()
		return nil
	}
	if saved.Topics == nil {
		saved.Topics = []model.Topic{}
	}
	for i := range saved.Topics {
		if saved.Topics[i].Problems == nil {
			saved.Topics[i].Problems = model.TopicProblems{}
		}
	}
	if saved.SearchResults == nil {
		saved.SearchResults = []model.Problem{}
	}
	s.state = *saved
	return nil
}

// Login stores the identity and token obtained from the auth service.
func (s *Session) Login(user model.User, token string) error {
	if token == "" {
		return fmt.Errorf("%w: empty token", common.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.User = &user
	s.state.Token = token
	s.persistLocked()
	return nil
}

// Logout forgets everything, in memory and on disk.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = emptyState()
	s.inFlight = map[string]bool{}
	if s.store == nil {
		return nil
	}
	return s.store.Clear()
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Session) token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Token == "" {
		return "", ErrNotAuthenticated
	}
	return s.state.Token, nil
}

// persistLocked saves the state. A failed save does not undo the merge;
// the next successful save catches up.
func (s *Session) persistLocked() {
	if s.store == nil {
		return
	}
	if err := s.store.Save(s.state); err != nil {
		s.log.Warn("failed to persist client state", "error", err)
	}
}

// RefreshUser reloads the profile and membership lists from the server.
func (s *Session) RefreshUser(ctx context.Context) (*model.User, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	user, err := s.api.Profile(ctx, token)
	if err != nil {
		s.log.Error("failed to fetch profile", "error", err)
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.User = user
	s.persistLocked()
	return user, nil
}

func (s *Session) UpdateProfile(ctx context.Context, name string) (*model.User, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	user, err := s.api.UpdateProfile(ctx, token, service.UpdateProfileRequest{Name: name})
	if err != nil {
		s.log.Error("failed to update profile", "error", err)
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.User = user
	s.persistLocked()
	return user, nil
}

// FetchTopics replaces the cached topics with the server's.
func (s *Session) FetchTopics(ctx context.Context) error {
	token, err := s.token()
	if err != nil {
		return err
	}
	topics, err := s.api.ListTopics(ctx, token)
	if err != nil {
		s.log.Error("failed to fetch topics", "error", err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Topics = make([]model.Topic, 0, len(topics))
	for _, t := range topics {
		if t.Problems == nil {
			t.Problems = model.TopicProblems{}
		}
		s.state.Topics = append(s.state.Topics, t)
	}
	s.state.syncSelectedTopic()
	s.state.syncSelectedProblem()
	s.persistLocked()
	return nil
}

// FetchProblems rebuilds every topic's problems from the canonical problem
// list. A problem whose topic is not cached gets a topic reconstructed for
// it, so drift in the server's embedded copies does not hide problems.
func (s *Session) FetchProblems(ctx context.Context) error {
	token, err := s.token()
	if err != nil {
		return err
	}
	problems, err := s.api.ListProblems(ctx, token)
	if err != nil {
		s.log.Error("failed to fetch problems", "error", err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Topics {
		s.state.Topics[i].Problems = model.TopicProblems{}
	}
	reconstructed := 0
	for _, p := range problems {
		if s.state.topicIndex(p.TopicID) < 0 {
			reconstructed++
		}
		s.state.putProblem(p, "")
	}
	if reconstructed > 0 {
		s.log.Info("reconstructed topics missing from topic list", "count", reconstructed)
	}
	s.state.syncSelectedTopic()
	s.state.syncSelectedProblem()
	s.persistLocked()
	return nil
}

// Refresh is a full resync: topics, then problems.
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.FetchTopics(ctx); err != nil {
		return err
	}
	return s.FetchProblems(ctx)
}

// AddTopic creates a topic. An empty topicID lets the server derive one.
func (s *Session) AddTopic(ctx context.Context, topicID, title string) (*model.Topic, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	topic, err := s.api.CreateTopic(ctx, token, service.CreateTopicRequest{TopicID: topicID, Title: title})
	if err != nil {
		s.log.Error("failed to add topic", "title", title, "error", err)
		return nil, err
	}
	if topic.Problems == nil {
		topic.Problems = model.TopicProblems{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeTopicLocked(*topic)
	s.persistLocked()
	return topic, nil
}

func (s *Session) UpdateTopic(ctx context.Context, topicID, title string) (*model.Topic, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	topic, err := s.api.UpdateTopic(ctx, token, topicID, service.UpdateTopicRequest{Title: &title})
	if err != nil {
		s.log.Error("failed to update topic", "topic_id", topicID, "error", err)
		return nil, err
	}
	if topic.Problems == nil {
		topic.Problems = model.TopicProblems{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeTopicLocked(*topic)
	s.persistLocked()
	return topic, nil
}

func (s *Session) mergeTopicLocked(t model.Topic) {
	if i := s.state.topicIndex(t.TopicID); i >= 0 {
		s.state.Topics[i] = t
	} else {
		s.state.Topics = append(s.state.Topics, t)
	}
	s.state.syncSelectedTopic()
}

// DeleteTopic removes the topic and its problems once the server confirms.
func (s *Session) DeleteTopic(ctx context.Context, topicID string) error {
	token, err := s.token()
	if err != nil {
		return err
	}
	if err := s.api.DeleteTopic(ctx, token, topicID); err != nil {
		s.log.Error("failed to delete topic", "topic_id", topicID, "error", err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.state.topicIndex(topicID); i >= 0 {
		s.state.Topics = append(s.state.Topics[:i], s.state.Topics[i+1:]...)
	}
	if s.state.SelectedProblem != nil && s.state.SelectedProblem.TopicID == topicID {
		s.state.SelectedProblem = nil
	}
	s.state.syncSelectedTopic()
	s.persistLocked()
	return nil
}

// CreateProblem creates a problem and merges it under its topic, creating
// the topic locally when needed.
func (s *Session) CreateProblem(ctx context.Context, req service.CreateProblemRequest) (*model.Problem, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	p, err := s.api.CreateProblem(ctx, token, req)
	if err != nil {
		s.log.Error("failed to create problem", "topic_id", req.TopicID, "error", err)
		return nil, err
	}
	if p.ProblemID == "" {
		s.log.Error("create problem returned no id", "topic_id", req.TopicID)
		return nil, ErrMissingIdentity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	title := req.TopicTitle
	if title == "" {
		title = req.TopicID
	}
	s.state.putProblem(*p, title)
	s.persistLocked()
	return p, nil
}

func (s *Session) UpdateProblem(ctx context.Context, problemID string, req service.UpdateProblemRequest) (*model.Problem, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	p, err := s.api.UpdateProblem(ctx, token, problemID, req)
	if err != nil {
		s.log.Error("failed to update problem", "problem_id", problemID, "error", err)
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.putProblem(*p, "")
	s.persistLocked()
	return p, nil
}

// DeleteProblem removes the problem, drops its topic if that left it
// empty and clears the selection when it pointed at the problem.
func (s *Session) DeleteProblem(ctx context.Context, problemID string) error {
	token, err := s.token()
	if err != nil {
		return err
	}
	if err := s.api.DeleteProblem(ctx, token, problemID); err != nil {
		s.log.Error("failed to delete problem", "problem_id", problemID, "error", err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, i, ok := s.state.findProblem(problemID); ok {
		problems := s.state.Topics[i].Problems.Clone()
		delete(problems, problemID)
		if len(problems) == 0 {
			s.state.Topics = append(s.state.Topics[:i], s.state.Topics[i+1:]...)
		} else {
			s.state.Topics[i].Problems = problems
		}
	}
	if s.state.SelectedProblem != nil && s.state.SelectedProblem.ProblemID == problemID {
		s.state.SelectedProblem = nil
	}
	s.state.syncSelectedTopic()
	s.persistLocked()
	return nil
}

func (s *Session) ToggleFavorite(ctx context.Context, problemID string) (*model.Problem, error) {
	return s.setFlag(ctx, problemID, model.FlagFavorite, nil)
}

func (s *Session) ToggleSavedForLater(ctx context.Context, problemID string) (*model.Problem, error) {
	return s.setFlag(ctx, problemID, model.FlagSavedForLater, nil)
}

func (s *Session) ToggleSolved(ctx context.Context, problemID string) (*model.Problem, error) {
	return s.setFlag(ctx, problemID, model.FlagSolved, nil)
}

// UnmarkSolved clears the solved flag whatever the cached value says.
func (s *Session) UnmarkSolved(ctx context.Context, problemID string) (*model.Problem, error) {
	value := false
	return s.setFlag(ctx, problemID, model.FlagSolved, &value)
}

// setFlag sends the add or remove call for flag. A nil value inverts the
// cached flag. On success the cached problem, the selection alias and the
// user's lists are updated together.
func (s *Session) setFlag(ctx context.Context, problemID string, flag model.MembershipFlag, value *bool) (*model.Problem, error) {
	s.mu.Lock()
	if s.state.Token == "" {
		s.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	token := s.state.Token
	p, _, ok := s.state.findProblem(problemID)
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("problem %s is not cached: %w", problemID, common.ErrNotFound)
	}
	if s.inFlight[problemID] {
		s.mu.Unlock()
		return nil, ErrToggleInFlight
	}
	next := !p.Flag(flag)
	if value != nil {
		next = *value
	}
	s.inFlight[problemID] = true
	s.mu.Unlock()

	user, err := s.api.SetMembership(ctx, token, flag, problemID, next)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, problemID)
	if err != nil {
		s.log.Error("failed to toggle membership", "problem_id", problemID, "flag", flag, "error", err)
		return nil, err
	}

	s.state.User = user
	current, _, ok := s.state.findProblem(problemID)
	if !ok {
		// Deleted or resynced away while the call was out.
		s.persistLocked()
		updated := p.WithFlag(flag, next)
		return &updated, nil
	}
	updated := current.WithFlag(flag, next)
	s.state.putProblem(updated, "")
	s.persistLocked()
	return &updated, nil
}

// SelectTopic selects a cached topic. An empty id clears the selection.
func (s *Session) SelectTopic(topicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if topicID == "" {
		s.state.SelectedTopic = nil
		s.persistLocked()
		return nil
	}
	i := s.state.topicIndex(topicID)
	if i < 0 {
		return fmt.Errorf("topic %s is not cached: %w", topicID, common.ErrNotFound)
	}
	t := s.state.Topics[i]
	t.Problems = t.Problems.Clone()
	s.state.SelectedTopic = &t
	s.persistLocked()
	return nil
}

// SelectProblem selects a cached problem. An empty id clears the selection.
func (s *Session) SelectProblem(problemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if problemID == "" {
		s.state.SelectedProblem = nil
		s.persistLocked()
		return nil
	}
	p, _, ok := s.state.findProblem(problemID)
	if !ok {
		return fmt.Errorf("problem %s is not cached: %w", problemID, common.ErrNotFound)
	}
	s.state.SelectedProblem = &p
	s.persistLocked()
	return nil
}

func (s *Session) ToggleDarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsDarkMode = !s.state.IsDarkMode
	s.persistLocked()
	return s.state.IsDarkMode
}

func (s *Session) ToggleSidebar() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsSidebarVisible = !s.state.IsSidebarVisible
	s.persistLocked()
	return s.state.IsSidebarVisible
}

// Search runs q over the cached topics and keeps the result as the
// current search results.
func (s *Session) Search(q string) []model.Problem {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SearchResults = search.Query(s.state.Topics, q)
	s.persistLocked()
	return append([]model.Problem{}, s.state.SearchResults...)
}

func (s *Session) Favorites() []model.Problem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return search.Favorites(s.state.Topics)
}

func (s *Session) SavedForLater() []model.Problem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return search.SavedForLater(s.state.Topics)
}

func (s *Session) Solved() []model.Problem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return search.Solved(s.state.Topics)
}
