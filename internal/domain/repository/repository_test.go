package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"codenotes/internal/common"
	"codenotes/internal/domain/model"
	"codenotes/internal/platform/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type store struct {
	problems ProblemRepository
	topics   TopicRepository
	users    UserRepository
}

// setupStore opens a migrated SQLite database under t.TempDir.
func setupStore(t *testing.T) store {
	t.Helper()
	db, err := database.Open(context.Background(), database.SQLite, filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newStore(db, database.SQLite)
}

func newStore(db *sql.DB, dialect database.Dialect) store {
	return store{
		problems: NewProblemRepository(db, dialect),
		topics:   NewTopicRepository(db, dialect),
		users:    NewUserRepository(db, dialect),
	}
}

// storeTests run against every backend the repositories support.
var storeTests = []struct {
	name string
	run  func(t *testing.T, s store)
}{
	{"ProblemCRUD", testProblemCRUD},
	{"ProblemOwnerScoping", testProblemOwnerScoping},
	{"ProblemUpdateLeavesFlagsAlone", testProblemUpdateLeavesFlagsAlone},
	{"ProblemSetFlagAndListing", testProblemSetFlagAndListing},
	{"TopicEmbeddedMap", testTopicEmbeddedMap},
	{"TopicListUpdateDeleteReplace", testTopicListUpdateDeleteReplace},
	{"UserMemberships", testUserMemberships},
}

func TestSQLiteStore(t *testing.T) {
	for _, tt := range storeTests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, setupStore(t))
		})
	}
}

func now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

func newProblem(owner, topic, title string) model.Problem {
	at := now()
	return model.Problem{
		ProblemID:  uuid.NewString(),
		Title:      title,
		Statement:  "statement of " + title,
		Difficulty: model.DifficultyEasy,
		Language:   model.LanguagePython,
		TopicID:    topic,
		OwnerID:    owner,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}

func testProblemCRUD(t *testing.T, s store) {
	ctx := context.Background()

	p := newProblem("alice", "arrays", "Two Sum")
	require.NoError(t, s.problems.Create(ctx, &p))

	got, err := s.problems.FindByID(ctx, "alice", p.ProblemID)
	require.NoError(t, err)
	assert.Equal(t, p, *got)

	err = s.problems.Create(ctx, &p)
	assert.ErrorIs(t, err, common.ErrDuplicateKey)

	p.Title = "Two Sum II"
	p.Code = "func twoSum() {}"
	p.UpdatedAt = now()
	updated, err := s.problems.Update(ctx, &p)
	require.NoError(t, err)
	assert.Equal(t, p, *updated)
	got, err = s.problems.FindByID(ctx, "alice", p.ProblemID)
	require.NoError(t, err)
	assert.Equal(t, "Two Sum II", got.Title)
	assert.Equal(t, "func twoSum() {}", got.Code)

	deleted, err := s.problems.Delete(ctx, "alice", p.ProblemID)
	require.NoError(t, err)
	assert.Equal(t, p.ProblemID, deleted.ProblemID)

	_, err = s.problems.Delete(ctx, "alice", p.ProblemID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func testProblemOwnerScoping(t *testing.T, s store) {
	ctx := context.Background()

	p := newProblem("alice", "arrays", "Two Sum")
	require.NoError(t, s.problems.Create(ctx, &p))

	_, err := s.problems.FindByID(ctx, "mallory", p.ProblemID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	p2 := p
	p2.OwnerID = "mallory"
	p2.Title = "hijacked"
	_, err = s.problems.Update(ctx, &p2)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = s.problems.SetFlag(ctx, "mallory", p.ProblemID, model.FlagFavorite, true, now())
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = s.problems.Delete(ctx, "mallory", p.ProblemID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	list, err := s.problems.ListByOwner(ctx, "mallory")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testProblemUpdateLeavesFlagsAlone(t *testing.T, s store) {
	ctx := context.Background()

	p := newProblem("alice", "arrays", "Two Sum")
	require.NoError(t, s.problems.Create(ctx, &p))

	// p was read before the flag was set; writing it back must keep the flag.
	_, err := s.problems.SetFlag(ctx, "alice", p.ProblemID, model.FlagFavorite, true, now())
	require.NoError(t, err)

	p.Code = "x"
	p.UpdatedAt = now()
	updated, err := s.problems.Update(ctx, &p)
	require.NoError(t, err)
	assert.Equal(t, "x", updated.Code)
	assert.True(t, updated.IsFavorite)
	assert.False(t, updated.IsSolved)

	got, err := s.problems.FindByID(ctx, "alice", p.ProblemID)
	require.NoError(t, err)
	assert.Equal(t, *updated, *got)
}

func testProblemSetFlagAndListing(t *testing.T, s store) {
	ctx := context.Background()

	a := newProblem("alice", "arrays", "Two Sum")
	b := newProblem("alice", "graphs", "BFS")
	require.NoError(t, s.problems.Create(ctx, &a))
	require.NoError(t, s.problems.Create(ctx, &b))

	for _, flag := range model.AllFlags {
		updated, err := s.problems.SetFlag(ctx, "alice", a.ProblemID, flag, true, now())
		require.NoError(t, err)
		assert.True(t, updated.Flag(flag), flag)
	}

	byTopic, err := s.problems.ListByTopic(ctx, "alice", "arrays")
	require.NoError(t, err)
	require.Len(t, byTopic, 1)
	assert.True(t, byTopic[0].IsFavorite)
	assert.True(t, byTopic[0].IsSavedForLater)
	assert.True(t, byTopic[0].IsSolved)

	all, err := s.problems.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ids, err := s.problems.DeleteByTopic(ctx, "alice", "graphs")
	require.NoError(t, err)
	assert.Equal(t, []string{b.ProblemID}, ids)

	ids, err = s.problems.DeleteByTopic(ctx, "alice", "graphs")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func testTopicEmbeddedMap(t *testing.T, s store) {
	ctx := context.Background()

	p := newProblem("alice", "arrays", "Two Sum")
	topic := &model.Topic{
		TopicID:   "arrays",
		Title:     "Arrays",
		OwnerID:   "alice",
		Problems:  model.TopicProblems{p.ProblemID: p},
		CreatedAt: now(),
		UpdatedAt: now(),
	}
	require.NoError(t, s.topics.Create(ctx, topic))
	assert.ErrorIs(t, s.topics.Create(ctx, topic), common.ErrDuplicateKey)

	got, err := s.topics.FindByID(ctx, "alice", "arrays")
	require.NoError(t, err)
	require.Len(t, got.Problems, 1)
	assert.Equal(t, p, got.Problems[p.ProblemID])

	q := newProblem("alice", "arrays", "Three Sum")
	require.NoError(t, s.topics.UpsertProblem(ctx, "alice", "arrays", q))
	p.Title = "Two Sum (edited)"
	require.NoError(t, s.topics.UpsertProblem(ctx, "alice", "arrays", p))

	got, err = s.topics.FindByID(ctx, "alice", "arrays")
	require.NoError(t, err)
	require.Len(t, got.Problems, 2)
	assert.Equal(t, "Two Sum (edited)", got.Problems[p.ProblemID].Title)
	assert.Equal(t, q, got.Problems[q.ProblemID])

	err = s.topics.UpsertProblem(ctx, "alice", "missing", q)
	assert.ErrorIs(t, err, common.ErrNotFound)
	err = s.topics.UpsertProblem(ctx, "mallory", "arrays", q)
	assert.ErrorIs(t, err, common.ErrNotFound)

	remaining, err := s.topics.RemoveProblem(ctx, "alice", "arrays", p.ProblemID)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	deleted, err := s.topics.DeleteIfEmpty(ctx, "alice", "arrays")
	require.NoError(t, err)
	assert.False(t, deleted)

	remaining, err = s.topics.RemoveProblem(ctx, "alice", "arrays", q.ProblemID)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	deleted, err = s.topics.DeleteIfEmpty(ctx, "alice", "arrays")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = s.topics.FindByID(ctx, "alice", "arrays")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = s.topics.RemoveProblem(ctx, "alice", "arrays", q.ProblemID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func testTopicListUpdateDeleteReplace(t *testing.T, s store) {
	ctx := context.Background()

	for _, id := range []string{"arrays", "graphs"} {
		require.NoError(t, s.topics.Create(ctx, &model.Topic{
			TopicID: id, Title: id, OwnerID: "alice", CreatedAt: now(), UpdatedAt: now(),
		}))
	}
	require.NoError(t, s.topics.Create(ctx, &model.Topic{
		TopicID: "arrays", Title: "Bob's arrays", OwnerID: "bob", CreatedAt: now(), UpdatedAt: now(),
	}))

	topics, err := s.topics.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, topics, 2)
	for _, topic := range topics {
		assert.NotNil(t, topic.Problems)
		assert.Empty(t, topic.Problems)
	}

	updated, err := s.topics.UpdateTitle(ctx, "alice", "arrays", "Arrays & Hashing", now())
	require.NoError(t, err)
	assert.Equal(t, "Arrays & Hashing", updated.Title)
	_, err = s.topics.UpdateTitle(ctx, "alice", "nope", "x", now())
	assert.ErrorIs(t, err, common.ErrNotFound)

	bobs, err := s.topics.FindByID(ctx, "bob", "arrays")
	require.NoError(t, err)
	assert.Equal(t, "Bob's arrays", bobs.Title)

	a := newProblem("alice", "graphs", "BFS")
	b := newProblem("alice", "graphs", "DFS")
	require.NoError(t, s.topics.ReplaceProblems(ctx, "alice", "graphs", model.TopicProblems{a.ProblemID: a, b.ProblemID: b}))
	require.NoError(t, s.topics.ReplaceProblems(ctx, "alice", "graphs", model.TopicProblems{b.ProblemID: b}))
	graphs, err := s.topics.FindByID(ctx, "alice", "graphs")
	require.NoError(t, err)
	assert.Equal(t, model.TopicProblems{b.ProblemID: b}, graphs.Problems)
	assert.ErrorIs(t, s.topics.ReplaceProblems(ctx, "alice", "nope", nil), common.ErrNotFound)

	require.NoError(t, s.topics.Delete(ctx, "alice", "graphs"))
	assert.ErrorIs(t, s.topics.Delete(ctx, "alice", "graphs"), common.ErrNotFound)
}

func testUserMemberships(t *testing.T, s store) {
	ctx := context.Background()

	_, err := s.users.FindByID(ctx, "alice")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, s.users.Ensure(ctx, "alice", now()))
	require.NoError(t, s.users.Ensure(ctx, "alice", now()))

	user, err := s.users.FindByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{}, user.Favorites)
	assert.Equal(t, []string{}, user.SavedForLater)
	assert.Equal(t, []string{}, user.SolvedProblems)

	require.NoError(t, s.users.AddMember(ctx, "alice", model.FlagFavorite, "p2"))
	require.NoError(t, s.users.AddMember(ctx, "alice", model.FlagFavorite, "p1"))
	require.NoError(t, s.users.AddMember(ctx, "alice", model.FlagFavorite, "p1"))
	require.NoError(t, s.users.AddMember(ctx, "alice", model.FlagSolved, "p1"))
	require.NoError(t, s.users.AddMember(ctx, "alice", model.FlagSavedForLater, "p3"))
	require.NoError(t, s.users.RemoveMember(ctx, "alice", model.FlagSavedForLater, "absent"))

	user, err = s.users.FindByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, user.Favorites)
	assert.Equal(t, []string{"p3"}, user.SavedForLater)
	assert.Equal(t, []string{"p1"}, user.SolvedProblems)

	require.NoError(t, s.users.RemoveFromAllLists(ctx, "alice", "p1", "p3"))
	require.NoError(t, s.users.RemoveFromAllLists(ctx, "alice"))
	user, err = s.users.FindByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, user.Favorites)
	assert.Empty(t, user.SavedForLater)
	assert.Empty(t, user.SolvedProblems)

	require.NoError(t, s.users.UpdateName(ctx, "alice", "Alice", now()))
	user, err = s.users.FindByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.ErrorIs(t, s.users.UpdateName(ctx, "nobody", "x", now()), common.ErrNotFound)
}
