package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codenotes/internal/app/service"
	"codenotes/internal/common"
	"codenotes/internal/domain/model"
	"codenotes/internal/domain/repository"
	"codenotes/internal/platform/database"
	"codenotes/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	rdb           *redis.Client
	jobs          *service.RepairJobService
	worker        *RepairWorker
	problems      repository.ProblemRepository
	topics        repository.TopicRepository
	lockKeyPrefix string
}

func setupWorker(t *testing.T) *harness {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run repair worker integration tests")
	}
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { rdb.Close() })

	db, err := database.Open(ctx, database.SQLite, filepath.Join(t.TempDir(), "worker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	queueName := "codenotes_test_repair_" + uuid.NewString()
	lockPrefix := "codenotes_test_lock_" + uuid.NewString()
	t.Cleanup(func() { rdb.Del(context.Background(), queueName) })

	problems := repository.NewProblemRepository(db, database.SQLite)
	topics := repository.NewTopicRepository(db, database.SQLite)
	users := repository.NewUserRepository(db, database.SQLite)
	jobs := service.NewRepairJobService(rdb, queueName)
	reconcile := service.NewReconcileService(problems, topics, users, logger.Nop())

	return &harness{
		rdb:  rdb,
		jobs: jobs,
		worker: NewRepairWorker(rdb, jobs, reconcile, logger.Nop(), Options{
			LockPrefix:  lockPrefix,
			LockTTL:     10 * time.Second,
			MaxAttempts: 3,
			LockBackoff: 20 * time.Millisecond,
			PollTimeout: 200 * time.Millisecond,
		}),
		problems:      problems,
		topics:        topics,
		lockKeyPrefix: lockPrefix,
	}
}

func orphanProblem(t *testing.T, h *harness, owner, topic string) model.Problem {
	t.Helper()
	at := time.Now().UTC().Truncate(time.Microsecond)
	p := model.Problem{
		ProblemID: uuid.NewString(), Title: "Two Sum", Statement: model.DefaultStatement,
		Difficulty: model.DifficultyEasy, Language: model.LanguageOther,
		TopicID: topic, OwnerID: owner, CreatedAt: at, UpdatedAt: at,
	}
	require.NoError(t, h.problems.Create(context.Background(), &p))
	return p
}

func TestWorkerRepairsQueuedTopic(t *testing.T) {
	h := setupWorker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := orphanProblem(t, h, "alice", "arrays")
	require.NoError(t, h.jobs.Enqueue(ctx, &model.RepairJob{Kind: model.RepairKindTopic, OwnerID: "alice", TopicID: "arrays"}))

	done := make(chan struct{})
	go func() {
		h.worker.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		topic, err := h.topics.FindByID(context.Background(), "alice", "arrays")
		return err == nil && topic.Problems[p.ProblemID].ProblemID == p.ProblemID
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestWorkerPostponesWhileOwnerLockedWithoutUsingAttempts(t *testing.T) {
	h := setupWorker(t)
	ctx := context.Background()

	orphanProblem(t, h, "bob", "graphs")
	require.NoError(t, h.rdb.Set(ctx, h.lockKeyPrefix+":bob", "someone-else", 10*time.Second).Err())

	// Already on its last attempt; waiting on the lock must not drop it.
	job := &model.RepairJob{ID: "job-1", Kind: model.RepairKindTopic, OwnerID: "bob", TopicID: "graphs", Attempts: 2}
	for i := 0; i < 5; i++ {
		h.worker.ProcessJob(ctx, job)

		n, err := h.jobs.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n, "round %d", i)

		job, err = h.jobs.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, 2, job.Attempts, "round %d", i)
	}
	_, err := h.topics.FindByID(ctx, "bob", "graphs")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// The foreign lock survives our attempt.
	val, err := h.rdb.Get(ctx, h.lockKeyPrefix+":bob").Result()
	require.NoError(t, err)
	assert.Equal(t, "someone-else", val)
}

func TestWorkerDropsAfterMaxAttempts(t *testing.T) {
	h := setupWorker(t)
	ctx := context.Background()

	job := &model.RepairJob{ID: "job-2", Kind: "unknown", OwnerID: "carol", Attempts: 2}
	h.worker.ProcessJob(ctx, job)

	n, err := h.jobs.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	exists, err := h.rdb.Exists(ctx, h.lockKeyPrefix+":carol").Result()
	require.NoError(t, err)
	assert.Zero(t, exists, "lock is released after the job")
}
