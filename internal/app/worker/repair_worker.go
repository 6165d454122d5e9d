package worker

import (
	"context"
	"errors"
	"time"

	"codenotes/internal/app/service"
	"codenotes/internal/domain/model"
	"codenotes/internal/platform/logger"
	"codenotes/internal/platform/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseLockScript deletes the lock only while it still holds our token.
var releaseLockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

type Options struct {
	LockPrefix  string
	LockTTL     time.Duration
	MaxAttempts int
	// LockBackoff is how long a job whose owner is locked elsewhere waits
	// before it goes back on the queue. Waiting does not use an attempt.
	LockBackoff time.Duration
	// PollTimeout bounds each BRPOP so shutdown is noticed promptly.
	PollTimeout time.Duration
}

// RepairWorker drains the repair queue. Jobs for one owner never run
// concurrently across workers: each job holds a per-owner Redis lock.
type RepairWorker struct {
	rdb       *redis.Client
	jobs      *service.RepairJobService
	reconcile *service.ReconcileService
	log       *logger.Logger
	opts      Options
}

func NewRepairWorker(rdb *redis.Client, jobs *service.RepairJobService, reconcile *service.ReconcileService, log *logger.Logger, opts Options) *RepairWorker {
	if opts.LockTTL <= 0 {
		opts.LockTTL = time.Minute
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 2 * time.Second
	}
	if opts.LockBackoff <= 0 {
		opts.LockBackoff = time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RepairWorker{rdb: rdb, jobs: jobs, reconcile: reconcile, log: log.With("component", "repair_worker"), opts: opts}
}

// Start processes jobs until ctx is cancelled.
func (w *RepairWorker) Start(ctx context.Context) {
	w.log.Info("repair worker started", "queue", w.jobs.QueueName())
	for {
		select {
		case <-ctx.Done():
			w.log.Info("repair worker stopping")
			return
		default:
		}

		job, err := w.jobs.Dequeue(ctx, w.opts.PollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.log.Error("failed to pop repair job", "queue", w.jobs.QueueName(), "error", err)
			sleep(ctx, 5*time.Second)
			continue
		}
		if job == nil {
			continue
		}
		w.ProcessJob(ctx, job)
	}
}

// ProcessJob runs one job under its owner's lock. A job that fails is
// requeued until it has used its attempts; one that cannot take the lock
// is postponed without using an attempt.
func (w *RepairWorker) ProcessJob(ctx context.Context, job *model.RepairJob) {
	lockKey := w.opts.LockPrefix + ":" + job.OwnerID
	lockValue := uuid.NewString()

	ok, err := w.rdb.SetNX(ctx, lockKey, lockValue, w.opts.LockTTL).Result()
	if err != nil {
		w.log.Error("failed to attempt repair lock", "job_id", job.ID, "owner_id", job.OwnerID, "error", err)
		w.retry(ctx, job)
		return
	}
	if !ok {
		w.log.Debug("owner is being repaired elsewhere, postponing", "job_id", job.ID, "owner_id", job.OwnerID)
		w.postpone(ctx, job)
		return
	}
	defer w.releaseLock(lockKey, lockValue, job)

	report, err := w.reconcile.Apply(ctx, *job)
	if err != nil {
		w.log.Warn("repair job failed", "job_id", job.ID, "kind", job.Kind, "owner_id", job.OwnerID, "attempts", job.Attempts, "error", err)
		w.retry(ctx, job)
		return
	}
	metrics.RepairJobs.WithLabelValues(job.Kind, "done").Inc()
	w.log.Info("repair job done",
		"job_id", job.ID,
		"kind", job.Kind,
		"owner_id", job.OwnerID,
		"topic_id", job.TopicID,
		"topics_rebuilt", report.TopicsRebuilt,
		"topics_created", report.TopicsCreated,
		"topics_pruned", report.TopicsPruned,
		"memberships_fixed", report.MembershipsFixed,
	)
}

func (w *RepairWorker) retry(ctx context.Context, job *model.RepairJob) {
	if job.Attempts+1 >= w.opts.MaxAttempts {
		metrics.RepairJobs.WithLabelValues(job.Kind, "dropped").Inc()
		w.log.Error("dropping repair job after max attempts", "job_id", job.ID, "kind", job.Kind, "owner_id", job.OwnerID, "attempts", job.Attempts+1)
		return
	}
	if err := w.jobs.Requeue(context.WithoutCancel(ctx), job); err != nil {
		w.log.Error("failed to re-queue repair job", "job_id", job.ID, "error", err)
		return
	}
	metrics.RepairJobs.WithLabelValues(job.Kind, "requeued").Inc()
}

func (w *RepairWorker) postpone(ctx context.Context, job *model.RepairJob) {
	sleep(ctx, w.opts.LockBackoff)
	if err := w.jobs.Postpone(context.WithoutCancel(ctx), job); err != nil {
		w.log.Error("failed to postpone repair job", "job_id", job.ID, "error", err)
		return
	}
	metrics.RepairJobs.WithLabelValues(job.Kind, "postponed").Inc()
}

func (w *RepairWorker) releaseLock(key, value string, job *model.RepairJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	deleted, err := releaseLockScript.Run(ctx, w.rdb, []string{key}, value).Int64()
	if err != nil {
		w.log.Error("failed to release repair lock", "key", key, "job_id", job.ID, "error", err)
		return
	}
	if deleted != 1 {
		w.log.Warn("repair lock expired before release", "key", key, "job_id", job.ID)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
