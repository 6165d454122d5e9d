package service

import (
	"context"
	"errors"

	"codenotes/internal/common"
	"codenotes/internal/domain/model"
	"codenotes/internal/platform/logger"
	"codenotes/internal/platform/metrics"
)

// RepairQueue accepts repair jobs for asynchronous reconciliation.
type RepairQueue interface {
	Enqueue(ctx context.Context, job *model.RepairJob) error
}

// DriftReporter records projection writes that failed after their canonical
// write succeeded. It never fails the caller's operation.
type DriftReporter struct {
	log   *logger.Logger
	queue RepairQueue
}

// NewDriftReporter builds a reporter. queue may be nil, in which case drift
// is only logged and counted and waits for the next reconcile.
func NewDriftReporter(log *logger.Logger, queue RepairQueue) *DriftReporter {
	if log == nil {
		log = logger.Nop()
	}
	return &DriftReporter{log: log, queue: queue}
}

// Report logs e, bumps the drift counter and schedules job.
func (d *DriftReporter) Report(ctx context.Context, e *common.InconsistencyError, job model.RepairJob) {
	d.log.Warn("projection drift",
		"op", e.Op,
		"owner_id", e.OwnerID,
		"topic_id", e.TopicID,
		"problem_id", e.ProblemID,
		"error", e.Err,
	)
	metrics.ProjectionDrift.WithLabelValues(e.Op).Inc()

	if d.queue == nil {
		return
	}
	if job.Reason == "" {
		job.Reason = e.Op
	}
	// The request may already be cancelled when a projection write failed
	// because of it; the repair must still be scheduled.
	enqueueCtx := context.WithoutCancel(ctx)
	if err := d.queue.Enqueue(enqueueCtx, &job); err != nil {
		metrics.RepairJobs.WithLabelValues(job.Kind, "enqueue_failed").Inc()
		d.log.Error("failed to enqueue repair job", "kind", job.Kind, "owner_id", job.OwnerID, "error", err)
		return
	}
	metrics.RepairJobs.WithLabelValues(job.Kind, "enqueued").Inc()
}

// IsInconsistency reports whether err came from a failed projection write.
func IsInconsistency(err error) bool {
	return errors.Is(err, common.ErrInconsistency)
}
