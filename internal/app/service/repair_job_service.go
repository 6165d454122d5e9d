package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"codenotes/internal/common"
	"codenotes/internal/domain/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RepairJobService queues repair jobs on a Redis list. Producers LPUSH and
// the repair worker BRPOPs, so jobs are handled oldest first.
type RepairJobService struct {
	rdb       *redis.Client
	queueName string
}

func NewRepairJobService(rdb *redis.Client, queueName string) *RepairJobService {
	return &RepairJobService{rdb: rdb, queueName: queueName}
}

func (s *RepairJobService) QueueName() string { return s.queueName }

// Enqueue assigns an id and creation time when missing and pushes the job.
func (s *RepairJobService) Enqueue(ctx context.Context, job *model.RepairJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return common.Errorf("failed to marshal repair job: %w", err)
	}
	if err := s.rdb.LPush(ctx, s.queueName, payload).Err(); err != nil {
		return common.Errorf("failed to push repair job %s to Redis queue: %w", job.ID, err)
	}
	return nil
}

// Requeue bumps the attempt counter and puts the job back at the far end
// of the queue so other jobs run before it is retried.
func (s *RepairJobService) Requeue(ctx context.Context, job *model.RepairJob) error {
	job.Attempts++
	return s.push(ctx, job)
}

// Postpone puts the job back at the far end of the queue without using up
// an attempt. It is for jobs that never ran, such as a lock held elsewhere.
func (s *RepairJobService) Postpone(ctx context.Context, job *model.RepairJob) error {
	return s.push(ctx, job)
}

func (s *RepairJobService) push(ctx context.Context, job *model.RepairJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return common.Errorf("failed to marshal repair job: %w", err)
	}
	if err := s.rdb.LPush(ctx, s.queueName, payload).Err(); err != nil {
		return common.Errorf("failed to re-queue repair job %s: %w", job.ID, err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next job. It returns (nil, nil) on
// timeout.
func (s *RepairJobService) Dequeue(ctx context.Context, timeout time.Duration) (*model.RepairJob, error) {
	res, err := s.rdb.BRPop(ctx, timeout, s.queueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// BRPop returns [queueName, value].
	if len(res) < 2 || res[1] == "" {
		return nil, nil
	}
	var job model.RepairJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, common.Errorf("malformed repair job payload: %w", err)
	}
	return &job, nil
}

// Len reports how many jobs are waiting.
func (s *RepairJobService) Len(ctx context.Context) (int64, error) {
	return s.rdb.LLen(ctx, s.queueName).Result()
}
