package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"codenotes/internal/common"
	"codenotes/internal/domain/model"
	"codenotes/internal/domain/repository"
	"codenotes/internal/platform/logger"
)

// ReconcileService rebuilds derived projections from canonical problems:
// topic maps from the problems table, membership sets from the problem
// flags. Every operation is idempotent.
type ReconcileService struct {
	problemRepo repository.ProblemRepository
	topicRepo   repository.TopicRepository
	userRepo    repository.UserRepository
	log         *logger.Logger
}

func NewReconcileService(
	problemRepo repository.ProblemRepository,
	topicRepo repository.TopicRepository,
	userRepo repository.UserRepository,
	log *logger.Logger,
) *ReconcileService {
	if log == nil {
		log = logger.Nop()
	}
	return &ReconcileService{problemRepo: problemRepo, topicRepo: topicRepo, userRepo: userRepo, log: log}
}

// ReconcileTopic makes the topic's embedded map equal the canonical
// problems carrying its id. A missing topic with problems is recreated with
// its id as title. An empty topic is deleted when pruneEmpty is set.
func (s *ReconcileService) ReconcileTopic(ctx context.Context, ownerID, topicID string, pruneEmpty bool) (model.ReconcileReport, error) {
	var report model.ReconcileReport

	problems, err := s.problemRepo.ListByTopic(ctx, ownerID, topicID)
	if err != nil {
		return report, common.Errorf("failed to list canonical problems: %w", err)
	}
	want := make(model.TopicProblems, len(problems))
	for _, p := range problems {
		want[p.ProblemID] = p
	}

	topic, err := s.topicRepo.FindByID(ctx, ownerID, topicID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		if len(want) == 0 {
			return report, nil
		}
		at := timestamp()
		err = s.topicRepo.Create(ctx, &model.Topic{
			TopicID: topicID, Title: topicID, OwnerID: ownerID, Problems: want, CreatedAt: at, UpdatedAt: at,
		})
		if err == nil {
			report.TopicsCreated++
			return report, nil
		}
		if !errors.Is(err, common.ErrDuplicateKey) {
			return report, common.Errorf("failed to recreate topic: %w", err)
		}
		// Created concurrently; rebuild whatever it holds now.
		if topic, err = s.topicRepo.FindByID(ctx, ownerID, topicID); err != nil {
			return report, common.Errorf("failed to load topic: %w", err)
		}
	case err != nil:
		return report, common.Errorf("failed to load topic: %w", err)
	}

	same, err := sameProblems(topic.Problems, want)
	if err != nil {
		return report, err
	}
	if !same {
		if err := s.topicRepo.ReplaceProblems(ctx, ownerID, topicID, want); err != nil {
			return report, common.Errorf("failed to rebuild topic: %w", err)
		}
		report.TopicsRebuilt++
	}

	if len(want) == 0 && pruneEmpty {
		deleted, err := s.topicRepo.DeleteIfEmpty(ctx, ownerID, topicID)
		if err != nil {
			return report, common.Errorf("failed to prune topic: %w", err)
		}
		if deleted {
			report.TopicsPruned++
		}
	}
	return report, nil
}

// sameProblems compares two maps by their JSON encoding, which orders keys
// and normalizes timestamps.
func sameProblems(a, b model.TopicProblems) (bool, error) {
	if len(a) != len(b) {
		return false, nil
	}
	ab, err := json.Marshal(a)
	if err != nil {
		return false, err
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ab, bb), nil
}

// ReconcileMembership makes the membership set agree with the problem's
// flag. A problem that no longer exists is dropped from the set.
func (s *ReconcileService) ReconcileMembership(ctx context.Context, ownerID, problemID string, flag model.MembershipFlag) (model.ReconcileReport, error) {
	var report model.ReconcileReport
	if flag.Column() == "" {
		return report, fmt.Errorf("unknown membership list %q: %w", flag, common.ErrValidation)
	}

	want := false
	problem, err := s.problemRepo.FindByID(ctx, ownerID, problemID)
	switch {
	case err == nil:
		want = problem.Flag(flag)
	case !errors.Is(err, common.ErrNotFound):
		return report, common.Errorf("failed to load problem: %w", err)
	}

	if err := s.userRepo.Ensure(ctx, ownerID, timestamp()); err != nil {
		return report, common.Errorf("failed to ensure user: %w", err)
	}
	user, err := s.userRepo.FindByID(ctx, ownerID)
	if err != nil {
		return report, common.Errorf("failed to load user: %w", err)
	}
	if user.Has(flag, problemID) == want {
		return report, nil
	}
	if err := s.setMember(ctx, ownerID, flag, problemID, want); err != nil {
		return report, err
	}
	report.MembershipsFixed++
	return report, nil
}

func (s *ReconcileService) setMember(ctx context.Context, ownerID string, flag model.MembershipFlag, problemID string, in bool) error {
	var err error
	if in {
		err = s.userRepo.AddMember(ctx, ownerID, flag, problemID)
	} else {
		err = s.userRepo.RemoveMember(ctx, ownerID, flag, problemID)
	}
	if err != nil {
		return common.Errorf("failed to fix %s membership: %w", flag, err)
	}
	return nil
}

// ReconcileOwner runs a full pass over every topic the owner has a record
// or a problem for, then over all three membership sets.
func (s *ReconcileService) ReconcileOwner(ctx context.Context, ownerID string, pruneEmpty bool) (model.ReconcileReport, error) {
	var report model.ReconcileReport

	problems, err := s.problemRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return report, common.Errorf("failed to list canonical problems: %w", err)
	}
	topics, err := s.topicRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return report, common.Errorf("failed to list topics: %w", err)
	}

	topicIDs := map[string]struct{}{}
	for _, t := range topics {
		topicIDs[t.TopicID] = struct{}{}
	}
	for _, p := range problems {
		topicIDs[p.TopicID] = struct{}{}
	}
	ids := make([]string, 0, len(topicIDs))
	for id := range topicIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		r, err := s.ReconcileTopic(ctx, ownerID, id, pruneEmpty)
		if err != nil {
			return report, fmt.Errorf("topic %s: %w", id, err)
		}
		report.Add(r)
	}

	if err := s.userRepo.Ensure(ctx, ownerID, timestamp()); err != nil {
		return report, common.Errorf("failed to ensure user: %w", err)
	}
	user, err := s.userRepo.FindByID(ctx, ownerID)
	if err != nil {
		return report, common.Errorf("failed to load user: %w", err)
	}
	for _, flag := range model.AllFlags {
		want := map[string]bool{}
		for _, p := range problems {
			if p.Flag(flag) {
				want[p.ProblemID] = true
			}
		}
		have := map[string]bool{}
		for _, id := range user.List(flag) {
			have[id] = true
			if !want[id] {
				if err := s.setMember(ctx, ownerID, flag, id, false); err != nil {
					return report, err
				}
				report.MembershipsFixed++
			}
		}
		for _, p := range problems {
			if want[p.ProblemID] && !have[p.ProblemID] {
				if err := s.setMember(ctx, ownerID, flag, p.ProblemID, true); err != nil {
					return report, err
				}
				report.MembershipsFixed++
			}
		}
	}

	s.log.Info("reconciled owner",
		"owner_id", ownerID,
		"topics_rebuilt", report.TopicsRebuilt,
		"topics_created", report.TopicsCreated,
		"topics_pruned", report.TopicsPruned,
		"memberships_fixed", report.MembershipsFixed,
	)
	return report, nil
}

// Apply runs the reconciliation a repair job asks for.
func (s *ReconcileService) Apply(ctx context.Context, job model.RepairJob) (model.ReconcileReport, error) {
	switch job.Kind {
	case model.RepairKindTopic:
		return s.ReconcileTopic(ctx, job.OwnerID, job.TopicID, job.PruneEmpty)
	case model.RepairKindMembership:
		return s.ReconcileMembership(ctx, job.OwnerID, job.ProblemID, job.Flag)
	case model.RepairKindOwner:
		return s.ReconcileOwner(ctx, job.OwnerID, job.PruneEmpty)
	}
	return model.ReconcileReport{}, fmt.Errorf("unknown repair job kind %q: %w", job.Kind, common.ErrValidation)
}
