package service

import (
	"context"
	"errors"
	"fmt"

	"codenotes/internal/common"
	"codenotes/internal/domain/model"
	"codenotes/internal/domain/repository"
)

// MembershipService maintains the three per-user problem sets together
// with the matching boolean column on each problem.
type MembershipService struct {
	userRepo    repository.UserRepository
	problemRepo repository.ProblemRepository
	topicRepo   repository.TopicRepository
	drift       *DriftReporter
}

func NewMembershipService(
	userRepo repository.UserRepository,
	problemRepo repository.ProblemRepository,
	topicRepo repository.TopicRepository,
	drift *DriftReporter,
) *MembershipService {
	return &MembershipService{userRepo: userRepo, problemRepo: problemRepo, topicRepo: topicRepo, drift: drift}
}

type MembershipRequest struct {
	ProblemID string `json:"problemId" validate:"required,notblank"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

// GetUser returns the caller's profile, creating an empty one on first use.
func (s *MembershipService) GetUser(ctx context.Context, ownerID string) (*model.User, error) {
	if err := s.userRepo.Ensure(ctx, ownerID, timestamp()); err != nil {
		return nil, common.Errorf("failed to ensure user: %w", err)
	}
	return s.userRepo.FindByID(ctx, ownerID)
}

func (s *MembershipService) UpdateProfile(ctx context.Context, ownerID string, req UpdateProfileRequest) (*model.User, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	at := timestamp()
	if err := s.userRepo.Ensure(ctx, ownerID, at); err != nil {
		return nil, common.Errorf("failed to ensure user: %w", err)
	}
	if err := s.userRepo.UpdateName(ctx, ownerID, req.Name, at); err != nil {
		return nil, common.Errorf("failed to update profile: %w", err)
	}
	return s.userRepo.FindByID(ctx, ownerID)
}

// SetMembershipFlag puts problemID in or out of the set named by flag and
// sets the matching column on the problem. Both writes are attempted; if
// only one lands the call still succeeds and the drift is reported. Adding
// requires the problem to exist; removing does not, so stale ids can always
// be cleared.
func (s *MembershipService) SetMembershipFlag(ctx context.Context, ownerID, problemID string, flag model.MembershipFlag, value bool) (*model.User, error) {
	if err := validateStruct(MembershipRequest{ProblemID: problemID}); err != nil {
		return nil, err
	}
	if flag.Column() == "" {
		return nil, fmt.Errorf("unknown membership list %q: %w", flag, common.ErrValidation)
	}
	if value {
		if _, err := s.problemRepo.FindByID(ctx, ownerID, problemID); err != nil {
			return nil, err
		}
	}

	at := timestamp()
	if err := s.userRepo.Ensure(ctx, ownerID, at); err != nil {
		return nil, common.Errorf("failed to ensure user: %w", err)
	}

	var listErr error
	if value {
		listErr = s.userRepo.AddMember(ctx, ownerID, flag, problemID)
	} else {
		listErr = s.userRepo.RemoveMember(ctx, ownerID, flag, problemID)
	}

	updated, flagErr := s.problemRepo.SetFlag(ctx, ownerID, problemID, flag, value, at)
	if errors.Is(flagErr, common.ErrNotFound) && !value {
		flagErr = nil
	}

	if listErr != nil && flagErr != nil {
		return nil, common.Errorf("failed to update %s: %w", flag, errors.Join(listErr, flagErr))
	}
	if listErr != nil || flagErr != nil {
		s.drift.Report(ctx, &common.InconsistencyError{
			Op: "SetMembershipFlag", OwnerID: ownerID, ProblemID: problemID, Err: errors.Join(listErr, flagErr),
		}, model.RepairJob{Kind: model.RepairKindMembership, OwnerID: ownerID, ProblemID: problemID, Flag: flag})
	}

	if updated != nil {
		if err := s.topicRepo.UpsertProblem(ctx, ownerID, updated.TopicID, *updated); err != nil {
			s.drift.Report(ctx, &common.InconsistencyError{
				Op: "SetMembershipFlag.embed", OwnerID: ownerID, TopicID: updated.TopicID, ProblemID: problemID, Err: err,
			}, model.RepairJob{Kind: model.RepairKindTopic, OwnerID: ownerID, TopicID: updated.TopicID})
		}
	}

	user, err := s.userRepo.FindByID(ctx, ownerID)
	if err != nil {
		return nil, common.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
