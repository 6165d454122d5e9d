package service

import (
	"context"
	"errors"
	"strings"

	"codenotes/internal/common"
	"codenotes/internal/domain/model"
	"codenotes/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type TopicService struct {
	topicRepo   repository.TopicRepository
	problemRepo repository.ProblemRepository
	userRepo    repository.UserRepository
	drift       *DriftReporter
}

func NewTopicService(
	topicRepo repository.TopicRepository,
	problemRepo repository.ProblemRepository,
	userRepo repository.UserRepository,
	drift *DriftReporter,
) *TopicService {
	return &TopicService{topicRepo: topicRepo, problemRepo: problemRepo, userRepo: userRepo, drift: drift}
}

type CreateTopicRequest struct {
	TopicID string `json:"topicId" validate:"omitempty,notblank,max=128"`
	Title   string `json:"title" validate:"required,notblank,max=200"`
}

type UpdateTopicRequest struct {
	Title *string `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
}

func (s *TopicService) ListTopics(ctx context.Context, ownerID string) ([]model.Topic, error) {
	topics, err := s.topicRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, common.Errorf("failed to list topics: %w", err)
	}
	return topics, nil
}

func (s *TopicService) GetTopic(ctx context.Context, ownerID, topicID string) (*model.Topic, error) {
	return s.topicRepo.FindByID(ctx, ownerID, topicID)
}

// CreateTopic creates an empty topic. Without an explicit topicId one is
// derived from the title plus a short random suffix.
func (s *TopicService) CreateTopic(ctx context.Context, ownerID string, req CreateTopicRequest) (*model.Topic, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	topicID := strings.TrimSpace(req.TopicID)
	if topicID == "" {
		topicID = generateTopicID(req.Title)
	}
	at := timestamp()
	topic := &model.Topic{
		TopicID:   topicID,
		Title:     req.Title,
		OwnerID:   ownerID,
		Problems:  model.TopicProblems{},
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := s.topicRepo.Create(ctx, topic); err != nil {
		if errors.Is(err, common.ErrDuplicateKey) {
			return nil, err
		}
		return nil, common.Errorf("failed to create topic: %w", err)
	}
	return topic, nil
}

func generateTopicID(title string) string {
	base := slug.Make(title)
	if base == "" {
		base = "topic"
	}
	return base + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

func (s *TopicService) UpdateTopic(ctx context.Context, ownerID, topicID string, req UpdateTopicRequest) (*model.Topic, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Title == nil {
		return s.topicRepo.FindByID(ctx, ownerID, topicID)
	}
	return s.topicRepo.UpdateTitle(ctx, ownerID, topicID, *req.Title, timestamp())
}

// DeleteTopic deletes every problem of the topic before the topic itself,
// so a deleted topic never leaves problems behind. The problems are
// deleted even when the topic record is missing; the call still reports
// ErrNotFound in that case.
func (s *TopicService) DeleteTopic(ctx context.Context, ownerID, topicID string) error {
	deletedIDs, err := s.problemRepo.DeleteByTopic(ctx, ownerID, topicID)
	if err != nil {
		return common.Errorf("failed to delete problems of topic: %w", err)
	}

	if len(deletedIDs) > 0 {
		if err := s.userRepo.RemoveFromAllLists(ctx, ownerID, deletedIDs...); err != nil {
			s.drift.Report(ctx, &common.InconsistencyError{
				Op: "DeleteTopic.memberships", OwnerID: ownerID, TopicID: topicID, Err: err,
			}, model.RepairJob{Kind: model.RepairKindOwner, OwnerID: ownerID})
		}
	}

	if err := s.topicRepo.Delete(ctx, ownerID, topicID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		if len(deletedIDs) > 0 {
			s.drift.Report(ctx, &common.InconsistencyError{
				Op: "DeleteTopic", OwnerID: ownerID, TopicID: topicID, Err: err,
			}, model.RepairJob{Kind: model.RepairKindTopic, OwnerID: ownerID, TopicID: topicID, PruneEmpty: true})
		}
		return common.Errorf("failed to delete topic: %w", err)
	}
	return nil
}
