package service

import (
	"context"
	"errors"

	"codenotes/internal/common"
	"codenotes/internal/domain/model"
	"codenotes/internal/domain/repository"

	"github.com/google/uuid"
)

// ProblemService writes canonical problems and keeps the embedded copy in
// the owning topic and the membership sets in step with them.
type ProblemService struct {
	problemRepo repository.ProblemRepository
	topicRepo   repository.TopicRepository
	userRepo    repository.UserRepository
	drift       *DriftReporter
}

func NewProblemService(
	problemRepo repository.ProblemRepository,
	topicRepo repository.TopicRepository,
	userRepo repository.UserRepository,
	drift *DriftReporter,
) *ProblemService {
	return &ProblemService{
		problemRepo: problemRepo,
		topicRepo:   topicRepo,
		userRepo:    userRepo,
		drift:       drift,
	}
}

type CreateProblemRequest struct {
	Title           string                  `json:"title" validate:"required,notblank"`
	Statement       string                  `json:"statement"`
	Difficulty      model.ProblemDifficulty `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	Language        model.Language          `json:"language" validate:"omitempty,language"`
	Constraints     string                  `json:"constraints"`
	Explanation     string                  `json:"explanation"`
	Code            string                  `json:"code"`
	TimeComplexity  string                  `json:"timeComplexity"`
	SpaceComplexity string                  `json:"spaceComplexity"`
	TopicID         string                  `json:"topicId" validate:"required,notblank"`
	// TopicTitle names the topic when this problem has to create it.
	TopicTitle string `json:"topicTitle"`
}

// UpdateProblemRequest is a partial update. topicId, ownerId and the
// membership flags are not part of it; flags change through the membership
// endpoints only.
type UpdateProblemRequest struct {
	Title           *string                  `json:"title,omitempty" validate:"omitempty,notblank"`
	Statement       *string                  `json:"statement,omitempty"`
	Difficulty      *model.ProblemDifficulty `json:"difficulty,omitempty" validate:"omitempty,oneof=Easy Medium Hard"`
	Language        *model.Language          `json:"language,omitempty" validate:"omitempty,language"`
	Constraints     *string                  `json:"constraints,omitempty"`
	Explanation     *string                  `json:"explanation,omitempty"`
	Code            *string                  `json:"code,omitempty"`
	TimeComplexity  *string                  `json:"timeComplexity,omitempty"`
	SpaceComplexity *string                  `json:"spaceComplexity,omitempty"`
}

func (s *ProblemService) ListProblems(ctx context.Context, ownerID string) ([]model.Problem, error) {
	problems, err := s.problemRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, common.Errorf("failed to list problems: %w", err)
	}
	return problems, nil
}

func (s *ProblemService) GetProblem(ctx context.Context, ownerID, problemID string) (*model.Problem, error) {
	return s.problemRepo.FindByID(ctx, ownerID, problemID)
}

// CreateProblem stores the canonical record first, then embeds it in its
// topic, creating the topic when it does not exist yet. A failed embed is
// reported as drift; the created problem is still returned.
func (s *ProblemService) CreateProblem(ctx context.Context, ownerID string, req CreateProblemRequest) (*model.Problem, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	at := timestamp()
	problem := &model.Problem{
		ProblemID:       uuid.NewString(),
		Title:           req.Title,
		Statement:       req.Statement,
		Difficulty:      req.Difficulty,
		Language:        req.Language,
		Constraints:     req.Constraints,
		Explanation:     req.Explanation,
		Code:            req.Code,
		TimeComplexity:  req.TimeComplexity,
		SpaceComplexity: req.SpaceComplexity,
		TopicID:         req.TopicID,
		OwnerID:         ownerID,
		CreatedAt:       at,
		UpdatedAt:       at,
	}
	if problem.Statement == "" {
		problem.Statement = model.DefaultStatement
	}
	if problem.Language == "" {
		problem.Language = model.LanguageOther
	}

	if err := s.problemRepo.Create(ctx, problem); err != nil {
		return nil, common.Errorf("failed to create problem: %w", err)
	}

	if err := s.embed(ctx, *problem, req.TopicTitle); err != nil {
		s.drift.Report(ctx, &common.InconsistencyError{
			Op: "CreateProblem", OwnerID: ownerID, TopicID: problem.TopicID, ProblemID: problem.ProblemID, Err: err,
		}, model.RepairJob{Kind: model.RepairKindTopic, OwnerID: ownerID, TopicID: problem.TopicID})
	}
	return problem, nil
}

// embed upserts p into its topic, creating the topic on first use. A topic
// created concurrently by another request is retried once as an upsert.
func (s *ProblemService) embed(ctx context.Context, p model.Problem, topicTitle string) error {
	err := s.topicRepo.UpsertProblem(ctx, p.OwnerID, p.TopicID, p)
	if !errors.Is(err, common.ErrNotFound) {
		return err
	}

	if topicTitle == "" {
		topicTitle = p.TopicID
	}
	topic := &model.Topic{
		TopicID:   p.TopicID,
		Title:     topicTitle,
		OwnerID:   p.OwnerID,
		Problems:  model.TopicProblems{p.ProblemID: p},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.CreatedAt,
	}
	err = s.topicRepo.Create(ctx, topic)
	if errors.Is(err, common.ErrDuplicateKey) {
		return s.topicRepo.UpsertProblem(ctx, p.OwnerID, p.TopicID, p)
	}
	return err
}

// UpdateProblem applies the patch to the canonical record and copies the
// stored result into the owning topic. Membership flags set concurrently
// survive since the update never writes them.
func (s *ProblemService) UpdateProblem(ctx context.Context, ownerID, problemID string, req UpdateProblemRequest) (*model.Problem, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	problem, err := s.problemRepo.FindByID(ctx, ownerID, problemID)
	if err != nil {
		return nil, err
	}
	applyProblemPatch(problem, req)
	problem.UpdatedAt = timestamp()

	problem, err = s.problemRepo.Update(ctx, problem)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, common.Errorf("failed to update problem: %w", err)
	}

	if err := s.topicRepo.UpsertProblem(ctx, ownerID, problem.TopicID, *problem); err != nil {
		s.drift.Report(ctx, &common.InconsistencyError{
			Op: "UpdateProblem", OwnerID: ownerID, TopicID: problem.TopicID, ProblemID: problemID, Err: err,
		}, model.RepairJob{Kind: model.RepairKindTopic, OwnerID: ownerID, TopicID: problem.TopicID})
	}
	return problem, nil
}

func applyProblemPatch(p *model.Problem, req UpdateProblemRequest) {
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Statement != nil {
		p.Statement = *req.Statement
	}
	if req.Difficulty != nil {
		p.Difficulty = *req.Difficulty
	}
	if req.Language != nil {
		p.Language = *req.Language
	}
	if req.Constraints != nil {
		p.Constraints = *req.Constraints
	}
	if req.Explanation != nil {
		p.Explanation = *req.Explanation
	}
	if req.Code != nil {
		p.Code = *req.Code
	}
	if req.TimeComplexity != nil {
		p.TimeComplexity = *req.TimeComplexity
	}
	if req.SpaceComplexity != nil {
		p.SpaceComplexity = *req.SpaceComplexity
	}
}

// DeleteProblem removes the canonical record, then its embedded copy, then
// the topic if that left it empty, then the id from every membership set.
func (s *ProblemService) DeleteProblem(ctx context.Context, ownerID, problemID string) error {
	deleted, err := s.problemRepo.Delete(ctx, ownerID, problemID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return common.Errorf("failed to delete problem: %w", err)
	}

	if err := s.unembed(ctx, ownerID, deleted.TopicID, problemID); err != nil {
		s.drift.Report(ctx, &common.InconsistencyError{
			Op: "DeleteProblem", OwnerID: ownerID, TopicID: deleted.TopicID, ProblemID: problemID, Err: err,
		}, model.RepairJob{Kind: model.RepairKindTopic, OwnerID: ownerID, TopicID: deleted.TopicID, PruneEmpty: true})
	}

	if err := s.userRepo.RemoveFromAllLists(ctx, ownerID, problemID); err != nil {
		s.drift.Report(ctx, &common.InconsistencyError{
			Op: "DeleteProblem.memberships", OwnerID: ownerID, TopicID: deleted.TopicID, ProblemID: problemID, Err: err,
		}, model.RepairJob{Kind: model.RepairKindOwner, OwnerID: ownerID})
	}
	return nil
}

func (s *ProblemService) unembed(ctx context.Context, ownerID, topicID, problemID string) error {
	remaining, err := s.topicRepo.RemoveProblem(ctx, ownerID, topicID, problemID)
	if errors.Is(err, common.ErrNotFound) {
		// Topic already gone; nothing embeds the problem any more.
		return nil
	}
	if err != nil {
		return err
	}
	if remaining == 0 {
		_, err = s.topicRepo.DeleteIfEmpty(ctx, ownerID, topicID)
	}
	return err
}
