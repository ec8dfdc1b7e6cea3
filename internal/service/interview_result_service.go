package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/interviews-api/internal/models"
	"github.com/noah-isme/interviews-api/internal/repository"
	appErrors "github.com/noah-isme/interviews-api/pkg/errors"
)

type interviewResultStore interface {
	List(ctx context.Context) ([]models.InterviewResult, error)
	FindByStudent(ctx context.Context, universityID string) (*models.InterviewResult, error)
	Create(ctx context.Context, item *models.InterviewResult) error
	UpdateOutcome(ctx context.Context, universityID string, outcome models.Outcome, ts time.Time) error
	Delete(ctx context.Context, universityID string) error
	ListPresentWithoutResult(ctx context.Context, departmentID int) ([]models.Student, error)
	CollegeSummary(ctx context.Context, rng models.SummaryRange) ([]models.CollegeSummary, error)
}

// InterviewResultService stores the final decision per student.
type InterviewResultService struct {
	repo      interviewResultStore
	cache     *CacheService
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewInterviewResultService constructs InterviewResultService.
func NewInterviewResultService(repo interviewResultStore, cache *CacheService, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *InterviewResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InterviewResultService{repo: repo, cache: cache, audit: auditOrDiscard(audit), validator: validate, logger: logger, now: time.Now}
}

// List returns every decision.
func (s *InterviewResultService) List(ctx context.Context) ([]models.InterviewResult, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list interview results")
	}
	return items, nil
}

// Get returns the decision of one student.
func (s *InterviewResultService) Get(ctx context.Context, universityID string) (*models.InterviewResult, error) {
	item, err := s.repo.FindByStudent(ctx, universityID)
	if err != nil {
		return nil, s.mapError(err, "failed to load interview result")
	}
	return item, nil
}

// Create records the decision, stamped with the agent's department.
func (s *InterviewResultService) Create(ctx context.Context, req models.InterviewResultRequest, actor models.Actor) (*models.InterviewResult, error) {
	outcome, err := s.parse(&req)
	if err != nil {
		return nil, err
	}
	if actor.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user is not authenticated")
	}
	if actor.DepartmentID == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "agent is not assigned to a department")
	}

	item := &models.InterviewResult{
		UniversityID:    req.UniversityID,
		DepartmentID:    *actor.DepartmentID,
		InterviewStatus: outcome,
		Timestamp:       s.now().UTC(),
		ReviewedBy:      actor.UserID,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "result already exists for this student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create interview result")
	}
	s.cache.Invalidate(ctx, cachePatternResults)
	s.audit.Record(ctx, actor, "InterviewResult", fmt.Sprintf("Recorded %s for student %s", outcome, req.UniversityID))
	return item, nil
}

// Update changes the decision. The path id must match the payload.
func (s *InterviewResultService) Update(ctx context.Context, universityID string, req models.InterviewResultRequest, actor models.Actor) error {
	outcome, err := s.parse(&req)
	if err != nil {
		return err
	}
	if universityID != req.UniversityID {
		return appErrors.Clone(appErrors.ErrValidation, "university id mismatch")
	}
	if err := s.repo.UpdateOutcome(ctx, universityID, outcome, s.now().UTC()); err != nil {
		return s.mapError(err, "failed to update interview result")
	}
	s.cache.Invalidate(ctx, cachePatternResults)
	s.audit.Record(ctx, actor, "InterviewResult", fmt.Sprintf("Changed result of student %s to %s", universityID, outcome))
	return nil
}

// Delete removes the decision of a student.
func (s *InterviewResultService) Delete(ctx context.Context, universityID string, actor models.Actor) error {
	if err := s.repo.Delete(ctx, universityID); err != nil {
		return s.mapError(err, "failed to delete interview result")
	}
	s.cache.Invalidate(ctx, cachePatternResults)
	s.audit.Record(ctx, actor, "InterviewResult", fmt.Sprintf("Deleted result of student %s", universityID))
	return nil
}

// Present lists students seen at the personal interview desk who still await a decision.
func (s *InterviewResultService) Present(ctx context.Context) ([]models.Student, error) {
	items, err := s.repo.ListPresentWithoutResult(ctx, models.DepartmentPersonalInterview)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list present students")
	}
	return items, nil
}

// CollegeSummary counts decisions per college. With only From set a single day is used.
func (s *InterviewResultService) CollegeSummary(ctx context.Context, rng models.SummaryRange) ([]models.CollegeSummary, error) {
	if rng.From == nil && rng.To != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate is required when endDate is given")
	}
	if rng.From != nil && rng.To != nil && rng.To.Before(*rng.From) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not be before startDate")
	}

	key := cacheKeyCollegeSummary + summaryKey(rng)
	var cached []models.CollegeSummary
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}
	items, err := s.repo.CollegeSummary(ctx, rng)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise interview results")
	}
	s.cache.Set(ctx, key, items)
	return items, nil
}

func summaryKey(rng models.SummaryRange) string {
	parts := []string{"all", "all"}
	if rng.From != nil {
		parts[0] = rng.From.Format("2006-01-02")
	}
	if rng.To != nil {
		parts[1] = rng.To.Format("2006-01-02")
	}
	return strings.Join(parts, ":")
}

func (s *InterviewResultService) parse(req *models.InterviewResultRequest) (models.Outcome, error) {
	req.UniversityID = strings.TrimSpace(req.UniversityID)
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid result payload")
	}
	outcome, err := models.ParseOutcome(req.Result)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "result must be Accepted, Rejected or Pending")
	}
	return outcome, nil
}

func (s *InterviewResultService) mapError(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "interview result not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
}
