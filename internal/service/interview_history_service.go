package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/interviews-api/internal/models"
	appErrors "github.com/noah-isme/interviews-api/pkg/errors"
)

type interviewHistoryStore interface {
	List(ctx context.Context) ([]models.InterviewHistoryView, error)
	ListByStudent(ctx context.Context, universityID string) ([]models.InterviewHistoryView, error)
	Upsert(ctx context.Context, record *models.InterviewHistory) (*models.InterviewHistory, error)
	DepartmentName(ctx context.Context, departmentID int) (string, error)
}

// MarkResult is returned after an agent records attendance.
type MarkResult struct {
	Message string                   `json:"message"`
	Record  *models.InterviewHistory `json:"record"`
}

// InterviewHistoryService records which department desks a student attended.
type InterviewHistoryService struct {
	repo      interviewHistoryStore
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInterviewHistoryService constructs InterviewHistoryService.
func NewInterviewHistoryService(repo interviewHistoryStore, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *InterviewHistoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InterviewHistoryService{repo: repo, audit: auditOrDiscard(audit), validator: validate, logger: logger}
}

// List returns all attendance records, newest first.
func (s *InterviewHistoryService) List(ctx context.Context, actor models.Actor) ([]models.InterviewHistoryView, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list interview history")
	}
	s.audit.Record(ctx, actor, "InterviewHistory", "Fetched all interview histories")
	return items, nil
}

// ByStudent returns a student's attendance ordered by department.
func (s *InterviewHistoryService) ByStudent(ctx context.Context, universityID string, actor models.Actor) ([]models.InterviewHistoryView, error) {
	items, err := s.repo.ListByStudent(ctx, universityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load interview history")
	}
	s.audit.Record(ctx, actor, "InterviewHistory", fmt.Sprintf("Viewed interview history for student %s", universityID))
	return items, nil
}

// Mark records attendance at the agent's own department, replacing an earlier mark.
func (s *InterviewHistoryService) Mark(ctx context.Context, req models.MarkAttendanceRequest, actor models.Actor) (*MarkResult, error) {
	req.UniversityID = strings.TrimSpace(req.UniversityID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	attendance, err := models.ParseAttendance(req.Status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status must be Present or Absent")
	}
	if actor.DepartmentID == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "agent is not assigned to a department")
	}
	departmentID := *actor.DepartmentID

	record, err := s.repo.Upsert(ctx, &models.InterviewHistory{
		UniversityID:    req.UniversityID,
		DepartmentID:    departmentID,
		InterviewStatus: attendance,
		ReviewedBy:      actor.UserID,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	department, err := s.repo.DepartmentName(ctx, departmentID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to resolve department name", zap.Int("department_id", departmentID), zap.Error(err))
		}
		department = "Unknown Department"
	}

	s.audit.Record(ctx, actor, "InterviewHistory", fmt.Sprintf("Marked student %s as %s in department %s", req.UniversityID, attendance, department))
	return &MarkResult{
		Message: fmt.Sprintf("Student marked as %s for %s", attendance, department),
		Record:  record,
	}, nil
}
