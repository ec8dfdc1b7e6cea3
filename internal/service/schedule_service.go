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
	"github.com/noah-isme/interviews-api/internal/repository"
	appErrors "github.com/noah-isme/interviews-api/pkg/errors"
)

type scheduleStore interface {
	Create(ctx context.Context, schedule *models.InterviewSchedule) error
	List(ctx context.Context) ([]models.ScheduleDetail, error)
	GetDetail(ctx context.Context, id int64) (*models.ScheduleDetail, error)
	CountBookings(ctx context.Context, id int64) (int, error)
	Update(ctx context.Context, id int64, fn repository.ScheduleUpdateFunc) (*models.InterviewSchedule, error)
	Delete(ctx context.Context, id int64) error
}

type defaultTemplateReader interface {
	FindDefault(ctx context.Context) (*models.MailingContent, error)
}

// ScheduleConfig carries defaults applied to new interview days.
type ScheduleConfig struct {
	DefaultCapacity int
	DefaultLocation string
}

// ScheduleService manages interview days and their capacity.
type ScheduleService struct {
	repo      scheduleStore
	templates defaultTemplateReader
	cache     *CacheService
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleConfig
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(repo scheduleStore, templates defaultTemplateReader, cache *CacheService, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, cfg ScheduleConfig) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultCapacity <= 0 {
		cfg.DefaultCapacity = 120
	}
	if strings.TrimSpace(cfg.DefaultLocation) == "" {
		cfg.DefaultLocation = "D126"
	}
	return &ScheduleService{repo: repo, templates: templates, cache: cache, audit: auditOrDiscard(audit), validator: validate, logger: logger, cfg: cfg}
}

// List returns all interview days with booked counts.
func (s *ScheduleService) List(ctx context.Context) ([]models.ScheduleDetail, error) {
	var cached []models.ScheduleDetail
	if s.cache.Get(ctx, cacheKeySchedules, &cached) {
		return cached, nil
	}
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	s.cache.Set(ctx, cacheKeySchedules, items)
	return items, nil
}

// Get returns a single interview day.
func (s *ScheduleService) Get(ctx context.Context, id int64) (*models.ScheduleDetail, error) {
	item, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrScheduleNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return item, nil
}

// BookedCount returns how many students booked the day.
func (s *ScheduleService) BookedCount(ctx context.Context, id int64) (int, error) {
	count, err := s.repo.CountBookings(ctx, id)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count bookings")
	}
	return count, nil
}

// Create opens a new interview day. Capacity and location fall back to the
// configured defaults and the current default template is stamped on it.
func (s *ScheduleService) Create(ctx context.Context, req models.CreateScheduleRequest, actor models.Actor) (*models.InterviewSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	capacity := s.cfg.DefaultCapacity
	if req.Capacity != nil {
		if *req.Capacity <= 0 {
			return nil, appErrors.ErrInvalidCapacity
		}
		capacity = *req.Capacity
	}
	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = s.cfg.DefaultLocation
	}

	template, err := s.templates.FindDefault(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNoDefaultTemplate
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load default mailing content")
	}

	schedule := &models.InterviewSchedule{
		InterviewDate: req.InterviewDate,
		Capacity:      capacity,
		Location:      location,
		CreatedBy:     actor.UserID,
		MailID:        template.MailID,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}

	s.cache.Invalidate(ctx, cachePatternSchedules)
	s.audit.Record(ctx, actor, "InterviewSchedule", fmt.Sprintf("Created interview schedule %d on %s (capacity %d, location %s)", schedule.ScheduleID, schedule.InterviewDate.Format("2006-01-02"), capacity, location))
	return schedule, nil
}

// Update edits an interview day. An explicit capacity must be positive and not
// below the current bookings. An omitted capacity resets the day to the default
// capacity without looking at bookings.
func (s *ScheduleService) Update(ctx context.Context, id int64, req models.UpdateScheduleRequest, actor models.Actor) (*models.InterviewSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if req.Capacity != nil && *req.Capacity <= 0 {
		return nil, appErrors.ErrInvalidCapacity
	}

	updated, err := s.repo.Update(ctx, id, func(current *models.InterviewSchedule, booked int) error {
		if req.Capacity != nil {
			if *req.Capacity < booked {
				return appErrors.Clone(appErrors.ErrCapacityBelowBookedCount, fmt.Sprintf("capacity cannot be lower than the %d existing bookings", booked))
			}
			current.Capacity = *req.Capacity
		} else {
			// omitted capacity resets the day regardless of bookings
			current.Capacity = s.cfg.DefaultCapacity
		}
		current.InterviewDate = req.InterviewDate
		if location := strings.TrimSpace(req.Location); location != "" {
			current.Location = location
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrScheduleNotFound
		}
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}

	s.cache.Invalidate(ctx, cachePatternSchedules)
	s.audit.Record(ctx, actor, "InterviewSchedule", fmt.Sprintf("Updated interview schedule %d (capacity %d, location %s)", id, updated.Capacity, updated.Location))
	return updated, nil
}

// Delete removes an interview day together with its bookings.
func (s *ScheduleService) Delete(ctx context.Context, id int64, actor models.Actor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrScheduleNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	s.cache.Invalidate(ctx, cachePatternSchedules)
	s.audit.Record(ctx, actor, "InterviewSchedule", fmt.Sprintf("Deleted interview schedule %d", id))
	return nil
}
