package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/interviews-api/internal/models"
	"github.com/noah-isme/interviews-api/internal/repository"
	appErrors "github.com/noah-isme/interviews-api/pkg/errors"
)

type mailingContentStore interface {
	List(ctx context.Context) ([]models.MailingContent, error)
	FindByID(ctx context.Context, id int64) (*models.MailingContent, error)
	Create(ctx context.Context, item *models.MailingContent) error
	Update(ctx context.Context, item *models.MailingContent) error
	Delete(ctx context.Context, id int64) error
	SetDefault(ctx context.Context, id int64) error
}

// MailingContentService manages notification templates.
type MailingContentService struct {
	repo      mailingContentStore
	cache     *CacheService
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMailingContentService constructs MailingContentService.
func NewMailingContentService(repo mailingContentStore, cache *CacheService, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *MailingContentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailingContentService{repo: repo, cache: cache, audit: auditOrDiscard(audit), validator: validate, logger: logger}
}

// List returns every template.
func (s *MailingContentService) List(ctx context.Context) ([]models.MailingContent, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list mailing contents")
	}
	return items, nil
}

// Get returns a template by id.
func (s *MailingContentService) Get(ctx context.Context, id int64) (*models.MailingContent, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, "failed to load mailing content")
	}
	return item, nil
}

// Create stores a new, non-default template.
func (s *MailingContentService) Create(ctx context.Context, req models.MailingContentRequest, actor models.Actor) (*models.MailingContent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mailing content payload")
	}
	item := &models.MailingContent{Subject: req.Subject, Body: req.Body, CreatedBy: actor.UserID}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create mailing content")
	}
	s.audit.Record(ctx, actor, "MailingContent", fmt.Sprintf("Created mailing content with Subject: %s", item.Subject))
	return item, nil
}

// Update rewrites a template. The edited template loses its default flag.
func (s *MailingContentService) Update(ctx context.Context, id int64, req models.MailingContentRequest, actor models.Actor) (*models.MailingContent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mailing content payload")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, "failed to load mailing content")
	}
	item.Subject = req.Subject
	item.Body = req.Body
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, s.mapError(err, "failed to update mailing content")
	}
	s.cache.Invalidate(ctx, cachePatternSchedules)
	s.audit.Record(ctx, actor, "MailingContent", fmt.Sprintf("Updated mailing content with ID: %d", id))
	return item, nil
}

// SetDefault makes id the only default template.
func (s *MailingContentService) SetDefault(ctx context.Context, id int64, actor models.Actor) error {
	if err := s.repo.SetDefault(ctx, id); err != nil {
		return s.mapError(err, "failed to set default mailing content")
	}
	s.audit.Record(ctx, actor, "MailingContent", fmt.Sprintf("Set mailing content ID %d as default", id))
	return nil
}

// Delete removes a template that no schedule references.
func (s *MailingContentService) Delete(ctx context.Context, id int64, actor models.Actor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapError(err, "failed to delete mailing content")
	}
	s.audit.Record(ctx, actor, "MailingContent", fmt.Sprintf("Deleted mailing content with ID: %d", id))
	return nil
}

func (s *MailingContentService) mapError(err error, msg string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "mailing content not found")
	case errors.Is(err, repository.ErrInUse):
		return appErrors.Clone(appErrors.ErrConflict, "mailing content is used by interview schedules")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
	}
}
