package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/interviews-api/internal/models"
	appErrors "github.com/noah-isme/interviews-api/pkg/errors"
	"github.com/noah-isme/interviews-api/pkg/jobs"
)

const auditJobType = "audit_log"

type auditStore interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	ListAuditLogs(ctx context.Context, tableName string, limit, offset int) ([]models.AuditLog, int, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// auditRecorder is what domain services use to leave a trail entry.
type auditRecorder interface {
	Record(ctx context.Context, actor models.Actor, tableName, description string)
}

// AuditService writes the activity trail. Entries are handed to a background
// queue when one is attached and written inline otherwise.
type AuditService struct {
	store  auditStore
	queue  jobDispatcher
	logger *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(store auditStore, queue jobDispatcher, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{store: store, queue: queue, logger: logger}
}

// SetDispatcher attaches the queue that processes entries asynchronously.
func (s *AuditService) SetDispatcher(queue jobDispatcher) {
	s.queue = queue
}

// Record stores an entry. Failures are logged and never returned.
func (s *AuditService) Record(ctx context.Context, actor models.Actor, tableName, description string) {
	if s == nil || s.store == nil {
		return
	}
	entry := &models.AuditLog{
		ID:          uuid.NewString(),
		TableName:   tableName,
		Description: description,
		IPAddress:   actor.IP,
	}
	if actor.UserID != "" {
		entry.UserID = &actor.UserID
	}
	if actor.Email != "" {
		entry.UserEmail = &actor.Email
	}

	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{ID: entry.ID, Type: auditJobType, Payload: entry})
		if err == nil {
			return
		}
		s.logger.Warn("audit queue unavailable, writing inline", zap.Error(err))
	}
	if err := s.store.CreateAuditLog(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("table", tableName), zap.Error(err))
	}
}

// Handle persists a queued entry.
func (s *AuditService) Handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditLog)
	if !ok || entry == nil {
		s.logger.Error("unexpected audit payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.store.CreateAuditLog(ctx, entry); err != nil {
		return fmt.Errorf("write audit log %s: %w", entry.ID, err)
	}
	return nil
}

// List returns a page of the trail.
func (s *AuditService) List(ctx context.Context, tableName string, page, size int) ([]models.AuditLog, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 200 {
		size = 50
	}
	logs, total, err := s.store.ListAuditLogs(ctx, tableName, size, (page-1)*size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	return logs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

type discardAudit struct{}

func (discardAudit) Record(context.Context, models.Actor, string, string) {}

func auditOrDiscard(a auditRecorder) auditRecorder {
	if a == nil {
		return discardAudit{}
	}
	return a
}
