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
	"github.com/noah-isme/interviews-api/pkg/mailer"
)

const (
	defaultMailSubject = "Interview Booking Info"
	defaultMailBody    = "You are eligible to book your interview."
)

type statusLedger interface {
	Latest(ctx context.Context, universityID string) (*models.StudentStatus, error)
	ListAll(ctx context.Context) ([]models.StudentStatus, error)
	ListLatest(ctx context.Context) ([]models.StudentStatus, error)
	Transition(ctx context.Context, universityID string, fn repository.TransitionFunc) (*models.StudentStatus, error)
	Amend(ctx context.Context, universityID string, fn repository.AmendFunc) (*models.StudentStatus, error)
}

type templateReader interface {
	FindByID(ctx context.Context, id int64) (*models.MailingContent, error)
	FindDefault(ctx context.Context) (*models.MailingContent, error)
}

type studentReader interface {
	FindByID(ctx context.Context, universityID string) (*models.Student, error)
}

type mailOutcomeRecorder interface {
	RecordMail(ctx context.Context, universityID string, mailID int64, result models.MailResult) error
}

// StatusService moves students through the screening workflow and notifies
// them when they become eligible to book.
type StatusService struct {
	ledger    statusLedger
	templates templateReader
	students  studentReader
	mailLog   mailOutcomeRecorder
	sender    mailer.Sender
	metrics   *MetricsService
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	portalURL string
}

// NewStatusService constructs StatusService. portalURL is the booking page linked from notifications.
func NewStatusService(ledger statusLedger, templates templateReader, students studentReader, mailLog mailOutcomeRecorder, sender mailer.Sender, metrics *MetricsService, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, portalURL string) *StatusService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{
		ledger:    ledger,
		templates: templates,
		students:  students,
		mailLog:   mailLog,
		sender:    sender,
		metrics:   metrics,
		audit:     auditOrDiscard(audit),
		validator: validate,
		logger:    logger,
		portalURL: portalURL,
	}
}

// UpdateStatus appends the requested status for the student. Only students whose
// latest status is New or Pending (or who have none) may move. Moving to
// Fulfilled locks the record and emails the booking invitation; a failed
// delivery is recorded as Failed and does not abort the transition.
func (s *StatusService) UpdateStatus(ctx context.Context, req models.StatusUpdateRequest, actor models.Actor) (*models.StatusUpdateResult, error) {
	req.UniversityID = strings.TrimSpace(req.UniversityID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	next, err := models.ParseStatus(req.NewStatus)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unknown status")
	}

	reviewer := actor.UserID
	var mailResult *models.MailResult

	// Reads for the invitation go through the pool, so they must finish before
	// the transition holds a connection and the student lock.
	var (
		template *models.MailingContent
		email    string
		prepErr  error
	)
	if next == models.StatusFulfilled {
		template, email, prepErr = s.invitationInputs(ctx, req.UniversityID)
	}

	record, err := s.ledger.Transition(ctx, req.UniversityID, func(ctx context.Context, latest *models.StudentStatus) (*repository.TransitionPlan, error) {
		if latest != nil && !latest.Status.IsOpen() {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot change status from %s", latest.Status))
		}
		plan := &repository.TransitionPlan{
			Next: &models.StudentStatus{Status: next, ReviewedBy: &reviewer},
		}
		if next != models.StatusFulfilled {
			return plan, nil
		}

		if prepErr != nil {
			return nil, prepErr
		}
		plan.Next.IsLocked = true

		result := models.MailResultSent
		if err := s.sender.Send(ctx, s.invitation(email, template, "Click here to book your interview")); err != nil {
			s.logger.Warn("eligibility email failed", zap.String("university_id", req.UniversityID), zap.Error(err))
			result = models.MailResultFailed
		}
		mailResult = &result
		plan.Mail = &repository.MailUpdate{MailID: template.MailID, Result: result}
		return plan, nil
	})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}

	s.metrics.RecordStatusTransition(next)
	if mailResult != nil {
		s.metrics.RecordNotification(NotificationFulfilled, *mailResult)
	}
	s.audit.Record(ctx, actor, "StudentStatus", fmt.Sprintf("Changed status of %s to %s", req.UniversityID, next))

	return &models.StatusUpdateResult{
		Message:    fmt.Sprintf("Student status updated to %s", next),
		ReviewedBy: reviewer,
		Status:     record,
		MailResult: mailResult,
	}, nil
}

// ResendEmail delivers the booking invitation again using the given template or
// the default one. Unlike UpdateStatus a delivery failure is returned to the caller.
func (s *StatusService) ResendEmail(ctx context.Context, req models.ResendEmailRequest, actor models.Actor) error {
	req.UniversityID = strings.TrimSpace(req.UniversityID)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resend payload")
	}

	email, err := s.studentEmail(ctx, req.UniversityID)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return appErr
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	var template *models.MailingContent
	if req.MailID != nil {
		template, err = s.templates.FindByID(ctx, *req.MailID)
	} else {
		template, err = s.templates.FindDefault(ctx)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrTemplateNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mailing content")
	}

	if err := s.sender.Send(ctx, s.invitation(email, template, s.portalURL)); err != nil {
		s.metrics.RecordNotification(NotificationResend, models.MailResultFailed)
		return appErrors.Wrap(err, appErrors.ErrEmailDeliveryFailed.Code, appErrors.ErrEmailDeliveryFailed.Status, "failed to send email: "+err.Error())
	}
	s.metrics.RecordNotification(NotificationResend, models.MailResultSent)

	if err := s.mailLog.RecordMail(ctx, req.UniversityID, template.MailID, models.MailResultSent); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record mail result")
	}
	s.audit.Record(ctx, actor, "StudentsData", fmt.Sprintf("Resent booking email %d to %s", template.MailID, req.UniversityID))
	return nil
}

// MarkReviewed locks a freshly submitted record and stamps the reviewer. Any
// other state is left untouched.
func (s *StatusService) MarkReviewed(ctx context.Context, universityID string, actor models.Actor) (*models.StudentStatus, error) {
	reviewer := actor.UserID
	record, err := s.ledger.Amend(ctx, universityID, func(latest *models.StudentStatus) (*models.StatusAmendment, error) {
		if latest.Status != models.StatusNew || latest.IsLocked {
			return nil, nil
		}
		return &models.StatusAmendment{IsLocked: true, ReviewedBy: &reviewer}, nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark status reviewed")
	}
	return record, nil
}

// UnlockForEdit reopens a Pending record so the student can edit the submission.
// Any other locked record yields ErrEditLocked.
func (s *StatusService) UnlockForEdit(ctx context.Context, universityID string) (*models.StudentStatus, error) {
	record, err := s.ledger.Amend(ctx, universityID, func(latest *models.StudentStatus) (*models.StatusAmendment, error) {
		if !latest.IsLocked {
			return nil, nil
		}
		if latest.Status != models.StatusPending {
			return nil, appErrors.ErrEditLocked
		}
		return &models.StatusAmendment{IsLocked: false, ReviewedBy: latest.ReviewedBy}, nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unlock status")
	}
	return record, nil
}

// Latest returns the student's current status.
func (s *StatusService) Latest(ctx context.Context, universityID string) (*models.StudentStatus, error) {
	record, err := s.ledger.Latest(ctx, universityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no status found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status")
	}
	return record, nil
}

// ListAll returns the whole ledger.
func (s *StatusService) ListAll(ctx context.Context) ([]models.StudentStatus, error) {
	items, err := s.ledger.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list statuses")
	}
	return items, nil
}

// ListLatest returns the current status of every student.
func (s *StatusService) ListLatest(ctx context.Context) ([]models.StudentStatus, error) {
	items, err := s.ledger.ListLatest(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list latest statuses")
	}
	return items, nil
}

// invitationInputs loads the default template and the student's address in
// that order, so a missing template is reported before a missing email.
func (s *StatusService) invitationInputs(ctx context.Context, universityID string) (*models.MailingContent, string, error) {
	template, err := s.templates.FindDefault(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.ErrNoDefaultTemplate
		}
		return nil, "", fmt.Errorf("load default template: %w", err)
	}
	email, err := s.studentEmail(ctx, universityID)
	if err != nil {
		return nil, "", err
	}
	return template, email, nil
}

func (s *StatusService) studentEmail(ctx context.Context, universityID string) (string, error) {
	student, err := s.students.FindByID(ctx, universityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.ErrMissingEmail
		}
		return "", fmt.Errorf("load student: %w", err)
	}
	email := strings.TrimSpace(student.Email)
	if email == "" {
		return "", appErrors.ErrMissingEmail
	}
	return email, nil
}

// invitation composes the booking email. The portal link is appended only when
// the template does not already contain it.
func (s *StatusService) invitation(to string, template *models.MailingContent, linkText string) mailer.Message {
	subject := strings.TrimSpace(template.Subject)
	if subject == "" {
		subject = defaultMailSubject
	}
	return mailer.Message{
		To:          to,
		Subject:     subject,
		Body:        composeBody(template.Body, s.portalURL, linkText),
		ContentType: mailer.ContentTypeHTML,
	}
}

func composeBody(body, portalURL, linkText string) string {
	if strings.TrimSpace(body) == "" {
		body = defaultMailBody
	}
	if portalURL == "" || strings.Contains(body, portalURL) {
		return body
	}
	return body + fmt.Sprintf("<br><br><strong>To book your interview, please visit:</strong> <a href='%s'>%s</a>", portalURL, linkText)
}
