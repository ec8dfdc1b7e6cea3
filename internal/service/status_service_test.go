package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/interviews-api/internal/models"
	"github.com/noah-isme/interviews-api/internal/repository"
	appErrors "github.com/noah-isme/interviews-api/pkg/errors"
	"github.com/noah-isme/interviews-api/pkg/mailer"
)

const testPortalURL = "https://portal.example.edu/booking"

// memoryLedger mimics the transactional behaviour of the status repository:
// nothing is written when the callback fails.
type memoryLedger struct {
	rows   []models.StudentStatus
	mail   map[string]repository.MailUpdate
	nextID int64
}

func newMemoryLedger(rows ...models.StudentStatus) *memoryLedger {
	l := &memoryLedger{mail: map[string]repository.MailUpdate{}}
	for _, row := range rows {
		l.nextID++
		row.StatusID = l.nextID
		l.rows = append(l.rows, row)
	}
	return l
}

func (l *memoryLedger) latestIndex(universityID string) int {
	idx := -1
	for i, row := range l.rows {
		if row.UniversityID == universityID {
			idx = i
		}
	}
	return idx
}

func (l *memoryLedger) Latest(ctx context.Context, universityID string) (*models.StudentStatus, error) {
	idx := l.latestIndex(universityID)
	if idx < 0 {
		return nil, sql.ErrNoRows
	}
	row := l.rows[idx]
	return &row, nil
}

func (l *memoryLedger) ListAll(ctx context.Context) ([]models.StudentStatus, error) {
	return l.rows, nil
}

func (l *memoryLedger) ListLatest(ctx context.Context) ([]models.StudentStatus, error) {
	return l.rows, nil
}

func (l *memoryLedger) Transition(ctx context.Context, universityID string, fn repository.TransitionFunc) (*models.StudentStatus, error) {
	latest, _ := l.Latest(ctx, universityID)
	plan, err := fn(ctx, latest)
	if err != nil {
		return nil, err
	}
	next := *plan.Next
	l.nextID++
	next.StatusID = l.nextID
	next.UniversityID = universityID
	l.rows = append(l.rows, next)
	if plan.Mail != nil {
		l.mail[universityID] = *plan.Mail
	}
	return &next, nil
}

func (l *memoryLedger) Amend(ctx context.Context, universityID string, fn repository.AmendFunc) (*models.StudentStatus, error) {
	idx := l.latestIndex(universityID)
	if idx < 0 {
		return nil, sql.ErrNoRows
	}
	current := l.rows[idx]
	change, err := fn(&current)
	if err != nil {
		return nil, err
	}
	if change != nil {
		l.rows[idx].IsLocked = change.IsLocked
		l.rows[idx].ReviewedBy = change.ReviewedBy
	}
	row := l.rows[idx]
	return &row, nil
}

type studentStub map[string]*models.Student

func (s studentStub) FindByID(ctx context.Context, universityID string) (*models.Student, error) {
	if st, ok := s[universityID]; ok {
		return st, nil
	}
	return nil, sql.ErrNoRows
}

type senderStub struct {
	sent []mailer.Message
	err  error
}

func (s *senderStub) Send(ctx context.Context, msg mailer.Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

type mailLogStub struct {
	records map[string]models.MailResult
}

func (m *mailLogStub) RecordMail(ctx context.Context, universityID string, mailID int64, result models.MailResult) error {
	if m.records == nil {
		m.records = map[string]models.MailResult{}
	}
	m.records[universityID] = result
	return nil
}

type statusFixture struct {
	svc       *StatusService
	ledger    *memoryLedger
	sender    *senderStub
	mailLog   *mailLogStub
	templates *templateStub
	students  studentStub
}

func newStatusFixture(rows ...models.StudentStatus) *statusFixture {
	f := &statusFixture{
		ledger:  newMemoryLedger(rows...),
		sender:  &senderStub{},
		mailLog: &mailLogStub{},
		templates: &templateStub{
			def:  &models.MailingContent{MailID: 1, Subject: "Book now", Body: "Hello", IsDefault: true},
			byID: map[int64]*models.MailingContent{2: {MailID: 2, Subject: "Reminder", Body: "Reminder body"}},
		},
		students: studentStub{"S1": {UniversityID: "S1", Email: "s1@example.edu"}},
	}
	f.svc = NewStatusService(f.ledger, f.templates, f.students, f.mailLog, f.sender, nil, &auditSpy{}, nil, nil, testPortalURL)
	return f
}

func staff() models.Actor {
	return models.Actor{UserID: "agent-9", Email: "agent@example.edu"}
}

func TestUpdateStatusFulfilledSendsInvitation(t *testing.T) {
	f := newStatusFixture(models.StudentStatus{UniversityID: "S1", Status: models.StatusPending})

	res, err := f.svc.UpdateStatus(context.Background(), models.StatusUpdateRequest{UniversityID: "S1", NewStatus: "fulfilled"}, staff())
	require.NoError(t, err)
	assert.Equal(t, "Student status updated to Fulfilled", res.Message)
	assert.Equal(t, "agent-9", res.ReviewedBy)
	require.NotNil(t, res.MailResult)
	assert.Equal(t, models.MailResultSent, *res.MailResult)

	latest, _ := f.ledger.Latest(context.Background(), "S1")
	assert.Equal(t, models.StatusFulfilled, latest.Status)
	assert.True(t, latest.IsLocked)
	assert.Equal(t, repository.MailUpdate{MailID: 1, Result: models.MailResultSent}, f.ledger.mail["S1"])

	require.Len(t, f.sender.sent, 1)
	msg := f.sender.sent[0]
	assert.Equal(t, "s1@example.edu", msg.To)
	assert.Equal(t, "Book now", msg.Subject)
	assert.Equal(t, mailer.ContentTypeHTML, msg.ContentType)
	assert.Equal(t, 1, strings.Count(msg.Body, testPortalURL))
	assert.True(t, strings.HasPrefix(msg.Body, "Hello<br><br>"))
}

func TestUpdateStatusFulfilledKeepsExistingLink(t *testing.T) {
	f := newStatusFixture(models.StudentStatus{UniversityID: "S1", Status: models.StatusNew})
	f.templates.def.Body = "Visit " + testPortalURL + " today"

	_, err := f.svc.UpdateStatus(context.Background(), models.StatusUpdateRequest{UniversityID: "S1", NewStatus: "Fulfilled"}, staff())
	require.NoError(t, err)
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "Visit "+testPortalURL+" today", f.sender.sent[0].Body)
}

func TestUpdateStatusFulfilledDeliveryFailureStillTransitions(t *testing.T) {
	f := newStatusFixture(models.StudentStatus{UniversityID: "S1", Status: models.StatusPending})
	f.sender.err = errors.New("smtp timeout")

	res, err := f.svc.UpdateStatus(context.Background(), models.StatusUpdateRequest{UniversityID: "S1", NewStatus: "Fulfilled"}, staff())
	require.NoError(t, err)
	assert.Equal(t, models.MailResultFailed, *res.MailResult)

	latest, _ := f.ledger.Latest(context.Background(), "S1")
	assert.Equal(t, models.StatusFulfilled, latest.Status)
	assert.Equal(t, models.MailResultFailed, f.ledger.mail["S1"].Result)
}

func TestUpdateStatusRejectsClosedStatus(t *testing.T) {
	f := newStatusFixture(models.StudentStatus{UniversityID: "S1", Status: models.StatusPending})
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, models.StatusUpdateRequest{UniversityID: "S1", NewStatus: "Fulfilled"}, staff())
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, models.StatusUpdateRequest{UniversityID: "S1", NewStatus: "Pending"}, staff())
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, codeOf(err))
	assert.Len(t, f.ledger.rows, 2)
}

func TestUpdateStatusFulfilledPreconditions(t *testing.T) {
	f := newStatusFixture()
	f.templates.def = nil
	_, err := f.svc.UpdateStatus(context.Background(), models.StatusUpdateRequest{UniversityID: "S1", NewStatus: "Fulfilled"}, staff())
	assert.Equal(t, appErrors.ErrNoDefaultTemplate.Code, codeOf(err))

	f = newStatusFixture()
	f.students["S1"].Email = " "
	_, err = f.svc.UpdateStatus(context.Background(), models.StatusUpdateRequest{UniversityID: "S1", NewStatus: "Fulfilled"}, staff())
	assert.Equal(t, appErrors.ErrMissingEmail.Code, codeOf(err))
	assert.Empty(t, f.ledger.rows)
	assert.Empty(t, f.sender.sent)
}

func TestUpdateStatusOtherStatusesStayUnlocked(t *testing.T) {
	f := newStatusFixture()

	res, err := f.svc.UpdateStatus(context.Background(), models.StatusUpdateRequest{UniversityID: "S9", NewStatus: "Pending"}, staff())
	require.NoError(t, err)
	assert.Nil(t, res.MailResult)
	assert.False(t, res.Status.IsLocked)
	assert.Empty(t, f.sender.sent)

	_, err = f.svc.UpdateStatus(context.Background(), models.StatusUpdateRequest{UniversityID: "S9", NewStatus: "Waiting"}, staff())
	assert.Equal(t, appErrors.ErrValidation.Code, codeOf(err))
}

func TestResendEmailSurfacesFailure(t *testing.T) {
	f := newStatusFixture(models.StudentStatus{UniversityID: "S1", Status: models.StatusFulfilled, IsLocked: true})
	f.sender.err = errors.New("mailbox unavailable")

	err := f.svc.ResendEmail(context.Background(), models.ResendEmailRequest{UniversityID: "S1"}, staff())
	assert.Equal(t, appErrors.ErrEmailDeliveryFailed.Code, codeOf(err))
	assert.Empty(t, f.mailLog.records)
}

func TestResendEmailWithExplicitTemplate(t *testing.T) {
	f := newStatusFixture()
	mailID := int64(2)

	err := f.svc.ResendEmail(context.Background(), models.ResendEmailRequest{UniversityID: "S1", MailID: &mailID}, staff())
	require.NoError(t, err)
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "Reminder", f.sender.sent[0].Subject)
	assert.Contains(t, f.sender.sent[0].Body, "<a href='"+testPortalURL+"'>"+testPortalURL+"</a>")
	assert.Equal(t, models.MailResultSent, f.mailLog.records["S1"])

	missing := int64(77)
	err = f.svc.ResendEmail(context.Background(), models.ResendEmailRequest{UniversityID: "S1", MailID: &missing}, staff())
	assert.Equal(t, appErrors.ErrTemplateNotFound.Code, codeOf(err))

	err = f.svc.ResendEmail(context.Background(), models.ResendEmailRequest{UniversityID: "ghost"}, staff())
	assert.Equal(t, appErrors.ErrMissingEmail.Code, codeOf(err))
}

func TestMarkReviewedOnlyLocksNewRecords(t *testing.T) {
	f := newStatusFixture(
		models.StudentStatus{UniversityID: "S1", Status: models.StatusNew},
		models.StudentStatus{UniversityID: "S2", Status: models.StatusPending},
	)
	ctx := context.Background()

	reviewed, err := f.svc.MarkReviewed(ctx, "S1", staff())
	require.NoError(t, err)
	assert.True(t, reviewed.IsLocked)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, "agent-9", *reviewed.ReviewedBy)

	untouched, err := f.svc.MarkReviewed(ctx, "S2", staff())
	require.NoError(t, err)
	assert.False(t, untouched.IsLocked)
	assert.Nil(t, untouched.ReviewedBy)

	none, err := f.svc.MarkReviewed(ctx, "S3", staff())
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestUnlockForEdit(t *testing.T) {
	f := newStatusFixture(
		models.StudentStatus{UniversityID: "S1", Status: models.StatusPending, IsLocked: true},
		models.StudentStatus{UniversityID: "S2", Status: models.StatusNew, IsLocked: true},
		models.StudentStatus{UniversityID: "S3", Status: models.StatusNew},
	)
	ctx := context.Background()

	opened, err := f.svc.UnlockForEdit(ctx, "S1")
	require.NoError(t, err)
	assert.False(t, opened.IsLocked)

	_, err = f.svc.UnlockForEdit(ctx, "S2")
	assert.Equal(t, appErrors.ErrEditLocked.Code, codeOf(err))

	open, err := f.svc.UnlockForEdit(ctx, "S3")
	require.NoError(t, err)
	assert.False(t, open.IsLocked)
}

func TestComposeBodyDefaults(t *testing.T) {
	body := composeBody("", "https://x.test", "go")
	assert.Equal(t, defaultMailBody+"<br><br><strong>To book your interview, please visit:</strong> <a href='https://x.test'>go</a>", body)
	assert.Equal(t, "plain", composeBody("plain", "", "go"))
}
