package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/interviews-api/internal/models"
	"github.com/noah-isme/interviews-api/internal/repository"
	appErrors "github.com/noah-isme/interviews-api/pkg/errors"
	"github.com/noah-isme/interviews-api/pkg/export"
)

// Export formats supported by the bookings roster.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type bookingStore interface {
	Book(ctx context.Context, universityID string, scheduleID int64, requireFulfilled bool) (*models.StudentBooking, error)
	List(ctx context.Context) ([]models.BookingView, error)
	FindByStudent(ctx context.Context, universityID string) (*models.BookingView, error)
	ListByDate(ctx context.Context, day time.Time) ([]models.BookingView, error)
	ListByCollege(ctx context.Context, college string) ([]models.CollegeBooking, error)
	Slip(ctx context.Context, universityID string) (*models.BookingSlip, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	RenderSlip(title string, fields []export.Field) ([]byte, error)
}

// Document is a rendered file ready to be streamed to the client.
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}

// BookingService allocates interview seats and serves booking listings.
type BookingService struct {
	repo      bookingStore
	cache     *CacheService
	metrics   *MetricsService
	audit     auditRecorder
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewBookingService constructs BookingService.
func NewBookingService(repo bookingStore, cache *CacheService, metrics *MetricsService, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("")
	}
	return &BookingService{
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		audit:     auditOrDiscard(audit),
		csv:       csv,
		pdf:       pdf,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Book reserves a seat for the student on the requested day.
func (s *BookingService) Book(ctx context.Context, req models.BookRequest, actor models.Actor) (*models.StudentBooking, error) {
	req.UniversityID = strings.TrimSpace(req.UniversityID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	// Staff may book on a student's behalf; students need an invitation first.
	booking, err := s.repo.Book(ctx, req.UniversityID, req.ScheduleID, actor.Role == models.RoleStudent)
	if err != nil {
		outcome, mapped := mapBookingError(err)
		s.metrics.RecordBooking(outcome)
		if outcome == BookingOutcomeError {
			s.logger.Error("booking failed", zap.String("university_id", req.UniversityID), zap.Int64("schedule_id", req.ScheduleID), zap.Error(err))
		}
		return nil, mapped
	}

	s.metrics.RecordBooking(BookingOutcomeBooked)
	s.metrics.RecordStatusTransition(models.StatusReserved)
	s.cache.Invalidate(ctx, cachePatternSchedules)
	s.audit.Record(ctx, actor, "StudentBooking", fmt.Sprintf("Student %s booked interview schedule %d", req.UniversityID, req.ScheduleID))
	return booking, nil
}

func mapBookingError(err error) (string, error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return BookingOutcomeNotFound, appErrors.ErrScheduleNotFound
	case errors.Is(err, repository.ErrCapacityFull):
		return BookingOutcomeCapacityFull, appErrors.ErrCapacityFull
	case errors.Is(err, repository.ErrAlreadyBooked):
		return BookingOutcomeAlreadyBooked, appErrors.ErrAlreadyBooked
	case errors.Is(err, repository.ErrNotEligible):
		return BookingOutcomeNotEligible, appErrors.ErrNotEligible
	default:
		return BookingOutcomeError, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to book interview")
	}
}

// List returns every booking.
func (s *BookingService) List(ctx context.Context) ([]models.BookingView, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	return items, nil
}

// ByStudent returns the student's booking.
func (s *BookingService) ByStudent(ctx context.Context, universityID string) (*models.BookingView, error) {
	item, err := s.repo.FindByStudent(ctx, universityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	return item, nil
}

// Today returns the bookings of the current calendar day.
func (s *BookingService) Today(ctx context.Context) ([]models.BookingView, error) {
	items, err := s.repo.ListByDate(ctx, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list today's bookings")
	}
	return items, nil
}

// ByCollege filters bookings by the student's college.
func (s *BookingService) ByCollege(ctx context.Context, college string) ([]models.CollegeBooking, error) {
	college = strings.TrimSpace(college)
	if college == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "faculty is required")
	}
	items, err := s.repo.ListByCollege(ctx, college)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings by college")
	}
	return items, nil
}

// Slip renders the printable booking slip of a student.
func (s *BookingService) Slip(ctx context.Context, universityID string) (*Document, error) {
	slip, err := s.repo.Slip(ctx, universityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking slip")
	}

	content, err := s.pdf.RenderSlip("Interview Booking Slip", []export.Field{
		{Label: "Booking No.", Value: strconv.FormatInt(slip.BookingID, 10)},
		{Label: "University ID", Value: slip.UniversityID},
		{Label: "Name", Value: slip.Name},
		{Label: "National ID", Value: slip.NationalID},
		{Label: "Phone", Value: slip.Phone},
		{Label: "Interview Date", Value: slip.InterviewDate.Format("Monday, 02 January 2006")},
		{Label: "Location", Value: slip.Location},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render booking slip")
	}
	return &Document{
		Filename:    fmt.Sprintf("booking-%s.pdf", slip.UniversityID),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

// Export renders the full bookings roster as CSV or PDF.
func (s *BookingService) Export(ctx context.Context, format string) (*Document, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}

	dataset := export.Dataset{Headers: []string{"Booking", "University ID", "Schedule", "Interview Date", "Location", "Booked At"}}
	for _, item := range items {
		dataset.Rows = append(dataset.Rows, []string{
			strconv.FormatInt(item.BookingID, 10),
			item.UniversityID,
			strconv.FormatInt(item.ScheduleID, 10),
			item.ScheduleDate.Format("2006-01-02"),
			item.Location,
			item.BookedAt.Format(time.RFC3339),
		})
	}

	stamp := s.now().Format("20060102")
	if format == ExportFormatPDF {
		content, err := s.pdf.Render(dataset, "Interview Bookings")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render bookings")
		}
		return &Document{Filename: "bookings-" + stamp + ".pdf", ContentType: "application/pdf", Content: content}, nil
	}
	content, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render bookings")
	}
	return &Document{Filename: "bookings-" + stamp + ".csv", ContentType: "text/csv", Content: content}, nil
}
