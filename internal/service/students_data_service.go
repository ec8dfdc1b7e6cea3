package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/interviews-api/internal/models"
	"github.com/noah-isme/interviews-api/internal/repository"
	appErrors "github.com/noah-isme/interviews-api/pkg/errors"
)

const attachmentDir = "attachments"

type studentsDataStore interface {
	FindByID(ctx context.Context, universityID string) (*models.StudentsData, error)
	Submit(ctx context.Context, data *models.StudentsData) (*models.StudentStatus, error)
	Update(ctx context.Context, data *models.StudentsData) error
}

// reviewGate is the part of the status workflow the submission screens rely on.
type reviewGate interface {
	Latest(ctx context.Context, universityID string) (*models.StudentStatus, error)
	MarkReviewed(ctx context.Context, universityID string, actor models.Actor) (*models.StudentStatus, error)
	UnlockForEdit(ctx context.Context, universityID string) (*models.StudentStatus, error)
}

type attachmentStore interface {
	SaveStream(name string, r io.Reader) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

type urlSigner interface {
	Generate(owner, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (string, string, time.Time, error)
}

// StudentsDataConfig limits uploads and tells the service where downloads are served.
type StudentsDataConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	DownloadPath string
}

// StudentsDataService handles the student's own submission and staff review of it.
type StudentsDataService struct {
	repo      studentsDataStore
	status    reviewGate
	files     attachmentStore
	signer    urlSigner
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	cfg       StudentsDataConfig
	now       func() time.Time
}

// NewStudentsDataService constructs StudentsDataService.
func NewStudentsDataService(repo studentsDataStore, status reviewGate, files attachmentStore, signer urlSigner, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, cfg StudentsDataConfig) *StudentsDataService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 * 1024 * 1024
	}
	return &StudentsDataService{
		repo:      repo,
		status:    status,
		files:     files,
		signer:    signer,
		audit:     auditOrDiscard(audit),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Submit stores the first submission with its image and opens the ledger as New.
func (s *StudentsDataService) Submit(ctx context.Context, req models.SubmitStudentsDataRequest, image io.Reader, meta *models.Attachment, actor models.Actor) (*models.StudentsDataView, error) {
	req.UniversityID = strings.TrimSpace(req.UniversityID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission")
	}
	if image == nil || meta == nil || meta.Size == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "image is required")
	}
	if err := s.checkAttachment(meta); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByID(ctx, req.UniversityID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student data already submitted")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student data")
	}

	stored, err := s.saveAttachment(image, meta)
	if err != nil {
		return nil, err
	}

	data := &models.StudentsData{
		UniversityID:   req.UniversityID,
		ReferralSource: req.ReferralSource,
		Activities:     req.Activities,
		Awards:         req.Awards,
		ImageAttach:    stored,
		SubmittedAt:    s.now().UTC(),
	}
	status, err := s.repo.Submit(ctx, data)
	if err != nil {
		s.discard(stored)
		if errors.Is(err, repository.ErrAlreadySubmitted) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student data already submitted")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit student data")
	}

	s.audit.Record(ctx, actor, "StudentsData", fmt.Sprintf("Student %s submitted data", req.UniversityID))
	return s.view(data, status), nil
}

// Edit replaces the editable fields. A Pending record is reopened first; any
// other record that staff already locked rejects the edit.
func (s *StudentsDataService) Edit(ctx context.Context, req models.SubmitStudentsDataRequest, image io.Reader, meta *models.Attachment, actor models.Actor) (*models.StudentsDataView, error) {
	req.UniversityID = strings.TrimSpace(req.UniversityID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission")
	}

	data, err := s.find(ctx, req.UniversityID)
	if err != nil {
		return nil, err
	}
	status, err := s.status.UnlockForEdit(ctx, req.UniversityID)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student status not found")
	}

	previous := ""
	if image != nil && meta != nil && meta.Size > 0 {
		if err := s.checkAttachment(meta); err != nil {
			return nil, err
		}
		stored, err := s.saveAttachment(image, meta)
		if err != nil {
			return nil, err
		}
		previous = data.ImageAttach
		data.ImageAttach = stored
	}

	data.ReferralSource = req.ReferralSource
	data.Activities = req.Activities
	data.Awards = req.Awards
	data.SubmittedAt = s.now().UTC()
	if err := s.repo.Update(ctx, data); err != nil {
		if previous != "" {
			s.discard(data.ImageAttach)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student data not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student data")
	}
	if previous != "" {
		s.discard(previous)
	}

	s.audit.Record(ctx, actor, "StudentsData", fmt.Sprintf("Student %s edited data", req.UniversityID))
	return s.view(data, status), nil
}

// Info returns the submission merged with the current status.
func (s *StudentsDataService) Info(ctx context.Context, universityID string) (*models.StudentsDataView, error) {
	data, err := s.find(ctx, universityID)
	if err != nil {
		return nil, err
	}
	status, err := s.status.Latest(ctx, universityID)
	if err != nil {
		return nil, err
	}
	return s.view(data, status), nil
}

// Review opens the submission for a staff member and marks a new one as reviewed.
func (s *StudentsDataService) Review(ctx context.Context, universityID string, actor models.Actor) (*models.StudentsDataView, error) {
	data, err := s.find(ctx, universityID)
	if err != nil {
		return nil, err
	}
	status, err := s.status.MarkReviewed(ctx, universityID, actor)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student status not found")
	}
	return s.view(data, status), nil
}

// OpenAttachment resolves a signed download token into the stored file.
func (s *StudentsDataService) OpenAttachment(ctx context.Context, token string) (*os.File, string, error) {
	if s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "attachment downloads are disabled")
	}
	owner, rel, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download link")
	}
	data, err := s.find(ctx, owner)
	if err != nil {
		return nil, "", err
	}
	if data.ImageAttach != rel {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
	}
	file, err := s.files.Open(rel)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "attachment not found")
	}
	return file, path.Base(rel), nil
}

func (s *StudentsDataService) find(ctx context.Context, universityID string) (*models.StudentsData, error) {
	data, err := s.repo.FindByID(ctx, universityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student data not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student data")
	}
	return data, nil
}

func (s *StudentsDataService) checkAttachment(meta *models.Attachment) error {
	if meta.Size > s.cfg.MaxFileSize {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("image exceeds %d bytes", s.cfg.MaxFileSize))
	}
	if len(s.cfg.AllowedMIMEs) == 0 {
		return nil
	}
	contentType, _, err := mime.ParseMediaType(meta.ContentType)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "unrecognised file type")
	}
	for _, allowed := range s.cfg.AllowedMIMEs {
		if strings.EqualFold(allowed, contentType) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type %s is not allowed", contentType))
}

func (s *StudentsDataService) saveAttachment(r io.Reader, meta *models.Attachment) (string, error) {
	name := path.Join(attachmentDir, uuid.NewString()+strings.ToLower(path.Ext(meta.Filename)))
	stored, err := s.files.SaveStream(name, io.LimitReader(r, s.cfg.MaxFileSize))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store image")
	}
	return stored, nil
}

func (s *StudentsDataService) discard(name string) {
	if err := s.files.Delete(name); err != nil {
		s.logger.Warn("failed to remove attachment", zap.String("file", name), zap.Error(err))
	}
}

func (s *StudentsDataService) view(data *models.StudentsData, status *models.StudentStatus) *models.StudentsDataView {
	out := &models.StudentsDataView{StudentsData: *data}
	if status != nil {
		out.Status = status.Status
		out.IsLocked = status.IsLocked
	}
	if s.signer != nil && data.ImageAttach != "" {
		token, _, err := s.signer.Generate(data.UniversityID, data.ImageAttach)
		if err != nil {
			s.logger.Warn("failed to sign attachment url", zap.String("university_id", data.UniversityID), zap.Error(err))
		} else {
			out.DownloadURL = strings.TrimRight(s.cfg.DownloadPath, "/") + "/" + token
		}
	}
	return out
}
