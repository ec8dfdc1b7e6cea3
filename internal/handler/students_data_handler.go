package handler

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/interviews-api/internal/models"
	"github.com/noah-isme/interviews-api/internal/service"
	appErrors "github.com/noah-isme/interviews-api/pkg/errors"
	"github.com/noah-isme/interviews-api/pkg/response"
)

const imageField = "image"

// StudentsDataHandler serves the student's own submission and staff review.
type StudentsDataHandler struct {
	service *service.StudentsDataService
}

// NewStudentsDataHandler constructs handler.
func NewStudentsDataHandler(svc *service.StudentsDataService) *StudentsDataHandler {
	return &StudentsDataHandler{service: svc}
}

// Submit godoc
// @Summary Submit student data
// @Description Multipart form with an image attachment. One submission per student; opens the status ledger as New.
// @Tags StudentsData
// @Accept multipart/form-data
// @Produce json
// @Param universityId formData string true "University ID"
// @Param referralSource formData string true "How the student heard of the university"
// @Param activities formData string false "Activities"
// @Param awards formData string false "Awards"
// @Param image formData file true "Image attachment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students-data [post]
func (h *StudentsDataHandler) Submit(c *gin.Context) {
	req, file, meta, ok := h.bind(c)
	if !ok {
		return
	}
	if file != nil {
		defer file.Close()
	}

	view, err := h.service.Submit(c.Request.Context(), req, reader(file), meta, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Edit godoc
// @Summary Edit student data
// @Description Allowed while the record is unlocked or Pending. The image is optional.
// @Tags StudentsData
// @Accept multipart/form-data
// @Produce json
// @Param universityId formData string true "University ID"
// @Param referralSource formData string true "How the student heard of the university"
// @Param activities formData string false "Activities"
// @Param awards formData string false "Awards"
// @Param image formData file false "Replacement image"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students-data [put]
func (h *StudentsDataHandler) Edit(c *gin.Context) {
	req, file, meta, ok := h.bind(c)
	if !ok {
		return
	}
	if file != nil {
		defer file.Close()
	}

	view, err := h.service.Edit(c.Request.Context(), req, reader(file), meta, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Info godoc
// @Summary Get student data
// @Tags StudentsData
// @Produce json
// @Param universityId path string true "University ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students-data/{universityId} [get]
func (h *StudentsDataHandler) Info(c *gin.Context) {
	view, err := h.service.Info(c.Request.Context(), c.Param("universityId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Review godoc
// @Summary Open a submission for review
// @Description Locks a New submission and records the reviewer.
// @Tags StudentsData
// @Produce json
// @Param universityId path string true "University ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students-data/{universityId}/review [get]
func (h *StudentsDataHandler) Review(c *gin.Context) {
	view, err := h.service.Review(c.Request.Context(), c.Param("universityId"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Attachment godoc
// @Summary Download an attachment
// @Description Serves a submitted image through a signed, expiring link.
// @Tags StudentsData
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students-data/attachments/{token} [get]
func (h *StudentsDataHandler) Attachment(c *gin.Context) {
	file, name, err := h.service.OpenAttachment(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read attachment"))
		return
	}
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", name),
	})
}

// bind reads the multipart form. A missing image is not an error here; the
// service decides whether one is required.
func (h *StudentsDataHandler) bind(c *gin.Context) (models.SubmitStudentsDataRequest, multipart.File, *models.Attachment, bool) {
	var req models.SubmitStudentsDataRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return req, nil, nil, false
	}
	id, err := ownUniversityID(c, req.UniversityID)
	if err != nil {
		response.Error(c, err)
		return req, nil, nil, false
	}
	req.UniversityID = id

	header, err := c.FormFile(imageField)
	if err != nil {
		if err == http.ErrMissingFile {
			return req, nil, nil, true
		}
		response.Error(c, invalidPayload(err))
		return req, nil, nil, false
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, invalidPayload(err))
		return req, nil, nil, false
	}
	return req, file, &models.Attachment{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}, true
}

func reader(file multipart.File) io.Reader {
	if file == nil {
		return nil
	}
	return file
}
