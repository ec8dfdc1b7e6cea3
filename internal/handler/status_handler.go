package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/interviews-api/internal/models"
	"github.com/noah-isme/interviews-api/internal/service"
	"github.com/noah-isme/interviews-api/pkg/response"
)

// StatusHandler exposes the student status workflow.
type StatusHandler struct {
	service *service.StatusService
}

// NewStatusHandler constructs handler.
func NewStatusHandler(svc *service.StatusService) *StatusHandler {
	return &StatusHandler{service: svc}
}

// Update godoc
// @Summary Move a student to a new status
// @Description Only New or Pending students can be moved. Fulfilled sends the booking invitation; a failed email is recorded and does not fail the request.
// @Tags Status
// @Accept json
// @Produce json
// @Param payload body models.StatusUpdateRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /status/update [post]
func (h *StatusHandler) Update(c *gin.Context) {
	var req models.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	res, err := h.service.UpdateStatus(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ResendEmail godoc
// @Summary Resend the booking invitation
// @Description Uses the given mailing content or the default one. Delivery failures are returned.
// @Tags Status
// @Accept json
// @Produce json
// @Param payload body models.ResendEmailRequest true "Resend payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /status/resend-email [post]
func (h *StatusHandler) ResendEmail(c *gin.Context) {
	var req models.ResendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	if err := h.service.ResendEmail(c.Request.Context(), req, actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Email resent successfully.")
}

// ListAll godoc
// @Summary Full status ledger
// @Tags Status
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /status [get]
func (h *StatusHandler) ListAll(c *gin.Context) {
	items, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ListLatest godoc
// @Summary Latest status of every student
// @Tags Status
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /status/latest [get]
func (h *StatusHandler) ListLatest(c *gin.Context) {
	items, err := h.service.ListLatest(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Latest godoc
// @Summary Latest status of one student
// @Tags Status
// @Produce json
// @Param universityId path string true "University ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /status/latest/{universityId} [get]
func (h *StatusHandler) Latest(c *gin.Context) {
	status, err := h.service.Latest(c.Request.Context(), c.Param("universityId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
