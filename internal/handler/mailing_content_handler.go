package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/interviews-api/internal/models"
	"github.com/noah-isme/interviews-api/internal/service"
	"github.com/noah-isme/interviews-api/pkg/response"
)

// MailingContentHandler manages notification templates.
type MailingContentHandler struct {
	service *service.MailingContentService
}

// NewMailingContentHandler constructs handler.
func NewMailingContentHandler(svc *service.MailingContentService) *MailingContentHandler {
	return &MailingContentHandler{service: svc}
}

// List godoc
// @Summary List mailing contents
// @Tags MailingContents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /mailing-contents [get]
func (h *MailingContentHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get mailing content
// @Tags MailingContents
// @Produce json
// @Param id path int true "Mail ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /mailing-contents/{id} [get]
func (h *MailingContentHandler) Get(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create mailing content
// @Tags MailingContents
// @Accept json
// @Produce json
// @Param payload body models.MailingContentRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /mailing-contents [post]
func (h *MailingContentHandler) Create(c *gin.Context) {
	var req models.MailingContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.service.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update mailing content
// @Description Editing a template clears its default flag.
// @Tags MailingContents
// @Accept json
// @Produce json
// @Param id path int true "Mail ID"
// @Param payload body models.MailingContentRequest true "Template payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /mailing-contents/{id} [put]
func (h *MailingContentHandler) Update(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.MailingContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// SetDefault godoc
// @Summary Make mailing content the default
// @Tags MailingContents
// @Produce json
// @Param id path int true "Mail ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /mailing-contents/{id}/default [put]
func (h *MailingContentHandler) SetDefault(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.SetDefault(c.Request.Context(), id, actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete mailing content
// @Tags MailingContents
// @Produce json
// @Param id path int true "Mail ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /mailing-contents/{id} [delete]
func (h *MailingContentHandler) Delete(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
