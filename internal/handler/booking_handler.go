package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/interviews-api/internal/models"
	"github.com/noah-isme/interviews-api/internal/service"
	"github.com/noah-isme/interviews-api/pkg/response"
)

// BookingResponse confirms a reservation.
type BookingResponse struct {
	Message string                 `json:"message"`
	Booking *models.StudentBooking `json:"booking"`
}

// BookingHandler exposes booking endpoints.
type BookingHandler struct {
	service *service.BookingService
}

// NewBookingHandler constructs handler.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{service: svc}
}

// Book godoc
// @Summary Book an interview day
// @Description Reserves one seat on a schedule. Students can only book for themselves.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body models.BookRequest true "Booking payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Book(c *gin.Context) {
	var req models.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	id, err := ownUniversityID(c, req.UniversityID)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.UniversityID = id

	booking, err := h.service.Book(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, BookingResponse{
		Message: "Booking successful and status updated to Reserved.",
		Booking: booking,
	}, nil)
}

// List godoc
// @Summary List bookings
// @Tags Bookings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ByStudent godoc
// @Summary Get a student's booking
// @Tags Bookings
// @Produce json
// @Param universityId path string true "University ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bookings/student/{universityId} [get]
func (h *BookingHandler) ByStudent(c *gin.Context) {
	booking, err := h.service.ByStudent(c.Request.Context(), c.Param("universityId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Today godoc
// @Summary Today's interview queue
// @Tags Bookings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /bookings/today [get]
func (h *BookingHandler) Today(c *gin.Context) {
	items, err := h.service.Today(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ByCollege godoc
// @Summary Bookings filtered by college
// @Tags Bookings
// @Produce json
// @Param faculty query string true "College name"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /bookings/by-college [get]
func (h *BookingHandler) ByCollege(c *gin.Context) {
	items, err := h.service.ByCollege(c.Request.Context(), c.Query("faculty"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Slip godoc
// @Summary Download booking slip
// @Tags Bookings
// @Produce application/pdf
// @Param universityId path string true "University ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /bookings/student/{universityId}/slip [get]
func (h *BookingHandler) Slip(c *gin.Context) {
	doc, err := h.service.Slip(c.Request.Context(), c.Param("universityId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, doc.Filename, doc.ContentType, doc.Content)
}

// Export godoc
// @Summary Export bookings
// @Tags Bookings
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /bookings/export [get]
func (h *BookingHandler) Export(c *gin.Context) {
	doc, err := h.service.Export(c.Request.Context(), c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, doc.Filename, doc.ContentType, doc.Content)
}
