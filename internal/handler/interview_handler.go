package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/interviews-api/internal/models"
	"github.com/noah-isme/interviews-api/internal/service"
	appErrors "github.com/noah-isme/interviews-api/pkg/errors"
	"github.com/noah-isme/interviews-api/pkg/response"
)

const dateLayout = "2006-01-02"

// InterviewHandler serves department attendance and interview decisions.
type InterviewHandler struct {
	history *service.InterviewHistoryService
	results *service.InterviewResultService
}

// NewInterviewHandler constructs handler.
func NewInterviewHandler(history *service.InterviewHistoryService, results *service.InterviewResultService) *InterviewHandler {
	return &InterviewHandler{history: history, results: results}
}

// ListHistory godoc
// @Summary List department attendance
// @Tags InterviewHistory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /interview-history [get]
func (h *InterviewHandler) ListHistory(c *gin.Context) {
	items, err := h.history.List(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// StudentHistory godoc
// @Summary Attendance of one student
// @Tags InterviewHistory
// @Produce json
// @Param universityId path string true "University ID"
// @Success 200 {object} response.Envelope
// @Router /interview-history/student/{universityId} [get]
func (h *InterviewHandler) StudentHistory(c *gin.Context) {
	items, err := h.history.ByStudent(c.Request.Context(), c.Param("universityId"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Mark godoc
// @Summary Mark attendance at the agent's department
// @Tags InterviewHistory
// @Accept json
// @Produce json
// @Param payload body models.MarkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /interview-history/mark [post]
func (h *InterviewHandler) Mark(c *gin.Context) {
	var req models.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	res, err := h.history.Mark(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ListResults godoc
// @Summary List interview results
// @Tags InterviewResults
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /interview-results [get]
func (h *InterviewHandler) ListResults(c *gin.Context) {
	items, err := h.results.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// GetResult godoc
// @Summary Get the result of one student
// @Tags InterviewResults
// @Produce json
// @Param universityId path string true "University ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /interview-results/{universityId} [get]
func (h *InterviewHandler) GetResult(c *gin.Context) {
	item, err := h.results.Get(c.Request.Context(), c.Param("universityId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// CreateResult godoc
// @Summary Record an interview result
// @Tags InterviewResults
// @Accept json
// @Produce json
// @Param payload body models.InterviewResultRequest true "Result payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /interview-results [post]
func (h *InterviewHandler) CreateResult(c *gin.Context) {
	var req models.InterviewResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.results.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateResult godoc
// @Summary Change an interview result
// @Tags InterviewResults
// @Accept json
// @Produce json
// @Param universityId path string true "University ID"
// @Param payload body models.InterviewResultRequest true "Result payload"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /interview-results/{universityId} [put]
func (h *InterviewHandler) UpdateResult(c *gin.Context) {
	var req models.InterviewResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	if err := h.results.Update(c.Request.Context(), c.Param("universityId"), req, actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteResult godoc
// @Summary Delete an interview result
// @Tags InterviewResults
// @Produce json
// @Param universityId path string true "University ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /interview-results/{universityId} [delete]
func (h *InterviewHandler) DeleteResult(c *gin.Context) {
	if err := h.results.Delete(c.Request.Context(), c.Param("universityId"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Present godoc
// @Summary Students awaiting a decision
// @Description Students marked present at the personal interview desk without a result.
// @Tags InterviewResults
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /interview-results/present [get]
func (h *InterviewHandler) Present(c *gin.Context) {
	items, err := h.results.Present(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CollegeSummary godoc
// @Summary Decisions per college
// @Description With only startDate a single day is summarised.
// @Tags InterviewResults
// @Produce json
// @Param startDate query string false "YYYY-MM-DD"
// @Param endDate query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /interview-results/college-summary [get]
func (h *InterviewHandler) CollegeSummary(c *gin.Context) {
	var rng models.SummaryRange
	for _, q := range []struct {
		name string
		dest **time.Time
	}{{"startDate", &rng.From}, {"endDate", &rng.To}} {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		day, err := time.Parse(dateLayout, raw)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, q.name+" must be formatted as YYYY-MM-DD"))
			return
		}
		*q.dest = &day
	}

	items, err := h.results.CollegeSummary(c.Request.Context(), rng)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
