package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lender-relay-api/internal/dto"
	"github.com/noah-isme/lender-relay-api/internal/middleware"
	"github.com/noah-isme/lender-relay-api/internal/models"
	appErrors "github.com/noah-isme/lender-relay-api/pkg/errors"
	"github.com/noah-isme/lender-relay-api/pkg/response"
)

type submissionService interface {
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionSummary, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Submission, bool, error)
	Update(ctx context.Context, id string, raw *models.SubmissionData) (*dto.UpdateSubmissionResponse, error)
	Preview(ctx context.Context, id string) (*dto.PreviewResponse, error)
	Send(ctx context.Context, id string) (*dto.SendResponse, error)
}

// SubmissionHandler serves the admin review queue.
type SubmissionHandler struct {
	service submissionService
}

// NewSubmissionHandler constructs a submission handler.
func NewSubmissionHandler(service submissionService) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

// List godoc
// @Summary List submissions
// @Tags Submissions
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	var query dto.ListSubmissionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}

	items, pagination, err := h.service.List(c.Request.Context(), models.SubmissionFilter{Page: query.Page, PageSize: query.PageSize})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get submission detail
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	submission, hit, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, submission, nil, middleware.ExtractMeta(c))
}

// Update godoc
// @Summary Edit submission data
// @Description Replaces the stored data after validation and returns the submission to review.
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.UpdateSubmissionRequest true "Replacement data"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/submissions/{id} [patch]
func (h *SubmissionHandler) Update(c *gin.Context) {
	var req dto.UpdateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload"))
		return
	}

	result, err := h.service.Update(c.Request.Context(), c.Param("id"), req.Data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Preview godoc
// @Summary Preview the relay payload
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/submissions/{id}/preview [get]
func (h *SubmissionHandler) Preview(c *gin.Context) {
	result, err := h.service.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Send godoc
// @Summary Relay a submission to the lender
// @Description Always submits, whatever the configured relay mode. Lender failures are reported with ok=false.
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /admin/submissions/{id}/send [post]
func (h *SubmissionHandler) Send(c *gin.Context) {
	result, err := h.service.Send(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
