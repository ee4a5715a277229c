package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lender-relay-api/internal/dto"
	"github.com/noah-isme/lender-relay-api/internal/models"
	appErrors "github.com/noah-isme/lender-relay-api/pkg/errors"
	"github.com/noah-isme/lender-relay-api/pkg/response"
)

type intakeService interface {
	Create(ctx context.Context, raw models.SubmissionData, meta dto.SubmitMeta) (*dto.SubmitResponse, error)
}

// IntakeHandler accepts public loan-intake submissions.
type IntakeHandler struct {
	service intakeService
}

// NewIntakeHandler constructs an intake handler.
func NewIntakeHandler(service intakeService) *IntakeHandler {
	return &IntakeHandler{service: service}
}

// Submit godoc
// @Summary Submit a loan intake
// @Description Validates and stores the submission, notifies the operator and returns the payload that would be relayed.
// @Tags Intake
// @Accept json
// @Produce json
// @Param payload body models.SubmissionData true "Intake submission"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /submit [post]
func (h *IntakeHandler) Submit(c *gin.Context) {
	var req models.SubmissionData
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload"))
		return
	}

	meta := dto.SubmitMeta{UserAgent: c.Request.UserAgent(), Origin: requestOrigin(c)}
	result, err := h.service.Create(c.Request.Context(), req, meta)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// requestOrigin rebuilds the scheme and host the client used to reach us.
func requestOrigin(c *gin.Context) string {
	host := c.Request.Host
	if forwarded := c.GetHeader("X-Forwarded-Host"); forwarded != "" {
		host = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if host == "" {
		return ""
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return scheme + "://" + host
}
