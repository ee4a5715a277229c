package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lender-relay-api/internal/service"
	"github.com/noah-isme/lender-relay-api/pkg/response"
)

type exportService interface {
	SubmissionsCSV(ctx context.Context) (*service.ExportFile, error)
	ReviewSheet(ctx context.Context, id string) (*service.ExportFile, error)
}

// ExportHandler serves admin downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// SubmissionsCSV godoc
// @Summary Export submissions as CSV
// @Tags Exports
// @Produce text/csv
// @Success 200 {file} file
// @Router /admin/submissions/export.csv [get]
func (h *ExportHandler) SubmissionsCSV(c *gin.Context) {
	file, err := h.service.SubmissionsCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// ReviewSheet godoc
// @Summary Download a submission review sheet
// @Tags Exports
// @Produce application/pdf
// @Param id path string true "Submission ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /admin/submissions/{id}/review.pdf [get]
func (h *ExportHandler) ReviewSheet(c *gin.Context) {
	file, err := h.service.ReviewSheet(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
