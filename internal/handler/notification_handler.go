package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lender-relay-api/internal/dto"
	"github.com/noah-isme/lender-relay-api/pkg/response"
)

type testNotifier interface {
	SendTestNotification(ctx context.Context, origin string) (*dto.TestEmailResponse, error)
}

// NotificationHandler lets operators check the email transport.
type NotificationHandler struct {
	service testNotifier
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(service testNotifier) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// TestEmail godoc
// @Summary Send a test notification
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /admin/test-email [post]
func (h *NotificationHandler) TestEmail(c *gin.Context) {
	result, err := h.service.SendTestNotification(c.Request.Context(), requestOrigin(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
