package dto

import (
	"github.com/noah-isme/lender-relay-api/internal/models"
	"github.com/noah-isme/lender-relay-api/internal/relay"
)

// SubmitMeta carries request metadata stored next to an intake submission.
type SubmitMeta struct {
	UserAgent string
	Origin    string
}

// SubmitResponse is returned by the public intake endpoint.
type SubmitResponse struct {
	OK           bool          `json:"ok"`
	SubmissionID string        `json:"submission_id"`
	RelayPreview relay.Payload `json:"relay_preview"`
	NotifyOK     bool          `json:"notify_ok"`
	NotifyError  string        `json:"notify_error,omitempty"`
}

// UpdateSubmissionRequest replaces the stored data of a submission.
type UpdateSubmissionRequest struct {
	Data *models.SubmissionData `json:"data"`
}

// UpdateSubmissionResponse echoes the stored data after an edit.
type UpdateSubmissionResponse struct {
	OK     bool                    `json:"ok"`
	Data   models.SubmissionData   `json:"data"`
	Status models.SubmissionStatus `json:"status"`
}

// PreviewResponse shows what would be relayed without sending it.
type PreviewResponse struct {
	SubmissionID string        `json:"submission_id"`
	PayloadMode  string        `json:"payload_mode"`
	Encoding     string        `json:"encoding"`
	TwoStage     bool          `json:"two_stage"`
	RelayPreview relay.Payload `json:"relay_preview"`
}

// SendResponse reports a forced submit. Relay failures are reported through
// OK, ErrorCode and RelayResult rather than as an HTTP error.
type SendResponse struct {
	OK           bool          `json:"ok"`
	ErrorCode    string        `json:"error_code,omitempty"`
	RelayResult  relay.Result  `json:"relay_result"`
	RelayPreview relay.Payload `json:"relay_preview"`
}

// ListSubmissionsQuery binds admin list paging.
type ListSubmissionsQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// AdminLoginRequest is the JSON or form body of the admin login.
type AdminLoginRequest struct {
	Token string `json:"token" form:"token"`
}

// AdminSessionResponse acknowledges login and logout.
type AdminSessionResponse struct {
	OK bool `json:"ok"`
}

// TestEmailResponse reports the outcome of a test notification.
type TestEmailResponse struct {
	OK           bool   `json:"ok"`
	SubmissionID string `json:"submission_id"`
}
