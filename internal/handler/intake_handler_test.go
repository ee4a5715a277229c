package handler

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lender-relay-api/internal/dto"
	"github.com/noah-isme/lender-relay-api/internal/models"
	"github.com/noah-isme/lender-relay-api/internal/relay"
	appErrors "github.com/noah-isme/lender-relay-api/pkg/errors"
)

type envelope struct {
	Data       json.RawMessage    `json:"data"`
	Error      *appErrors.Error   `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
	Meta       map[string]any     `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func newJSONContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

type intakeServiceMock struct {
	gotData models.SubmissionData
	gotMeta dto.SubmitMeta
	err     error
}

func (m *intakeServiceMock) Create(ctx context.Context, raw models.SubmissionData, meta dto.SubmitMeta) (*dto.SubmitResponse, error) {
	m.gotData = raw
	m.gotMeta = meta
	if m.err != nil {
		return nil, m.err
	}
	return &dto.SubmitResponse{
		OK:           true,
		SubmissionID: "sub-1",
		NotifyOK:     true,
		RelayPreview: relay.FlatPayload{"email": "ops@example.com"},
	}, nil
}

func TestIntakeHandlerSubmit(t *testing.T) {
	svc := &intakeServiceMock{}
	handler := NewIntakeHandler(svc)
	c, w := newJSONContext(http.MethodPost, "/api/submit", []byte(`{"email":"a@example.com","firstName":"Ada","purchasePrice":250000}`))
	c.Request.Host = "intake.example.com"
	c.Request.Header.Set("User-Agent", "wizard/1.0")

	handler.Submit(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@example.com", svc.gotData.Email)
	require.NotNil(t, svc.gotData.PurchasePrice)
	assert.Equal(t, 250000.0, *svc.gotData.PurchasePrice)
	assert.Equal(t, dto.SubmitMeta{UserAgent: "wizard/1.0", Origin: "http://intake.example.com"}, svc.gotMeta)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &resp))
	assert.Equal(t, "sub-1", resp["submission_id"])
	assert.Equal(t, map[string]any{"email": "ops@example.com"}, resp["relay_preview"])
}

func TestIntakeHandlerSubmitMalformedBody(t *testing.T) {
	svc := &intakeServiceMock{}
	c, w := newJSONContext(http.MethodPost, "/api/submit", []byte(`{"purchasePrice":"lots"}`))

	NewIntakeHandler(svc).Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, w).Error.Code)
	assert.Empty(t, svc.gotData.Email)
}

func TestIntakeHandlerSubmitValidationDetails(t *testing.T) {
	svc := &intakeServiceMock{err: appErrors.WithDetails(appErrors.ErrValidation, "validation failed", map[string][]string{"email": {"Invalid email"}})}
	c, w := newJSONContext(http.MethodPost, "/api/submit", []byte(`{}`))

	NewIntakeHandler(svc).Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email")
}

func TestRequestOrigin(t *testing.T) {
	c, _ := newJSONContext(http.MethodGet, "/", nil)
	c.Request.Host = "api.internal:8080"
	assert.Equal(t, "http://api.internal:8080", requestOrigin(c))

	c.Request.TLS = &tls.ConnectionState{}
	assert.Equal(t, "https://api.internal:8080", requestOrigin(c))

	c.Request.Header.Set("X-Forwarded-Host", "loans.example.com, proxy")
	c.Request.Header.Set("X-Forwarded-Proto", "HTTPS")
	assert.Equal(t, "https://loans.example.com", requestOrigin(c))
}
