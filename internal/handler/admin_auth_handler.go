package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lender-relay-api/internal/dto"
	"github.com/noah-isme/lender-relay-api/internal/middleware"
	"github.com/noah-isme/lender-relay-api/pkg/config"
	appErrors "github.com/noah-isme/lender-relay-api/pkg/errors"
	"github.com/noah-isme/lender-relay-api/pkg/response"
)

const (
	adminLoginPath      = "/admin/login?error=1"
	adminSubmissionPath = "/admin/submissions"
)

// AdminAuthHandler issues and clears the admin session cookie.
type AdminAuthHandler struct {
	token      string
	cookieName string
	ttl        time.Duration
	secure     bool
	logger     *zap.Logger
}

// NewAdminAuthHandler constructs the handler. secure marks the cookie for
// HTTPS only and should be set in production.
func NewAdminAuthHandler(cfg config.AdminConfig, secure bool, logger *zap.Logger) *AdminAuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	name := cfg.CookieName
	if name == "" {
		name = middleware.DefaultAdminCookie
	}
	return &AdminAuthHandler{token: cfg.Token, cookieName: name, ttl: cfg.CookieTTL, secure: secure, logger: logger}
}

// Login godoc
// @Summary Admin login
// @Description Accepts the shared admin token as JSON or form data. Form posts are redirected to the admin pages.
// @Tags Admin
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param payload body dto.AdminLoginRequest true "Admin token"
// @Success 200 {object} response.Envelope
// @Success 303
// @Failure 401 {object} response.Envelope
// @Router /admin/login [post]
func (h *AdminAuthHandler) Login(c *gin.Context) {
	if h.token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrConfiguration, "ADMIN_TOKEN not configured"))
		return
	}

	form := isFormPost(c)
	var req dto.AdminLoginRequest
	if err := c.ShouldBind(&req); err != nil && !form {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload"))
		return
	}

	if !middleware.TokenMatches(req.Token, h.token) {
		h.logger.Warn("admin login rejected", zap.String("ip", c.ClientIP()))
		if form {
			c.Redirect(http.StatusSeeOther, adminLoginPath)
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "Invalid token"))
		return
	}

	h.setCookie(c, req.Token, int(h.ttl.Seconds()))
	h.logger.Info("admin login", zap.String("ip", c.ClientIP()))
	if form {
		c.Redirect(http.StatusSeeOther, adminSubmissionPath)
		return
	}
	response.JSON(c, http.StatusOK, dto.AdminSessionResponse{OK: true}, nil)
}

// Logout godoc
// @Summary Admin logout
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/logout [post]
func (h *AdminAuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	response.JSON(c, http.StatusOK, dto.AdminSessionResponse{OK: true}, nil)
}

func (h *AdminAuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, value, maxAge, "/", "", h.secure, true)
}

func isFormPost(c *gin.Context) bool {
	ct := c.ContentType()
	return strings.Contains(ct, "application/x-www-form-urlencoded") || strings.Contains(ct, "multipart/form-data")
}
