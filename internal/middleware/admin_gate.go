package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lender-relay-api/pkg/errors"
	"github.com/noah-isme/lender-relay-api/pkg/middleware/requestid"
	"github.com/noah-isme/lender-relay-api/pkg/response"
)

// DefaultAdminCookie is the cookie carrying the admin secret.
const DefaultAdminCookie = "admin_token"

// AdminGate admits requests whose admin cookie equals the configured token.
// With no token configured every request is refused.
func AdminGate(token, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	if cookieName == "" {
		cookieName = DefaultAdminCookie
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if token == "" {
			logAdminDenied(c, logger, "token_not_configured")
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "ADMIN_TOKEN not configured"))
			c.Abort()
			return
		}

		provided, err := c.Cookie(cookieName)
		if err != nil || !TokenMatches(provided, token) {
			logAdminDenied(c, logger, "invalid_token")
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Next()
	}
}

// TokenMatches compares a provided secret against the expected one in
// constant time. An empty provided value never matches.
func TokenMatches(provided, expected string) bool {
	if provided == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

func logAdminDenied(c *gin.Context, logger *zap.Logger, reason string) {
	logger.Warn("admin access denied",
		zap.String("reason", reason),
		zap.String("path", c.Request.URL.Path),
		zap.String("ip", c.ClientIP()),
		zap.String("request_id", requestid.FromContext(c.Request.Context())),
	)
}
