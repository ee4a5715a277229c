package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lender-relay-api/internal/service"
	"github.com/noah-isme/lender-relay-api/pkg/middleware/requestid"
)

func newGatedRouter(token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AdminGate(token, "", nil))
	router.GET("/api/admin/submissions", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func errorCode(t *testing.T, body []byte) (string, string) {
	t.Helper()
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope.Error.Code, envelope.Error.Message
}

func TestAdminGateAcceptsMatchingCookie(t *testing.T) {
	router := newGatedRouter("s3cret")
	req := httptest.NewRequest(http.MethodGet, "/api/admin/submissions", nil)
	req.AddCookie(&http.Cookie{Name: DefaultAdminCookie, Value: "s3cret"})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdminGateRejectsMissingOrWrongCookie(t *testing.T) {
	router := newGatedRouter("s3cret")
	for _, cookie := range []*http.Cookie{nil, {Name: DefaultAdminCookie, Value: "guess"}, {Name: DefaultAdminCookie, Value: ""}} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/submissions", nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		code, _ := errorCode(t, rec.Body.Bytes())
		assert.Equal(t, "UNAUTHORIZED", code)
	}
}

func TestAdminGateLocksDownWithoutToken(t *testing.T) {
	router := newGatedRouter("")
	req := httptest.NewRequest(http.MethodGet, "/api/admin/submissions", nil)
	req.AddCookie(&http.Cookie{Name: DefaultAdminCookie, Value: ""})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	_, message := errorCode(t, rec.Body.Bytes())
	assert.Equal(t, "ADMIN_TOKEN not configured", message)
}

func TestTokenMatches(t *testing.T) {
	assert.True(t, TokenMatches("abc", "abc"))
	assert.False(t, TokenMatches("abd", "abc"))
	assert.False(t, TokenMatches("ab", "abc"))
	assert.False(t, TokenMatches("", ""))
}

type failingCounter struct{}

func (failingCounter) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	return 0, errors.New("redis down")
}

func newLimitedRouter(counter WindowCounter, limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/submit", RateLimit("intake", counter, limit, time.Minute, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	router := newLimitedRouter(NewMemoryWindow(), 2)

	codes := []int{}
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/submit", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if i == 2 {
			assert.Equal(t, "60", rec.Header().Get("Retry-After"))
			assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
			code, _ := errorCode(t, rec.Body.Bytes())
			assert.Equal(t, "RATE_LIMITED", code)
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/submit", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "other clients have their own window")
}

func TestRateLimitFailsOpen(t *testing.T) {
	router := newLimitedRouter(failingCounter{}, 1)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/submit", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestMemoryWindowResets(t *testing.T) {
	window := NewMemoryWindow()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	window.now = func() time.Time { return now }

	count, _ := window.IncrWindow(context.Background(), "k", time.Minute)
	assert.Equal(t, int64(1), count)
	count, _ = window.IncrWindow(context.Background(), "k", time.Minute)
	assert.Equal(t, int64(2), count)

	now = now.Add(time.Minute)
	count, _ = window.IncrWindow(context.Background(), "k", time.Minute)
	assert.Equal(t, int64(1), count)
}

func TestResponseMetaCarriesRequestIDAndCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(requestid.Middleware(), ResponseMeta())

	var meta map[string]interface{}
	router.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, meta)
	assert.Equal(t, "req-42", meta["request_id"])
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestMetricsMiddlewareRecordsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics))
	router.GET("/api/admin/submissions/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/admin/submissions/abc", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, uint64(1), metrics.Snapshot().RequestsTotal)
}
