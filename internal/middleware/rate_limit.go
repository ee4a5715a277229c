package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lender-relay-api/pkg/errors"
	"github.com/noah-isme/lender-relay-api/pkg/middleware/requestid"
	"github.com/noah-isme/lender-relay-api/pkg/response"
)

const rateLimitPrefix = "lender-relay:ratelimit:"

// WindowCounter counts hits within a fixed window keyed by client.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit throttles requests per client IP using fixed windows. Counter
// errors let the request through.
func RateLimit(scope string, counter WindowCounter, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = time.Minute
	}
	return func(c *gin.Context) {
		if counter == nil || limit <= 0 {
			c.Next()
			return
		}

		key := rateLimitPrefix + scope + ":" + c.ClientIP()
		count, err := counter.IncrWindow(c.Request.Context(), key, window)
		if err != nil {
			logger.Warn("rate limit counter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			logger.Warn("rate limit exceeded",
				zap.String("scope", scope),
				zap.String("client_ip", c.ClientIP()),
				zap.String("request_id", requestid.FromContext(c.Request.Context())),
			)
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.Error(c, appErrors.ErrRateLimited)
			c.Abort()
			return
		}

		c.Next()
	}
}

// MemoryWindow is an in-process WindowCounter used when Redis is disabled.
type MemoryWindow struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	now     func() time.Time
}

type windowEntry struct {
	count   int64
	resetAt time.Time
}

// NewMemoryWindow constructs an empty in-memory counter.
func NewMemoryWindow() *MemoryWindow {
	return &MemoryWindow{entries: make(map[string]*windowEntry), now: time.Now}
}

// IncrWindow implements WindowCounter.
func (m *MemoryWindow) IncrWindow(_ context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.entries[key]
	if !ok || !now.Before(entry.resetAt) {
		m.sweep(now)
		entry = &windowEntry{resetAt: now.Add(window)}
		m.entries[key] = entry
	}
	entry.count++
	return entry.count, nil
}

// sweep drops expired windows. Callers hold the lock.
func (m *MemoryWindow) sweep(now time.Time) {
	for key, entry := range m.entries {
		if !now.Before(entry.resetAt) {
			delete(m.entries, key)
		}
	}
}
