package models

import "time"

// MetricsSnapshot summarises instrumentation counters for the admin dashboard.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	SubmissionsCreated       uint64    `json:"submissions_created"`
	RelayAttempts            uint64    `json:"relay_attempts"`
	RelayFailures            uint64    `json:"relay_failures"`
	StatusWriteFailures      uint64    `json:"status_write_failures"`
	NotificationsSent        uint64    `json:"notifications_sent"`
	NotificationsFailed      uint64    `json:"notifications_failed"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
