package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lender-relay-api/pkg/errors"
	"github.com/noah-isme/lender-relay-api/pkg/middleware/requestid"
)

// PreviewBody is returned by Relay when no delivery is performed.
const PreviewBody = "Relay disabled"

// Relay stages reported to observers and logs.
const (
	StageSingle = "single"
	StageDraft  = "draft"
	StageFinal  = "final"
)

// FailureKind classifies a failed relay.
type FailureKind string

const (
	FailureConfiguration FailureKind = "configuration"
	FailureTransport     FailureKind = "transport"
	FailureUpstream      FailureKind = "upstream"
)

// Result is the outcome of one relay. A successful result carries the final
// HTTP status and body. A failed result always carries Error; Status and Body
// are set only when the endpoint answered.
type Result struct {
	OK     bool        `json:"ok"`
	Status int         `json:"status,omitempty"`
	Body   string      `json:"body,omitempty"`
	Error  string      `json:"error,omitempty"`
	Kind   FailureKind `json:"kind,omitempty"`
}

// Err converts a failed result into a typed application error.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	switch r.Kind {
	case FailureConfiguration:
		return appErrors.Clone(appErrors.ErrConfiguration, r.Error)
	case FailureUpstream:
		return appErrors.WithDetails(appErrors.ErrUpstreamReject, r.Error, map[string]interface{}{
			"status": r.Status,
			"body":   r.Body,
		})
	default:
		return appErrors.Clone(appErrors.ErrTransport, r.Error)
	}
}

// Observer receives one call per POST attempt.
type Observer interface {
	ObserveRelayAttempt(stage string, ok bool, duration time.Duration)
}

// Client delivers payloads to the lender endpoint.
type Client struct {
	settings *Settings
	http     *http.Client
	logger   *zap.Logger
	observer Observer
	now      func() time.Time
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client. Redirect following is
// always disabled on the copy the Client keeps.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			clone := *hc
			clone.CheckRedirect = noFollow
			c.http = &clone
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers a metrics observer.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) {
		c.observer = o
	}
}

// WithClientClock overrides the clock used for two-stage timestamps.
func WithClientClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient constructs a relay client.
func NewClient(settings *Settings, opts ...ClientOption) *Client {
	c := &Client{
		settings: settings,
		http: &http.Client{
			Timeout:       settings.Timeout,
			CheckRedirect: noFollow,
		},
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func noFollow(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

// Relay delivers payload. override, when non-nil, replaces the configured
// send mode. Preview mode never touches the network.
func (c *Client) Relay(ctx context.Context, payload Payload, override *SendMode) Result {
	mode := c.settings.Mode
	if override != nil {
		mode = *override
	}
	if mode != SendModeSubmit {
		return Result{OK: true, Status: http.StatusOK, Body: PreviewBody}
	}

	if c.settings.EndpointURL == "" {
		return failure(FailureConfiguration, "lender endpoint URL is not configured")
	}
	if payload == nil {
		return failure(FailureConfiguration, "no payload to relay")
	}

	if c.settings.Encoding == EncodingJSON && c.settings.TwoStage {
		if update, ok := payload.(*FormUpdate); ok && update.Complete && update.SessionID != "" {
			return c.relayTwoStage(ctx, update)
		}
	}

	body, err := c.encode(payload)
	if err != nil {
		return failure(FailureConfiguration, err.Error())
	}
	return c.postOnce(ctx, StageSingle, body)
}

func (c *Client) relayTwoStage(ctx context.Context, update *FormUpdate) Result {
	draftBody, err := json.Marshal(update.stage(false, c.now().UnixMilli()))
	if err != nil {
		return failure(FailureConfiguration, fmt.Sprintf("encode draft: %v", err))
	}
	draft := c.postOnce(ctx, StageDraft, draftBody)
	if !draft.OK {
		return draft
	}

	finalBody, err := json.Marshal(update.stage(true, c.now().UnixMilli()))
	if err != nil {
		return failure(FailureConfiguration, fmt.Sprintf("encode final: %v", err))
	}
	final := c.postOnce(ctx, StageFinal, finalBody)
	if !final.OK {
		return final
	}

	combined, err := json.Marshal(struct {
		Draft string `json:"draft"`
		Final string `json:"final"`
	}{Draft: draft.Body, Final: final.Body})
	if err != nil {
		return failure(FailureConfiguration, fmt.Sprintf("encode stage bodies: %v", err))
	}
	return Result{OK: true, Status: final.Status, Body: string(combined)}
}

func (c *Client) encode(payload Payload) ([]byte, error) {
	switch c.settings.Encoding {
	case EncodingJSON:
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode json payload: %w", err)
		}
		return body, nil
	case EncodingForm:
		values, err := payload.FormValues()
		if err != nil {
			return nil, err
		}
		return []byte(values.Encode()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %s", c.settings.Encoding)
	}
}

// postOnce issues exactly one POST and classifies the outcome.
func (c *Client) postOnce(ctx context.Context, stage string, body []byte) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.settings.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return failure(FailureConfiguration, fmt.Sprintf("build relay request: %v", err))
	}
	for k, v := range c.settings.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", c.settings.Encoding.ContentType())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(ctx, stage, false, 0, start)
		return failure(FailureTransport, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(ctx, stage, false, resp.StatusCode, start)
		return failure(FailureTransport, fmt.Sprintf("read relay response: %v", err))
	}

	text := string(raw)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.observe(ctx, stage, false, resp.StatusCode, start)
		return Result{
			OK:     false,
			Status: resp.StatusCode,
			Body:   text,
			Error:  fmt.Sprintf("relay failed with status %d", resp.StatusCode),
			Kind:   FailureUpstream,
		}
	}

	c.observe(ctx, stage, true, resp.StatusCode, start)
	return Result{OK: true, Status: resp.StatusCode, Body: text}
}

func (c *Client) observe(ctx context.Context, stage string, ok bool, status int, start time.Time) {
	elapsed := time.Since(start)
	if c.observer != nil {
		c.observer.ObserveRelayAttempt(stage, ok, elapsed)
	}
	fields := []zap.Field{
		zap.String("stage", stage),
		zap.Bool("ok", ok),
		zap.Int("status", status),
		zap.Duration("duration", elapsed),
		zap.String("endpoint_host", endpointHost(c.settings.EndpointURL)),
	}
	if reqID := requestid.FromContext(ctx); reqID != "" {
		fields = append(fields, zap.String("request_id", reqID))
	}
	if ok {
		c.logger.Info("relay attempt", fields...)
		return
	}
	c.logger.Warn("relay attempt failed", fields...)
}

func endpointHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

func failure(kind FailureKind, message string) Result {
	return Result{OK: false, Error: message, Kind: kind}
}
