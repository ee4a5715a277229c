package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lender-relay-api/pkg/config"
	appErrors "github.com/noah-isme/lender-relay-api/pkg/errors"
)

type capturedRequest struct {
	contentType string
	headers     http.Header
	body        string
}

type recordingServer struct {
	mu       sync.Mutex
	requests []capturedRequest
	respond  func(n int, w http.ResponseWriter)
	server   *httptest.Server
}

func newRecordingServer(t *testing.T, respond func(n int, w http.ResponseWriter)) *recordingServer {
	t.Helper()
	rs := &recordingServer{respond: respond}
	rs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rs.mu.Lock()
		rs.requests = append(rs.requests, capturedRequest{
			contentType: r.Header.Get("Content-Type"),
			headers:     r.Header.Clone(),
			body:        string(body),
		})
		n := len(rs.requests)
		rs.mu.Unlock()
		rs.respond(n, w)
	}))
	t.Cleanup(rs.server.Close)
	return rs
}

func (rs *recordingServer) captured() []capturedRequest {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]capturedRequest(nil), rs.requests...)
}

type observerStub struct {
	stages []string
	oks    []bool
}

func (o *observerStub) ObserveRelayAttempt(stage string, ok bool, _ time.Duration) {
	o.stages = append(o.stages, stage)
	o.oks = append(o.oks, ok)
}

func submitMode() *SendMode {
	m := SendModeSubmit
	return &m
}

func sampleFormUpdate() *FormUpdate {
	return &FormUpdate{
		SessionID:     "session-1",
		FormData:      map[string]interface{}{"email": "ops@relay.example.com", "loanPurpose": "Purchase"},
		SentTimestamp: 1,
		Complete:      true,
	}
}

func TestRelayPreviewMakesNoNetworkCall(t *testing.T) {
	rs := newRecordingServer(t, func(int, http.ResponseWriter) {})
	settings := newTestSettings(t, config.RelayConfig{EndpointURL: rs.server.URL})
	client := NewClient(settings)

	payloads := []Payload{FlatPayload{"a": "b"}, RecordPayload{}, sampleFormUpdate(), nil}
	for _, p := range payloads {
		res := client.Relay(context.Background(), p, nil)
		assert.True(t, res.OK)
		assert.Equal(t, http.StatusOK, res.Status)
		assert.Equal(t, PreviewBody, res.Body)
	}

	preview := SendModePreview
	res := client.Relay(context.Background(), FlatPayload{}, &preview)
	assert.True(t, res.OK)
	assert.Empty(t, rs.captured())
}

func TestRelayPreviewDoesNotNeedEndpoint(t *testing.T) {
	client := NewClient(newTestSettings(t, config.RelayConfig{}))

	res := client.Relay(context.Background(), FlatPayload{}, nil)
	assert.True(t, res.OK)
	assert.Equal(t, PreviewBody, res.Body)
}

func TestRelaySubmitWithoutEndpointIsConfigurationFailure(t *testing.T) {
	client := NewClient(newTestSettings(t, config.RelayConfig{Mode: "submit"}))

	res := client.Relay(context.Background(), FlatPayload{"a": "b"}, nil)
	assert.False(t, res.OK)
	assert.Equal(t, FailureConfiguration, res.Kind)
	assert.Zero(t, res.Status)
	assert.ErrorIs(t, res.Err(), appErrors.ErrConfiguration)
}

func TestRelayFormEncodingWithHeaders(t *testing.T) {
	rs := newRecordingServer(t, func(_ int, w http.ResponseWriter) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("accepted"))
	})
	settings := newTestSettings(t, config.RelayConfig{
		EndpointURL: rs.server.URL,
		HeadersJSON: `{"X-Partner-Key":"abc","Content-Type":"text/plain"}`,
	})
	observer := &observerStub{}
	client := NewClient(settings, WithObserver(observer))

	res := client.Relay(context.Background(), FlatPayload{"first_name": "Ada", "intent": "Purchase"}, submitMode())
	require.True(t, res.OK)
	assert.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, "accepted", res.Body)

	reqs := rs.captured()
	require.Len(t, reqs, 1)
	assert.Equal(t, "application/x-www-form-urlencoded;charset=UTF-8", reqs[0].contentType)
	assert.Equal(t, "abc", reqs[0].headers.Get("X-Partner-Key"))
	values, err := url.ParseQuery(reqs[0].body)
	require.NoError(t, err)
	assert.Equal(t, "Ada", values.Get("first_name"))
	assert.Equal(t, "Purchase", values.Get("intent"))

	assert.Equal(t, []string{StageSingle}, observer.stages)
	assert.Equal(t, []bool{true}, observer.oks)
}

func TestRelayFormEncodingOfFormUpdate(t *testing.T) {
	rs := newRecordingServer(t, func(_ int, w http.ResponseWriter) { w.WriteHeader(http.StatusOK) })
	settings := newTestSettings(t, config.RelayConfig{EndpointURL: rs.server.URL, TwoStage: true})
	client := NewClient(settings)

	res := client.Relay(context.Background(), sampleFormUpdate(), submitMode())
	require.True(t, res.OK)

	reqs := rs.captured()
	require.Len(t, reqs, 1, "two-stage applies to json encoding only")
	values, err := url.ParseQuery(reqs[0].body)
	require.NoError(t, err)
	assert.Equal(t, "session-1", values.Get("session_id"))
	assert.Equal(t, "true", values.Get("complete"))
	assert.JSONEq(t, `{"email":"ops@relay.example.com","loanPurpose":"Purchase"}`, values.Get("form_data"))
}

func TestRelayJSONSingleStage(t *testing.T) {
	rs := newRecordingServer(t, func(_ int, w http.ResponseWriter) { _, _ = w.Write([]byte(`{"ok":true}`)) })
	settings := newTestSettings(t, config.RelayConfig{EndpointURL: rs.server.URL, ContentType: "json"})
	client := NewClient(settings)

	res := client.Relay(context.Background(), RecordPayload{"email": "ops@relay.example.com"}, submitMode())
	require.True(t, res.OK)
	assert.Equal(t, `{"ok":true}`, res.Body)

	reqs := rs.captured()
	require.Len(t, reqs, 1)
	assert.Equal(t, "application/json", reqs[0].contentType)
	assert.JSONEq(t, `{"email":"ops@relay.example.com"}`, reqs[0].body)
}

func TestRelayTwoStageSendsDraftThenFinal(t *testing.T) {
	rs := newRecordingServer(t, func(n int, w http.ResponseWriter) {
		if n == 1 {
			_, _ = w.Write([]byte("draft-ok"))
			return
		}
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("final-ok"))
	})
	settings := newTestSettings(t, config.RelayConfig{
		EndpointURL: rs.server.URL,
		ContentType: "json",
		TwoStage:    true,
	})
	tick := int64(1000)
	client := NewClient(settings, WithClientClock(func() time.Time {
		tick++
		return time.UnixMilli(tick)
	}))

	payload := sampleFormUpdate()
	res := client.Relay(context.Background(), payload, submitMode())
	require.True(t, res.OK)
	assert.Equal(t, http.StatusAccepted, res.Status)
	assert.JSONEq(t, `{"draft":"draft-ok","final":"final-ok"}`, res.Body)

	reqs := rs.captured()
	require.Len(t, reqs, 2)

	var draft, final FormUpdate
	require.NoError(t, json.Unmarshal([]byte(reqs[0].body), &draft))
	require.NoError(t, json.Unmarshal([]byte(reqs[1].body), &final))
	assert.False(t, draft.Complete)
	assert.True(t, final.Complete)
	assert.Equal(t, "session-1", draft.SessionID)
	assert.Equal(t, "session-1", final.SessionID)
	assert.Equal(t, int64(1001), draft.SentTimestamp)
	assert.Equal(t, int64(1002), final.SentTimestamp)
	assert.Equal(t, payload.FormData, draft.FormData)

	assert.True(t, payload.Complete, "caller payload is not mutated")
	assert.Equal(t, int64(1), payload.SentTimestamp)
}

func TestRelayTwoStageStopsAfterFailedDraft(t *testing.T) {
	rs := newRecordingServer(t, func(_ int, w http.ResponseWriter) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("bad draft"))
	})
	settings := newTestSettings(t, config.RelayConfig{
		EndpointURL: rs.server.URL,
		ContentType: "json",
		TwoStage:    true,
	})
	observer := &observerStub{}
	client := NewClient(settings, WithObserver(observer))

	res := client.Relay(context.Background(), sampleFormUpdate(), submitMode())
	assert.False(t, res.OK)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Equal(t, "bad draft", res.Body)
	assert.Equal(t, "relay failed with status 422", res.Error)
	assert.Equal(t, FailureUpstream, res.Kind)
	assert.ErrorIs(t, res.Err(), appErrors.ErrUpstreamReject)

	require.Len(t, rs.captured(), 1)
	assert.Equal(t, []string{StageDraft}, observer.stages)
}

func TestRelayTwoStageSkippedForIncompleteUpdate(t *testing.T) {
	rs := newRecordingServer(t, func(_ int, w http.ResponseWriter) { w.WriteHeader(http.StatusOK) })
	settings := newTestSettings(t, config.RelayConfig{
		EndpointURL: rs.server.URL,
		ContentType: "json",
		TwoStage:    true,
	})
	client := NewClient(settings)

	payload := sampleFormUpdate()
	payload.Complete = false
	res := client.Relay(context.Background(), payload, submitMode())
	require.True(t, res.OK)
	assert.Len(t, rs.captured(), 1)
}

func TestRelayDoesNotFollowRedirects(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("redirect target must not be requested")
	}))
	defer target.Close()

	rs := newRecordingServer(t, func(_ int, w http.ResponseWriter) {
		w.Header().Set("Location", target.URL)
		w.WriteHeader(http.StatusFound)
	})
	settings := newTestSettings(t, config.RelayConfig{EndpointURL: rs.server.URL})
	client := NewClient(settings, WithHTTPClient(&http.Client{}))

	res := client.Relay(context.Background(), FlatPayload{"a": "b"}, submitMode())
	assert.False(t, res.OK)
	assert.Equal(t, http.StatusFound, res.Status)
	assert.Equal(t, "relay failed with status 302", res.Error)
}

func TestRelayTransportErrorCarriesNoStatus(t *testing.T) {
	rs := newRecordingServer(t, func(int, http.ResponseWriter) {})
	endpoint := rs.server.URL
	rs.server.Close()

	settings := newTestSettings(t, config.RelayConfig{EndpointURL: endpoint})
	observer := &observerStub{}
	client := NewClient(settings, WithObserver(observer))

	res := client.Relay(context.Background(), FlatPayload{"a": "b"}, submitMode())
	assert.False(t, res.OK)
	assert.Equal(t, FailureTransport, res.Kind)
	assert.Zero(t, res.Status)
	assert.Empty(t, res.Body)
	assert.NotEmpty(t, res.Error)
	assert.ErrorIs(t, res.Err(), appErrors.ErrTransport)
	assert.Equal(t, []bool{false}, observer.oks)
}

func TestRelayHonoursCallerContext(t *testing.T) {
	rs := newRecordingServer(t, func(_ int, w http.ResponseWriter) { w.WriteHeader(http.StatusOK) })
	settings := newTestSettings(t, config.RelayConfig{EndpointURL: rs.server.URL})
	client := NewClient(settings)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := client.Relay(ctx, FlatPayload{"a": "b"}, submitMode())
	assert.False(t, res.OK)
	assert.Equal(t, FailureTransport, res.Kind)
}
