package relay

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Payload is a built external request body.
type Payload interface {
	Mode() PayloadMode
	// FormValues flattens the payload for form-urlencoded delivery.
	FormValues() (url.Values, error)
}

// FlatPayload is a flat string record produced in flat mode.
type FlatPayload map[string]string

func (p FlatPayload) Mode() PayloadMode { return PayloadModeFlat }

func (p FlatPayload) FormValues() (url.Values, error) { return stringValues(p), nil }

// RecordPayload is a renamed string record produced in json-record-map mode.
type RecordPayload map[string]string

func (p RecordPayload) Mode() PayloadMode { return PayloadModeRecordMap }

func (p RecordPayload) FormValues() (url.Values, error) { return stringValues(p), nil }

// UTM mirrors the tracking block the lender form always sends, all null.
type UTM struct {
	Source   *string `json:"source"`
	Medium   *string `json:"medium"`
	Campaign *string `json:"campaign"`
	Content  *string `json:"content"`
	Term     *string `json:"term"`
}

// FormUpdate is the lender form's update message. With Complete false it is a
// draft; with Complete true it finalises the session.
type FormUpdate struct {
	SessionID     string                 `json:"session_id"`
	FormData      map[string]interface{} `json:"form_data"`
	SentTimestamp int64                  `json:"sent_timestamp"`
	Complete      bool                   `json:"complete"`
}

func (p *FormUpdate) Mode() PayloadMode { return PayloadModeFormShape }

// FormValues sends form_data as a JSON string next to the scalar fields.
func (p *FormUpdate) FormValues() (url.Values, error) {
	formData, err := json.Marshal(p.FormData)
	if err != nil {
		return nil, fmt.Errorf("encode form_data: %w", err)
	}
	values := url.Values{}
	values.Set("session_id", p.SessionID)
	values.Set("form_data", string(formData))
	values.Set("sent_timestamp", strconv.FormatInt(p.SentTimestamp, 10))
	values.Set("complete", strconv.FormatBool(p.Complete))
	return values, nil
}

// stage returns a copy of the update for one stage of the two-stage protocol.
func (p *FormUpdate) stage(complete bool, timestamp int64) *FormUpdate {
	formData := make(map[string]interface{}, len(p.FormData))
	for k, v := range p.FormData {
		formData[k] = v
	}
	return &FormUpdate{
		SessionID:     p.SessionID,
		FormData:      formData,
		SentTimestamp: timestamp,
		Complete:      complete,
	}
}

func stringValues(m map[string]string) url.Values {
	values := make(url.Values, len(m))
	for k, v := range m {
		values.Set(k, v)
	}
	return values
}
