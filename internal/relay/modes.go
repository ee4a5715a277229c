package relay

import (
	"fmt"
	"strings"
)

// PayloadMode selects the external wire shape produced by the Builder.
type PayloadMode int

const (
	PayloadModeFlat PayloadMode = iota
	PayloadModeRecordMap
	PayloadModeFormShape
)

var payloadModeNames = map[PayloadMode]string{
	PayloadModeFlat:      "flat",
	PayloadModeRecordMap: "json-record-map",
	PayloadModeFormShape: "third-party-form-shape",
}

func (m PayloadMode) String() string {
	if name, ok := payloadModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("PayloadMode(%d)", int(m))
}

// ParsePayloadMode maps a configuration value to a PayloadMode. Empty selects flat.
func ParsePayloadMode(raw string) (PayloadMode, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return PayloadModeFlat, nil
	}
	for mode, name := range payloadModeNames {
		if name == value {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown payload mode %q", raw)
}

// SendMode decides whether Relay performs a real delivery.
type SendMode int

const (
	SendModePreview SendMode = iota
	SendModeSubmit
)

func (m SendMode) String() string {
	switch m {
	case SendModePreview:
		return "preview"
	case SendModeSubmit:
		return "submit"
	default:
		return fmt.Sprintf("SendMode(%d)", int(m))
	}
}

// ParseSendMode maps a configuration value to a SendMode. Empty selects preview.
func ParseSendMode(raw string) (SendMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "preview":
		return SendModePreview, nil
	case "submit":
		return SendModeSubmit, nil
	default:
		return 0, fmt.Errorf("unknown relay mode %q", raw)
	}
}

// Encoding is the request body encoding used on the wire.
type Encoding int

const (
	EncodingForm Encoding = iota
	EncodingJSON
)

func (e Encoding) String() string {
	switch e {
	case EncodingForm:
		return "form"
	case EncodingJSON:
		return "json"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// ContentType returns the request content type for the encoding.
func (e Encoding) ContentType() string {
	if e == EncodingJSON {
		return "application/json"
	}
	return "application/x-www-form-urlencoded;charset=UTF-8"
}

// ParseEncoding maps a configuration value to an Encoding. Empty selects form.
func ParseEncoding(raw string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "form":
		return EncodingForm, nil
	case "json":
		return EncodingJSON, nil
	default:
		return 0, fmt.Errorf("unknown content type %q", raw)
	}
}
