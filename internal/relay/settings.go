package relay

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/lender-relay-api/pkg/config"
	appErrors "github.com/noah-isme/lender-relay-api/pkg/errors"
)

// defaultFieldMap renames internal submission fields for the flat and
// json-record-map shapes. Fields without an entry are not relayed.
var defaultFieldMap = map[string]string{
	"email":                            "email",
	"firstName":                        "first_name",
	"lastName":                         "last_name",
	"phone":                            "phone",
	"role":                             "role",
	"fico":                             "fico_estimate",
	"propertyAddress":                  "property_address",
	"propertyType":                     "property_type",
	"purchaseOrRefi":                   "intent",
	"loanType":                         "loan_type",
	"purchasePrice":                    "purchase_price",
	"experience":                       "experience_36m",
	"refi6Months":                      "refi_6_months",
	"inputLandCost":                    "land_cost",
	"inputGUCPurchaseConstructionCost": "guc_construction_cost",
	"inputGUCARV":                      "guc_arv",
	"preferredClosing":                 "preferred_closing",
	"brokerFee":                        "broker_fee",
	"leadSource":                       "lead_source",
}

// Settings is the relay configuration parsed once at startup. It is never
// mutated afterwards; map accessors return copies.
type Settings struct {
	EndpointURL   string
	Mode          SendMode
	PayloadMode   PayloadMode
	Encoding      Encoding
	TwoStage      bool
	OperatorEmail string
	Timeout       time.Duration

	fieldMap     map[string]string
	staticFields map[string]interface{}
	headers      map[string]string
}

// NewSettings validates raw relay configuration. Unknown enumeration values and
// malformed JSON are configuration errors; a missing endpoint URL or operator
// email is not, since preview mode needs neither.
func NewSettings(cfg config.RelayConfig) (*Settings, error) {
	mode, err := ParseSendMode(cfg.Mode)
	if err != nil {
		return nil, configError("RELAY_MODE", err)
	}
	payloadMode, err := ParsePayloadMode(cfg.PayloadMode)
	if err != nil {
		return nil, configError("LENDER_PAYLOAD_MODE", err)
	}
	encoding, err := ParseEncoding(cfg.ContentType)
	if err != nil {
		return nil, configError("LENDER_CONTENT_TYPE", err)
	}

	overrides := map[string]string{}
	if err := decodeObject(cfg.FieldMapJSON, &overrides); err != nil {
		return nil, configError("LENDER_FIELD_MAP_JSON", err)
	}
	staticFields := map[string]interface{}{}
	if err := decodeObject(cfg.StaticFieldsJSON, &staticFields); err != nil {
		return nil, configError("LENDER_STATIC_FIELDS_JSON", err)
	}
	headers := map[string]string{}
	if err := decodeObject(cfg.HeadersJSON, &headers); err != nil {
		return nil, configError("LENDER_HEADERS_JSON", err)
	}

	if cfg.RequestTimeout < 0 {
		return nil, configError("LENDER_REQUEST_TIMEOUT", fmt.Errorf("must not be negative"))
	}

	return &Settings{
		EndpointURL:   strings.TrimSpace(cfg.EndpointURL),
		Mode:          mode,
		PayloadMode:   payloadMode,
		Encoding:      encoding,
		TwoStage:      cfg.TwoStage,
		OperatorEmail: strings.TrimSpace(cfg.OperatorEmail),
		Timeout:       cfg.RequestTimeout,
		fieldMap:      mergeFieldMap(overrides),
		staticFields:  staticFields,
		headers:       headers,
	}, nil
}

// FieldMap returns the effective internal to external field names.
func (s *Settings) FieldMap() map[string]string {
	out := make(map[string]string, len(s.fieldMap))
	for k, v := range s.fieldMap {
		out[k] = v
	}
	return out
}

// Headers returns the extra request headers sent with every relay POST.
func (s *Settings) Headers() map[string]string {
	out := make(map[string]string, len(s.headers))
	for k, v := range s.headers {
		out[k] = v
	}
	return out
}

// StaticFields returns the constant fields merged into every payload.
func (s *Settings) StaticFields() map[string]interface{} {
	out := make(map[string]interface{}, len(s.staticFields))
	for k, v := range s.staticFields {
		out[k] = v
	}
	return out
}

// mergeFieldMap layers overrides on the defaults. An override to "" removes
// the default mapping so the field is dropped.
func mergeFieldMap(overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(defaultFieldMap)+len(overrides))
	for k, v := range defaultFieldMap {
		merged[k] = v
	}
	for k, v := range overrides {
		v = strings.TrimSpace(v)
		if v == "" {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	return merged
}

func decodeObject(raw string, target interface{}) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return fmt.Errorf("expected a JSON object: %w", err)
	}
	return nil
}

func configError(key string, err error) error {
	return appErrors.Wrap(err, appErrors.ErrConfiguration.Code, appErrors.ErrConfiguration.Status,
		fmt.Sprintf("invalid %s", key))
}
