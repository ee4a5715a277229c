package relay

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/lender-relay-api/internal/models"
	appErrors "github.com/noah-isme/lender-relay-api/pkg/errors"
)

// Builder maps validated submissions onto the configured external shape.
// It performs no I/O.
type Builder struct {
	settings  *Settings
	now       func() time.Time
	sessionID func() string
}

// BuilderOption customises a Builder.
type BuilderOption func(*Builder)

// WithClock overrides the clock used for sent_timestamp.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithSessionIDs overrides the session id generator.
func WithSessionIDs(next func() string) BuilderOption {
	return func(b *Builder) {
		if next != nil {
			b.sessionID = next
		}
	}
}

// NewBuilder constructs a Builder for the given settings.
func NewBuilder(settings *Settings, opts ...BuilderOption) *Builder {
	b := &Builder{
		settings:  settings,
		now:       time.Now,
		sessionID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build produces the external payload for data. operatorEmail replaces the
// applicant's address as the contact email in every shape.
func (b *Builder) Build(data models.SubmissionData, operatorEmail string) (Payload, error) {
	operatorEmail = strings.TrimSpace(operatorEmail)
	if operatorEmail == "" {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "operator email is not configured")
	}

	switch b.settings.PayloadMode {
	case PayloadModeFlat:
		return b.buildFlat(data, operatorEmail), nil
	case PayloadModeRecordMap:
		return RecordPayload(b.rename(internalRecord(data, operatorEmail))), nil
	case PayloadModeFormShape:
		return b.buildFormUpdate(data, operatorEmail), nil
	default:
		return nil, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("unsupported payload mode %s", b.settings.PayloadMode))
	}
}

func (b *Builder) buildFlat(data models.SubmissionData, operatorEmail string) FlatPayload {
	out := FlatPayload{}
	for k, v := range b.settings.staticFields {
		out[k] = stringifyStatic(v)
	}
	for k, v := range b.rename(internalRecord(data, operatorEmail)) {
		out[k] = v
	}
	return out
}

func (b *Builder) rename(record map[string]string) map[string]string {
	out := make(map[string]string, len(record))
	for internal, value := range record {
		if external, ok := b.settings.fieldMap[internal]; ok {
			out[external] = value
		}
	}
	return out
}

func (b *Builder) buildFormUpdate(data models.SubmissionData, operatorEmail string) *FormUpdate {
	formData := make(map[string]interface{}, len(b.settings.staticFields)+32)
	for k, v := range b.settings.staticFields {
		formData[k] = v
	}

	roleTag := "Borrower"
	if strings.Contains(strings.ToLower(data.Role), "broker") {
		roleTag = "Broker"
	}

	formData["utm"] = UTM{}
	formData["email"] = operatorEmail
	formData["firstName"] = data.FirstName
	formData["lastName"] = data.LastName
	formData["phoneNum"] = data.Phone
	formData["selectionTagsBorrowerBroker"] = roleTag
	formData["selectionTagsFICO"] = data.FICO
	formData["addressInput"] = ParseAddress(data.PropertyAddress)
	formData["selectionTagsPropertyType"] = data.PropertyType
	// The captured lender flow always reports Purchase here, even for refinances.
	formData["loanPurpose"] = "Purchase"
	formData["selectionTagsPurchaseRefinance"] = data.PurchaseOrRefi
	formData["selectionTagsLoanType"] = data.LoanType

	if strings.TrimSpace(data.Refi6Months) != "" {
		formData["selectionTagsRefi6Months"] = data.Refi6Months
	}
	if strings.TrimSpace(data.Experience) != "" {
		formData["selectionTagsBorrowerExperience"] = data.Experience
	}

	setUSD := func(key string, format func(*float64) (string, bool), v *float64) {
		if s, ok := format(v); ok {
			formData[key] = s
		}
	}

	// inputPurchasePrice is a best-effort key name; no captured lender
	// submission has confirmed it yet.
	switch strings.ToLower(strings.TrimSpace(data.LoanType)) {
	case models.LoanTypeBridge:
		setUSD("inputPurchasePrice", positiveUSD, data.PurchasePrice)
	case models.LoanTypeFixAndFlip:
		setUSD("inputPurchasePrice", positiveUSD, data.PurchasePrice)
		setUSD("inputRehabCost", positiveUSD, data.RehabCost)
		setUSD("inputARV", positiveUSD, data.FixFlipARV)
	case models.LoanTypeRental:
		setUSD("inputPurchasePrice", positiveUSD, data.PurchasePrice)
		setUSD("inputMonthlyRentalIncome", positiveUSD, data.RentalMonthlyIncome)
		setUSD("inputAnnualPropertyTaxes", positiveUSD, data.RentalAnnualTaxes)
		setUSD("inputAnnualInsurance", positiveUSD, data.RentalAnnualInsurance)
		setUSD("inputMonthlyHOAFees", nonNegativeUSD, data.RentalMonthlyHOA)
		if strings.TrimSpace(data.RentalLeasedAtClosing) != "" {
			formData["selectionTagsLeasedAtClosing"] = data.RentalLeasedAtClosing
		}
	case models.LoanTypeGroundUp:
		setUSD("inputLandCost", positiveUSD, data.InputLandCost)
		setUSD("inputGUCPurchaseConstructionCost", positiveUSD, data.InputGUCPurchaseConstructionCost)
		setUSD("inputGUCARV", positiveUSD, data.InputGUCARV)
	}

	formData["selectionTagsPreferredClosing"] = data.PreferredClosing
	formData["selectionTagsBrokerFee"] = data.BrokerFee
	formData["radioGroupLeadSource"] = data.LeadSource

	return &FormUpdate{
		SessionID:     b.sessionID(),
		FormData:      formData,
		SentTimestamp: b.now().UnixMilli(),
		Complete:      true,
	}
}

// internalRecord stringifies every submission field under its JSON name.
func internalRecord(data models.SubmissionData, operatorEmail string) map[string]string {
	return map[string]string{
		"email":                            operatorEmail,
		"firstName":                        data.FirstName,
		"lastName":                         data.LastName,
		"phone":                            data.Phone,
		"role":                             data.Role,
		"fico":                             data.FICO,
		"propertyAddress":                  data.PropertyAddress,
		"propertyType":                     data.PropertyType,
		"purchaseOrRefi":                   data.PurchaseOrRefi,
		"refi6Months":                      data.Refi6Months,
		"loanType":                         data.LoanType,
		"purchasePrice":                    formatPlain(data.PurchasePrice),
		"rehabCost":                        formatPlain(data.RehabCost),
		"fixFlipArv":                       formatPlain(data.FixFlipARV),
		"rentalMonthlyIncome":              formatPlain(data.RentalMonthlyIncome),
		"rentalAnnualTaxes":                formatPlain(data.RentalAnnualTaxes),
		"rentalAnnualInsurance":            formatPlain(data.RentalAnnualInsurance),
		"rentalMonthlyHoa":                 formatPlain(data.RentalMonthlyHOA),
		"rentalLeasedAtClosing":            data.RentalLeasedAtClosing,
		"inputLandCost":                    formatPlain(data.InputLandCost),
		"inputGUCPurchaseConstructionCost": formatPlain(data.InputGUCPurchaseConstructionCost),
		"inputGUCARV":                      formatPlain(data.InputGUCARV),
		"experience":                       data.Experience,
		"preferredClosing":                 data.PreferredClosing,
		"brokerFee":                        data.BrokerFee,
		"leadSource":                       data.LeadSource,
	}
}

// stringifyStatic renders a configured static value for string-only shapes.
func stringifyStatic(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}
