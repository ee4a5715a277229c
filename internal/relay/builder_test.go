package relay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lender-relay-api/internal/models"
	"github.com/noah-isme/lender-relay-api/pkg/config"
	appErrors "github.com/noah-isme/lender-relay-api/pkg/errors"
)

func floatPtr(v float64) *float64 { return &v }

func sampleSubmission() models.SubmissionData {
	return models.SubmissionData{
		Email:            "applicant@example.com",
		FirstName:        "Ada",
		LastName:         "Lovelace",
		Phone:            "5551234567",
		Role:             "Real Estate Investor",
		FICO:             "720-739",
		PropertyAddress:  "123 Main St, Springfield, IL 62704",
		PropertyType:     "Single Family",
		PurchaseOrRefi:   "Purchase",
		LoanType:         "Bridge",
		PurchasePrice:    floatPtr(250000),
		Experience:       "3 Properties",
		PreferredClosing: "7 - 13 Days",
		BrokerFee:        "1%",
		LeadSource:       "Google",
	}
}

func newTestSettings(t *testing.T, cfg config.RelayConfig) *Settings {
	t.Helper()
	settings, err := NewSettings(cfg)
	require.NoError(t, err)
	return settings
}

func newFixedBuilder(settings *Settings) *Builder {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return NewBuilder(settings,
		WithClock(func() time.Time { return fixed }),
		WithSessionIDs(func() string { return "session-1" }),
	)
}

func TestBuildRequiresOperatorEmail(t *testing.T) {
	builder := NewBuilder(newTestSettings(t, config.RelayConfig{}))

	_, err := builder.Build(sampleSubmission(), "  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConfiguration)
}

func TestBuildFlatUsesDefaultMapAndOperatorEmail(t *testing.T) {
	builder := NewBuilder(newTestSettings(t, config.RelayConfig{}))

	payload, err := builder.Build(sampleSubmission(), "ops@relay.example.com")
	require.NoError(t, err)

	flat, ok := payload.(FlatPayload)
	require.True(t, ok)
	assert.Equal(t, "ops@relay.example.com", flat["email"])
	assert.Equal(t, "Ada", flat["first_name"])
	assert.Equal(t, "720-739", flat["fico_estimate"])
	assert.Equal(t, "Purchase", flat["intent"])
	assert.Equal(t, "250000", flat["purchase_price"])
	assert.Equal(t, "", flat["land_cost"])
	assert.Equal(t, "3 Properties", flat["experience_36m"])
	_, hasRehab := flat["rehabCost"]
	assert.False(t, hasRehab, "unmapped fields are dropped")
	assert.Len(t, flat, len(defaultFieldMap))
}

func TestBuildFlatMergesOverridesAndStaticFields(t *testing.T) {
	settings := newTestSettings(t, config.RelayConfig{
		FieldMapJSON:     `{"firstName":"fname","rehabCost":"rehab_budget","brokerFee":""}`,
		StaticFieldsJSON: `{"source":"partner-portal","fname":"static-loses","version":2}`,
	})
	builder := NewBuilder(settings)

	data := sampleSubmission()
	data.RehabCost = floatPtr(42000.5)
	payload, err := builder.Build(data, "ops@relay.example.com")
	require.NoError(t, err)

	flat := payload.(FlatPayload)
	assert.Equal(t, "Ada", flat["fname"], "explicit mapping wins over static field")
	assert.Equal(t, "42000.5", flat["rehab_budget"])
	assert.Equal(t, "partner-portal", flat["source"])
	assert.Equal(t, "2", flat["version"])
	_, hasFirst := flat["first_name"]
	assert.False(t, hasFirst)
	_, hasBroker := flat["broker_fee"]
	assert.False(t, hasBroker, "empty override removes the default mapping")
}

func TestBuildRecordMapSkipsStaticFields(t *testing.T) {
	settings := newTestSettings(t, config.RelayConfig{
		PayloadMode:      "json-record-map",
		StaticFieldsJSON: `{"source":"partner-portal"}`,
	})
	builder := NewBuilder(settings)

	payload, err := builder.Build(sampleSubmission(), "ops@relay.example.com")
	require.NoError(t, err)

	record, ok := payload.(RecordPayload)
	require.True(t, ok)
	assert.Equal(t, PayloadModeRecordMap, record.Mode())
	assert.Equal(t, "Lovelace", record["last_name"])
	_, hasSource := record["source"]
	assert.False(t, hasSource)
}

func TestBuildIsDeterministicForStringShapes(t *testing.T) {
	for _, mode := range []string{"flat", "json-record-map"} {
		builder := NewBuilder(newTestSettings(t, config.RelayConfig{PayloadMode: mode}))

		first, err := builder.Build(sampleSubmission(), "ops@relay.example.com")
		require.NoError(t, err)
		second, err := builder.Build(sampleSubmission(), "ops@relay.example.com")
		require.NoError(t, err)

		a, _ := json.Marshal(first)
		b, _ := json.Marshal(second)
		assert.Equal(t, string(a), string(b), mode)
	}
}

func TestBuildFormShapeDiffersOnlyInSessionAndTimestamp(t *testing.T) {
	builder := NewBuilder(newTestSettings(t, config.RelayConfig{PayloadMode: "third-party-form-shape"}))

	first, err := builder.Build(sampleSubmission(), "ops@relay.example.com")
	require.NoError(t, err)
	second, err := builder.Build(sampleSubmission(), "ops@relay.example.com")
	require.NoError(t, err)

	a := first.(*FormUpdate)
	b := second.(*FormUpdate)
	assert.NotEqual(t, a.SessionID, b.SessionID)

	fa, _ := json.Marshal(a.FormData)
	fb, _ := json.Marshal(b.FormData)
	assert.JSONEq(t, string(fa), string(fb))
	assert.True(t, a.Complete)
}

func TestBuildFormShapeFields(t *testing.T) {
	settings := newTestSettings(t, config.RelayConfig{
		PayloadMode:      "third-party-form-shape",
		StaticFieldsJSON: `{"formVersion":"v3","firstName":"static-loses"}`,
	})
	builder := newFixedBuilder(settings)

	data := sampleSubmission()
	data.Role = "Broker or Representative"
	data.PurchaseOrRefi = "Refinance"
	data.Refi6Months = "Yes - Purchased Within 6 Months"

	payload, err := builder.Build(data, "ops@relay.example.com")
	require.NoError(t, err)
	update := payload.(*FormUpdate)

	assert.Equal(t, "session-1", update.SessionID)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).UnixMilli(), update.SentTimestamp)

	fd := update.FormData
	assert.Equal(t, "ops@relay.example.com", fd["email"])
	assert.Equal(t, "Ada", fd["firstName"])
	assert.Equal(t, "v3", fd["formVersion"])
	assert.Equal(t, "5551234567", fd["phoneNum"])
	assert.Equal(t, "Broker", fd["selectionTagsBorrowerBroker"])
	assert.Equal(t, "Purchase", fd["loanPurpose"])
	assert.Equal(t, "Refinance", fd["selectionTagsPurchaseRefinance"])
	assert.Equal(t, "Yes - Purchased Within 6 Months", fd["selectionTagsRefi6Months"])
	assert.Equal(t, "$250,000", fd["inputPurchasePrice"])
	assert.Equal(t, "3 Properties", fd["selectionTagsBorrowerExperience"])
	assert.Equal(t, "Google", fd["radioGroupLeadSource"])
	assert.Equal(t, UTM{}, fd["utm"])

	raw, err := json.Marshal(update)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"utm":{"source":null,"medium":null,"campaign":null,"content":null,"term":null}`)
}

func TestBuildFormShapeRoleDefaultsToBorrower(t *testing.T) {
	builder := newFixedBuilder(newTestSettings(t, config.RelayConfig{PayloadMode: "third-party-form-shape"}))

	payload, err := builder.Build(sampleSubmission(), "ops@relay.example.com")
	require.NoError(t, err)
	assert.Equal(t, "Borrower", payload.(*FormUpdate).FormData["selectionTagsBorrowerBroker"])
}

func TestBuildFormShapeRentalCurrency(t *testing.T) {
	builder := newFixedBuilder(newTestSettings(t, config.RelayConfig{PayloadMode: "third-party-form-shape"}))

	data := sampleSubmission()
	data.LoanType = "Rental"
	data.PurchasePrice = floatPtr(1234.6)
	data.RentalMonthlyIncome = floatPtr(0)
	data.RentalAnnualTaxes = floatPtr(3600)
	data.RentalAnnualInsurance = floatPtr(1200.49)
	data.RentalMonthlyHOA = floatPtr(0)
	data.RentalLeasedAtClosing = "Yes"

	payload, err := builder.Build(data, "ops@relay.example.com")
	require.NoError(t, err)
	fd := payload.(*FormUpdate).FormData

	assert.Equal(t, "$1,235", fd["inputPurchasePrice"])
	_, hasIncome := fd["inputMonthlyRentalIncome"]
	assert.False(t, hasIncome, "zero is absent for fields that must be positive")
	assert.Equal(t, "$3,600", fd["inputAnnualPropertyTaxes"])
	assert.Equal(t, "$1,200", fd["inputAnnualInsurance"])
	assert.Equal(t, "$0", fd["inputMonthlyHOAFees"])
	assert.Equal(t, "Yes", fd["selectionTagsLeasedAtClosing"])
	_, hasRehab := fd["inputRehabCost"]
	assert.False(t, hasRehab)
}

func TestBuildFormShapeFixAndFlipAndGroundUp(t *testing.T) {
	builder := newFixedBuilder(newTestSettings(t, config.RelayConfig{PayloadMode: "third-party-form-shape"}))

	flip := sampleSubmission()
	flip.LoanType = "fix and flip"
	flip.RehabCost = floatPtr(80000)
	flip.FixFlipARV = floatPtr(410000)
	payload, err := builder.Build(flip, "ops@relay.example.com")
	require.NoError(t, err)
	fd := payload.(*FormUpdate).FormData
	assert.Equal(t, "$80,000", fd["inputRehabCost"])
	assert.Equal(t, "$410,000", fd["inputARV"])

	guc := sampleSubmission()
	guc.LoanType = "Ground-Up Construction"
	guc.PurchasePrice = nil
	guc.InputLandCost = floatPtr(120000)
	guc.InputGUCPurchaseConstructionCost = floatPtr(650000)
	guc.InputGUCARV = floatPtr(1100000)
	payload, err = builder.Build(guc, "ops@relay.example.com")
	require.NoError(t, err)
	fd = payload.(*FormUpdate).FormData
	assert.Equal(t, "$120,000", fd["inputLandCost"])
	assert.Equal(t, "$650,000", fd["inputGUCPurchaseConstructionCost"])
	assert.Equal(t, "$1,100,000", fd["inputGUCARV"])
	_, hasPrice := fd["inputPurchasePrice"]
	assert.False(t, hasPrice)
}

func TestBuildFormShapeAddressWithoutZip(t *testing.T) {
	builder := newFixedBuilder(newTestSettings(t, config.RelayConfig{PayloadMode: "third-party-form-shape"}))

	data := sampleSubmission()
	data.PropertyAddress = "  somewhere rural  "
	payload, err := builder.Build(data, "ops@relay.example.com")
	require.NoError(t, err)

	addr := payload.(*FormUpdate).FormData["addressInput"].(AddressInput)
	assert.Equal(t, "somewhere rural", addr.Formatted)
	assert.Empty(t, addr.PostalCode)
	assert.Equal(t, []Subdivision{countryUS}, addr.Subdivisions)

	raw, err := json.Marshal(addr)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "postalCode")
}
