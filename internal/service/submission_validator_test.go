package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lender-relay-api/internal/models"
	appErrors "github.com/noah-isme/lender-relay-api/pkg/errors"
)

func floatPtr(v float64) *float64 { return &v }

func validSubmissionData() models.SubmissionData {
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
		PreferredClosing: "7 - 13 Days",
		BrokerFee:        "1%",
		LeadSource:       "Google",
	}
}

func TestSubmissionValidatorAcceptsValidBridge(t *testing.T) {
	v := NewSubmissionValidator(nil)

	data, errs := v.Validate(validSubmissionData())
	assert.Nil(t, errs)
	assert.Equal(t, "Ada", data.FirstName)
}

func TestSubmissionValidatorReportsAllBaseErrors(t *testing.T) {
	v := NewSubmissionValidator(nil)

	_, errs := v.Validate(models.SubmissionData{
		Email:           "not-an-email",
		Phone:           "123",
		Role:            "Landlord",
		PropertyAddress: "Main Street",
		LoanType:        "Bridge",
	})
	require.NotNil(t, errs)

	for _, field := range []string{
		"email", "firstName", "lastName", "phone", "role", "fico", "propertyAddress",
		"propertyType", "purchaseOrRefi", "preferredClosing", "brokerFee", "leadSource", "purchasePrice",
	} {
		assert.Contains(t, errs, field)
	}
	assert.Equal(t, []string{"Must be a valid email address"}, errs["email"])
	assert.Equal(t, []string{"Must include a 5-digit ZIP code"}, errs["propertyAddress"])
	assert.Equal(t, []string{"Must be at least 7 characters"}, errs["phone"])
}

func TestSubmissionValidatorFixAndFlipRequirements(t *testing.T) {
	v := NewSubmissionValidator(nil)

	for _, missing := range []string{"rehabCost", "fixFlipArv", "experience"} {
		data := validSubmissionData()
		data.LoanType = "Fix and Flip"
		data.RehabCost = floatPtr(50000)
		data.FixFlipARV = floatPtr(400000)
		data.Experience = "2 Properties"
		switch missing {
		case "rehabCost":
			data.RehabCost = nil
		case "fixFlipArv":
			data.FixFlipARV = floatPtr(0)
		case "experience":
			data.Experience = "   "
		}

		_, errs := v.Validate(data)
		require.NotNil(t, errs, missing)
		assert.Equal(t, []string{missing}, errs.Fields(), missing)
	}
}

func TestSubmissionValidatorRefinanceRequiresRecency(t *testing.T) {
	v := NewSubmissionValidator(nil)

	data := validSubmissionData()
	data.PurchaseOrRefi = "Refinance"
	_, errs := v.Validate(data)
	require.NotNil(t, errs)
	assert.Equal(t, []string{"refi6Months"}, errs.Fields())

	data.Refi6Months = "No - Owned Longer Than 6 Months"
	_, errs = v.Validate(data)
	assert.Nil(t, errs)

	data = validSubmissionData()
	data.PurchaseOrRefi = "Purchase"
	data.Refi6Months = ""
	_, errs = v.Validate(data)
	assert.Nil(t, errs)
}

func TestSubmissionValidatorRentalAllowsZeroHOA(t *testing.T) {
	v := NewSubmissionValidator(nil)

	data := validSubmissionData()
	data.LoanType = "rental"
	data.RentalMonthlyIncome = floatPtr(3200)
	data.RentalAnnualTaxes = floatPtr(4100)
	data.RentalAnnualInsurance = floatPtr(1300)
	data.RentalMonthlyHOA = floatPtr(0)
	data.RentalLeasedAtClosing = "Yes"
	_, errs := v.Validate(data)
	assert.Nil(t, errs)

	data.RentalMonthlyHOA = nil
	data.RentalAnnualTaxes = floatPtr(-1)
	_, errs = v.Validate(data)
	require.NotNil(t, errs)
	assert.Equal(t, []string{"rentalAnnualTaxes", "rentalMonthlyHoa"}, errs.Fields())
}

func TestSubmissionValidatorGroundUpConstruction(t *testing.T) {
	v := NewSubmissionValidator(nil)

	data := validSubmissionData()
	data.LoanType = "GROUND-UP CONSTRUCTION"
	data.PurchasePrice = nil
	_, errs := v.Validate(data)
	require.NotNil(t, errs)
	assert.Equal(t, []string{"experience", "inputGUCARV", "inputGUCPurchaseConstructionCost", "inputLandCost"}, errs.Fields())
}

func TestFieldErrorsErr(t *testing.T) {
	assert.NoError(t, FieldErrors{}.Err())

	errs := FieldErrors{}
	errs.Add("email", "Required")
	err := errs.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	appErr := appErrors.FromError(err)
	assert.Equal(t, map[string][]string{"email": {"Required"}}, appErr.Details)
}
