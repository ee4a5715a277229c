package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/lender-relay-api/internal/models"
	appErrors "github.com/noah-isme/lender-relay-api/pkg/errors"
)

var zipCodePattern = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)

// FieldErrors collects validation messages keyed by JSON field name.
type FieldErrors map[string][]string

// Add appends a message for field.
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// Fields returns the failing field names in sorted order.
func (f FieldErrors) Fields() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Err converts the collected messages into a typed validation error.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return appErrors.WithDetails(appErrors.ErrValidation, "submission failed validation", map[string][]string(f))
}

// SubmissionValidator enforces the intake contract, including the rules that
// depend on loan type and purchase/refinance intent.
type SubmissionValidator struct {
	validate *validator.Validate
}

// NewSubmissionValidator registers the intake rules on validate.
func NewSubmissionValidator(validate *validator.Validate) *SubmissionValidator {
	if validate == nil {
		validate = validator.New()
	}
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	validate.RegisterValidation("zip", func(fl validator.FieldLevel) bool {
		return zipCodePattern.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("role", oneOf(models.RoleOptions, false))
	validate.RegisterValidation("fico", oneOf(models.FICOOptions, false))
	validate.RegisterValidation("property_type", oneOf(models.PropertyTypeOptions, false))
	validate.RegisterValidation("intent", oneOf(models.IntentOptions, true))
	validate.RegisterValidation("loan_type", oneOf(models.LoanTypeOptions, true))
	validate.RegisterStructValidation(conditionalRules, models.SubmissionData{})
	return &SubmissionValidator{validate: validate}
}

// Validate checks candidate and reports every violated field at once.
// FieldErrors is nil when the candidate is valid.
func (v *SubmissionValidator) Validate(candidate models.SubmissionData) (models.SubmissionData, FieldErrors) {
	err := v.validate.Struct(candidate)
	if err == nil {
		return candidate, nil
	}

	fieldErrs := FieldErrors{}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		fieldErrs.Add("_", err.Error())
		return candidate, fieldErrs
	}
	for _, fe := range validationErrs {
		fieldErrs.Add(fe.Field(), messageFor(fe))
	}
	return candidate, fieldErrs
}

func oneOf(options []string, foldCase bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, option := range options {
			if value == option || (foldCase && strings.EqualFold(value, option)) {
				return true
			}
		}
		return false
	}
}

// conditionalRules applies the loan-type and intent dependent requirements.
func conditionalRules(sl validator.StructLevel) {
	data := sl.Current().Interface().(models.SubmissionData)

	requireText := func(value, field, structField string) {
		if strings.TrimSpace(value) == "" {
			sl.ReportError(value, field, structField, "required_for_loan", "")
		}
	}
	requirePositive := func(value *float64, field, structField string) {
		if value == nil || *value <= 0 {
			sl.ReportError(value, field, structField, "positive_for_loan", "")
		}
	}

	if strings.EqualFold(strings.TrimSpace(data.PurchaseOrRefi), models.IntentRefinance) {
		requireText(data.Refi6Months, "refi6Months", "Refi6Months")
	}

	switch strings.ToLower(strings.TrimSpace(data.LoanType)) {
	case models.LoanTypeBridge:
		requirePositive(data.PurchasePrice, "purchasePrice", "PurchasePrice")
	case models.LoanTypeFixAndFlip:
		requirePositive(data.PurchasePrice, "purchasePrice", "PurchasePrice")
		requirePositive(data.RehabCost, "rehabCost", "RehabCost")
		requirePositive(data.FixFlipARV, "fixFlipArv", "FixFlipARV")
		requireText(data.Experience, "experience", "Experience")
	case models.LoanTypeRental:
		requirePositive(data.PurchasePrice, "purchasePrice", "PurchasePrice")
		requirePositive(data.RentalMonthlyIncome, "rentalMonthlyIncome", "RentalMonthlyIncome")
		requirePositive(data.RentalAnnualTaxes, "rentalAnnualTaxes", "RentalAnnualTaxes")
		requirePositive(data.RentalAnnualInsurance, "rentalAnnualInsurance", "RentalAnnualInsurance")
		if data.RentalMonthlyHOA == nil || *data.RentalMonthlyHOA < 0 {
			sl.ReportError(data.RentalMonthlyHOA, "rentalMonthlyHoa", "RentalMonthlyHOA", "non_negative_for_loan", "")
		}
		requireText(data.RentalLeasedAtClosing, "rentalLeasedAtClosing", "RentalLeasedAtClosing")
	case models.LoanTypeGroundUp:
		requirePositive(data.InputLandCost, "inputLandCost", "InputLandCost")
		requirePositive(data.InputGUCPurchaseConstructionCost, "inputGUCPurchaseConstructionCost", "InputGUCPurchaseConstructionCost")
		requirePositive(data.InputGUCARV, "inputGUCARV", "InputGUCARV")
		requireText(data.Experience, "experience", "Experience")
	}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_for_loan":
		return "Required"
	case "positive_for_loan":
		return "Required and must be greater than zero"
	case "non_negative_for_loan":
		return "Required and must be zero or greater"
	case "email":
		return "Must be a valid email address"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "zip":
		return "Must include a 5-digit ZIP code"
	case "role":
		return "Must be one of: " + strings.Join(models.RoleOptions, ", ")
	case "fico":
		return "Must be a listed FICO range"
	case "property_type":
		return "Must be one of: " + strings.Join(models.PropertyTypeOptions, ", ")
	case "intent":
		return "Must be Purchase or Refinance"
	case "loan_type":
		return "Must be one of: " + strings.Join(models.LoanTypeOptions, ", ")
	default:
		return "Invalid value"
	}
}
