package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SubmissionStatus tracks where a submission sits in the review/relay lifecycle.
type SubmissionStatus string

const (
	SubmissionStatusPendingReview SubmissionStatus = "pending_review"
	SubmissionStatusSentToLender  SubmissionStatus = "sent_to_lender"
	SubmissionStatusSendFailed    SubmissionStatus = "send_failed"
)

// SubmissionData is the canonical loan-intake payload collected by the wizard.
// Optional numerics are nil when the applicant did not provide them.
type SubmissionData struct {
	Email           string `json:"email" validate:"required,email"`
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Phone           string `json:"phone" validate:"required,min=7"`
	Role            string `json:"role" validate:"required,role"`
	FICO            string `json:"fico" validate:"required,fico"`
	PropertyAddress string `json:"propertyAddress" validate:"required,min=5,zip"`
	PropertyType    string `json:"propertyType" validate:"required,property_type"`
	PurchaseOrRefi  string `json:"purchaseOrRefi" validate:"required,intent"`
	Refi6Months     string `json:"refi6Months,omitempty"`
	LoanType        string `json:"loanType" validate:"required,loan_type"`

	PurchasePrice                    *float64 `json:"purchasePrice,omitempty"`
	RehabCost                        *float64 `json:"rehabCost,omitempty"`
	FixFlipARV                       *float64 `json:"fixFlipArv,omitempty"`
	RentalMonthlyIncome              *float64 `json:"rentalMonthlyIncome,omitempty"`
	RentalAnnualTaxes                *float64 `json:"rentalAnnualTaxes,omitempty"`
	RentalAnnualInsurance            *float64 `json:"rentalAnnualInsurance,omitempty"`
	RentalMonthlyHOA                 *float64 `json:"rentalMonthlyHoa,omitempty"`
	RentalLeasedAtClosing            string   `json:"rentalLeasedAtClosing,omitempty"`
	InputLandCost                    *float64 `json:"inputLandCost,omitempty"`
	InputGUCPurchaseConstructionCost *float64 `json:"inputGUCPurchaseConstructionCost,omitempty"`
	InputGUCARV                      *float64 `json:"inputGUCARV,omitempty"`

	Experience       string `json:"experience,omitempty"`
	PreferredClosing string `json:"preferredClosing" validate:"required"`
	BrokerFee        string `json:"brokerFee" validate:"required"`
	LeadSource       string `json:"leadSource" validate:"required"`
}

// Value stores the payload as JSONB.
func (d SubmissionData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan decodes a JSONB column into the payload.
func (d *SubmissionData) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = SubmissionData{}
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported submission data type %T", src)
	}
}

// Submission is one stored intake record plus its relay bookkeeping.
type Submission struct {
	ID                string           `db:"id" json:"id"`
	Email             string           `db:"email" json:"email"`
	Data              SubmissionData   `db:"data" json:"data"`
	Status            SubmissionStatus `db:"status" json:"status"`
	UserAgent         *string          `db:"user_agent" json:"user_agent,omitempty"`
	RelayStatusCode   *int             `db:"relay_status_code" json:"relay_status_code,omitempty"`
	RelayLastError    *string          `db:"relay_last_error" json:"relay_last_error,omitempty"`
	RelayResponseBody *string          `db:"relay_response_body" json:"relay_response_body,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
}

// SubmissionSummary is the list projection used by the admin index and CSV export.
type SubmissionSummary struct {
	ID              string           `db:"id" json:"id"`
	Email           string           `db:"email" json:"email"`
	Status          SubmissionStatus `db:"status" json:"status"`
	LoanType        string           `db:"loan_type" json:"loan_type"`
	RelayStatusCode *int             `db:"relay_status_code" json:"relay_status_code,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}

// SubmissionFilter carries list paging parameters.
type SubmissionFilter struct {
	Page     int
	PageSize int
}

// RelayOutcome is the bookkeeping written after a relay attempt. Every field
// overwrites the previous attempt's values.
type RelayOutcome struct {
	Status       SubmissionStatus
	StatusCode   *int
	LastError    *string
	ResponseBody *string
}

// Pagination describes the paging window of a list response.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
