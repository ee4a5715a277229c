package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lender-relay-api/internal/models"
	"github.com/noah-isme/lender-relay-api/internal/relay"
	appErrors "github.com/noah-isme/lender-relay-api/pkg/errors"
	"github.com/noah-isme/lender-relay-api/pkg/export"
)

const (
	exportPageSize       = 100
	defaultExportMaxRows = 500
	reviewBodyLimit      = 2000
)

var submissionCSVHeaders = []string{"id", "created_at", "status", "email", "loan_type", "relay_status_code"}

type exportSource interface {
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionSummary, int, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(sheet export.Sheet) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	MaxRows int
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders admin downloads of stored submissions.
type ExportService struct {
	source exportSource
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	cfg    ExportConfig
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(source exportSource, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = defaultExportMaxRows
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{source: source, csv: csv, pdf: pdf, logger: logger, cfg: cfg, now: time.Now}
}

// SubmissionsCSV renders the newest submissions, up to MaxRows, as CSV.
func (s *ExportService) SubmissionsCSV(ctx context.Context) (*ExportFile, error) {
	rows := make([]map[string]string, 0, exportPageSize)
	for page := 1; len(rows) < s.cfg.MaxRows; page++ {
		items, total, err := s.source.List(ctx, models.SubmissionFilter{Page: page, PageSize: exportPageSize})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
		}
		for _, item := range items {
			if len(rows) == s.cfg.MaxRows {
				break
			}
			rows = append(rows, summaryRow(item))
		}
		if len(items) < exportPageSize || page*exportPageSize >= total {
			break
		}
	}

	body, err := s.csv.Render(export.Dataset{Headers: submissionCSVHeaders, Rows: rows})
	if err != nil {
		return nil, err
	}
	s.logger.Info("submissions exported", zap.Int("rows", len(rows)))
	return &ExportFile{
		Filename:    fmt.Sprintf("submissions-%s.csv", s.now().UTC().Format("20060102-150405")),
		ContentType: "text/csv; charset=utf-8",
		Body:        body,
	}, nil
}

// ReviewSheet renders a one-submission PDF for offline review.
func (s *ExportService) ReviewSheet(ctx context.Context, id string) (*ExportFile, error) {
	submission, err := s.source.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	body, err := s.pdf.Render(reviewSheet(submission))
	if err != nil {
		return nil, err
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("submission-%s.pdf", submission.ID),
		ContentType: "application/pdf",
		Body:        body,
	}, nil
}

func summaryRow(item models.SubmissionSummary) map[string]string {
	row := map[string]string{
		"id":         item.ID,
		"created_at": item.CreatedAt.UTC().Format(time.RFC3339),
		"status":     string(item.Status),
		"email":      item.Email,
		"loan_type":  item.LoanType,
	}
	if item.RelayStatusCode != nil {
		row["relay_status_code"] = strconv.Itoa(*item.RelayStatusCode)
	}
	return row
}

func reviewSheet(sub *models.Submission) export.Sheet {
	d := sub.Data
	return export.Sheet{
		Title:    "Loan intake submission",
		Subtitle: fmt.Sprintf("%s  |  received %s", sub.ID, sub.CreatedAt.UTC().Format("2006-01-02 15:04 MST")),
		Sections: []export.Section{
			{Heading: "Applicant", Fields: []export.Field{
				{Label: "Name", Value: d.FirstName + " " + d.LastName},
				{Label: "Email", Value: d.Email},
				{Label: "Phone", Value: d.Phone},
				{Label: "Role", Value: d.Role},
				{Label: "FICO", Value: d.FICO},
				{Label: "Experience", Value: d.Experience},
			}},
			{Heading: "Property & loan", Fields: []export.Field{
				{Label: "Address", Value: d.PropertyAddress},
				{Label: "Property type", Value: d.PropertyType},
				{Label: "Purchase or refinance", Value: d.PurchaseOrRefi},
				{Label: "Refi within 6 months", Value: d.Refi6Months},
				{Label: "Loan type", Value: d.LoanType},
				{Label: "Preferred closing", Value: d.PreferredClosing},
				{Label: "Broker fee", Value: d.BrokerFee},
				{Label: "Lead source", Value: d.LeadSource},
			}},
			{Heading: "Financials", Fields: []export.Field{
				{Label: "Purchase price", Value: usd(d.PurchasePrice)},
				{Label: "Rehab cost", Value: usd(d.RehabCost)},
				{Label: "After-repair value", Value: usd(d.FixFlipARV)},
				{Label: "Monthly rental income", Value: usd(d.RentalMonthlyIncome)},
				{Label: "Annual taxes", Value: usd(d.RentalAnnualTaxes)},
				{Label: "Annual insurance", Value: usd(d.RentalAnnualInsurance)},
				{Label: "Monthly HOA", Value: usd(d.RentalMonthlyHOA)},
				{Label: "Leased at closing", Value: d.RentalLeasedAtClosing},
				{Label: "Land cost", Value: usd(d.InputLandCost)},
				{Label: "Construction cost", Value: usd(d.InputGUCPurchaseConstructionCost)},
				{Label: "Completed value", Value: usd(d.InputGUCARV)},
			}},
			{Heading: "Relay", Fields: []export.Field{
				{Label: "Status", Value: string(sub.Status)},
				{Label: "Lender HTTP status", Value: intValue(sub.RelayStatusCode)},
				{Label: "Last error", Value: stringValue(sub.RelayLastError)},
				{Label: "Lender response", Value: truncate(stringValue(sub.RelayResponseBody), reviewBodyLimit)},
				{Label: "Updated", Value: sub.UpdatedAt.UTC().Format(time.RFC3339)},
			}},
		},
	}
}

func usd(v *float64) string {
	if v == nil {
		return ""
	}
	return relay.FormatUSD(*v)
}

func intValue(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func stringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
