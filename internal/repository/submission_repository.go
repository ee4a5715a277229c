package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lender-relay-api/internal/models"
)

const (
	defaultSubmissionPageSize = 50
	maxSubmissionPageSize     = 100
)

const submissionColumns = `id, email, data, status, user_agent, relay_status_code, relay_last_error, relay_response_body, created_at, updated_at`

// SubmissionRepository persists intake submissions in Postgres.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a submission. ID and timestamps are assigned when empty.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.Status == "" {
		submission.Status = models.SubmissionStatusPendingReview
	}
	now := time.Now().UTC()
	submission.CreatedAt = now
	submission.UpdatedAt = now

	const query = `INSERT INTO intake_submissions (id, email, data, status, user_agent, created_at, updated_at)
VALUES (:id, :email, :data, :status, :user_agent, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// FindByID loads a submission. It returns sql.ErrNoRows when absent.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM intake_submissions WHERE id = $1`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// List returns the newest submissions first together with the total count.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionSummary, int, error) {
	page, size := normalisePage(filter.Page, filter.PageSize)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM intake_submissions`); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	const query = `SELECT id, email, status, COALESCE(data->>'loanType', '') AS loan_type, relay_status_code, created_at
FROM intake_submissions
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`
	var rows []models.SubmissionSummary
	if err := r.db.SelectContext(ctx, &rows, query, size, (page-1)*size); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}
	return rows, total, nil
}

// UpdateData replaces the submission payload and resets it to pending review.
// It returns sql.ErrNoRows when the submission does not exist.
func (r *SubmissionRepository) UpdateData(ctx context.Context, id string, data models.SubmissionData) (*models.Submission, error) {
	query := `UPDATE intake_submissions
SET data = $1, email = $2, status = $3, updated_at = $4
WHERE id = $5
RETURNING ` + submissionColumns
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, data, data.Email, models.SubmissionStatusPendingReview, time.Now().UTC(), id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// UpdateRelayOutcome overwrites the status and relay bookkeeping of a submission.
func (r *SubmissionRepository) UpdateRelayOutcome(ctx context.Context, id string, outcome models.RelayOutcome) error {
	const query = `UPDATE intake_submissions
SET status = $1, relay_status_code = $2, relay_last_error = $3, relay_response_body = $4, updated_at = $5
WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query, outcome.Status, outcome.StatusCode, outcome.LastError, outcome.ResponseBody, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update relay outcome: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update relay outcome rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Ping checks database connectivity for readiness probes.
func (r *SubmissionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func normalisePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultSubmissionPageSize
	}
	if size > maxSubmissionPageSize {
		size = maxSubmissionPageSize
	}
	return page, size
}
