package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lender-relay-api/internal/dto"
	"github.com/noah-isme/lender-relay-api/internal/models"
	"github.com/noah-isme/lender-relay-api/internal/relay"
	appErrors "github.com/noah-isme/lender-relay-api/pkg/errors"
)

const statusWriteTimeout = 5 * time.Second

type submissionStore interface {
	Create(ctx context.Context, submission *models.Submission) error
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionSummary, int, error)
	UpdateData(ctx context.Context, id string, data models.SubmissionData) (*models.Submission, error)
	UpdateRelayOutcome(ctx context.Context, id string, outcome models.RelayOutcome) error
}

type payloadBuilder interface {
	Build(data models.SubmissionData, operatorEmail string) (relay.Payload, error)
}

type relaySender interface {
	Relay(ctx context.Context, payload relay.Payload, override *relay.SendMode) relay.Result
}

type submissionNotifier interface {
	Notify(ctx context.Context, input NotifyInput) error
}

// SubmissionServiceParams groups constructor dependencies.
type SubmissionServiceParams struct {
	Store     submissionStore
	Validator *SubmissionValidator
	Builder   payloadBuilder
	Relay     relaySender
	Notifier  submissionNotifier
	Settings  *relay.Settings
	Cache     *CacheService
	Metrics   *MetricsService
	Logger    *zap.Logger
}

// SubmissionService runs the intake, review and relay flow.
type SubmissionService struct {
	store     submissionStore
	validator *SubmissionValidator
	builder   payloadBuilder
	relay     relaySender
	notifier  submissionNotifier
	settings  *relay.Settings
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewSubmissionService constructs the service.
func NewSubmissionService(params SubmissionServiceParams) *SubmissionService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validator := params.Validator
	if validator == nil {
		validator = NewSubmissionValidator(nil)
	}
	return &SubmissionService{
		store:     params.Store,
		validator: validator,
		builder:   params.Builder,
		relay:     params.Relay,
		notifier:  params.Notifier,
		settings:  params.Settings,
		cache:     params.Cache,
		metrics:   params.Metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates and stores a new intake submission, notifies the operator
// and returns the payload that would be relayed. A failed notification is
// reported in the response and never rejects the submission.
func (s *SubmissionService) Create(ctx context.Context, raw models.SubmissionData, meta dto.SubmitMeta) (*dto.SubmitResponse, error) {
	data, fieldErrs := s.validator.Validate(raw)
	if err := fieldErrs.Err(); err != nil {
		return nil, err
	}
	operatorEmail, err := s.operatorEmail()
	if err != nil {
		return nil, err
	}

	submission := &models.Submission{
		Email:  data.Email,
		Data:   data,
		Status: models.SubmissionStatusPendingReview,
	}
	if ua := strings.TrimSpace(meta.UserAgent); ua != "" {
		submission.UserAgent = &ua
	}
	if err := s.store.Create(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store submission")
	}
	s.metrics.RecordSubmissionCreated()
	s.logger.Info("submission stored", zap.String("submission_id", submission.ID), zap.String("loan_type", data.LoanType))

	resp := &dto.SubmitResponse{OK: true, SubmissionID: submission.ID}
	if err := s.notify(ctx, NotifyInput{SubmissionID: submission.ID, UserEmail: data.Email, Origin: meta.Origin}); err != nil {
		resp.NotifyError = err.Error()
	} else {
		resp.NotifyOK = true
	}

	preview, err := s.builder.Build(data, operatorEmail)
	if err != nil {
		return nil, err
	}
	resp.RelayPreview = preview
	return resp, nil
}

// Get loads one submission, consulting the detail cache first. The boolean
// reports whether the cache answered.
func (s *SubmissionService) Get(ctx context.Context, id string) (*models.Submission, bool, error) {
	key := submissionCacheKey(id)
	var cached models.Submission
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	submission, err := s.load(ctx, id)
	if err != nil {
		return nil, false, err
	}
	_ = s.cache.Set(ctx, key, submission, 0)
	return submission, false, nil
}

// List returns the newest submissions first.
func (s *SubmissionService) List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionSummary, *models.Pagination, error) {
	start := time.Now()
	items, total, err := s.store.List(ctx, filter)
	s.metrics.ObserveDBQuery("submissions_list", time.Since(start))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = len(items)
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Update replaces a submission's data after validating it and puts the
// submission back into review.
func (s *SubmissionService) Update(ctx context.Context, id string, raw *models.SubmissionData) (*dto.UpdateSubmissionResponse, error) {
	if raw == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Missing data")
	}
	data, fieldErrs := s.validator.Validate(*raw)
	if err := fieldErrs.Err(); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateData(ctx, id, data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission")
	}
	_ = s.cache.Evict(ctx, submissionCacheKey(id))

	return &dto.UpdateSubmissionResponse{OK: true, Data: updated.Data, Status: updated.Status}, nil
}

// Preview builds the payload a send would relay without contacting the lender.
func (s *SubmissionService) Preview(ctx context.Context, id string) (*dto.PreviewResponse, error) {
	data, operatorEmail, err := s.prepare(ctx, id)
	if err != nil {
		return nil, err
	}
	payload, err := s.builder.Build(data, operatorEmail)
	if err != nil {
		return nil, err
	}
	resp := &dto.PreviewResponse{SubmissionID: id, RelayPreview: payload}
	if s.settings != nil {
		resp.PayloadMode = s.settings.PayloadMode.String()
		resp.Encoding = s.settings.Encoding.String()
		resp.TwoStage = s.settings.TwoStage
	}
	return resp, nil
}

// Send relays an approved submission in submit mode regardless of the
// configured mode, then records the outcome. The outcome write is best effort:
// its failure is logged and counted but never changes the returned result.
func (s *SubmissionService) Send(ctx context.Context, id string) (*dto.SendResponse, error) {
	data, operatorEmail, err := s.prepare(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.settings == nil || strings.TrimSpace(s.settings.EndpointURL) == "" {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "LENDER_ENDPOINT_URL not configured")
	}

	payload, err := s.builder.Build(data, operatorEmail)
	if err != nil {
		return nil, err
	}

	submit := relay.SendModeSubmit
	result := s.relay.Relay(ctx, payload, &submit)

	s.recordOutcome(ctx, id, result)

	if result.OK {
		s.logger.Info("submission relayed", zap.String("submission_id", id), zap.Int("status", result.Status))
	} else {
		s.logger.Warn("submission relay failed",
			zap.String("submission_id", id),
			zap.Int("status", result.Status),
			zap.String("kind", string(result.Kind)),
			zap.String("error", result.Error),
		)
	}

	resp := &dto.SendResponse{OK: result.OK, RelayResult: result, RelayPreview: payload}
	if appErr := appErrors.FromError(result.Err()); appErr != nil {
		resp.ErrorCode = appErr.Code
	}
	return resp, nil
}

// SendTestNotification fires a notification for a synthetic submission.
func (s *SubmissionService) SendTestNotification(ctx context.Context, origin string) (*dto.TestEmailResponse, error) {
	id := fmt.Sprintf("test_%d", s.now().UnixMilli())
	if err := s.notify(ctx, NotifyInput{SubmissionID: id, UserEmail: "test@example.com", Origin: origin}); err != nil {
		return nil, err
	}
	return &dto.TestEmailResponse{OK: true, SubmissionID: id}, nil
}

func (s *SubmissionService) notify(ctx context.Context, input NotifyInput) error {
	if s.notifier == nil {
		return appErrors.Clone(appErrors.ErrConfiguration, "notification transport is disabled")
	}
	return s.notifier.Notify(ctx, input)
}

// prepare loads a stored submission and re-validates it against the current
// rules. Data that no longer passes is stale and must be edited first.
func (s *SubmissionService) prepare(ctx context.Context, id string) (models.SubmissionData, string, error) {
	submission, err := s.load(ctx, id)
	if err != nil {
		return models.SubmissionData{}, "", err
	}
	data, fieldErrs := s.validator.Validate(submission.Data)
	if len(fieldErrs) > 0 {
		return models.SubmissionData{}, "", appErrors.WithDetails(appErrors.ErrStaleData, "stored submission no longer passes validation", map[string][]string(fieldErrs))
	}
	operatorEmail, err := s.operatorEmail()
	if err != nil {
		return models.SubmissionData{}, "", err
	}
	return data, operatorEmail, nil
}

func (s *SubmissionService) load(ctx context.Context, id string) (*models.Submission, error) {
	submission, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return submission, nil
}

func (s *SubmissionService) operatorEmail() (string, error) {
	if s.settings == nil || strings.TrimSpace(s.settings.OperatorEmail) == "" {
		return "", appErrors.Clone(appErrors.ErrConfiguration, "RELAY_OPERATOR_EMAIL not configured")
	}
	return s.settings.OperatorEmail, nil
}

// recordOutcome writes the relay bookkeeping once. It runs detached from the
// request's cancellation so a disconnecting client does not drop the write.
func (s *SubmissionService) recordOutcome(ctx context.Context, id string, result relay.Result) {
	outcome := models.RelayOutcome{Status: models.SubmissionStatusSendFailed}
	if result.OK {
		outcome.Status = models.SubmissionStatusSentToLender
	}
	if result.Status != 0 {
		status := result.Status
		outcome.StatusCode = &status
	}
	if !result.OK && result.Error != "" {
		msg := result.Error
		outcome.LastError = &msg
	}
	if result.OK || result.Body != "" {
		body := result.Body
		outcome.ResponseBody = &body
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()
	if err := s.store.UpdateRelayOutcome(writeCtx, id, outcome); err != nil {
		s.metrics.RecordStatusWriteFailure()
		s.logger.Error("failed to record relay outcome",
			zap.String("submission_id", id),
			zap.String("status", string(outcome.Status)),
			zap.Error(err),
		)
	}
	_ = s.cache.Evict(writeCtx, submissionCacheKey(id))
}
