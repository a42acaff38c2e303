package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/wellbeing-service/internal/config"
	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/SAP-F-2025/wellbeing-service/internal/survey"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
	"github.com/SAP-F-2025/wellbeing-service/internal/validator"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SubmissionService forwards sanitised submissions to the content backend and
// keeps an archive of what was sent when a database is configured.
type SubmissionService interface {
	// SubmitRaw handles a body posted to the legacy submitResponse proxy.
	SubmitRaw(ctx context.Context, body []byte) (*SubmissionOutcome, error)
	// Deliver forwards the result of a finished survey session.
	Deliver(ctx context.Context, delivery *Delivery) (*SubmissionOutcome, error)

	Get(ctx context.Context, id string) (*models.SubmissionRecord, error)
	List(ctx context.Context, filters models.SubmissionFilters) ([]*models.SubmissionRecord, int64, error)
	Stats(ctx context.Context, filters models.SubmissionFilters) (*repositories.SubmissionStats, error)
}

// Delivery is everything a session hands over once its result is computed.
type Delivery struct {
	SessionID    string
	PersonalInfo models.PersonalInfo
	Catalog      *survey.Catalog
	Answers      map[survey.Key]survey.Answer
	Result       survey.Result
	Unanswered   int
}

type SubmissionOutcome struct {
	SubmissionID string                    `json:"submission_id"`
	Upstream     *repositories.RawResponse `json:"-"`
}

type submissionService struct {
	sink      repositories.SubmissionSink
	archive   repositories.SubmissionRepository
	events    SubmissionEventService
	profile   string
	logger    *slog.Logger
	validator *validator.Validator
	log       *ServiceLogger
}

// NewSubmissionService builds the service. archive may be nil, in which case
// nothing is stored and the listing operations return ErrArchiveDisabled.
func NewSubmissionService(
	sink repositories.SubmissionSink,
	archive repositories.SubmissionRepository,
	eventService SubmissionEventService,
	profile string,
	logger *slog.Logger,
	v *validator.Validator,
) SubmissionService {
	if eventService == nil {
		eventService = NewSubmissionEventService(nil, logger)
	}
	if profile == "" {
		profile = config.SubmitProfileFull
	}
	return &submissionService{
		sink:      sink,
		archive:   archive,
		events:    eventService,
		profile:   profile,
		logger:    logger,
		validator: v,
		log:       NewServiceLogger(logger, LogConfig{Service: "wellbeing-service", Component: "submission"}),
	}
}

func (s *submissionService) SubmitRaw(ctx context.Context, body []byte) (*SubmissionOutcome, error) {
	op := s.log.WithOperation(ctx, "submit_raw")

	payload, err := s.parseRaw(ctx, body)
	if err != nil {
		op.LogResult("", "submission", err)
		return nil, err
	}

	record := &models.SubmissionRecord{Source: models.SourceProxy}
	outcome, err := s.forward(ctx, record, payload, nil, 0)
	op.LogResult(record.ID, "submission", err)
	return outcome, err
}

// parseRaw validates the shape of a posted document, rejects blocked content
// and returns the sanitised payload.
func (s *submissionService) parseRaw(ctx context.Context, body []byte) (*models.SubmissionPayload, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	obj, _ := doc.(map[string]any)
	personal, ok := obj["personalInfo"].(map[string]any)
	if !ok {
		return nil, ValidationErrors{*NewValidationError("personalInfo", "Invalid personal info", nil)}
	}
	answers, ok := obj["answers"].(map[string]any)
	if !ok {
		return nil, ValidationErrors{*NewValidationError("answers", "Invalid answers format", nil)}
	}

	if pattern, found := utils.FindSuspiciousContent(obj); found {
		s.log.WithOperation(ctx, "submit_raw").LogSecurity(
			SecurityEventSuspiciousContent,
			SecuritySeverityMedium,
			"Suspicious content detected",
			map[string]interface{}{"pattern": pattern},
		)
		return nil, &SuspiciousContentError{Pattern: pattern}
	}

	payload := &models.SubmissionPayload{
		PersonalInfo: utils.SanitizePersonalInfo(personal),
		OverallScore: utils.SanitizeScore(obj["overallScore"]),
		Answers:      utils.SanitizeAnswers(answers),
	}
	if err := s.validator.Validate(&payload.PersonalInfo); err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *submissionService) Deliver(ctx context.Context, delivery *Delivery) (*SubmissionOutcome, error) {
	op := s.log.WithOperation(ctx, "deliver")

	if err := s.validator.Validate(&delivery.PersonalInfo); err != nil {
		op.LogResult("", "submission", err)
		return nil, err
	}

	payload := &models.SubmissionPayload{
		PersonalInfo: delivery.PersonalInfo,
		OverallScore: delivery.Result.NormalizedOverall(),
	}

	answers := make(map[string]models.AnswerValue, len(delivery.Answers))
	for key, a := range delivery.Answers {
		if a.IsNotRelevant() {
			answers[key.String()] = models.NotRelevantAnswer()
		} else {
			answers[key.String()] = models.NumericAnswer(a.Score())
		}
	}

	resultJSON, err := json.Marshal(delivery.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	switch s.profile {
	case config.SubmitProfileAggregate:
		payload.Result = resultJSON
	default:
		payload.Answers = answers
	}

	sessionID := delivery.SessionID
	record := &models.SubmissionRecord{
		Source:    models.SourceSession,
		SessionID: &sessionID,
		Result:    datatypes.JSON(resultJSON),
	}

	outcome, err := s.forward(ctx, record, payload, &delivery.Result, delivery.Unanswered)
	op.LogResult(record.ID, "submission", err)
	return outcome, err
}

// forward archives the submission, sends it to the sink and records the
// delivery outcome. A failing archive or event bus never blocks delivery.
func (s *submissionService) forward(ctx context.Context, record *models.SubmissionRecord, payload *models.SubmissionPayload, result *survey.Result, unanswered int) (*SubmissionOutcome, error) {
	record.ID = uuid.NewString()
	record.SetPersonalInfo(payload.PersonalInfo)
	record.OverallScore = payload.OverallScore
	record.CreatedAt = time.Now()
	if payload.Answers != nil {
		if data, err := json.Marshal(payload.Answers); err == nil {
			record.Answers = datatypes.JSON(data)
		}
	}

	if s.archive != nil {
		if err := s.archive.Create(ctx, record); err != nil {
			s.logger.Error("Failed to archive submission", "submission_id", record.ID, "error", err)
		}
	}
	_ = s.events.NotifySubmitted(ctx, record, result, unanswered)

	resp, err := s.sink.Submit(ctx, payload)

	// the sink call may have consumed the request deadline
	bookkeeping := context.WithoutCancel(ctx)

	if err != nil {
		var upstream *repositories.UpstreamError
		if errors.As(err, &upstream) {
			record.SinkStatusCode = upstream.StatusCode
		}
		record.DeliveryError = err.Error()
		s.updateArchive(bookkeeping, record)
		_ = s.events.NotifyDeliveryFailed(bookkeeping, record, record.DeliveryError)

		return &SubmissionOutcome{SubmissionID: record.ID}, &survey.SubmissionError{
			StatusCode: record.SinkStatusCode,
			Err:        err,
		}
	}

	record.Delivered = true
	record.SinkStatusCode = resp.StatusCode
	s.updateArchive(bookkeeping, record)
	_ = s.events.NotifyDelivered(bookkeeping, record)

	s.logger.Info("Submission delivered",
		"submission_id", record.ID,
		"source", record.Source,
		"status_code", resp.StatusCode)

	return &SubmissionOutcome{SubmissionID: record.ID, Upstream: resp}, nil
}

func (s *submissionService) updateArchive(ctx context.Context, record *models.SubmissionRecord) {
	if s.archive == nil {
		return
	}
	if err := s.archive.UpdateDelivery(ctx, record.ID, record.Delivered, record.SinkStatusCode, record.DeliveryError); err != nil {
		s.logger.Error("Failed to record delivery outcome", "submission_id", record.ID, "error", err)
	}
}

func (s *submissionService) Get(ctx context.Context, id string) (*models.SubmissionRecord, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	record, err := s.archive.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return record, nil
}

func (s *submissionService) List(ctx context.Context, filters models.SubmissionFilters) ([]*models.SubmissionRecord, int64, error) {
	if s.archive == nil {
		return nil, 0, ErrArchiveDisabled
	}
	if err := s.validator.Validate(&filters); err != nil {
		return nil, 0, err
	}
	return s.archive.List(ctx, filters)
}

func (s *submissionService) Stats(ctx context.Context, filters models.SubmissionFilters) (*repositories.SubmissionStats, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	if err := s.validator.Validate(&filters); err != nil {
		return nil, err
	}
	return s.archive.Stats(ctx, filters)
}
