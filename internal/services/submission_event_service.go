package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/wellbeing-service/internal/events"
	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/survey"
)

// SubmissionEventService announces the lifecycle of every forwarded submission
// on the event bus. Publishing failures are logged, never returned to callers
// of the submission flow.
type SubmissionEventService interface {
	NotifySubmitted(ctx context.Context, record *models.SubmissionRecord, result *survey.Result, unanswered int) error
	NotifyDelivered(ctx context.Context, record *models.SubmissionRecord) error
	NotifyDeliveryFailed(ctx context.Context, record *models.SubmissionRecord, reason string) error
}

type submissionEventService struct {
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

func NewSubmissionEventService(eventPublisher events.EventPublisher, logger *slog.Logger) SubmissionEventService {
	if eventPublisher == nil {
		eventPublisher = events.NewMockEventPublisher(logger)
	}
	return &submissionEventService{
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (s *submissionEventService) NotifySubmitted(ctx context.Context, record *models.SubmissionRecord, result *survey.Result, unanswered int) error {
	s.logger.Info("Publishing survey submitted event", "submission_id", record.ID)

	data := events.SurveySubmittedEvent{
		SubmissionID: record.ID,
		SessionID:    sessionIDOf(record),
		Source:       string(record.Source),
		Country:      record.Country,
		OverallScore: record.OverallScore,
		Unanswered:   unanswered,
		SubmittedAt:  record.CreatedAt,
	}
	if data.SubmittedAt.IsZero() {
		data.SubmittedAt = time.Now()
	}
	if result != nil {
		data.QuestionCount = result.QuestionCount
		data.Categories = make([]events.CategoryScore, 0, len(result.Categories))
		for _, cs := range result.Categories {
			data.Categories = append(data.Categories, events.CategoryScore{
				Category: cs.Category,
				Sum:      cs.Sum,
				Average:  cs.Average,
			})
		}
	}

	return s.publish(ctx, events.NewSurveySubmittedEvent(data))
}

func (s *submissionEventService) NotifyDelivered(ctx context.Context, record *models.SubmissionRecord) error {
	s.logger.Info("Publishing survey delivered event",
		"submission_id", record.ID,
		"status_code", record.SinkStatusCode)

	return s.publish(ctx, events.NewSurveyDeliveredEvent(record.ID, sessionIDOf(record), record.SinkStatusCode))
}

func (s *submissionEventService) NotifyDeliveryFailed(ctx context.Context, record *models.SubmissionRecord, reason string) error {
	s.logger.Warn("Publishing survey delivery failed event",
		"submission_id", record.ID,
		"status_code", record.SinkStatusCode,
		"reason", reason)

	return s.publish(ctx, events.NewSurveyDeliveryFailedEvent(record.ID, sessionIDOf(record), record.SinkStatusCode, reason))
}

func (s *submissionEventService) publish(ctx context.Context, event *events.SurveyEvent) error {
	if err := s.eventPublisher.PublishSurveyEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish survey event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
		return err
	}
	return nil
}

func sessionIDOf(record *models.SubmissionRecord) string {
	if record.SessionID == nil {
		return ""
	}
	return *record.SessionID
}
