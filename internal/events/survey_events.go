package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of events emitted for survey submissions
type EventType string

const (
	EventSurveySubmitted      EventType = "survey.submitted"
	EventSurveyDelivered      EventType = "survey.delivered"
	EventSurveyDeliveryFailed EventType = "survey.delivery_failed"
)

const (
	eventSource  = "wellbeing-service"
	eventVersion = "1.0"
)

// SurveyEvent is the envelope shared by all survey events
type SurveyEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// CategoryScore mirrors one row of the computed result.
type CategoryScore struct {
	Category string  `json:"category"`
	Sum      float64 `json:"sum"`
	Average  float64 `json:"avg"`
}

type SurveySubmittedEvent struct {
	SubmissionID  string          `json:"submission_id"`
	SessionID     string          `json:"session_id,omitempty"`
	Source        string          `json:"source"`
	Country       string          `json:"country,omitempty"`
	OverallScore  float64         `json:"overall_score"`
	QuestionCount int             `json:"question_count"`
	Unanswered    int             `json:"unanswered"`
	Categories    []CategoryScore `json:"categories,omitempty"`
	SubmittedAt   time.Time       `json:"submitted_at"`
}

type SurveyDeliveredEvent struct {
	SubmissionID string    `json:"submission_id"`
	SessionID    string    `json:"session_id,omitempty"`
	StatusCode   int       `json:"status_code"`
	DeliveredAt  time.Time `json:"delivered_at"`
}

type SurveyDeliveryFailedEvent struct {
	SubmissionID string    `json:"submission_id"`
	SessionID    string    `json:"session_id,omitempty"`
	StatusCode   int       `json:"status_code,omitempty"`
	Reason       string    `json:"reason"`
	FailedAt     time.Time `json:"failed_at"`
}

// Event factory functions

func NewSurveySubmittedEvent(data SurveySubmittedEvent) *SurveyEvent {
	return newEvent(EventSurveySubmitted, data)
}

func NewSurveyDeliveredEvent(submissionID, sessionID string, statusCode int) *SurveyEvent {
	return newEvent(EventSurveyDelivered, SurveyDeliveredEvent{
		SubmissionID: submissionID,
		SessionID:    sessionID,
		StatusCode:   statusCode,
		DeliveredAt:  time.Now(),
	})
}

func NewSurveyDeliveryFailedEvent(submissionID, sessionID string, statusCode int, reason string) *SurveyEvent {
	return newEvent(EventSurveyDeliveryFailed, SurveyDeliveryFailedEvent{
		SubmissionID: submissionID,
		SessionID:    sessionID,
		StatusCode:   statusCode,
		Reason:       reason,
		FailedAt:     time.Now(),
	})
}

func newEvent(eventType EventType, data interface{}) *SurveyEvent {
	return &SurveyEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// GenerateEventID returns a random UUID for event and submission ids
func GenerateEventID() string {
	return uuid.NewString()
}
