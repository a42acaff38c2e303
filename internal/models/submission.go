package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// PersonalInfo is the respondent block of a submission, already sanitised.
type PersonalInfo struct {
	Nickname   string `json:"nickname" validate:"max=100"`
	Age        int    `json:"age" validate:"gte=0,lte=150"`
	Gender     string `json:"gender" validate:"max=100"`
	Country    string `json:"country" validate:"max=100"`
	University string `json:"university" validate:"max=200"`
	Faculty    string `json:"faculty" validate:"max=100"`
	Major      string `json:"major" validate:"max=100"`
}

// AnswerValue is what the backend stores per question: a number in [0,10] or
// "" for "not relevant".
type AnswerValue struct {
	value       float64
	notRelevant bool
}

func NumericAnswer(v float64) AnswerValue { return AnswerValue{value: v} }

func NotRelevantAnswer() AnswerValue { return AnswerValue{notRelevant: true} }

func (a AnswerValue) IsNotRelevant() bool { return a.notRelevant }

func (a AnswerValue) Value() float64 { return a.value }

func (a AnswerValue) MarshalJSON() ([]byte, error) {
	if a.notRelevant {
		return []byte(`""`), nil
	}
	return json.Marshal(a.value)
}

func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*a = NumericAnswer(t)
	case nil:
		*a = NotRelevantAnswer()
	case string:
		if t != "" {
			return fmt.Errorf("invalid answer value %q", t)
		}
		*a = NotRelevantAnswer()
	default:
		return fmt.Errorf("invalid answer value %s", data)
	}
	return nil
}

// SubmissionPayload is the body forwarded to the submission sink. Answers is
// keyed by "category_question". Result carries the category breakdown when the
// aggregate profile is configured.
type SubmissionPayload struct {
	PersonalInfo PersonalInfo           `json:"personalInfo"`
	OverallScore float64                `json:"overallScore"`
	Answers      map[string]AnswerValue `json:"answers,omitempty"`
	Result       json.RawMessage        `json:"result,omitempty"`
}

type SubmissionSource string

const (
	SourceProxy   SubmissionSource = "proxy"
	SourceSession SubmissionSource = "session"
)

// SubmissionRecord is the archived copy of every submission the service forwarded.
type SubmissionRecord struct {
	ID        string           `json:"id" gorm:"primaryKey;size:36"` // UUID
	SessionID *string          `json:"session_id" gorm:"index;size:36"`
	Source    SubmissionSource `json:"source" gorm:"not null;size:20;index"`

	// Respondent
	Nickname   string `json:"nickname" gorm:"size:100"`
	Age        int    `json:"age"`
	Gender     string `json:"gender" gorm:"size:100"`
	Country    string `json:"country" gorm:"size:100;index"`
	University string `json:"university" gorm:"size:200"`
	Faculty    string `json:"faculty" gorm:"size:100"`
	Major      string `json:"major" gorm:"size:100"`

	// Scores
	OverallScore float64        `json:"overall_score"`
	Answers      datatypes.JSON `json:"answers" gorm:"type:jsonb"`
	Result       datatypes.JSON `json:"result" gorm:"type:jsonb"`

	// Delivery
	Delivered      bool   `json:"delivered" gorm:"default:false;index"`
	SinkStatusCode int    `json:"sink_status_code"`
	DeliveryError  string `json:"delivery_error" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SubmissionRecord) TableName() string { return "submissions" }

func (r *SubmissionRecord) SetPersonalInfo(info PersonalInfo) {
	r.Nickname = info.Nickname
	r.Age = info.Age
	r.Gender = info.Gender
	r.Country = info.Country
	r.University = info.University
	r.Faculty = info.Faculty
	r.Major = info.Major
}

type SubmissionFilters struct {
	Source    *SubmissionSource `form:"source"`
	Country   *string           `form:"country"`
	Delivered *bool             `form:"delivered"`
	DateFrom  *time.Time        `form:"date_from" time_format:"2006-01-02"`
	DateTo    *time.Time        `form:"date_to" time_format:"2006-01-02"`
	Limit     int               `form:"limit" validate:"omitempty,min=1,max=10000"`
	Offset    int               `form:"offset" validate:"omitempty,min=0"`
}
