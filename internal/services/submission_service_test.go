package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/SAP-F-2025/wellbeing-service/internal/config"
	"github.com/SAP-F-2025/wellbeing-service/internal/events"
	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/SAP-F-2025/wellbeing-service/internal/survey"
	"github.com/SAP-F-2025/wellbeing-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type submissionFixture struct {
	sink      *MockSubmissionSink
	archive   *MockSubmissionRepository
	publisher *events.MockEventPublisher
	service   SubmissionService
}

func newSubmissionFixture(profile string, withArchive bool) *submissionFixture {
	f := &submissionFixture{
		sink:      &MockSubmissionSink{},
		publisher: events.NewMockEventPublisher(testLogger()),
	}
	var archive repositories.SubmissionRepository
	if withArchive {
		f.archive = &MockSubmissionRepository{}
		archive = f.archive
	}
	f.service = NewSubmissionService(
		f.sink,
		archive,
		NewSubmissionEventService(f.publisher, testLogger()),
		profile,
		testLogger(),
		validator.New(),
	)
	return f
}

func (f *submissionFixture) eventTypes() []events.EventType {
	var types []events.EventType
	for _, e := range f.publisher.GetPublishedEvents() {
		types = append(types, e.Type)
	}
	return types
}

func TestSubmissionService_SubmitRaw_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, err error)
	}{
		{
			name:  "invalid json",
			body:  `{"personalInfo":`,
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidJSON) },
		},
		{
			name: "missing personal info",
			body: `{"answers":{}}`,
			check: func(t *testing.T, err error) {
				var ve ValidationErrors
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "personalInfo", ve[0].Field)
			},
		},
		{
			name: "answers is not an object",
			body: `{"personalInfo":{},"answers":[1,2]}`,
			check: func(t *testing.T, err error) {
				var ve ValidationErrors
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "answers", ve[0].Field)
			},
		},
		{
			name: "top level array",
			body: `[]`,
			check: func(t *testing.T, err error) {
				assert.True(t, IsValidation(err))
			},
		},
		{
			name: "suspicious value",
			body: `{"personalInfo":{"nickname":"<SCRIPT>x"},"answers":{}}`,
			check: func(t *testing.T, err error) {
				var se *SuspiciousContentError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, "<script", se.Pattern)
				assert.ErrorIs(t, err, ErrSuspiciousContent)
			},
		},
		{
			name: "suspicious key",
			body: `{"personalInfo":{},"answers":{"onclick=x":1}}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrSuspiciousContent)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSubmissionFixture(config.SubmitProfileFull, false)

			outcome, err := f.service.SubmitRaw(context.Background(), []byte(tt.body))

			assert.Nil(t, outcome)
			tt.check(t, err)
			f.sink.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
			assert.Empty(t, f.publisher.GetPublishedEvents())
		})
	}
}

func TestSubmissionService_SubmitRaw_Forwards(t *testing.T) {
	f := newSubmissionFixture(config.SubmitProfileFull, true)

	body := `{
		"personalInfo": {"nickname":"  <b>Ann</b> ","age":"200","country":"Thailand","university":"Chula"},
		"overallScore": "7.5",
		"answers": {"q1": 7, "q2": "", "q3": null, "q4": 11, "q5": "abc"}
	}`

	f.archive.On("Create", mock.Anything, mock.MatchedBy(func(r *models.SubmissionRecord) bool {
		return r.Source == models.SourceProxy && r.Nickname == "Ann" && r.Age == 150 && r.ID != ""
	})).Return(nil)
	f.archive.On("UpdateDelivery", mock.Anything, mock.AnythingOfType("string"), true, 200, "").Return(nil)

	var sent *models.SubmissionPayload
	f.sink.On("Submit", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*models.SubmissionPayload) }).
		Return(rawJSON(200, `{"ok":true}`), nil)

	outcome, err := f.service.SubmitRaw(context.Background(), []byte(body))
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.NotEmpty(t, outcome.SubmissionID)
	assert.JSONEq(t, `{"ok":true}`, string(outcome.Upstream.Body))

	require.NotNil(t, sent)
	data, err := json.Marshal(sent)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"personalInfo": {"nickname":"Ann","age":150,"gender":"","country":"Thailand","university":"Chula","faculty":"","major":""},
		"overallScore": 7.5,
		"answers": {"q1": 7, "q2": "", "q3": ""}
	}`, string(data))

	assert.Equal(t, []events.EventType{events.EventSurveySubmitted, events.EventSurveyDelivered}, f.eventTypes())
	f.archive.AssertExpectations(t)
	f.sink.AssertExpectations(t)
}

func TestSubmissionService_SubmitRaw_SinkFailure(t *testing.T) {
	f := newSubmissionFixture(config.SubmitProfileFull, true)

	upstream := &repositories.UpstreamError{Service: "submission backend", StatusCode: 502, Status: "502 Bad Gateway"}
	f.archive.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.archive.On("UpdateDelivery", mock.Anything, mock.Anything, false, 502, upstream.Error()).Return(nil)
	f.sink.On("Submit", mock.Anything, mock.Anything).Return(nil, upstream)

	outcome, err := f.service.SubmitRaw(context.Background(), []byte(`{"personalInfo":{},"answers":{}}`))

	var se *survey.SubmissionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 502, se.StatusCode)
	assert.ErrorIs(t, err, upstream)
	require.NotNil(t, outcome)
	assert.NotEmpty(t, outcome.SubmissionID)

	assert.Equal(t, []events.EventType{events.EventSurveySubmitted, events.EventSurveyDeliveryFailed}, f.eventTypes())
	f.archive.AssertExpectations(t)
}

func TestSubmissionService_ArchiveFailureDoesNotBlockDelivery(t *testing.T) {
	f := newSubmissionFixture(config.SubmitProfileFull, true)

	f.archive.On("Create", mock.Anything, mock.Anything).Return(errors.New("database is down"))
	f.archive.On("UpdateDelivery", mock.Anything, mock.Anything, true, 201, "").Return(errors.New("database is down"))
	f.sink.On("Submit", mock.Anything, mock.Anything).Return(rawJSON(201, `{}`), nil)

	_, err := f.service.SubmitRaw(context.Background(), []byte(`{"personalInfo":{},"answers":{}}`))
	assert.NoError(t, err)
	f.sink.AssertExpectations(t)
}

func sampleDelivery() *Delivery {
	return &Delivery{
		SessionID:    "session-1",
		PersonalInfo: models.PersonalInfo{Nickname: "Ann", Age: 22, Country: "Thailand"},
		Answers: map[survey.Key]survey.Answer{
			{CategoryKey: "A", QuestionID: "q1"}: survey.Numeric(8),
			{CategoryKey: "A", QuestionID: "q2"}: survey.NotRelevant(),
		},
		Result: survey.Result{
			Categories:    []survey.CategoryScore{{Category: "A", Sum: 8, Average: 4}, {Category: "B", Sum: 0, Average: 0}},
			Overall:       8,
			QuestionCount: 3,
		},
		Unanswered: 1,
	}
}

func TestSubmissionService_Deliver(t *testing.T) {
	tests := []struct {
		name     string
		profile  string
		expected string
	}{
		{
			name:    "full profile sends answers",
			profile: config.SubmitProfileFull,
			expected: `{
				"personalInfo": {"nickname":"Ann","age":22,"gender":"","country":"Thailand","university":"","faculty":"","major":""},
				"overallScore": 2.6666666666666665,
				"answers": {"A_q1": 8, "A_q2": ""}
			}`,
		},
		{
			name:    "aggregate profile sends the result",
			profile: config.SubmitProfileAggregate,
			expected: `{
				"personalInfo": {"nickname":"Ann","age":22,"gender":"","country":"Thailand","university":"","faculty":"","major":""},
				"overallScore": 2.6666666666666665,
				"result": {"categoryScores":[{"category":"A","sum":8,"avg":4},{"category":"B","sum":0,"avg":0}],"overall":8,"questionCount":3}
			}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSubmissionFixture(tt.profile, false)

			var sent []byte
			f.sink.On("Submit", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) {
					sent, _ = json.Marshal(args.Get(1))
				}).
				Return(rawJSON(200, `{}`), nil)

			outcome, err := f.service.Deliver(context.Background(), sampleDelivery())
			require.NoError(t, err)
			assert.NotEmpty(t, outcome.SubmissionID)
			assert.JSONEq(t, tt.expected, string(sent))

			published := f.publisher.GetPublishedEvents()
			require.Len(t, published, 2)
			submitted, ok := published[0].Data.(events.SurveySubmittedEvent)
			require.True(t, ok)
			assert.Equal(t, "session-1", submitted.SessionID)
			assert.Equal(t, 3, submitted.QuestionCount)
			assert.Equal(t, 1, submitted.Unanswered)
			assert.Len(t, submitted.Categories, 2)
		})
	}
}

func TestSubmissionService_Deliver_SharedQuestionIDs(t *testing.T) {
	f := newSubmissionFixture(config.SubmitProfileFull, false)

	var sent *models.SubmissionPayload
	f.sink.On("Submit", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sent = args.Get(1).(*models.SubmissionPayload)
		}).
		Return(rawJSON(200, `{}`), nil)

	delivery := sampleDelivery()
	delivery.Answers = map[survey.Key]survey.Answer{
		{CategoryKey: "A", QuestionID: "1"}: survey.Numeric(8),
		{CategoryKey: "B", QuestionID: "1"}: survey.Numeric(2),
	}

	_, err := f.service.Deliver(context.Background(), delivery)
	require.NoError(t, err)
	require.NotNil(t, sent)
	assert.Len(t, sent.Answers, 2)
	assert.Equal(t, 8.0, sent.Answers["A_1"].Value())
	assert.Equal(t, 2.0, sent.Answers["B_1"].Value())
}

func TestSubmissionService_ArchiveDisabled(t *testing.T) {
	f := newSubmissionFixture(config.SubmitProfileFull, false)
	ctx := context.Background()

	_, _, err := f.service.List(ctx, models.SubmissionFilters{})
	assert.ErrorIs(t, err, ErrArchiveDisabled)

	_, err = f.service.Stats(ctx, models.SubmissionFilters{})
	assert.ErrorIs(t, err, ErrArchiveDisabled)

	_, err = f.service.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrArchiveDisabled)
}

func TestSubmissionService_Get(t *testing.T) {
	f := newSubmissionFixture(config.SubmitProfileFull, true)
	f.archive.On("GetByID", mock.Anything, "missing").Return(nil, repositories.ErrNotFound)
	f.archive.On("GetByID", mock.Anything, "known").Return(&models.SubmissionRecord{ID: "known"}, nil)

	_, err := f.service.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
	assert.True(t, IsNotFound(err))

	record, err := f.service.Get(context.Background(), "known")
	require.NoError(t, err)
	assert.Equal(t, "known", record.ID)
}

func TestSubmissionService_ListValidatesFilters(t *testing.T) {
	f := newSubmissionFixture(config.SubmitProfileFull, true)

	_, _, err := f.service.List(context.Background(), models.SubmissionFilters{Limit: 100000})
	assert.True(t, IsValidation(err))
	f.archive.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}
