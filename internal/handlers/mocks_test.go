package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/SAP-F-2025/wellbeing-service/internal/services"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
	"github.com/SAP-F-2025/wellbeing-service/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

type MockQuestionSource struct {
	mock.Mock
}

func (m *MockQuestionSource) FetchQuestions(ctx context.Context) (*repositories.RawResponse, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*repositories.RawResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSubmissionSink struct {
	mock.Mock
}

func (m *MockSubmissionSink) Submit(ctx context.Context, payload *models.SubmissionPayload) (*repositories.RawResponse, error) {
	args := m.Called(ctx, payload)
	if v := args.Get(0); v != nil {
		return v.(*repositories.RawResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockUniversityDirectory struct {
	mock.Mock
}

func (m *MockUniversityDirectory) Search(ctx context.Context, query models.UniversityQuery) (*repositories.RawResponse, error) {
	args := m.Called(ctx, query)
	if v := args.Get(0); v != nil {
		return v.(*repositories.RawResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Create(ctx context.Context, record *models.SubmissionRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockSubmissionRepository) GetByID(ctx context.Context, id string) (*models.SubmissionRecord, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.SubmissionRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubmissionRepository) UpdateDelivery(ctx context.Context, id string, delivered bool, statusCode int, deliveryErr string) error {
	return m.Called(ctx, id, delivered, statusCode, deliveryErr).Error(0)
}

func (m *MockSubmissionRepository) List(ctx context.Context, filters models.SubmissionFilters) ([]*models.SubmissionRecord, int64, error) {
	args := m.Called(ctx, filters)
	if v := args.Get(0); v != nil {
		return v.([]*models.SubmissionRecord), args.Get(1).(int64), args.Error(2)
	}
	return nil, args.Get(1).(int64), args.Error(2)
}

func (m *MockSubmissionRepository) Stats(ctx context.Context, filters models.SubmissionFilters) (*repositories.SubmissionStats, error) {
	args := m.Called(ctx, filters)
	if v := args.Get(0); v != nil {
		return v.(*repositories.SubmissionStats), args.Error(1)
	}
	return nil, args.Error(1)
}

// ===== TEST SERVER =====

const questionsPayload = `[
	{"_id":"q3","question":"three","positiveEmotions":"B","categoryId":2},
	{"_id":"q1","question":"one","positiveEmotions":"A","categoryId":1},
	{"_id":"q2","question":"two","positiveEmotions":"A","categoryId":1}
]`

func rawJSON(status int, body string) *repositories.RawResponse {
	return &repositories.RawResponse{StatusCode: status, ContentType: "application/json", Body: json.RawMessage(body)}
}

type testServer struct {
	questions    *MockQuestionSource
	sink         *MockSubmissionSink
	universities *MockUniversityDirectory
	services     services.ServiceManager
	router       *gin.Engine
}

// newTestServer wires the real services over mocked upstreams. archive may be nil.
func newTestServer(t *testing.T, archive repositories.SubmissionRepository) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		questions:    &MockQuestionSource{},
		sink:         &MockSubmissionSink{},
		universities: &MockUniversityDirectory{},
	}
	ts.services = services.NewServiceManager(services.Dependencies{
		Questions:    ts.questions,
		Sink:         ts.sink,
		Universities: ts.universities,
		Archive:      archive,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Validator:    validator.New(),
	})

	logger := utils.NewNopLogger()
	ts.router = gin.New()
	ts.router.Use(utils.ContextLogger(logger))
	NewHandlerManager(ts.services, "https://form.example.org", logger).SetupRoutes(ts.router)
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}
