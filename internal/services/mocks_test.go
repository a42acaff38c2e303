package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SAP-F-2025/wellbeing-service/internal/cache"
	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stringPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }

const defaultTestTTL = time.Minute

// MockQuestionSource is a mock implementation of QuestionSource
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

// MockSubmissionSink is a mock implementation of SubmissionSink
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

// MockUniversityDirectory is a mock implementation of UniversityDirectory
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

// MockSubmissionRepository is a mock implementation of SubmissionRepository
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Create(ctx context.Context, record *models.SubmissionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetByID(ctx context.Context, id string) (*models.SubmissionRecord, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.SubmissionRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubmissionRepository) UpdateDelivery(ctx context.Context, id string, delivered bool, statusCode int, deliveryErr string) error {
	args := m.Called(ctx, id, delivered, statusCode, deliveryErr)
	return args.Error(0)
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

// memoryCache is an in-process CacheService for tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	data, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// DeletePattern supports trailing-star patterns only.
func (c *memoryCache) DeletePattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// questionsPayload holds two categories: A (q1, q2) ranked first and B (q3).
const questionsPayload = `[
	{"_id":"q3","question":"three","positiveEmotions":"B","categoryId":2},
	{"_id":"q1","question":"one","positiveEmotions":"A","categoryId":1},
	{"_id":"q2","question":"two","positiveEmotions":"A","categoryId":1}
]`

func rawJSON(status int, body string) *repositories.RawResponse {
	return &repositories.RawResponse{StatusCode: status, ContentType: "application/json", Body: json.RawMessage(body)}
}
