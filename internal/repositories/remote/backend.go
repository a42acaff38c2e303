package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
)

// QuestionClient reads the question catalog from the content backend.
type QuestionClient struct {
	url    string
	client *client
}

func NewQuestionClient(url string, httpClient *http.Client, maxRetries int, logger utils.Logger) repositories.QuestionSource {
	return &QuestionClient{
		url:    url,
		client: newClient("question backend", httpClient, maxRetries, logger),
	}
}

func (q *QuestionClient) FetchQuestions(ctx context.Context) (*repositories.RawResponse, error) {
	return q.client.do(ctx, http.MethodGet, q.url, nil)
}

// SubmissionClient posts results to the content backend. The backend does not
// deduplicate submissions, so it is normally built with maxRetries 0.
type SubmissionClient struct {
	url    string
	client *client
}

func NewSubmissionClient(url string, httpClient *http.Client, maxRetries int, logger utils.Logger) repositories.SubmissionSink {
	return &SubmissionClient{
		url:    url,
		client: newClient("submission backend", httpClient, maxRetries, logger),
	}
}

func (s *SubmissionClient) Submit(ctx context.Context, payload *models.SubmissionPayload) (*repositories.RawResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submission: %w", err)
	}
	return s.client.do(ctx, http.MethodPost, s.url, body)
}
