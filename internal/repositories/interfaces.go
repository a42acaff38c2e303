package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
)

// ===== REMOTE SERVICES =====

// RawResponse is an upstream body kept byte for byte so proxies can forward it.
type RawResponse struct {
	StatusCode  int
	ContentType string
	Body        json.RawMessage
}

// QuestionSource serves the raw question catalog payload.
type QuestionSource interface {
	FetchQuestions(ctx context.Context) (*RawResponse, error)
}

// SubmissionSink accepts scored submissions.
type SubmissionSink interface {
	Submit(ctx context.Context, payload *models.SubmissionPayload) (*RawResponse, error)
}

// UniversityDirectory searches the public university list.
type UniversityDirectory interface {
	Search(ctx context.Context, query models.UniversityQuery) (*RawResponse, error)
}

// UpstreamError reports a non-2xx answer from a remote service.
type UpstreamError struct {
	Service    string
	StatusCode int
	Status     string
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s returned %s", e.Service, e.Status)
	}
	return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
}

// ===== ARCHIVE =====

type SubmissionRepository interface {
	Create(ctx context.Context, record *models.SubmissionRecord) error
	GetByID(ctx context.Context, id string) (*models.SubmissionRecord, error)
	UpdateDelivery(ctx context.Context, id string, delivered bool, statusCode int, deliveryErr string) error
	List(ctx context.Context, filters models.SubmissionFilters) ([]*models.SubmissionRecord, int64, error)
	Stats(ctx context.Context, filters models.SubmissionFilters) (*SubmissionStats, error)
}

type SubmissionStats struct {
	Total        int64   `json:"total"`
	Delivered    int64   `json:"delivered"`
	Undelivered  int64   `json:"undelivered"`
	AverageScore float64 `json:"average_score"`
}

var ErrNotFound = errors.New("record not found")
