package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/wellbeing-service/internal/cache"
	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/SAP-F-2025/wellbeing-service/internal/survey"
)

const questionsCacheKey = "catalog:questions"

// CatalogService fetches the question catalog from the content backend. It
// is the survey.CatalogLoader used by every session.
type CatalogService interface {
	Load(ctx context.Context) (*survey.Catalog, error)
	RawQuestions(ctx context.Context) (*repositories.RawResponse, error)
	Invalidate(ctx context.Context) error
}

type catalogService struct {
	source repositories.QuestionSource
	cache  cache.CacheService
	ttl    time.Duration
	logger *slog.Logger
}

func NewCatalogService(source repositories.QuestionSource, cacheService cache.CacheService, ttl time.Duration, logger *slog.Logger) CatalogService {
	if cacheService == nil {
		cacheService = cache.NewNoopCache()
	}
	return &catalogService{
		source: source,
		cache:  cacheService,
		ttl:    ttl,
		logger: logger,
	}
}

// RawQuestions returns the upstream payload untouched. Successful answers are
// cached for the configured TTL.
func (s *catalogService) RawQuestions(ctx context.Context) (*repositories.RawResponse, error) {
	var cached repositories.RawResponse
	if err := s.cache.Get(ctx, questionsCacheKey, &cached); err == nil {
		s.logger.Debug("Question catalog served from cache")
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Question cache lookup failed", "error", err)
	}

	resp, err := s.source.FetchQuestions(ctx)
	if err != nil {
		return nil, err
	}

	if s.ttl > 0 {
		if err := s.cache.Set(ctx, questionsCacheKey, resp, s.ttl); err != nil {
			s.logger.Warn("Failed to cache question catalog", "error", err)
		}
	}
	return resp, nil
}

func (s *catalogService) Load(ctx context.Context) (*survey.Catalog, error) {
	resp, err := s.RawQuestions(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		loadErr := &survey.LoadError{Op: "fetch", Err: err}
		var upstream *repositories.UpstreamError
		if errors.As(err, &upstream) {
			loadErr.StatusCode = upstream.StatusCode
		}
		return nil, loadErr
	}

	records, err := ParseQuestionPayload(resp.Body)
	if err != nil {
		// drop the bad payload so the next load refetches
		_ = s.cache.Delete(ctx, questionsCacheKey)
		return nil, &survey.LoadError{Op: "parse", Err: err}
	}

	catalog, err := survey.BuildCatalog(records)
	if err != nil {
		return nil, &survey.LoadError{Op: "group", Err: err}
	}

	s.logger.Info("Question catalog loaded",
		"categories", catalog.Len(),
		"questions", catalog.QuestionCount())
	return catalog, nil
}

func (s *catalogService) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, questionsCacheKey)
}

// ParseQuestionPayload accepts a bare array of question records or an object
// wrapping it under "body" or "items". A wrapper whose value is a JSON string
// holding the array is decoded once more.
func ParseQuestionPayload(data []byte) ([]models.QuestionRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, survey.ErrMalformedPayload
	}

	switch data[0] {
	case '[':
		var records []models.QuestionRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", survey.ErrMalformedPayload, err)
		}
		return records, nil
	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", survey.ErrMalformedPayload, err)
		}
		for _, key := range []string{"body", "items"} {
			inner, ok := wrapper[key]
			if !ok {
				continue
			}
			inner = bytes.TrimSpace(inner)
			if len(inner) > 0 && inner[0] == '"' {
				var encoded string
				if err := json.Unmarshal(inner, &encoded); err != nil {
					return nil, fmt.Errorf("%w: %v", survey.ErrMalformedPayload, err)
				}
				inner = bytes.TrimSpace([]byte(encoded))
			}
			if len(inner) == 0 || inner[0] != '[' {
				return nil, fmt.Errorf("%w: %q is not an array", survey.ErrMalformedPayload, key)
			}
			var records []models.QuestionRecord
			if err := json.Unmarshal(inner, &records); err != nil {
				return nil, fmt.Errorf("%w: %v", survey.ErrMalformedPayload, err)
			}
			return records, nil
		}
	}
	return nil, survey.ErrMalformedPayload
}
