package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/wellbeing-service/internal/cache"
	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/SAP-F-2025/wellbeing-service/internal/validator"
)

// UniversityService wraps the public university directory: raw proxying for
// the legacy endpoint plus the country and university pickers of the intro form.
type UniversityService interface {
	Search(ctx context.Context, query models.UniversityQuery) (*repositories.RawResponse, error)
	Lookup(ctx context.Context, query models.UniversityQuery) ([]models.University, error)
	Countries(ctx context.Context, input string) ([]string, error)
	Universities(ctx context.Context, country, name string) ([]UniversityOption, error)
}

// UniversityOption is one entry of the university picker.
type UniversityOption struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	Domain string `json:"domain,omitempty"`
}

type universityService struct {
	directory repositories.UniversityDirectory
	cache     cache.CacheService
	ttl       time.Duration
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUniversityService(directory repositories.UniversityDirectory, cacheService cache.CacheService, ttl time.Duration, logger *slog.Logger, v *validator.Validator) UniversityService {
	if cacheService == nil {
		cacheService = cache.NewNoopCache()
	}
	return &universityService{
		directory: directory,
		cache:     cacheService,
		ttl:       ttl,
		logger:    logger,
		validator: v,
	}
}

const universityCachePattern = "universities:*"

func universityCacheKey(query models.UniversityQuery) string {
	return fmt.Sprintf("universities:%s|%s", strings.ToLower(query.Country), strings.ToLower(query.Name))
}

func (s *universityService) Search(ctx context.Context, query models.UniversityQuery) (*repositories.RawResponse, error) {
	if err := s.validator.Validate(&query); err != nil {
		return nil, err
	}

	key := universityCacheKey(query)
	var cached repositories.RawResponse
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("University cache lookup failed", "error", err)
	}

	resp, err := s.directory.Search(ctx, query)
	if err != nil {
		s.logger.Error("University search failed",
			"name", query.Name,
			"country", query.Country,
			"error", err)
		return nil, err
	}

	if s.ttl > 0 {
		if err := s.cache.Set(ctx, key, resp, s.ttl); err != nil {
			s.logger.Warn("Failed to cache university search", "error", err)
		}
	}
	return resp, nil
}

func (s *universityService) Lookup(ctx context.Context, query models.UniversityQuery) ([]models.University, error) {
	resp, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	var universities []models.University
	if err := json.Unmarshal(resp.Body, &universities); err != nil {
		// drop cached searches so the next lookup goes to the directory
		if cacheErr := s.cache.DeletePattern(ctx, universityCachePattern); cacheErr != nil {
			s.logger.Warn("Failed to clear university cache", "error", cacheErr)
		}
		return nil, fmt.Errorf("failed to decode university list: %w", err)
	}
	return universities, nil
}

// Countries searches universities by name and returns the distinct countries,
// in first-seen order, whose name contains input (case-insensitive).
func (s *universityService) Countries(ctx context.Context, input string) ([]string, error) {
	input = strings.TrimSpace(input)
	universities, err := s.Lookup(ctx, models.UniversityQuery{Name: input})
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(input)
	seen := make(map[string]bool)
	countries := make([]string, 0)
	for _, u := range universities {
		if u.Country == "" || seen[u.Country] {
			continue
		}
		seen[u.Country] = true
		if strings.Contains(strings.ToLower(u.Country), needle) {
			countries = append(countries, u.Country)
		}
	}
	return countries, nil
}

// Universities lists picker options for one country. An empty country yields
// no options without asking the directory.
func (s *universityService) Universities(ctx context.Context, country, name string) ([]UniversityOption, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return []UniversityOption{}, nil
	}

	universities, err := s.Lookup(ctx, models.UniversityQuery{Country: country, Name: strings.TrimSpace(name)})
	if err != nil {
		return nil, err
	}

	options := make([]UniversityOption, 0, len(universities))
	for _, u := range universities {
		opt := UniversityOption{Value: u.Name, Label: u.Name}
		if len(u.Domains) > 0 {
			opt.Domain = u.Domains[0]
		}
		options = append(options, opt)
	}
	return options, nil
}
