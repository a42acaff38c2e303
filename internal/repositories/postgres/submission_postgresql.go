package postgres

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"gorm.io/gorm"
)

const defaultListLimit = 1000

type SubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

func (s SubmissionPostgreSQL) Create(ctx context.Context, record *models.SubmissionRecord) error {
	return s.db.WithContext(ctx).Create(record).Error
}

func (s SubmissionPostgreSQL) GetByID(ctx context.Context, id string) (*models.SubmissionRecord, error) {
	var record models.SubmissionRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s SubmissionPostgreSQL) UpdateDelivery(ctx context.Context, id string, delivered bool, statusCode int, deliveryErr string) error {
	result := s.db.WithContext(ctx).
		Model(&models.SubmissionRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"delivered":        delivered,
			"sink_status_code": statusCode,
			"delivery_error":   deliveryErr,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (s SubmissionPostgreSQL) List(ctx context.Context, filters models.SubmissionFilters) ([]*models.SubmissionRecord, int64, error) {
	var records []*models.SubmissionRecord
	var total int64

	query := s.applyFilters(s.db.WithContext(ctx).Model(&models.SubmissionRecord{}), filters)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if err := query.Order("created_at DESC").Limit(limit).Offset(filters.Offset).Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (s SubmissionPostgreSQL) Stats(ctx context.Context, filters models.SubmissionFilters) (*repositories.SubmissionStats, error) {
	var row struct {
		Total        int64
		Delivered    int64
		AverageScore *float64
	}

	query := s.applyFilters(s.db.WithContext(ctx).Model(&models.SubmissionRecord{}), filters)
	if err := query.Select(
		"COUNT(*) AS total, " +
			"COUNT(*) FILTER (WHERE delivered) AS delivered, " +
			"AVG(overall_score) AS average_score",
	).Scan(&row).Error; err != nil {
		return nil, err
	}

	stats := &repositories.SubmissionStats{
		Total:       row.Total,
		Delivered:   row.Delivered,
		Undelivered: row.Total - row.Delivered,
	}
	if row.AverageScore != nil {
		stats.AverageScore = *row.AverageScore
	}
	return stats, nil
}

func (s SubmissionPostgreSQL) applyFilters(query *gorm.DB, filters models.SubmissionFilters) *gorm.DB {
	if filters.Source != nil {
		query = query.Where("source = ?", *filters.Source)
	}
	if filters.Country != nil && *filters.Country != "" {
		query = query.Where("country = ?", *filters.Country)
	}
	if filters.Delivered != nil {
		query = query.Where("delivered = ?", *filters.Delivered)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at < ?", filters.DateTo.AddDate(0, 0, 1))
	}
	return query
}
