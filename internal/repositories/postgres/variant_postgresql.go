package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/repositories"
)

type VariantPostgreSQL struct {
	db *gorm.DB
}

func NewVariantPostgreSQL(db *gorm.DB) repositories.VariantRepository {
	return &VariantPostgreSQL{db: db}
}

func (r *VariantPostgreSQL) CreateBatch(ctx context.Context, variants []*models.ExamVariantRecord) error {
	if len(variants) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(variants).Error
}

func (r *VariantPostgreSQL) GetByVariantCode(ctx context.Context, code string) (*models.ExamVariantRecord, error) {
	var record models.ExamVariantRecord
	if err := r.db.WithContext(ctx).
		Where("variant_code = ?", code).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *VariantPostgreSQL) GetByExam(ctx context.Context, examID string, filters repositories.VariantFilters) ([]*models.ExamVariantRecord, int64, error) {
	var records []*models.ExamVariantRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ExamVariantRecord{}).Where("exam_id = ?", examID)
	query = r.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.applyPaginationAndSort(query, filters)
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *VariantPostgreSQL) DeleteByExam(ctx context.Context, examID string) error {
	return r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Delete(&models.ExamVariantRecord{}).Error
}

func (r *VariantPostgreSQL) WithTransaction(ctx context.Context, fn func(repo repositories.VariantRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&VariantPostgreSQL{db: tx})
	})
}

func (r *VariantPostgreSQL) applyFilters(query *gorm.DB, filters repositories.VariantFilters) *gorm.DB {
	if filters.Seed != nil {
		query = query.Where("seed = ?", *filters.Seed)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

func (r *VariantPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.VariantFilters) *gorm.DB {
	sortBy := filters.SortBy
	switch sortBy {
	case "created_at", "variant_number":
	default:
		sortBy = "variant_number"
	}
	order := "asc"
	if filters.SortOrder == "desc" {
		order = "desc"
	}
	query = query.Order(sortBy + " " + order)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
