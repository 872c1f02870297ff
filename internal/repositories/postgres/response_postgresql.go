package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/repositories"
)

type ResponsePostgreSQL struct {
	db *gorm.DB
}

func NewResponsePostgreSQL(db *gorm.DB) repositories.ResponseRepository {
	return &ResponsePostgreSQL{db: db}
}

func (r *ResponsePostgreSQL) Create(ctx context.Context, response *models.StudentResponseRecord) error {
	return r.db.WithContext(ctx).Create(response).Error
}

// CreateBatch upserts by (exam_id, student_id, variant_code) so re-importing
// the same file replaces earlier rows instead of duplicating them.
func (r *ResponsePostgreSQL) CreateBatch(ctx context.Context, responses []*models.StudentResponseRecord) error {
	if len(responses) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "exam_id"}, {Name: "student_id"}, {Name: "variant_code"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"responses", "total_score", "max_possible_score",
				"started_at", "completed_at", "updated_at",
			}),
		}).
		Create(responses).Error
}

func (r *ResponsePostgreSQL) GetByExam(ctx context.Context, examID string, filters repositories.ResponseFilters) ([]*models.StudentResponseRecord, int64, error) {
	var records []*models.StudentResponseRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&models.StudentResponseRecord{}).Where("exam_id = ?", examID)
	query = r.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("student_id asc").Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *ResponsePostgreSQL) GetByStudentAndExam(ctx context.Context, studentID, examID string) ([]*models.StudentResponseRecord, error) {
	var records []*models.StudentResponseRecord
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *ResponsePostgreSQL) DeleteByExam(ctx context.Context, examID string) error {
	return r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Delete(&models.StudentResponseRecord{}).Error
}

func (r *ResponsePostgreSQL) applyFilters(query *gorm.DB, filters repositories.ResponseFilters) *gorm.DB {
	if filters.VariantCode != nil {
		query = query.Where("variant_code = ?", *filters.VariantCode)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}
