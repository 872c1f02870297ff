package repositories

import (
	"context"
	"time"

	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type VariantFilters struct {
	Seed      *string    `json:"seed"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`    // "created_at", "variant_number"
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

type ResponseFilters struct {
	VariantCode *string    `json:"variant_code"`
	StudentID   *string    `json:"student_id"`
	DateFrom    *time.Time `json:"date_from"`
	DateTo      *time.Time `json:"date_to"`
	Limit       int        `json:"limit"`
	Offset      int        `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

// VariantRepository persists generated exam variants. Variants are written
// once per generation run and never updated afterwards.
type VariantRepository interface {
	CreateBatch(ctx context.Context, variants []*models.ExamVariantRecord) error
	GetByVariantCode(ctx context.Context, code string) (*models.ExamVariantRecord, error)
	GetByExam(ctx context.Context, examID string, filters VariantFilters) ([]*models.ExamVariantRecord, int64, error)
	DeleteByExam(ctx context.Context, examID string) error
	WithTransaction(ctx context.Context, fn func(repo VariantRepository) error) error
}

// ResponseRepository persists student response sheets.
type ResponseRepository interface {
	Create(ctx context.Context, response *models.StudentResponseRecord) error
	CreateBatch(ctx context.Context, responses []*models.StudentResponseRecord) error
	GetByExam(ctx context.Context, examID string, filters ResponseFilters) ([]*models.StudentResponseRecord, int64, error)
	GetByStudentAndExam(ctx context.Context, studentID, examID string) ([]*models.StudentResponseRecord, error)
	DeleteByExam(ctx context.Context, examID string) error
}
