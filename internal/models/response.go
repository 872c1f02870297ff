package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuestionResponse is a single answered question inside a student response.
// StudentAnswer is either a variant-local letter ("A".."Z") or the full
// option text; both forms are accepted by the analyzer.
type QuestionResponse struct {
	QuestionID    string  `json:"question_id"`
	StudentAnswer string  `json:"student_answer"`
	IsCorrect     bool    `json:"is_correct"`
	Points        float64 `json:"points"`
	MaxPoints     float64 `json:"max_points"`
}

// StudentResponse is one student's graded sheet for one exam variant.
type StudentResponse struct {
	StudentID        string             `json:"student_id"`
	VariantCode      string             `json:"variant_code"`
	Responses        []QuestionResponse `json:"responses"`
	TotalScore       float64            `json:"total_score"`
	MaxPossibleScore float64            `json:"max_possible_score"`
	StartedAt        *time.Time         `json:"started_at,omitempty"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty"`
}

// StudentResponseRecord is the persisted form; the per-question responses
// ride along as jsonb like the variant metadata does.
type StudentResponseRecord struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	ExamID           string         `json:"exam_id" gorm:"not null;size:64;index"`
	StudentID        string         `json:"student_id" gorm:"not null;size:64;index"`
	VariantCode      string         `json:"variant_code" gorm:"not null;size:64;index"`
	Responses        datatypes.JSON `json:"responses" gorm:"type:jsonb"`
	TotalScore       float64        `json:"total_score"`
	MaxPossibleScore float64        `json:"max_possible_score"`
	StartedAt        *time.Time     `json:"started_at"`
	CompletedAt      *time.Time     `json:"completed_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (StudentResponseRecord) TableName() string {
	return "student_responses"
}
