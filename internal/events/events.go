package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of domain event being published.
type EventType string

const (
	// EventVariantsGenerated fires after a variant batch is persisted.
	EventVariantsGenerated EventType = "variants.generated"
	// EventAnalysisCompleted fires after an exam analysis finishes.
	EventAnalysisCompleted EventType = "analysis.completed"
	// EventResponsesImported fires after a response file import succeeds.
	EventResponsesImported EventType = "responses.imported"
)

// Event is the envelope for all domain events published to Kafka.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an event envelope with a fresh ID and current timestamp.
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    "exam-analysis-service",
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// VariantsGeneratedData is the payload for EventVariantsGenerated.
type VariantsGeneratedData struct {
	ExamID           string `json:"exam_id"`
	VariantCount     int    `json:"variant_count"`
	Seed             string `json:"seed"`
	UniquenessMode   bool   `json:"uniqueness_mode"`
	QuestionsPerExam int    `json:"questions_per_exam"`
}

// AnalysisCompletedData is the payload for EventAnalysisCompleted.
type AnalysisCompletedData struct {
	ExamID        string  `json:"exam_id"`
	StudentCount  int     `json:"student_count"`
	QuestionCount int     `json:"question_count"`
	MeanScore     float64 `json:"mean_score"`
	ByVariant     bool    `json:"by_variant"`
}

// ResponsesImportedData is the payload for EventResponsesImported.
type ResponsesImportedData struct {
	ExamID        string `json:"exam_id"`
	ImportedCount int    `json:"imported_count"`
	SkippedCount  int    `json:"skipped_count"`
	FileName      string `json:"file_name"`
}
