// Package transform converts question payloads between the two supported
// exchange formats. The format set is fixed and small, so conversion is an
// explicit switch over named functions rather than a runtime-registered
// map.
package transform

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/NarimanMilanfar/exam-analysis-service/internal/errors"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
)

type Format string

const (
	// FormatMCQList is the flat import format: question text, lettered
	// choices and a letter answer.
	FormatMCQList Format = "mcqlist"
	// FormatCourse is the course-native question representation.
	FormatCourse Format = "course"
)

// MCQItem is one entry of the mcqlist format.
type MCQItem struct {
	ID       string   `json:"id,omitempty"`
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Answer   string   `json:"answer"`
	Points   float64  `json:"points,omitempty"`
}

// Convert dispatches between formats over raw JSON payloads.
func Convert(from, to Format, data json.RawMessage) (json.RawMessage, error) {
	switch {
	case from == to:
		return data, nil
	case from == FormatMCQList && to == FormatCourse:
		var items []MCQItem
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, apperrors.NewInvalidInputError("Payload is not a valid mcqlist document")
		}
		questions, err := MCQListToCourse(items)
		if err != nil {
			return nil, err
		}
		return json.Marshal(questions)
	case from == FormatCourse && to == FormatMCQList:
		var questions []models.Question
		if err := json.Unmarshal(data, &questions); err != nil {
			return nil, apperrors.NewInvalidInputError("Payload is not a valid course question document")
		}
		items, err := CourseToMCQList(questions)
		if err != nil {
			return nil, err
		}
		return json.Marshal(items)
	default:
		return nil, apperrors.NewInvalidInputError(
			fmt.Sprintf("Unsupported format conversion: %s to %s", from, to))
	}
}

// MCQListToCourse materializes flat MCQ items as course questions. A letter
// answer is resolved against the choices; full-text answers are accepted
// too.
func MCQListToCourse(items []MCQItem) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(items))
	for i, item := range items {
		if item.Question == "" {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("Item %d has no question text", i+1))
		}
		if len(item.Choices) == 0 {
			return nil, apperrors.NewInvalidQuestionError(item.Question, "item has no choices")
		}

		correct := resolveAnswer(item.Answer, item.Choices)
		if correct == "" {
			return nil, apperrors.NewInvalidQuestionError(item.Question, "answer does not match any choice")
		}

		points := item.Points
		if points <= 0 {
			points = 1
		}
		id := item.ID
		if id == "" {
			id = fmt.Sprintf("q%d", i+1)
		}

		questions = append(questions, models.Question{
			ID:            id,
			Text:          item.Question,
			Type:          models.MultipleChoice,
			Options:       append([]string(nil), item.Choices...),
			CorrectAnswer: correct,
			Points:        points,
		})
	}
	return questions, nil
}

// CourseToMCQList flattens course questions into the mcqlist shape, turning
// the correct option back into a letter.
func CourseToMCQList(questions []models.Question) ([]MCQItem, error) {
	items := make([]MCQItem, 0, len(questions))
	for _, q := range questions {
		options := q.Options
		if q.Type == models.TrueFalse && len(options) != 2 {
			options = models.TrueFalseOptions
		}

		letter := ""
		for i, opt := range options {
			if models.EqualAnswers(opt, q.CorrectAnswer) {
				letter = string(rune('A' + i))
				break
			}
		}
		if letter == "" {
			return nil, apperrors.NewInvalidQuestionError(q.Text, "correct answer is not among the options")
		}

		items = append(items, MCQItem{
			ID:       q.ID,
			Question: q.Text,
			Choices:  append([]string(nil), options...),
			Answer:   letter,
			Points:   q.Points,
		})
	}
	return items, nil
}

func resolveAnswer(answer string, choices []string) string {
	if len(answer) == 1 {
		upper := answer[0]
		if upper >= 'a' && upper <= 'z' {
			upper -= 'a' - 'A'
		}
		if upper >= 'A' && upper < 'A'+byte(len(choices)) {
			return choices[upper-'A']
		}
	}
	for _, c := range choices {
		if models.EqualAnswers(c, answer) {
			return c
		}
	}
	return ""
}
