package models

import (
	"encoding/json"
	"strings"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TrueFalse      QuestionType = "TRUE_FALSE"
)

// TrueFalseOptions is the canonical option pair for TRUE_FALSE questions.
// Questions that arrive without exactly two options are normalized to it.
var TrueFalseOptions = []string{"True", "False"}

// Question is an immutable input to the variant generator. Transformations
// always produce a fresh value; a Question is never mutated in place.
type Question struct {
	ID             string       `json:"id" validate:"required"`
	Text           string       `json:"text" validate:"required"`
	Type           QuestionType `json:"type" validate:"required,question_type"`
	Options        []string     `json:"options"`
	CorrectAnswer  string       `json:"correct_answer" validate:"required"`
	Points         float64      `json:"points" validate:"required,gt=0"`
	NegativePoints *float64     `json:"negative_points,omitempty" validate:"omitempty,lte=0"`
}

// Clone returns a deep copy so callers can hand the result to a variant
// without sharing the options slice with the original.
func (q Question) Clone() Question {
	c := q
	if q.Options != nil {
		c.Options = make([]string, len(q.Options))
		copy(c.Options, q.Options)
	}
	if q.NegativePoints != nil {
		np := *q.NegativePoints
		c.NegativePoints = &np
	}
	return c
}

// Normalize lower-cases and trims answer text. Both the generator and the
// analyzer compare answers through this single helper so the two engines can
// never disagree on what counts as a match.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// EqualAnswers reports whether two answer texts match case-insensitively.
func EqualAnswers(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// ParseOptions accepts options either as an already-parsed slice or as a
// JSON-encoded string and returns the normalized slice. This is the single
// boundary step; everything past it only ever sees []string.
func ParseOptions(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case string:
		var opts []string
		if err := json.Unmarshal([]byte(v), &opts); err == nil {
			return opts
		}
		return nil
	case []any:
		opts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				opts = append(opts, s)
			}
		}
		return opts
	default:
		return nil
	}
}
