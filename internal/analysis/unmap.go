package analysis

import (
	"strings"

	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
)

// UnmapResponses projects every student response out of variant space into
// the canonical original-question space. Answers arrive either as a
// variant-local letter ("B") or as full option text; both are resolved
// against the variant's permutation metadata, correctness is recomputed
// against the original answer key (the variant-space IsCorrect flag is
// never trusted), and total scores are re-summed. Responses whose variant
// code has no metadata pass through unchanged.
func UnmapResponses(variants []models.VariantForAnalysis, responses []models.StudentResponse, questions []models.AnalysisQuestion) []models.StudentResponse {
	variantsByCode := make(map[string]models.VariantForAnalysis, len(variants))
	for _, v := range variants {
		variantsByCode[v.VariantCode] = v
	}
	questionsByID := make(map[string]models.AnalysisQuestion, len(questions))
	for _, q := range questions {
		questionsByID[q.ID] = q
	}

	unmapped := make([]models.StudentResponse, 0, len(responses))
	for _, resp := range responses {
		variant, ok := variantsByCode[resp.VariantCode]
		if !ok {
			unmapped = append(unmapped, resp)
			continue
		}

		out := resp
		out.Responses = make([]models.QuestionResponse, len(resp.Responses))
		total := 0.0
		for i, qr := range resp.Responses {
			question, hasQuestion := questionsByID[qr.QuestionID]
			if !hasQuestion {
				out.Responses[i] = qr
				total += qr.Points
				continue
			}

			resolved := resolveOriginalAnswer(qr.StudentAnswer, variant.OptionPermutations[qr.QuestionID], question)
			correct := resolved != "" && models.EqualAnswers(resolved, question.CorrectAnswer)

			mapped := qr
			mapped.StudentAnswer = resolved
			mapped.IsCorrect = correct
			if correct {
				mapped.Points = qr.MaxPoints
			} else {
				mapped.Points = 0
			}
			out.Responses[i] = mapped
			total += mapped.Points
		}
		out.TotalScore = total
		unmapped = append(unmapped, out)
	}
	return unmapped
}

// resolveOriginalAnswer maps a raw student answer to original option text.
// Answers are trimmed and upper-cased before the single-letter check, so
// "b", " B " and "B" all resolve to variant position 1. Non-letter answers
// are matched case-insensitively against the original option texts. An
// unresolvable answer is returned as entered (it will simply never match
// the answer key), and a blank answer stays blank (an omit).
func resolveOriginalAnswer(raw string, perm []int, question models.AnalysisQuestion) string {
	answer := strings.TrimSpace(raw)
	if answer == "" {
		return ""
	}

	upper := strings.ToUpper(answer)
	if len(upper) == 1 && upper[0] >= 'A' && upper[0] <= 'Z' {
		pos := int(upper[0] - 'A')
		origIdx := pos
		// perm[i] is the original option index sitting at variant
		// position i; an absent permutation means the options were
		// never shuffled.
		if perm != nil {
			if pos >= len(perm) {
				return answer
			}
			origIdx = perm[pos]
		}
		if origIdx >= 0 && origIdx < len(question.Options) {
			return question.Options[origIdx]
		}
		return answer
	}

	for _, opt := range question.Options {
		if models.EqualAnswers(opt, answer) {
			return opt
		}
	}
	return answer
}

// OriginalQuestions reconstructs the original-space question set from a
// stored variant by inverting its permutation metadata. Positions in the
// returned slice follow the original question indices.
func OriginalQuestions(variant models.ExamVariant) []models.AnalysisQuestion {
	originals := make([]models.AnalysisQuestion, variant.Metadata.OriginalQuestionCount)
	for pos, q := range variant.Questions {
		if pos >= len(variant.Metadata.QuestionOrder) {
			break
		}
		origIdx := variant.Metadata.QuestionOrder[pos]
		if origIdx < 0 || origIdx >= len(originals) {
			continue
		}

		options := append([]string(nil), q.Options...)
		if perm, ok := variant.Metadata.OptionPermutations[q.ID]; ok && len(perm) == len(q.Options) {
			for variantPos, origOptIdx := range perm {
				if origOptIdx >= 0 && origOptIdx < len(options) {
					options[origOptIdx] = q.Options[variantPos]
				}
			}
		}

		originals[origIdx] = models.AnalysisQuestion{
			ID:            q.ID,
			Text:          q.Text,
			Options:       options,
			CorrectAnswer: q.CorrectAnswer,
			Type:          q.Type,
		}
	}

	// Subset variants leave gaps; compact them away.
	compacted := originals[:0]
	for _, q := range originals {
		if q.ID != "" {
			compacted = append(compacted, q)
		}
	}
	return compacted
}
