package analysis

import (
	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
)

// StudentSimilarity computes the pairwise proportion of matching chosen
// options across all questions each pair of students has in common. The
// matrix is O(n^2 * q); callers with large cohorts should compute it on
// demand rather than with every analysis.
func StudentSimilarity(responses []models.StudentResponse) models.SimilarityMatrix {
	n := len(responses)
	keys := make([]string, n)
	answers := make([]map[string]string, n)
	for i, r := range responses {
		keys[i] = r.StudentID
		m := make(map[string]string, len(r.Responses))
		for _, qr := range r.Responses {
			m[qr.QuestionID] = models.Normalize(qr.StudentAnswer)
		}
		answers[i] = m
	}

	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
		values[i][i] = 1
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			shared, matching := 0, 0
			for qid, a := range answers[i] {
				b, ok := answers[j][qid]
				if !ok {
					continue
				}
				shared++
				if a == b {
					matching++
				}
			}
			sim := 0.0
			if shared > 0 {
				sim = float64(matching) / float64(shared)
			}
			values[i][j] = sim
			values[j][i] = sim
		}
	}

	return models.SimilarityMatrix{Keys: keys, Values: values}
}

// VariantSimilarity compares variants structurally, independent of student
// answers: the average of (a) the fraction of matching positions in the
// question order and (b) the fraction of questions whose option
// permutations are identical sequences. Used for integrity review.
func VariantSimilarity(variants []models.VariantForAnalysis) models.SimilarityMatrix {
	n := len(variants)
	keys := make([]string, n)
	for i, v := range variants {
		keys[i] = v.VariantCode
	}

	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
		values[i][i] = 1
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := (orderSimilarity(variants[i].QuestionOrder, variants[j].QuestionOrder) +
				permutationSimilarity(variants[i], variants[j])) / 2
			values[i][j] = sim
			values[j][i] = sim
		}
	}

	return models.SimilarityMatrix{Keys: keys, Values: values}
}

func orderSimilarity(a, b []int) float64 {
	length := len(a)
	if len(b) < length {
		length = len(b)
	}
	if length == 0 {
		return 0
	}
	matching := 0
	for i := 0; i < length; i++ {
		if a[i] == b[i] {
			matching++
		}
	}
	return float64(matching) / float64(length)
}

func permutationSimilarity(a, b models.VariantForAnalysis) float64 {
	ids := make(map[string]struct{})
	for id := range a.OptionPermutations {
		ids[id] = struct{}{}
	}
	for id := range b.OptionPermutations {
		ids[id] = struct{}{}
	}
	if len(ids) == 0 {
		// Neither variant shuffled any options; structurally identical.
		return 1
	}

	matching := 0
	for id := range ids {
		if equalInts(a.OptionPermutations[id], b.OptionPermutations[id]) {
			matching++
		}
	}
	return float64(matching) / float64(len(ids))
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
