// Package variantgen deterministically produces exam variants: permutations
// of question order and per-question option order, each reproducible from a
// seed. It is a leaf package; it performs no I/O and keeps no state between
// calls.
package variantgen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/NarimanMilanfar/exam-analysis-service/internal/errors"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
	"github.com/NarimanMilanfar/exam-analysis-service/internal/random"
)

const (
	// DefaultMaxVariationsCap bounds how many variants a single call may
	// produce regardless of the requested count.
	DefaultMaxVariationsCap = 100

	// DefaultTheoreticalSpaceCap bounds the theoretical permutation-space
	// computation so factorial products cannot overflow.
	DefaultTheoreticalSpaceCap = 1_000_000
)

// Generator produces exam variants. The caps are configurable because the
// limits are operational safety bounds, not algorithmic constants.
type Generator struct {
	maxVariationsCap    int
	theoreticalSpaceCap int
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxVariationsCap overrides the hard cap on produced variants.
func WithMaxVariationsCap(cap int) Option {
	return func(g *Generator) {
		if cap > 0 {
			g.maxVariationsCap = cap
		}
	}
}

// WithTheoreticalSpaceCap overrides the permutation-space bound.
func WithTheoreticalSpaceCap(cap int) Option {
	return func(g *Generator) {
		if cap > 0 {
			g.theoreticalSpaceCap = cap
		}
	}
}

// NewGenerator creates a Generator with the default caps.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		maxVariationsCap:    DefaultMaxVariationsCap,
		theoreticalSpaceCap: DefaultTheoreticalSpaceCap,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces variants for the given questions under config. It either
// succeeds completely or fails validation before any randomization begins;
// there is no partial output.
func (g *Generator) Generate(questions []models.Question, config models.VariationConfig) (*models.GenerationResult, error) {
	if err := g.validate(questions, config); err != nil {
		return nil, err
	}

	if config.MaxVariations <= 0 {
		config.MaxVariations = models.DefaultVariationConfig().MaxVariations
	}

	baseSeed := config.Seed
	if baseSeed == "" {
		baseSeed = deriveSeed(questions)
		config.Seed = baseSeed
	}

	theoretical := g.theoreticalMax(questions, config)

	questionsPerVariant := len(questions)
	if config.RandomizeQuestionSubset {
		questionsPerVariant = config.QuestionCount
	}

	stats := models.GenerationStatistics{
		TheoreticalMax:      theoretical,
		RequestedCount:      config.MaxVariations,
		UniquenessEnforced:  !config.EnforceMaxVariations,
		QuestionsPerVariant: questionsPerVariant,
	}

	var variants []models.ExamVariant
	if config.EnforceMaxVariations {
		count := config.MaxVariations
		if count > g.maxVariationsCap {
			count = g.maxVariationsCap
		}
		variants = make([]models.ExamVariant, 0, count)
		for i := 0; i < count; i++ {
			v := buildVariant(questions, variantSeed(baseSeed, i), config, len(variants)+1)
			variants = append(variants, v)
		}
	} else {
		target := config.MaxVariations
		if target > theoretical {
			target = theoretical
		}
		// Deduplication only matters when the permutation space is small
		// enough for collisions to be likely.
		checkDuplicates := theoretical < g.maxVariationsCap
		seen := make(map[string]struct{})
		variants = make([]models.ExamVariant, 0, target)

		attemptCap := config.MaxVariations * 10
		for i := 0; len(variants) < target && i < attemptCap; i++ {
			v := buildVariant(questions, variantSeed(baseSeed, i), config, len(variants)+1)
			if checkDuplicates {
				key := variantKey(v)
				if _, dup := seen[key]; dup {
					stats.DuplicatesRejected++
					continue
				}
				seen[key] = struct{}{}
			}
			variants = append(variants, v)
		}
	}

	return &models.GenerationResult{
		Variants:        variants,
		TotalVariations: len(variants),
		Config:          config,
		Statistics:      stats,
	}, nil
}

// RecreateVariant reproduces one variant directly from a caller-supplied
// seed string, without the per-variant suffixing Generate applies. It is
// used to regenerate a stored variant byte-for-byte without re-running the
// batch.
func (g *Generator) RecreateVariant(questions []models.Question, exactSeed string, config models.VariationConfig) (*models.ExamVariant, error) {
	if exactSeed == "" {
		return nil, apperrors.NewInvalidInputError("Seed is required to recreate a variant")
	}
	if err := g.validate(questions, config); err != nil {
		return nil, err
	}
	v := buildVariant(questions, exactSeed, config, 1)
	return &v, nil
}

func (g *Generator) validate(questions []models.Question, config models.VariationConfig) error {
	if len(questions) == 0 {
		return apperrors.NewInvalidInputError("Questions array cannot be empty")
	}
	if config.RandomizeQuestionSubset {
		if config.QuestionCount <= 0 {
			return apperrors.NewInvalidInputError("Question count must be positive when subset randomization is enabled")
		}
		if config.QuestionCount > len(questions) {
			return apperrors.NewInvalidInputError(fmt.Sprintf(
				"Question count %d exceeds available questions %d", config.QuestionCount, len(questions)))
		}
	}
	if len(questions) == 1 && config.RandomizeQuestionOrder {
		return apperrors.NewInvalidInputError("Cannot randomize a single question")
	}
	for _, q := range questions {
		if q.Type != models.MultipleChoice {
			continue
		}
		if len(q.Options) == 0 {
			return apperrors.NewInvalidQuestionError(q.Text, "multiple choice question has no options")
		}
		// Exact match here on purpose: authoring data should be repaired,
		// not silently case-folded.
		found := false
		for _, opt := range q.Options {
			if opt == q.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			return apperrors.NewInvalidQuestionError(q.Text, "correct answer is not among the options")
		}
	}
	return nil
}

// deriveSeed hashes the question content so that re-running generation over
// an unchanged question set without an explicit seed reproduces the same
// base seed.
func deriveSeed(questions []models.Question) string {
	var b strings.Builder
	for _, q := range questions {
		b.WriteString(q.ID)
		b.WriteByte('|')
		b.WriteString(q.Text)
		b.WriteByte('|')
		b.WriteString(q.CorrectAnswer)
		b.WriteByte('|')
	}
	return fmt.Sprintf("auto_%08x", random.Hash(b.String()))
}

func variantSeed(baseSeed string, index int) string {
	return baseSeed + "_v" + strconv.Itoa(index)
}

func buildVariant(questions []models.Question, seed string, config models.VariationConfig, number int) models.ExamVariant {
	rng := random.New(seed)

	order := make([]int, len(questions))
	for i := range order {
		order[i] = i
	}

	if config.RandomizeQuestionSubset {
		order = rng.Sample(len(questions), config.QuestionCount)
		if !config.RandomizeQuestionOrder {
			sort.Ints(order)
		}
	}

	if config.RandomizeQuestionOrder {
		perm := rng.Perm(len(order))
		shuffled := make([]int, len(order))
		for i, p := range perm {
			shuffled[i] = order[p]
		}
		order = shuffled
	}

	variantQuestions := make([]models.Question, len(order))
	optionPerms := make(map[string][]int)
	for i, origIdx := range order {
		q, perm := shuffleQuestionOptions(questions[origIdx], rng, config)
		variantQuestions[i] = q
		if perm != nil {
			optionPerms[q.ID] = perm
		}
	}
	if len(optionPerms) == 0 {
		optionPerms = nil
	}

	return models.ExamVariant{
		ID:        fmt.Sprintf("var_%08x_%d", random.Hash(seed), number),
		Questions: variantQuestions,
		Metadata: models.VariantMetadata{
			OriginalQuestionCount: len(questions),
			VariantNumber:         number,
			Seed:                  seed,
			Timestamp:             time.Now().UTC(),
			QuestionOrder:         order,
			OptionPermutations:    optionPerms,
		},
	}
}

// shuffleQuestionOptions returns a fresh question with possibly permuted
// options plus the permutation applied, or nil when the options were left
// in original order. The correct answer is relocated by matching the
// original options case-insensitively, so its text never changes.
func shuffleQuestionOptions(q models.Question, rng *random.Rand, config models.VariationConfig) (models.Question, []int) {
	out := q.Clone()

	switch q.Type {
	case models.TrueFalse:
		opts := out.Options
		if len(opts) != 2 {
			opts = append([]string(nil), models.TrueFalseOptions...)
		}
		correctIdx := indexOfFold(opts, q.CorrectAnswer)
		if correctIdx < 0 {
			// Malformed answer key; leave the question untouched beyond
			// option normalization.
			out.Options = opts
			return out, nil
		}
		if config.RandomizeTrueFalseOptions {
			perm := rng.Perm(2)
			shuffled := make([]string, 2)
			for i, p := range perm {
				shuffled[i] = opts[p]
			}
			out.Options = shuffled
			out.CorrectAnswer = opts[correctIdx]
			if perm[0] == 0 && perm[1] == 1 {
				return out, nil
			}
			return out, perm
		}
		out.Options = opts
		out.CorrectAnswer = opts[correctIdx]
		return out, nil

	case models.MultipleChoice:
		if !config.RandomizeOptionOrder || len(out.Options) < 2 {
			return out, nil
		}
		perm := rng.Perm(len(out.Options))
		shuffled := make([]string, len(out.Options))
		for i, p := range perm {
			shuffled[i] = out.Options[p]
		}
		correctIdx := indexOfFold(out.Options, q.CorrectAnswer)
		out.Options = shuffled
		if correctIdx >= 0 {
			for pos, p := range perm {
				if p == correctIdx {
					out.CorrectAnswer = shuffled[pos]
					break
				}
			}
		}
		if isIdentity(perm) {
			return out, nil
		}
		return out, perm

	default:
		return out, nil
	}
}

func (g *Generator) theoreticalMax(questions []models.Question, config models.VariationConfig) int {
	total := 1
	if config.RandomizeQuestionOrder {
		total = cappedMul(total, cappedFactorial(len(questions), g.theoreticalSpaceCap), g.theoreticalSpaceCap)
	}
	if config.RandomizeOptionOrder {
		for _, q := range questions {
			if q.Type == models.MultipleChoice && len(q.Options) > 1 {
				total = cappedMul(total, cappedFactorial(len(q.Options), g.theoreticalSpaceCap), g.theoreticalSpaceCap)
			}
		}
	}
	if config.RandomizeTrueFalseOptions {
		for _, q := range questions {
			if q.Type == models.TrueFalse {
				total = cappedMul(total, 2, g.theoreticalSpaceCap)
			}
		}
	}
	if total > g.maxVariationsCap {
		total = g.maxVariationsCap
	}
	return total
}

// variantKey builds a composite identity over question order and all option
// permutations, used for duplicate rejection in uniqueness mode.
func variantKey(v models.ExamVariant) string {
	var b strings.Builder
	for i, idx := range v.Metadata.QuestionOrder {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(idx))
	}
	b.WriteByte('|')
	ids := make([]string, 0, len(v.Metadata.OptionPermutations))
	for id := range v.Metadata.OptionPermutations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		b.WriteString(id)
		b.WriteByte(':')
		for _, p := range v.Metadata.OptionPermutations[id] {
			b.WriteString(strconv.Itoa(p))
			b.WriteByte(',')
		}
		b.WriteByte(';')
	}
	return b.String()
}

func indexOfFold(options []string, answer string) int {
	for i, opt := range options {
		if models.EqualAnswers(opt, answer) {
			return i
		}
	}
	return -1
}

func isIdentity(perm []int) bool {
	for i, p := range perm {
		if i != p {
			return false
		}
	}
	return true
}

func cappedFactorial(n, cap int) int {
	total := 1
	for i := 2; i <= n; i++ {
		total = cappedMul(total, i, cap)
		if total >= cap {
			return cap
		}
	}
	return total
}

func cappedMul(a, b, cap int) int {
	if a >= cap/b+1 {
		return cap
	}
	v := a * b
	if v > cap {
		return cap
	}
	return v
}
