package analysis

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/NarimanMilanfar/exam-analysis-service/internal/models"
)

// itemObservation pairs one student's answer on one question with that
// student's exam total. All statistics are computed over slices of these.
type itemObservation struct {
	studentID string
	answer    string
	correct   bool
	total     float64
}

// difficultyIndex is the proportion answering correctly; higher is easier.
func difficultyIndex(obs []itemObservation) float64 {
	if len(obs) == 0 {
		return 0
	}
	correct := 0
	for _, o := range obs {
		if o.correct {
			correct++
		}
	}
	return float64(correct) / float64(len(obs))
}

// discriminationIndex uses the classic high/low 27% group method: the
// difference between the proportion correct in the top and bottom score
// groups. Group size never drops below max(2, 10% of n) so the index stays
// meaningful at small n; with fewer than four observations the index is 0.
func discriminationIndex(obs []itemObservation) float64 {
	n := len(obs)
	if n < 4 {
		return 0
	}

	sorted := make([]itemObservation, n)
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].total > sorted[j].total
	})

	groupSize := int(float64(n) * 0.27)
	minGroup := int(float64(n) * 0.10)
	if minGroup < 2 {
		minGroup = 2
	}
	if groupSize < minGroup {
		groupSize = minGroup
	}
	if groupSize > n/2 {
		groupSize = n / 2
	}

	high := sorted[:groupSize]
	low := sorted[n-groupSize:]
	return proportionCorrect(high) - proportionCorrect(low)
}

func proportionCorrect(obs []itemObservation) float64 {
	if len(obs) == 0 {
		return 0
	}
	correct := 0
	for _, o := range obs {
		if o.correct {
			correct++
		}
	}
	return float64(correct) / float64(len(obs))
}

// pointBiserial correlates a binary partition of the observations with the
// continuous totals: ((mean1 - mean0) / sd) * sqrt(n1*n0 / n^2), clamped to
// [-1, 1]. Returns 0 when the partition or the totals have no variance.
func pointBiserial(obs []itemObservation, inGroup func(itemObservation) bool) float64 {
	n := len(obs)
	if n == 0 {
		return 0
	}

	totals := make([]float64, n)
	var sum1, sum0 float64
	var n1, n0 int
	for i, o := range obs {
		totals[i] = o.total
		if inGroup(o) {
			sum1 += o.total
			n1++
		} else {
			sum0 += o.total
			n0++
		}
	}
	if n1 == 0 || n0 == 0 {
		return 0
	}

	sd, err := stats.StandardDeviationPopulation(totals)
	if err != nil || sd == 0 {
		return 0
	}

	mean1 := sum1 / float64(n1)
	mean0 := sum0 / float64(n0)
	r := ((mean1 - mean0) / sd) * math.Sqrt(float64(n1)*float64(n0)/float64(n*n))
	return clamp(r, -1, 1)
}

// distractorAnalysis counts selections of every defined option, including
// zero-frequency ones; free-text values outside the option set are never
// counted as options. Blank answers are tracked separately as omits. The
// correct option's statistics are reported alongside the distractor list,
// not mixed into it.
func distractorAnalysis(question models.AnalysisQuestion, obs []itemObservation) *models.DistractorAnalysis {
	if question.Type != models.MultipleChoice && question.Type != models.TrueFalse {
		return nil
	}

	options := question.Options
	if len(options) == 0 && question.Type == models.TrueFalse {
		options = models.TrueFalseOptions
	}
	if len(options) == 0 {
		return nil
	}

	n := len(obs)
	omitted := 0
	counts := make([]int, len(options))
	for _, o := range obs {
		if o.answer == "" {
			omitted++
			continue
		}
		for i, opt := range options {
			if models.EqualAnswers(opt, o.answer) {
				counts[i]++
				break
			}
		}
	}

	groupSize := topBottomGroupSize(n)
	sorted := make([]itemObservation, n)
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].total > sorted[j].total
	})

	result := &models.DistractorAnalysis{
		OmittedCount: omitted,
	}
	if n > 0 {
		result.OmittedPercent = 100 * float64(omitted) / float64(n)
	}

	for i, opt := range options {
		stat := models.OptionStat{
			OptionText: opt,
			Frequency:  counts[i],
			IsCorrect:  models.EqualAnswers(opt, question.CorrectAnswer),
		}
		if n > 0 {
			stat.Percentage = 100 * float64(counts[i]) / float64(n)
			stat.SelectionRate = float64(counts[i]) / float64(n)
		}
		opt := opt
		stat.PointBiserial = pointBiserial(obs, func(o itemObservation) bool {
			return o.answer != "" && models.EqualAnswers(o.answer, opt)
		})
		if groupSize > 0 && n >= 2*groupSize {
			stat.ChosenByTopGrp = countChoosers(sorted[:groupSize], opt)
			stat.ChosenByLowGrp = countChoosers(sorted[n-groupSize:], opt)
		}

		if stat.IsCorrect {
			result.CorrectOption = stat
		} else {
			result.Distractors = append(result.Distractors, stat)
		}
	}
	return result
}

func topBottomGroupSize(n int) int {
	if n < 4 {
		return 0
	}
	size := int(float64(n) * 0.27)
	if size < 2 {
		size = 2
	}
	if size > n/2 {
		size = n / 2
	}
	return size
}

func countChoosers(group []itemObservation, option string) int {
	count := 0
	for _, o := range group {
		if o.answer != "" && models.EqualAnswers(o.answer, option) {
			count++
		}
	}
	return count
}

// significanceTest runs a chi-square goodness-of-fit test of the observed
// correct rate against random guessing (1/numberOfOptions). When expected
// cell counts drop below 5, a normal-approximation z-test substitutes for
// the raw chi-square and the substitution is recorded as a warning.
func significanceTest(obs []itemObservation, confidence float64) *models.SignificanceResult {
	n := len(obs)
	if n == 0 {
		return nil
	}

	correct := 0
	distinct := make(map[string]struct{})
	for _, o := range obs {
		if o.correct {
			correct++
		}
		if o.answer != "" {
			distinct[models.Normalize(o.answer)] = struct{}{}
		}
	}

	numOptions := len(distinct)
	if numOptions < 2 {
		numOptions = 2
	}
	p0 := 1.0 / float64(numOptions)
	pHat := float64(correct) / float64(n)

	expectedCorrect := float64(n) * p0
	expectedIncorrect := float64(n) * (1 - p0)

	result := &models.SignificanceResult{
		DegreesOfFreedom: 1,
		ConfidenceLevel:  confidence,
	}

	if expectedCorrect < 5 || expectedIncorrect < 5 {
		// Small-sample fallback: binomial z approximation.
		se := math.Sqrt(p0 * (1 - p0) / float64(n))
		var z float64
		if se > 0 {
			z = (pHat - p0) / se
		}
		result.TestUsed = "z-test"
		result.Statistic = z
		result.PValue = normalPValue(z)
		result.CriticalValue = zCritical(confidence)
		result.Significant = math.Abs(z) > result.CriticalValue
		result.Warnings = append(result.Warnings,
			"expected cell count below 5; z-test approximation used instead of chi-square")
	} else {
		observedCorrect := float64(correct)
		observedIncorrect := float64(n - correct)
		chi := square(observedCorrect-expectedCorrect)/expectedCorrect +
			square(observedIncorrect-expectedIncorrect)/expectedIncorrect
		result.TestUsed = "chi-square"
		result.Statistic = chi
		result.PValue = chiSquarePValue(chi)
		result.CriticalValue = chiSquareCritical(confidence)
		result.Significant = chi > result.CriticalValue
	}

	// Wald interval around the observed proportion.
	z := zCritical(confidence)
	margin := z * math.Sqrt(pHat*(1-pHat)/float64(n))
	result.ConfidenceInterval = [2]float64{
		clamp(pHat-margin, 0, 1),
		clamp(pHat+margin, 0, 1),
	}

	return result
}

// reliabilityMetrics computes the item-total correlation and a simplified
// per-item reliability contribution. Returns nil rather than an error when
// the calculation is degenerate: fewer than 3 responses or zero variance.
func reliabilityMetrics(obs []itemObservation) *models.ReliabilityMetrics {
	if len(obs) < 3 {
		return nil
	}

	item := make([]float64, len(obs))
	totals := make([]float64, len(obs))
	for i, o := range obs {
		if o.correct {
			item[i] = 1
		}
		totals[i] = o.total
	}

	corr, err := stats.Pearson(item, totals)
	if err != nil || math.IsNaN(corr) {
		return nil
	}

	itemVar, err := stats.PopulationVariance(item)
	if err != nil {
		return nil
	}
	totalVar, err := stats.PopulationVariance(totals)
	if err != nil || totalVar == 0 {
		return nil
	}

	return &models.ReliabilityMetrics{
		ItemTotalCorrelation:    clamp(corr, -1, 1),
		ReliabilityContribution: itemVar / totalVar,
	}
}

// cronbachAlpha computes the internal-consistency coefficient over the full
// item-by-student correctness matrix, with an approximate standard error
// and confidence interval. Returns nil when fewer than 3 responses or fewer
// than 2 items are available, or when total variance is zero.
func cronbachAlpha(matrix [][]float64, confidence float64) *models.AlphaResult {
	nStudents := len(matrix)
	if nStudents < 3 {
		return nil
	}
	nItems := len(matrix[0])
	if nItems < 2 {
		return nil
	}

	totals := make([]float64, nStudents)
	itemVarSum := 0.0
	for item := 0; item < nItems; item++ {
		column := make([]float64, nStudents)
		for s := 0; s < nStudents; s++ {
			column[s] = matrix[s][item]
			totals[s] += matrix[s][item]
		}
		v, err := stats.PopulationVariance(column)
		if err != nil {
			return nil
		}
		itemVarSum += v
	}

	totalVar, err := stats.PopulationVariance(totals)
	if err != nil || totalVar == 0 {
		return nil
	}

	k := float64(nItems)
	alpha := (k / (k - 1)) * (1 - itemVarSum/totalVar)

	// Approximate standard error; adequate for flagging, not for inference.
	se := (1 - alpha) * math.Sqrt(2.0/float64(nStudents))
	z := zCritical(confidence)
	return &models.AlphaResult{
		Alpha:         alpha,
		StandardError: se,
		ConfidenceInterval: [2]float64{
			clamp(alpha-z*se, -1, 1),
			clamp(alpha+z*se, -1, 1),
		},
	}
}

// scoreDistribution summarizes total scores. Skewness and kurtosis come
// from central moments and are nil on degenerate input instead of failing
// the whole analysis; quartiles and the other summary statistics fall back
// to zero values when the stats library reports an error.
func scoreDistribution(totals []float64) models.ScoreDistribution {
	var dist models.ScoreDistribution
	if len(totals) == 0 {
		return dist
	}

	if m, err := stats.Mean(totals); err == nil {
		dist.Mean = m
	}
	if m, err := stats.Median(totals); err == nil {
		dist.Median = m
	}
	if sd, err := stats.StandardDeviationPopulation(totals); err == nil {
		dist.StdDev = sd
	}
	if v, err := stats.Min(totals); err == nil {
		dist.Min = v
	}
	if v, err := stats.Max(totals); err == nil {
		dist.Max = v
	}
	if q, err := stats.Quartile(totals); err == nil {
		dist.Q1 = q.Q1
		dist.Q2 = q.Q2
		dist.Q3 = q.Q3
	}

	dist.Skewness = centralMomentRatio(totals, dist.Mean, dist.StdDev, 3)
	dist.Kurtosis = centralMomentRatio(totals, dist.Mean, dist.StdDev, 4)
	return dist
}

// centralMomentRatio returns the standardized central moment of the given
// order (3 = skewness, 4 = excess kurtosis) or nil when degenerate.
func centralMomentRatio(values []float64, mean, sd float64, order int) *float64 {
	if len(values) < 3 || sd == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range values {
		sum += math.Pow((v-mean)/sd, float64(order))
	}
	m := sum / float64(len(values))
	if order == 4 {
		m -= 3
	}
	return &m
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func square(v float64) float64 { return v * v }
