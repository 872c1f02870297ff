package analysis

// Distribution lookup tables. P-values are obtained by linear interpolation
// between table rows rather than from a closed-form CDF; the precision is
// more than enough for flagging items, and the tables keep the package free
// of a numerical-libraries dependency.

type tableRow struct {
	stat float64
	p    float64
}

// Chi-square critical values for 1 degree of freedom.
var chiSquareDF1 = []tableRow{
	{0.0000393, 0.995},
	{0.000157, 0.99},
	{0.000982, 0.975},
	{0.00393, 0.95},
	{0.0158, 0.90},
	{0.102, 0.75},
	{0.455, 0.50},
	{1.323, 0.25},
	{2.706, 0.10},
	{3.841, 0.05},
	{5.024, 0.025},
	{6.635, 0.01},
	{7.879, 0.005},
	{10.828, 0.001},
}

// Two-sided p-values for the standard normal distribution.
var normalTwoSided = []tableRow{
	{0.0, 1.0},
	{0.5, 0.617},
	{1.0, 0.317},
	{1.282, 0.20},
	{1.645, 0.10},
	{1.960, 0.05},
	{2.326, 0.02},
	{2.576, 0.01},
	{3.0, 0.0027},
	{3.291, 0.001},
}

// chiSquarePValue interpolates the p-value for a chi-square statistic with
// one degree of freedom. Statistics beyond the table are clamped.
func chiSquarePValue(stat float64) float64 {
	return interpolatePValue(chiSquareDF1, stat)
}

// normalPValue interpolates the two-sided p-value for |z|.
func normalPValue(z float64) float64 {
	if z < 0 {
		z = -z
	}
	return interpolatePValue(normalTwoSided, z)
}

func interpolatePValue(table []tableRow, stat float64) float64 {
	if stat <= table[0].stat {
		return table[0].p
	}
	last := table[len(table)-1]
	if stat >= last.stat {
		return last.p
	}
	for i := 1; i < len(table); i++ {
		if stat <= table[i].stat {
			lo, hi := table[i-1], table[i]
			frac := (stat - lo.stat) / (hi.stat - lo.stat)
			return lo.p + frac*(hi.p-lo.p)
		}
	}
	return last.p
}

// chiSquareCritical returns the df=1 critical value for the given
// confidence level (e.g. 0.95 -> 3.841).
func chiSquareCritical(confidence float64) float64 {
	alpha := 1 - confidence
	best := chiSquareDF1[len(chiSquareDF1)-1].stat
	for _, row := range chiSquareDF1 {
		if row.p <= alpha {
			return row.stat
		}
		best = row.stat
	}
	return best
}

// zCritical returns the two-sided z critical value for common confidence
// levels, defaulting to 1.96 for unrecognized ones.
func zCritical(confidence float64) float64 {
	switch {
	case confidence >= 0.99:
		return 2.576
	case confidence >= 0.98:
		return 2.326
	case confidence >= 0.95:
		return 1.960
	case confidence >= 0.90:
		return 1.645
	case confidence >= 0.80:
		return 1.282
	default:
		return 1.960
	}
}
