package experiment

import (
	"context"
	"math"
	"sort"
)

// significanceLevel is the family-wise alpha for declaring a variant
// significantly different from control.
const significanceLevel = 0.05

// VariantStats summarizes the results recorded against one variant.
type VariantStats struct {
	VariantID      string  `json:"variant_id"`
	Control        bool    `json:"control,omitempty"`
	Subjects       int     `json:"subjects"`
	Count          int     `json:"count"`
	Conversions    int     `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
	Mean           float64 `json:"mean"`
	Median         float64 `json:"median"`
	StdDev         float64 `json:"std_dev"`
	P25            float64 `json:"p25"`
	P75            float64 `json:"p75"`
	P95            float64 `json:"p95"`

	// Comparative fields, empty on the control itself.
	ZScore      float64 `json:"z_score,omitempty"`
	PValue      float64 `json:"p_value,omitempty"`
	Significant bool    `json:"significant,omitempty"`
}

// Report is the analysis of one experiment.
type Report struct {
	Experiment *Experiment    `json:"experiment"`
	Variants   []VariantStats `json:"variants"`

	// Winner is the significant variant with the highest conversion rate,
	// empty when no variant beats control at the corrected alpha.
	Winner string `json:"winner,omitempty"`
}

// Describe computes per-variant descriptive statistics with no comparative
// testing.
func (f *Framework) Describe(ctx context.Context, experimentID string) ([]VariantStats, error) {
	report, err := f.describe(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	return report.Variants, nil
}

// Report computes per-variant statistics and two-proportion z-tests of each
// treatment against the control. P-values are Bonferroni-corrected for the
// number of comparisons.
func (f *Framework) Report(ctx context.Context, experimentID string) (*Report, error) {
	report, err := f.describe(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	exp := report.Experiment

	control := exp.Control()
	if control == nil {
		return report, nil
	}

	var cs *VariantStats
	for i := range report.Variants {
		if report.Variants[i].VariantID == control.ID {
			cs = &report.Variants[i]
		}
	}

	comparisons := len(report.Variants) - 1
	if comparisons < 1 || cs == nil || cs.Count == 0 {
		return report, nil
	}

	bestRate := cs.ConversionRate
	for i := range report.Variants {
		vs := &report.Variants[i]
		if vs.VariantID == control.ID || vs.Count == 0 {
			continue
		}

		z := twoProportionZ(vs.Conversions, vs.Count, cs.Conversions, cs.Count)
		p := twoTailedP(z)

		// Bonferroni: each comparison is tested at alpha/m.
		corrected := math.Min(1, p*float64(comparisons))

		vs.ZScore = z
		vs.PValue = corrected
		vs.Significant = corrected < significanceLevel

		if vs.Significant && vs.ConversionRate > bestRate {
			bestRate = vs.ConversionRate
			report.Winner = vs.VariantID
		}
	}

	return report, nil
}

func (f *Framework) describe(ctx context.Context, experimentID string) (*Report, error) {
	exp, err := f.Get(ctx, experimentID)
	if err != nil {
		return nil, err
	}

	results, err := f.Results(ctx, experimentID)
	if err != nil {
		return nil, err
	}

	byVariant := make(map[string][]Result)
	subjects := make(map[string]map[string]bool)
	for _, res := range results {
		byVariant[res.VariantID] = append(byVariant[res.VariantID], res)
		if subjects[res.VariantID] == nil {
			subjects[res.VariantID] = make(map[string]bool)
		}
		subjects[res.VariantID][res.Subject] = true
	}

	report := &Report{Experiment: exp}
	for _, v := range exp.Variants {
		stats := summarize(byVariant[v.ID])
		stats.VariantID = v.ID
		stats.Control = v.Control
		stats.Subjects = len(subjects[v.ID])
		report.Variants = append(report.Variants, stats)
	}
	return report, nil
}

func summarize(results []Result) VariantStats {
	stats := VariantStats{Count: len(results)}
	if len(results) == 0 {
		return stats
	}

	values := make([]float64, 0, len(results))
	sum := 0.0
	for _, res := range results {
		values = append(values, res.Value)
		sum += res.Value
		if res.Converted {
			stats.Conversions++
		}
	}
	sort.Float64s(values)

	stats.ConversionRate = float64(stats.Conversions) / float64(stats.Count)
	stats.Mean = sum / float64(stats.Count)
	stats.Median = percentile(values, 0.50)
	stats.P25 = percentile(values, 0.25)
	stats.P75 = percentile(values, 0.75)
	stats.P95 = percentile(values, 0.95)

	if len(values) > 1 {
		ss := 0.0
		for _, v := range values {
			d := v - stats.Mean
			ss += d * d
		}
		stats.StdDev = math.Sqrt(ss / float64(len(values)-1))
	}

	return stats
}

// percentile interpolates linearly between order statistics. values must be
// sorted and non-empty.
func percentile(values []float64, q float64) float64 {
	if len(values) == 1 {
		return values[0]
	}
	pos := q * float64(len(values)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return values[lo]
	}
	frac := pos - float64(lo)
	return values[lo]*(1-frac) + values[hi]*frac
}

// twoProportionZ computes the pooled two-proportion z statistic for
// conversions1/n1 against conversions2/n2.
func twoProportionZ(conversions1, n1, conversions2, n2 int) float64 {
	p1 := float64(conversions1) / float64(n1)
	p2 := float64(conversions2) / float64(n2)
	pooled := float64(conversions1+conversions2) / float64(n1+n2)

	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(n1) + 1/float64(n2)))
	if se == 0 {
		return 0
	}
	return (p1 - p2) / se
}

// twoTailedP converts a z statistic to a two-tailed p-value under the
// standard normal distribution.
func twoTailedP(z float64) float64 {
	return 2 * (1 - normalCDF(math.Abs(z)))
}

func normalCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}
