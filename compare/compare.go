// Package compare derives per-1000-word rates from document counts and
// compares them across historical periods with a percentile bootstrap and
// rank based tests.
package compare

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const (
	DefaultResamples    = 1000
	DefaultLower        = 2.5
	DefaultUpper        = 97.5
	DefaultMinReliableN = 5

	// CorrectionNone is the only multiple comparison policy: pairwise
	// p-values are reported raw.
	CorrectionNone = "none"
)

var (
	// ErrInsufficientSample is the reason of a test that could not validly run.
	ErrInsufficientSample = errors.New("insufficient sample")

	// ErrNoPeriods is returned when there is nothing to compare.
	ErrNoPeriods = errors.New("no periods")
)

// Rate returns count per 1000 words. It is false when words is zero: such a
// document has no rate at all.
func Rate(count, words int) (float64, bool) {
	if words <= 0 {
		return 0, false
	}
	return float64(count) / float64(words) * 1000, true
}

// Group is the rate sample of one period.
type Group struct {
	Period string
	Rates  []float64
}

// Interval is a confidence interval.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// PeriodStats holds the descriptive statistics of one period. Mean and CI are
// nil when n == 0, SD is nil when n < 2.
type PeriodStats struct {
	Period string    `json:"period"`
	N      int       `json:"n"`
	Rates  []float64 `json:"rates"`
	Mean   *float64  `json:"mean,omitempty"`
	SD     *float64  `json:"sd,omitempty"`
	CI     *Interval `json:"ci,omitempty"`
}

// Options configures Compare.
type Options struct {
	Resamples    int
	Lower        float64
	Upper        float64
	Seed         uint64
	MinReliableN int
}

// DefaultOptions returns the defaults: 1000 resamples, a 95% interval.
func DefaultOptions() Options {
	return Options{
		Resamples:    DefaultResamples,
		Lower:        DefaultLower,
		Upper:        DefaultUpper,
		MinReliableN: DefaultMinReliableN,
	}
}

func (o Options) withDefaults() Options {
	if o.Resamples <= 0 {
		o.Resamples = DefaultResamples
	}
	if o.Lower == 0 && o.Upper == 0 {
		o.Lower, o.Upper = DefaultLower, DefaultUpper
	}
	if o.MinReliableN <= 0 {
		o.MinReliableN = DefaultMinReliableN
	}
	return o
}

// Comparison is the result of Compare.
type Comparison struct {
	Periods  []PeriodStats `json:"periods"`
	Omnibus  RankResult    `json:"omnibus"`
	Pairwise []PairResult  `json:"pairwise"`

	// Correction is always CorrectionNone.
	Correction string `json:"correction"`
}

// Describe returns n, mean and sample standard deviation (n-1).
func Describe(period string, rates []float64) PeriodStats {
	ps := PeriodStats{Period: period, N: len(rates), Rates: rates}

	if ps.N == 0 {
		return ps
	}

	mean := stat.Mean(rates, nil)
	ps.Mean = &mean

	if ps.N >= 2 {
		sd := stat.StdDev(rates, nil)
		ps.SD = &sd
	}

	return ps
}

// Bootstrap returns the percentile interval of the resampled means. rates
// must not be empty; a single rate yields a point interval.
func Bootstrap(rates []float64, resamples int, lower, upper float64, rng *rand.Rand) (Interval, error) {
	n := len(rates)
	if n == 0 {
		return Interval{}, fmt.Errorf("%w: bootstrap needs at least one rate", ErrInsufficientSample)
	}

	means := make([]float64, resamples)
	for r := 0; r < resamples; r++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += rates[rng.IntN(n)]
		}
		means[r] = sum / float64(n)
	}

	sort.Float64s(means)

	return Interval{
		Lower: Percentile(means, lower),
		Upper: Percentile(means, upper),
	}, nil
}

// Percentile returns the p-th percentile (0-100) of sorted data with linear
// interpolation between closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	pos := p / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 {
		return sorted[0]
	}
	if hi >= n {
		return sorted[n-1]
	}

	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Compare describes every group, bootstraps its interval and runs the
// omnibus and pairwise tests over the non-empty groups. Groups keep their
// order. Each group draws from its own PCG stream seeded by (Seed, position),
// so the result only depends on the seed and the input.
func Compare(groups []Group, opts Options) (Comparison, error) {
	if len(groups) == 0 {
		return Comparison{}, ErrNoPeriods
	}

	opts = opts.withDefaults()

	cmp := Comparison{
		Periods:    make([]PeriodStats, 0, len(groups)),
		Pairwise:   []PairResult{},
		Correction: CorrectionNone,
	}

	var nonEmpty []Group
	for i, g := range groups {
		ps := Describe(g.Period, g.Rates)

		if ps.N > 0 {
			rng := rand.New(rand.NewPCG(opts.Seed, uint64(i)))
			ci, err := Bootstrap(g.Rates, opts.Resamples, opts.Lower, opts.Upper, rng)
			if err != nil {
				return Comparison{}, err
			}
			ps.CI = &ci
			nonEmpty = append(nonEmpty, g)
		}

		cmp.Periods = append(cmp.Periods, ps)
	}

	samples := make([][]float64, len(nonEmpty))
	for i, g := range nonEmpty {
		samples[i] = g.Rates
	}

	cmp.Omnibus = KruskalWallis(samples)
	cmp.Omnibus.SmallSample = anySmall(opts.MinReliableN, samples...)

	for i := 0; i < len(nonEmpty); i++ {
		for j := i + 1; j < len(nonEmpty); j++ {
			a, b := nonEmpty[i], nonEmpty[j]
			res := MannWhitneyU(a.Rates, b.Rates)
			res.SmallSample = anySmall(opts.MinReliableN, a.Rates, b.Rates)
			cmp.Pairwise = append(cmp.Pairwise, PairResult{
				A:          a.Period,
				B:          b.Period,
				RankResult: res,
			})
		}
	}

	return cmp, nil
}

// Period returns the stats of the named period.
func (c Comparison) Period(name string) (PeriodStats, bool) {
	for _, p := range c.Periods {
		if p.Period == name {
			return p, true
		}
	}
	return PeriodStats{}, false
}

// Pair returns the pairwise result of a and b in either order.
func (c Comparison) Pair(a, b string) (PairResult, bool) {
	for _, p := range c.Pairwise {
		if (p.A == a && p.B == b) || (p.A == b && p.B == a) {
			return p, true
		}
	}
	return PairResult{}, false
}

func anySmall(minN int, samples ...[]float64) bool {
	for _, s := range samples {
		if len(s) < minN {
			return true
		}
	}
	return false
}
