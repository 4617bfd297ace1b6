package compare

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	NameKruskalWallis = "kruskal_wallis"
	NameMannWhitneyU  = "mann_whitney_u"

	MethodExact      = "exact"
	MethodAsymptotic = "asymptotic"

	// exactLimit is the size of the smaller sample up to which the
	// Mann-Whitney U p-value is computed from the exact null distribution.
	exactLimit = 8
)

// RankResult is the outcome of one rank test. When Applicable is false,
// Statistic and PValue are zero and Reason says why.
type RankResult struct {
	Name       string  `json:"test"`
	Applicable bool    `json:"applicable"`
	Statistic  float64 `json:"statistic"`
	PValue     float64 `json:"p_value"`
	Method     string  `json:"method,omitempty"`
	Reason     string  `json:"reason,omitempty"`

	// SmallSample flags results computed on groups smaller than the
	// reliable size. They are computed but statistically weak.
	SmallSample bool `json:"small_sample"`
}

// PairResult is a pairwise comparison of periods A and B.
type PairResult struct {
	A string `json:"a"`
	B string `json:"b"`
	RankResult
}

func notApplicable(name, format string, a ...any) RankResult {
	return RankResult{
		Name:   name,
		Reason: fmt.Errorf("%w: "+format, append([]any{ErrInsufficientSample}, a...)...).Error(),
	}
}

// KruskalWallis tests whether all samples come from the same distribution.
// H is corrected for ties, p is the chi-squared upper tail with k-1 degrees
// of freedom. Empty samples are ignored.
func KruskalWallis(samples [][]float64) RankResult {
	var groups [][]float64
	for _, s := range samples {
		if len(s) > 0 {
			groups = append(groups, s)
		}
	}

	if len(groups) < 2 {
		return notApplicable(NameKruskalWallis, "need at least 2 non-empty groups, got %d", len(groups))
	}

	var pooled []float64
	for _, g := range groups {
		pooled = append(pooled, g...)
	}

	ranks, ties := rank(pooled)
	n := float64(len(pooled))

	h := 0.0
	offset := 0
	for _, g := range groups {
		sum := 0.0
		for i := range g {
			sum += ranks[offset+i]
		}
		offset += len(g)
		h += sum * sum / float64(len(g))
	}
	h = 12/(n*(n+1))*h - 3*(n+1)

	correction := 1 - ties/(n*n*n-n)
	if correction <= 0 {
		return notApplicable(NameKruskalWallis, "all values are identical")
	}
	h /= correction

	chi := distuv.ChiSquared{K: float64(len(groups) - 1)}

	return RankResult{
		Name:       NameKruskalWallis,
		Applicable: true,
		Statistic:  h,
		PValue:     chi.Survival(h),
		Method:     MethodAsymptotic,
	}
}

// MannWhitneyU is the two-sided rank-sum test of a against b. The statistic
// is min(U1, U2), so swapping a and b gives the same result. Without ties
// and with either sample of at most 8 values the p-value is exact; otherwise
// the normal approximation with tie and continuity correction is used.
func MannWhitneyU(a, b []float64) RankResult {
	n1, n2 := len(a), len(b)
	if n1 == 0 || n2 == 0 {
		return notApplicable(NameMannWhitneyU, "empty sample (%d, %d)", n1, n2)
	}

	pooled := make([]float64, 0, n1+n2)
	pooled = append(pooled, a...)
	pooled = append(pooled, b...)

	ranks, ties := rank(pooled)

	r1 := 0.0
	for i := 0; i < n1; i++ {
		r1 += ranks[i]
	}

	fn1, fn2 := float64(n1), float64(n2)
	u1 := r1 - fn1*(fn1+1)/2
	u2 := fn1*fn2 - u1

	uMax := math.Max(u1, u2)
	res := RankResult{
		Name:       NameMannWhitneyU,
		Applicable: true,
		Statistic:  math.Min(u1, u2),
	}

	if ties == 0 && (n1 <= exactLimit || n2 <= exactLimit) {
		res.Method = MethodExact
		res.PValue = math.Min(1, 2*exactUpperTail(n1, n2, int(math.Round(uMax))))
		return res
	}

	n := fn1 + fn2
	mu := fn1 * fn2 / 2
	sigma := math.Sqrt(fn1 * fn2 / 12 * ((n + 1) - ties/(n*(n-1))))
	if sigma == 0 {
		return notApplicable(NameMannWhitneyU, "all values are identical")
	}

	z := (uMax - mu - 0.5) / sigma
	res.Method = MethodAsymptotic
	res.PValue = math.Min(1, 2*distuv.UnitNormal.Survival(z))
	return res
}

// exactUpperTail returns P(U >= u) under the null hypothesis for sample
// sizes m and n. The frequencies of U are the coefficients of the Gaussian
// binomial coefficient [m+n choose m]_q.
func exactUpperTail(m, n, u int) float64 {
	if m > n {
		m, n = n, m
	}

	size := m*n + 1
	if u <= 0 {
		return 1
	}
	if u >= size {
		return 0
	}

	freq := make([]float64, size)
	freq[0] = 1
	for i := 1; i <= m; i++ {
		// multiply by (1 - q^(n+i))
		for k := size - 1; k >= n+i; k-- {
			freq[k] -= freq[k-n-i]
		}
		// divide by (1 - q^i)
		for k := i; k < size; k++ {
			freq[k] += freq[k-i]
		}
	}

	total, tail := 0.0, 0.0
	for k, f := range freq {
		total += f
		if k >= u {
			tail += f
		}
	}

	return tail / total
}

// rank returns the 1-based ranks of data, ties receiving their average rank,
// and the tie term sum(t^3 - t) over tie groups.
func rank(data []float64) ([]float64, float64) {
	idx := make([]int, len(data))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return data[idx[i]] < data[idx[j]] })

	ranks := make([]float64, len(data))
	ties := 0.0

	for i := 0; i < len(idx); {
		j := i + 1
		for j < len(idx) && data[idx[j]] == data[idx[i]] {
			j++
		}

		// positions i..j-1 share ranks i+1..j
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}

		if t := float64(j - i); t > 1 {
			ties += t*t*t - t
		}
		i = j
	}

	return ranks, ties
}
