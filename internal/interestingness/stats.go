package interestingness

import (
	"math"
	"sort"

	"github.com/KaramelBytes/visloom/internal/frame"
)

func floats(vals []any) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		if f, ok := frame.ToFloat(v); ok {
			out[i] = f
		}
	}
	return out
}

// normalized divides by the sum; missing values count as zero.
func normalized(vals []any) []float64 {
	out := floats(vals)
	sum := 0.0
	for _, f := range out {
		sum += f
	}
	if sum == 0 {
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func euclidean(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		var bv float64
		if i < len(b) {
			bv = b[i]
		}
		d := a[i] - bv
		s += d * d
	}
	return math.Sqrt(s)
}

// skewness is the biased sample skewness m3 / m2^1.5.
func skewness(xs []float64) float64 {
	n := float64(len(xs))
	if n == 0 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= n
	var m2, m3 float64
	for _, x := range xs {
		d := x - mean
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	if m2 == 0 {
		return 0
	}
	return m3 / math.Pow(m2, 1.5)
}

// ranks assigns 1-based ranks, averaging ties.
func ranks(xs []float64) []float64 {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })
	out := make([]float64, len(xs))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && xs[idx[j+1]] == xs[idx[i]] {
			j++
		}
		r := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = r
		}
		i = j + 1
	}
	return out
}

func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	if n < 2 {
		return math.NaN()
	}
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= n
	my /= n
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	return sxy / math.Sqrt(sxx*syy)
}

// spearman is the Pearson correlation of the ranks; NaN when either side is constant.
func spearman(xs, ys []float64) float64 {
	return pearson(ranks(xs), ranks(ys))
}
