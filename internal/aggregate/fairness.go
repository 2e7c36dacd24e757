package aggregate

import (
	"math"
	"sort"
)

// Distribution summarizes the fairness of per-node assignment counts.
type Distribution struct {
	Max    int
	Min    int
	Mean   float64
	StdDev float64
	Gini   float64
}

// distribution computes max, min, sample mean, sample standard deviation
// (n−1 denominator), and the Gini coefficient over counts. A nil or empty
// input yields the zero Distribution.
func distribution(counts []int) Distribution {
	n := len(counts)
	if n == 0 {
		return Distribution{}
	}

	d := Distribution{Max: counts[0], Min: counts[0]}
	sum := 0
	for _, c := range counts {
		if c > d.Max {
			d.Max = c
		}
		if c < d.Min {
			d.Min = c
		}
		sum += c
	}
	d.Mean = float64(sum) / float64(n)

	if n > 1 {
		var variance float64
		for _, c := range counts {
			delta := float64(c) - d.Mean
			variance += delta * delta
		}
		variance /= float64(n - 1)
		d.StdDev = math.Sqrt(variance)
	}

	d.Gini = gini(counts)
	return d
}

// gini computes the Gini coefficient over non-negative counts:
// sort ascending, G = |Σᵢ (2·(i+1) − n − 1)·cᵢ| / (n · Σcᵢ).
// Returns 0 when the total is 0. Result is in [0, 1]: 0 means a perfectly
// even distribution, 1 means all assignments concentrated on one node.
func gini(counts []int) float64 {
	n := len(counts)
	if n == 0 {
		return 0
	}

	sorted := make([]int, n)
	copy(sorted, counts)
	sort.Ints(sorted)

	total := 0
	weighted := 0
	for i, c := range sorted {
		total += c
		weighted += (2*(i+1) - n - 1) * c
	}
	if total == 0 {
		return 0
	}
	return math.Abs(float64(weighted) / float64(n*total))
}
