// internal/model/tree.go
package model

import (
	"math"
	"math/rand"
	"sort"
)

// tree is one CART regression tree. Leaves carry the mean target of
// the rows that reached them; internal nodes split on
// feature < threshold.
type tree struct {
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value,omitempty"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      *tree   `json:"left,omitempty"`
	Right     *tree   `json:"right,omitempty"`
}

func (t *tree) predict(row []float64) float64 {
	for !t.Leaf {
		if row[t.Feature] < t.Threshold {
			t = t.Left
		} else {
			t = t.Right
		}
	}
	return t.Value
}

func mean(ys []float64) float64 {
	sum := 0.0
	for _, y := range ys {
		sum += y
	}
	return sum / float64(len(ys))
}

// sse is the sum of squared errors around the mean.
func sse(ys []float64) float64 {
	m := mean(ys)
	sum := 0.0
	for _, y := range ys {
		d := y - m
		sum += d * d
	}
	return sum
}

type split struct {
	feature   int
	threshold float64
	score     float64
}

// bestSplit scans candidate thresholds (midpoints between consecutive
// distinct values) on a random subset of features and returns the
// split with the lowest combined SSE, or ok=false when nothing
// reduces error.
func bestSplit(xs [][]float64, ys []float64, minLeaf int, rng *rand.Rand) (split, bool) {
	width := len(xs[0])
	best := split{score: math.Inf(1)}
	found := false

	// Random feature subset, ceil(sqrt(width)) wide.
	k := int(math.Ceil(math.Sqrt(float64(width))))
	order := rng.Perm(width)[:k]

	for _, f := range order {
		vals := make([]float64, len(xs))
		for i, row := range xs {
			vals[i] = row[f]
		}
		uniq := append([]float64(nil), vals...)
		sort.Float64s(uniq)

		for i := 1; i < len(uniq); i++ {
			if uniq[i] == uniq[i-1] {
				continue
			}
			thr := (uniq[i] + uniq[i-1]) / 2

			var leftY, rightY []float64
			for j, row := range xs {
				if row[f] < thr {
					leftY = append(leftY, ys[j])
				} else {
					rightY = append(rightY, ys[j])
				}
			}
			if len(leftY) < minLeaf || len(rightY) < minLeaf {
				continue
			}
			score := sse(leftY) + sse(rightY)
			if score < best.score {
				best = split{feature: f, threshold: thr, score: score}
				found = true
			}
		}
	}
	return best, found
}

func growTree(xs [][]float64, ys []float64, maxDepth, minLeaf int, rng *rand.Rand) *tree {
	if maxDepth == 0 || len(ys) < 2*minLeaf || sse(ys) == 0 {
		return &tree{Leaf: true, Value: mean(ys)}
	}

	s, ok := bestSplit(xs, ys, minLeaf, rng)
	if !ok {
		return &tree{Leaf: true, Value: mean(ys)}
	}

	var leftX, rightX [][]float64
	var leftY, rightY []float64
	for i, row := range xs {
		if row[s.feature] < s.threshold {
			leftX = append(leftX, row)
			leftY = append(leftY, ys[i])
		} else {
			rightX = append(rightX, row)
			rightY = append(rightY, ys[i])
		}
	}

	return &tree{
		Feature:   s.feature,
		Threshold: s.threshold,
		Left:      growTree(leftX, leftY, maxDepth-1, minLeaf, rng),
		Right:     growTree(rightX, rightY, maxDepth-1, minLeaf, rng),
	}
}
