// Package cluster groups themes: a Clusterer labels rows of a numeric matrix,
// and GroupThemes builds campaign groups from seasonal shape and geographic
// overlap.
package cluster

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned for empty or ragged matrices and bad k.
var ErrInvalidInput = errors.New("cluster: invalid input")

// Clusterer assigns each row of points to one of k clusters.
type Clusterer interface {
	Cluster(points [][]float64, k int) ([]int, error)
}

// ClusterFunc adapts a function to the Clusterer interface.
type ClusterFunc func(points [][]float64, k int) ([]int, error)

func (f ClusterFunc) Cluster(points [][]float64, k int) ([]int, error) { return f(points, k) }

// KMeans is a deterministic Lloyd's k-means. Centroids are seeded with
// k-means++ style farthest-point selection starting from row 0, so the same
// input always yields the same labels.
type KMeans struct {
	MaxIterations int
}

// DefaultMaxIterations bounds Lloyd iterations when KMeans.MaxIterations is 0.
const DefaultMaxIterations = 100

// Cluster implements Clusterer. k larger than the number of rows is clamped.
func (km KMeans) Cluster(points [][]float64, k int) ([]int, error) {
	if len(points) == 0 || k <= 0 {
		return nil, fmt.Errorf("%w: %d points, k=%d", ErrInvalidInput, len(points), k)
	}
	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidInput, i, len(p), dim)
		}
	}
	if k > len(points) {
		k = len(points)
	}
	maxIter := km.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	centroids := seed(points, k)
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			best := nearest(p, centroids)
			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}
		centroids = recompute(points, labels, centroids)
	}
	return canonical(labels), nil
}

// seed picks row 0, then repeatedly the row farthest from its nearest chosen
// centroid (lowest index on ties).
func seed(points [][]float64, k int) [][]float64 {
	centroids := [][]float64{clone(points[0])}
	for len(centroids) < k {
		bestIdx, bestDist := -1, -1.0
		for i, p := range points {
			d := sqDist(p, centroids[nearest(p, centroids)])
			if d > bestDist {
				bestIdx, bestDist = i, d
			}
		}
		centroids = append(centroids, clone(points[bestIdx]))
	}
	return centroids
}

func recompute(points [][]float64, labels []int, prev [][]float64) [][]float64 {
	dim := len(points[0])
	sums := make([][]float64, len(prev))
	counts := make([]int, len(prev))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, p := range points {
		c := labels[i]
		counts[c]++
		for d, v := range p {
			sums[c][d] += v
		}
	}
	next := make([][]float64, len(prev))
	for c := range sums {
		if counts[c] == 0 {
			// empty cluster keeps its previous centroid
			next[c] = prev[c]
			continue
		}
		for d := range sums[c] {
			sums[c][d] /= float64(counts[c])
		}
		next[c] = sums[c]
	}
	return next
}

func nearest(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, ctr := range centroids {
		if d := sqDist(p, ctr); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func clone(p []float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	return out
}

// canonical relabels clusters in order of first appearance (row 0 gets 0).
func canonical(labels []int) []int {
	remap := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		if _, ok := remap[l]; !ok {
			remap[l] = len(remap)
		}
		out[i] = remap[l]
	}
	return out
}
