// Package cluster partitions vectors with seeded k-means.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrTooFewPoints is returned when there are fewer vectors than clusters.
	ErrTooFewPoints = errors.New("fewer points than clusters")
	ErrNoPoints     = errors.New("no points to cluster")
)

// Config controls a k-means fit.
type Config struct {
	K       int
	Seed    uint64
	NInit   int     // Independent restarts; lowest inertia wins
	MaxIter int     // Lloyd iterations per restart
	Tol     float64 // Relative to mean per-dimension variance
}

// DefaultConfig returns K=3 seeded with 42.
func DefaultConfig() Config {
	return Config{K: 3, Seed: 42, NInit: 10, MaxIter: 300, Tol: 1e-4}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.NInit <= 0 {
		c.NInit = d.NInit
	}
	if c.MaxIter <= 0 {
		c.MaxIter = d.MaxIter
	}
	if c.Tol < 0 {
		c.Tol = d.Tol
	}
	return c
}

// Result is the outcome of the best restart.
type Result struct {
	Labels     []int       // Cluster index per input vector
	Centroids  [][]float64 // K centroids
	Inertia    float64     // Sum of squared distances to assigned centroid
	Iterations int         // Lloyd iterations of the winning run
}

// Fit clusters vectors into cfg.K groups. Results are reproducible for the
// same input order and seed.
func Fit(vectors [][]float64, cfg Config) (Result, error) {
	cfg = cfg.withDefaults()
	if len(vectors) == 0 {
		return Result{}, ErrNoPoints
	}
	if cfg.K < 1 {
		return Result{}, fmt.Errorf("invalid cluster count %d", cfg.K)
	}
	if cfg.K > len(vectors) {
		return Result{}, fmt.Errorf("%w: %d points, k=%d", ErrTooFewPoints, len(vectors), cfg.K)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return Result{}, errors.New("zero-dimension vectors")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return Result{}, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}

	tol := cfg.Tol * meanVariance(vectors)
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))

	var best Result
	for run := 0; run < cfg.NInit; run++ {
		centroids := seedPlusPlus(vectors, cfg.K, rng)
		res := lloyd(vectors, centroids, cfg.MaxIter, tol)
		if run == 0 || res.Inertia < best.Inertia {
			best = res
		}
	}
	return best, nil
}

// seedPlusPlus picks initial centroids with k-means++ weighting.
func seedPlusPlus(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(vectors)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(vectors[rng.IntN(n)]))

	dist := make([]float64, n)
	for i, v := range vectors {
		dist[i] = sqDist(v, centroids[0])
	}

	for len(centroids) < k {
		total := floats.Sum(dist)
		next := 0
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			next = n - 1
			for i, d := range dist {
				acc += d
				if acc >= target && d > 0 {
					next = i
					break
				}
			}
		} else {
			// All points coincide with chosen centroids.
			next = rng.IntN(n)
		}
		c := clone(vectors[next])
		centroids = append(centroids, c)
		for i, v := range vectors {
			if d := sqDist(v, c); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return centroids
}

func lloyd(vectors [][]float64, centroids [][]float64, maxIter int, tol float64) Result {
	k := len(centroids)
	dim := len(vectors[0])
	labels := make([]int, len(vectors))
	sums := make([][]float64, k)
	for j := range sums {
		sums[j] = make([]float64, dim)
	}
	counts := make([]int, k)

	iter := 0
	for iter < maxIter {
		iter++
		assign(vectors, centroids, labels)

		for j := range sums {
			floats.Scale(0, sums[j])
			counts[j] = 0
		}
		for i, v := range vectors {
			floats.Add(sums[labels[i]], v)
			counts[labels[i]]++
		}

		shift := 0.0
		for j := range centroids {
			if counts[j] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[j]), sums[j])
			shift += sqDist(centroids[j], sums[j])
			copy(centroids[j], sums[j])
		}
		if shift <= tol {
			break
		}
	}

	inertia := assign(vectors, centroids, labels)
	return Result{
		Labels:     labels,
		Centroids:  centroids,
		Inertia:    inertia,
		Iterations: iter,
	}
}

// assign sets each label to its nearest centroid and returns the inertia.
// Ties go to the lower centroid index.
func assign(vectors [][]float64, centroids [][]float64, labels []int) float64 {
	inertia := 0.0
	for i, v := range vectors {
		bestJ, bestD := 0, math.Inf(1)
		for j, c := range centroids {
			if d := sqDist(v, c); d < bestD {
				bestJ, bestD = j, d
			}
		}
		labels[i] = bestJ
		inertia += bestD
	}
	return inertia
}

func meanVariance(vectors [][]float64) float64 {
	dim := len(vectors[0])
	n := float64(len(vectors))
	mean := make([]float64, dim)
	for _, v := range vectors {
		floats.Add(mean, v)
	}
	floats.Scale(1/n, mean)

	total := 0.0
	for _, v := range vectors {
		total += sqDist(v, mean)
	}
	return total / (n * float64(dim))
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
