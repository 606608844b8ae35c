package timedataset

import (
	"math/rand/v2"
)

// Series is one simulated path.
type Series []float64

// GenerateRandomWalk simulates a log-level path scaled by 100 with the given
// quarterly drift and shock scale.
func GenerateRandomWalk(n int, start, drift, scale float64, rng *rand.Rand) Series {
	y := make([]float64, 0, n)
	level := start
	for i := 0; i < n; i++ {
		level += drift + rng.NormFloat64()*scale
		y = append(y, level)
	}
	return Series(y)
}

// GenerateDraws simulates ndraws random walk paths, one per row.
func GenerateDraws(ndraws, n int, start, drift, scale float64, seed uint64) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make([][]float64, 0, ndraws)
	for i := 0; i < ndraws; i++ {
		out = append(out, GenerateRandomWalk(n, start, drift, scale, rng))
	}
	return out
}
