package optimize

import (
	"math/rand"
)

// NormalProposal returns a normal random walk.
func NormalProposal(rng *rand.Rand, sd float64) func(float64) float64 {
	if sd <= 0 {
		panic("sd should be > 0")
	}
	return func(x float64) float64 {
		return x + rng.NormFloat64()*sd
	}
}
