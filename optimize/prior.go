package optimize

import (
	"math"
)

// UniformPrior returns the log-density of the uniform distribution.
func UniformPrior(min, max float64, incmin, incmax bool) func(float64) float64 {
	if max <= min {
		panic("max <= min")
	}
	return func(x float64) float64 {
		if (incmin && x < min) ||
			(!incmin && x <= min) ||
			(incmax && x > max) ||
			(!incmax && x >= max) {
			return math.Inf(-1)
		}
		return -math.Log(max - min)
	}
}

// GammaPrior returns the log-density of the gamma distribution.
func GammaPrior(shape, scale float64, inczero bool) func(float64) float64 {
	if shape <= 0 || scale <= 0 {
		panic("shape and scale of gamma distribution must be > 0")
	}
	g, _ := math.Lgamma(shape)
	return func(x float64) float64 {
		if x < 0 || (x == 0 && !inczero) {
			return math.Inf(-1)
		}
		return (shape-1)*math.Log(x) - x/scale - shape*math.Log(scale) - g
	}
}

// ExponentialPrior returns the log-density of the exponential
// distribution.
func ExponentialPrior(rate float64, inczero bool) func(float64) float64 {
	if rate <= 0 {
		panic("exponential rate should be > 0")
	}
	return func(x float64) float64 {
		if x < 0 || (x == 0 && !inczero) {
			return math.Inf(-1)
		}
		return math.Log(rate) - rate*x
	}
}
