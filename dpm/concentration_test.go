package dpm

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"bitbucket.org/Davydov/phydpm/optimize"
)

func TestConcentrationLikelihood(t *testing.T) {
	c := NewConcentration(1, optimize.GammaPrior(2, 1, false), 1, rand.New(rand.NewSource(1)))
	c.k, c.n = 1, 1
	assert.InDelta(t, 0, c.Likelihood(), 1e-12)

	// two elements: P(one cluster) = 1/(1+alpha)
	c.Alpha = 3
	c.k, c.n = 1, 2
	assert.InDelta(t, math.Log(0.25), c.Likelihood(), 1e-12)
	// P(two clusters) = alpha/(1+alpha)
	c.k = 2
	assert.InDelta(t, math.Log(0.75), c.Likelihood(), 1e-12)
}

func TestConcentrationUpdate(t *testing.T) {
	for _, prior := range []string{PriorGamma, PriorExponential} {
		cfg := DefaultConfig()
		cfg.AlphaPrior = prior
		cfg.AlphaShape = 2
		update := func() []float64 {
			p, sd := cfg.alphaPrior()
			c := NewConcentration(1, p, sd, rand.New(rand.NewSource(2)))
			var res []float64
			for i := 0; i < 20; i++ {
				res = append(res, c.Update(5, 40, 10))
			}
			return res
		}
		r1 := update()
		r2 := update()
		assert.Equal(t, r1, r2, prior)
		for _, a := range r1 {
			assert.GreaterOrEqual(t, a, minAlpha)
			assert.LessOrEqual(t, a, maxAlpha)
		}
	}
}

func TestAlphaPrior(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AlphaShape = 3
	cfg.AlphaScale = 2
	p, sd := cfg.alphaPrior()
	assert.InDelta(t, optimize.GammaPrior(3, 2, false)(1.5), p(1.5), 1e-12)
	assert.InDelta(t, 3.0, sd, 1e-12)

	cfg.AlphaPrior = PriorExponential
	p, sd = cfg.alphaPrior()
	// mean 2, rate 1/2
	assert.InDelta(t, math.Log(0.5)-0.75, p(1.5), 1e-12)
	assert.InDelta(t, 1.0, sd, 1e-12)
	assert.True(t, math.IsInf(p(0), -1))

	cfg.AlphaScale = 0.1
	_, sd = cfg.alphaPrior()
	assert.InDelta(t, 0.1, sd, 1e-12)
}
