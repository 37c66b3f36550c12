package dpm

import (
	"math"
	"math/rand"

	"bitbucket.org/Davydov/phydpm/optimize"
)

// minAlpha and maxAlpha bound the sampled concentration.
const (
	minAlpha = 1e-6
	maxAlpha = 1e6
)

// Concentration is the Dirichlet process concentration as a model for
// the Metropolis-Hastings sampler. Given k clusters over n elements,
// the likelihood of alpha is alpha^k Gamma(alpha) / Gamma(alpha+n).
type Concentration struct {
	Alpha      float64
	k, n       int
	prior      func(float64) float64
	sd         float64
	rng        *rand.Rand
	parameters optimize.FloatParameters
	mh         *optimize.MH
}

// NewConcentration creates the model with the log-prior and a normal
// proposal with standard deviation sd.
func NewConcentration(alpha float64, prior func(float64) float64, sd float64, rng *rand.Rand) *Concentration {
	c := &Concentration{
		Alpha: alpha,
		prior: prior,
		sd:    sd,
		rng:   rng,
	}
	par := optimize.NewBasicFloatParameter(&c.Alpha, "alpha")
	par.SetMin(minAlpha)
	par.SetMax(maxAlpha)
	par.SetPriorFunc(prior)
	par.SetProposalFunc(optimize.NormalProposal(rng, sd))
	c.parameters.Append(par)
	c.mh = optimize.NewMH(rng)
	c.mh.Quiet = true
	c.mh.SetOptimizable(c)
	return c
}

// GetFloatParameters returns the concentration parameter.
func (c *Concentration) GetFloatParameters() optimize.FloatParameters {
	return c.parameters
}

// Likelihood returns the log-probability of the cluster count.
func (c *Concentration) Likelihood() float64 {
	lg1, _ := math.Lgamma(c.Alpha)
	lg2, _ := math.Lgamma(c.Alpha + float64(c.n))
	return float64(c.k)*math.Log(c.Alpha) + lg1 - lg2
}

// Copy creates a copy sharing the random generator.
func (c *Concentration) Copy() optimize.Optimizable {
	nc := NewConcentration(c.Alpha, c.prior, c.sd, c.rng)
	nc.k, nc.n = c.k, c.n
	return nc
}

// Update performs Metropolis-Hastings steps for k clusters over n
// elements and returns the new value.
func (c *Concentration) Update(k, n, steps int) float64 {
	c.k, c.n = k, n
	c.mh.Run(steps)
	log.Debugf("alpha=%v (%d/%d accepted)", c.Alpha, c.mh.Accepted(), steps)
	return c.Alpha
}
