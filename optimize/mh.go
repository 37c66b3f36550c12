package optimize

import (
	"math"
	"math/rand"
)

// MH is a Metropolis-Hastings sampler. Every iteration updates one
// randomly chosen parameter.
type MH struct {
	BaseOptimizer
	rng       *rand.Rand
	AccPeriod int
	accepted  int
}

// NewMH creates a new MH sampler using the random source.
func NewMH(rng *rand.Rand) *MH {
	return &MH{
		BaseOptimizer: BaseOptimizer{
			repPeriod: 10,
		},
		rng:       rng,
		AccPeriod: 100,
	}
}

// Accepted returns the number of accepted proposals during the last
// run.
func (m *MH) Accepted() int {
	return m.accepted
}

// Run performs the given number of iterations.
func (m *MH) Run(iterations int) {
	m.PrintHeader(m.parameters)
	l := m.Likelihood()
	m.calls++
	m.maxL = l
	m.maxLPar = m.parameters.Values(m.maxLPar)
	m.accepted = 0
	periodAccepted := 0
	for m.i = 0; m.i < iterations; m.i++ {
		if m.i > 0 && m.i%m.AccPeriod == 0 {
			log.Debugf("Acceptance rate %.2f%%", 100*float64(periodAccepted)/float64(m.AccPeriod))
			periodAccepted = 0
		}
		m.PrintLine(m.parameters, l, m.repPeriod)

		par := m.parameters[m.rng.Intn(len(m.parameters))]
		par.Propose()
		newL := m.Likelihood()
		m.calls++

		a := math.Exp(par.Prior() - par.OldPrior() + newL - l)
		if a > 1 || m.rng.Float64() < a {
			l = newL
			par.Accept(m.i)
			m.accepted++
			periodAccepted++
			if l > m.maxL {
				m.maxL = l
				m.maxLPar = m.parameters.Values(m.maxLPar)
			}
		} else {
			par.Reject()
		}
		if m.signaled() {
			break
		}
	}
	m.l = l
}
