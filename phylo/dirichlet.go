package phylo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"bitbucket.org/Davydov/phydpm/poly"
)

// lbeta computes the logarithm of the multivariate beta function,
// optionally shifted by an exponent.
func lbeta(alpha []float64, e poly.Exponent) float64 {
	res := 0.0
	s := 0.0
	for i, a := range alpha {
		if e != nil {
			a += float64(e[i])
		}
		lg, _ := math.Lgamma(a)
		res += lg
		s += a
	}
	lg, _ := math.Lgamma(s)
	return res - lg
}

// DirichletMarginal integrates a polynomial over the stationary
// weights with a Dirichlet prior:
//
//	log E[p(theta)], theta ~ Dir(alpha).
//
// Every monomial c*theta^e contributes c*B(alpha+e)/B(alpha).
// Coefficients should be non-negative. The zero polynomial has
// log-marginal -Inf.
func DirichletMarginal(p *poly.Polynomial, alpha []float64) (float64, error) {
	if len(alpha) != p.Alphabet() {
		return 0, fmt.Errorf("%w: %d pseudocounts, alphabet %d", ErrAlphabetMismatch, len(alpha), p.Alphabet())
	}
	for _, a := range alpha {
		if a <= 0 {
			return 0, fmt.Errorf("pseudocounts should be positive, got %v", alpha)
		}
	}
	if p.IsZero() {
		return math.Inf(-1), nil
	}
	base := lbeta(alpha, nil)
	vals := make([]float64, 0, p.Len())
	for _, t := range p.Terms() {
		if t.Coefficient < 0 {
			return 0, fmt.Errorf("negative coefficient %g for %v", t.Coefficient, t.Exponent)
		}
		vals = append(vals, math.Log(t.Coefficient)+lbeta(alpha, t.Exponent)-base)
	}
	return floats.LogSumExp(vals), nil
}
