package poly

import (
	"fmt"
	"math"
	"sort"
)

// Incomplete is a polynomial which lost some of its terms because of
// truncation. Discarded bounds the value of the removed terms: for
// every point of the probability simplex the retained polynomial plus
// Discarded is not smaller than the exact value.
type Incomplete struct {
	*Polynomial
	Discarded float64
}

// Complete wraps a polynomial with no discarded mass.
func Complete(p *Polynomial) *Incomplete {
	return &Incomplete{Polynomial: p}
}

// Truncate keeps budget terms with the largest absolute coefficients.
// Ties are resolved by the exponent order, the smaller exponent is
// kept. The discarded mass is the sum of absolute coefficients of the
// removed terms. Budget <= 0 disables truncation.
func Truncate(p *Polynomial, budget int) (*Polynomial, float64) {
	if budget <= 0 || p.Len() <= budget {
		return p, 0
	}
	idx := make([]int, p.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		ci := math.Abs(p.terms[idx[i]].Coefficient)
		cj := math.Abs(p.terms[idx[j]].Coefficient)
		if ci != cj {
			return ci > cj
		}
		// terms are sorted by exponent, so index order is exponent order
		return idx[i] < idx[j]
	})

	discarded := 0.0
	for _, i := range idx[budget:] {
		discarded += math.Abs(p.terms[i].Coefficient)
	}
	kept := idx[:budget]
	sort.Ints(kept)
	r := &Polynomial{alphabet: p.alphabet, terms: make([]Term, budget)}
	for k, i := range kept {
		r.terms[k] = p.terms[i]
	}
	return r, discarded
}

// CombineDiscarded bounds the discarded mass of a product of two
// incomplete polynomials with residuals d1 and d2, given that the
// retained factors do not exceed 1 on the simplex:
// (a+d1)(b+d2) - ab <= d1 + d2 + d1*d2.
func CombineDiscarded(d1, d2 float64) float64 {
	return d1 + d2 + d1*d2
}

// MulTruncate multiplies two incomplete polynomials, truncates the
// product to the budget and accumulates the discarded mass.
func MulTruncate(p, q *Incomplete, budget int) (*Incomplete, error) {
	r, err := Mul(p.Polynomial, q.Polynomial)
	if err != nil {
		return nil, err
	}
	r, d := Truncate(r, budget)
	if d > 0 {
		log.Debugf("truncated product to %d terms, discarded %g", budget, d)
	}
	return &Incomplete{
		Polynomial: r,
		Discarded:  CombineDiscarded(p.Discarded, q.Discarded) + d,
	}, nil
}

func (p *Incomplete) String() string {
	return fmt.Sprintf("%v [+%g]", p.Polynomial, p.Discarded)
}
