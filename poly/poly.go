// Package poly implements polynomials over the probabilities of the
// alphabet symbols. A polynomial is a sum of terms, every term is a
// coefficient multiplied by a monomial given by its exponent.
package poly

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrAlphabetMismatch is returned when polynomials, exponents or
// weights are defined over alphabets of different size.
var ErrAlphabetMismatch = errors.New("alphabet mismatch")

// ErrExponentOverflow is returned when a product has a power too large
// for an exponent.
var ErrExponentOverflow = errors.New("exponent overflow")

// Term is a single monomial with a coefficient.
type Term struct {
	Coefficient float64
	Exponent    Exponent
}

// Polynomial is a sum of terms. Terms are sorted by exponent and
// exponents are unique.
type Polynomial struct {
	alphabet int
	terms    []Term
}

// Zero returns the zero polynomial.
func Zero(alphabet int) *Polynomial {
	return &Polynomial{alphabet: alphabet}
}

// Constant returns polynomial c.
func Constant(alphabet int, c float64) *Polynomial {
	p := Zero(alphabet)
	if c != 0 {
		p.terms = []Term{{c, NewExponent(alphabet)}}
	}
	return p
}

// Monomial returns polynomial c*x_symbol.
func Monomial(alphabet, symbol int, c float64) *Polynomial {
	p := Zero(alphabet)
	if c != 0 {
		p.terms = []Term{{c, Unit(alphabet, symbol)}}
	}
	return p
}

// Normalize creates a polynomial from arbitrary terms: terms are
// sorted, terms with equal exponents are merged and terms with zero
// coefficient are removed.
func Normalize(alphabet int, terms []Term) (*Polynomial, error) {
	for _, t := range terms {
		if len(t.Exponent) != alphabet {
			return nil, fmt.Errorf("%w: exponent length %d, alphabet %d", ErrAlphabetMismatch, len(t.Exponent), alphabet)
		}
	}
	sorted := make([]Term, len(terms))
	copy(sorted, terms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Exponent.Compare(sorted[j].Exponent) < 0
	})

	p := &Polynomial{alphabet: alphabet, terms: make([]Term, 0, len(sorted))}
	for i := 0; i < len(sorted); {
		t := Term{Coefficient: sorted[i].Coefficient, Exponent: sorted[i].Exponent}
		j := i + 1
		for ; j < len(sorted) && sorted[j].Exponent.Compare(t.Exponent) == 0; j++ {
			t.Coefficient += sorted[j].Coefficient
		}
		if t.Coefficient != 0 {
			p.terms = append(p.terms, t)
		}
		i = j
	}
	return p, nil
}

// Alphabet returns the alphabet size.
func (p *Polynomial) Alphabet() int {
	return p.alphabet
}

// Len returns the number of terms.
func (p *Polynomial) Len() int {
	return len(p.terms)
}

// Terms returns the terms in exponent order. The slice must not be
// modified.
func (p *Polynomial) Terms() []Term {
	return p.terms
}

// IsZero is true for the zero polynomial.
func (p *Polynomial) IsZero() bool {
	return len(p.terms) == 0
}

// Copy creates a copy of the polynomial. Exponents are shared, they
// are never modified in place.
func (p *Polynomial) Copy() *Polynomial {
	terms := make([]Term, len(p.terms))
	copy(terms, p.terms)
	return &Polynomial{alphabet: p.alphabet, terms: terms}
}

// Add computes p+q by merging the sorted term lists.
func Add(p, q *Polynomial) (*Polynomial, error) {
	if p.alphabet != q.alphabet {
		return nil, fmt.Errorf("%w: %d != %d", ErrAlphabetMismatch, p.alphabet, q.alphabet)
	}
	r := &Polynomial{alphabet: p.alphabet, terms: make([]Term, 0, len(p.terms)+len(q.terms))}
	i, j := 0, 0
	for i < len(p.terms) && j < len(q.terms) {
		switch p.terms[i].Exponent.Compare(q.terms[j].Exponent) {
		case -1:
			r.terms = append(r.terms, p.terms[i])
			i++
		case 1:
			r.terms = append(r.terms, q.terms[j])
			j++
		default:
			c := p.terms[i].Coefficient + q.terms[j].Coefficient
			if c != 0 {
				r.terms = append(r.terms, Term{c, p.terms[i].Exponent})
			}
			i++
			j++
		}
	}
	r.terms = append(r.terms, p.terms[i:]...)
	r.terms = append(r.terms, q.terms[j:]...)
	return r, nil
}

// Mul computes p*q. Every pair of terms is multiplied and the result
// is normalized.
func Mul(p, q *Polynomial) (*Polynomial, error) {
	if p.alphabet != q.alphabet {
		return nil, fmt.Errorf("%w: %d != %d", ErrAlphabetMismatch, p.alphabet, q.alphabet)
	}
	terms := make([]Term, 0, len(p.terms)*len(q.terms))
	for _, t1 := range p.terms {
		for _, t2 := range q.terms {
			e, err := t1.Exponent.Plus(t2.Exponent)
			if err != nil {
				return nil, err
			}
			terms = append(terms, Term{
				Coefficient: t1.Coefficient * t2.Coefficient,
				Exponent:    e,
			})
		}
	}
	return Normalize(p.alphabet, terms)
}

// Scale returns c*p.
func (p *Polynomial) Scale(c float64) *Polynomial {
	r := Zero(p.alphabet)
	if c == 0 {
		return r
	}
	r.terms = make([]Term, len(p.terms))
	for i, t := range p.terms {
		r.terms[i] = Term{t.Coefficient * c, t.Exponent}
	}
	return r
}

// Raise returns p multiplied by the variable of symbol. Adding the
// same unit to every exponent keeps the lexicographic order, so no
// sorting is needed.
func (p *Polynomial) Raise(symbol int) (*Polynomial, error) {
	r := &Polynomial{alphabet: p.alphabet, terms: make([]Term, len(p.terms))}
	for i, t := range p.terms {
		if t.Exponent[symbol] == math.MaxUint16 {
			return nil, fmt.Errorf("%w: symbol %d", ErrExponentOverflow, symbol)
		}
		e := t.Exponent.Copy()
		e[symbol]++
		r.terms[i] = Term{t.Coefficient, e}
	}
	return r, nil
}

// Evaluate computes the value of the polynomial for the given symbol
// probabilities.
func (p *Polynomial) Evaluate(weights []float64) (float64, error) {
	if len(weights) != p.alphabet {
		return 0, fmt.Errorf("%w: %d weights, alphabet %d", ErrAlphabetMismatch, len(weights), p.alphabet)
	}
	res := 0.0
	for _, t := range p.terms {
		v := t.Coefficient
		for a, n := range t.Exponent {
			if n > 0 {
				v *= math.Pow(weights[a], float64(n))
			}
		}
		res += v
	}
	return res, nil
}

// Sum returns the sum of all coefficients.
func (p *Polynomial) Sum() (s float64) {
	for _, t := range p.terms {
		s += t.Coefficient
	}
	return
}

// Equal tests if two polynomials have the same exponents and
// coefficients which differ by at most tol.
func (p *Polynomial) Equal(q *Polynomial, tol float64) bool {
	if p.alphabet != q.alphabet || len(p.terms) != len(q.terms) {
		return false
	}
	for i := range p.terms {
		if p.terms[i].Exponent.Compare(q.terms[i].Exponent) != 0 {
			return false
		}
		if math.Abs(p.terms[i].Coefficient-q.terms[i].Coefficient) > tol {
			return false
		}
	}
	return true
}

func (p *Polynomial) String() string {
	if len(p.terms) == 0 {
		return "0"
	}
	var b bytes.Buffer
	for i, t := range p.terms {
		if i != 0 {
			b.WriteString(" + ")
		}
		fmt.Fprintf(&b, "%g", t.Coefficient)
		for a, n := range t.Exponent {
			switch {
			case n == 1:
				fmt.Fprintf(&b, "*x%d", a)
			case n > 1:
				fmt.Fprintf(&b, "*x%d^%d", a, n)
			}
		}
	}
	return b.String()
}
