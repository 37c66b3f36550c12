package poly

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Exponent stores the power of every alphabet symbol variable in a
// monomial. Its length is the alphabet size.
type Exponent []uint16

// NewExponent creates a zero exponent for the alphabet of the given
// size.
func NewExponent(alphabet int) Exponent {
	return make(Exponent, alphabet)
}

// Unit returns an exponent which is 1 for symbol and 0 otherwise.
func Unit(alphabet, symbol int) Exponent {
	e := NewExponent(alphabet)
	e[symbol] = 1
	return e
}

// Compare compares exponents lexicographically over the alphabet
// positions. It returns -1, 0 or 1.
func (e Exponent) Compare(o Exponent) int {
	for i := range e {
		switch {
		case e[i] < o[i]:
			return -1
		case e[i] > o[i]:
			return 1
		}
	}
	return 0
}

// Plus returns e+o as a new exponent. A power which does not fit the
// exponent type gives ErrExponentOverflow.
func (e Exponent) Plus(o Exponent) (Exponent, error) {
	r := make(Exponent, len(e))
	for i := range e {
		if int(e[i])+int(o[i]) > math.MaxUint16 {
			return nil, fmt.Errorf("%w: symbol %d, %d+%d", ErrExponentOverflow, i, e[i], o[i])
		}
		r[i] = e[i] + o[i]
	}
	return r, nil
}

// Degree is the total degree of the monomial.
func (e Exponent) Degree() (d int) {
	for _, v := range e {
		d += int(v)
	}
	return
}

// Copy creates an independent copy of the exponent.
func (e Exponent) Copy() Exponent {
	r := make(Exponent, len(e))
	copy(r, e)
	return r
}

func (e Exponent) String() string {
	parts := make([]string, len(e))
	for i, v := range e {
		parts[i] = strconv.Itoa(int(v))
	}
	return "(" + strings.Join(parts, ",") + ")"
}
