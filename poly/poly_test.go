package poly

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallDiff = 1e-12

// randomPoly creates a random polynomial with up to n terms and
// exponents of degree at most maxDeg per symbol.
func randomPoly(rng *rand.Rand, alphabet, n, maxDeg int) *Polynomial {
	terms := make([]Term, n)
	for i := range terms {
		e := NewExponent(alphabet)
		for a := range e {
			e[a] = uint16(rng.Intn(maxDeg + 1))
		}
		terms[i] = Term{Coefficient: rng.Float64(), Exponent: e}
	}
	p, err := Normalize(alphabet, terms)
	if err != nil {
		panic(err)
	}
	return p
}

func TestNormalizeMergesAndSorts(tst *testing.T) {
	p, err := Normalize(2, []Term{
		{0.5, Exponent{1, 0}},
		{0.25, Exponent{0, 1}},
		{0.25, Exponent{1, 0}},
		{0, Exponent{2, 0}},
		{1, Exponent{0, 2}},
		{-1, Exponent{0, 2}},
	})
	require.NoError(tst, err)
	require.Equal(tst, 2, p.Len())
	assert.Equal(tst, Exponent{0, 1}, p.Terms()[0].Exponent)
	assert.Equal(tst, Exponent{1, 0}, p.Terms()[1].Exponent)
	assert.InDelta(tst, 0.75, p.Terms()[1].Coefficient, smallDiff)
}

func TestNormalizeIdempotent(tst *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		p := randomPoly(rng, 4, 30, 2)
		q, err := Normalize(4, p.Terms())
		require.NoError(tst, err)
		assert.True(tst, p.Equal(q, 0), "normalize is not idempotent: %v vs %v", p, q)
	}
}

func TestAddCommutativeAssociative(tst *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 20; i++ {
		p := randomPoly(rng, 4, 10, 2)
		q := randomPoly(rng, 4, 10, 2)
		r := randomPoly(rng, 4, 10, 2)

		pq, _ := Add(p, q)
		qp, _ := Add(q, p)
		assert.True(tst, pq.Equal(qp, smallDiff))

		pqr1, _ := Add(pq, r)
		qr, _ := Add(q, r)
		pqr2, _ := Add(p, qr)
		assert.True(tst, pqr1.Equal(pqr2, smallDiff))
	}
}

func TestMulCommutativeAssociative(tst *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 20; i++ {
		p := randomPoly(rng, 4, 6, 1)
		q := randomPoly(rng, 4, 6, 1)
		r := randomPoly(rng, 4, 6, 1)

		pq, _ := Mul(p, q)
		qp, _ := Mul(q, p)
		assert.True(tst, pq.Equal(qp, smallDiff))

		pqr1, _ := Mul(pq, r)
		qr, _ := Mul(q, r)
		pqr2, _ := Mul(p, qr)
		assert.True(tst, pqr1.Equal(pqr2, smallDiff))
	}
}

func TestMulEvaluate(tst *testing.T) {
	rng := rand.New(rand.NewSource(4))
	w := []float64{0.1, 0.2, 0.3, 0.4}
	p := randomPoly(rng, 4, 8, 2)
	q := randomPoly(rng, 4, 8, 2)
	pq, err := Mul(p, q)
	require.NoError(tst, err)

	vp, _ := p.Evaluate(w)
	vq, _ := q.Evaluate(w)
	vpq, err := pq.Evaluate(w)
	require.NoError(tst, err)
	assert.InDelta(tst, vp*vq, vpq, 1e-9)
}

func TestRaiseKeepsOrder(tst *testing.T) {
	rng := rand.New(rand.NewSource(5))
	p := randomPoly(rng, 4, 20, 2)
	r, err := p.Raise(2)
	require.NoError(tst, err)
	n, err := Normalize(4, r.Terms())
	require.NoError(tst, err)
	assert.True(tst, r.Equal(n, 0))
	for _, t := range r.Terms() {
		assert.GreaterOrEqual(tst, t.Exponent[2], uint16(1))
	}
}

func TestAlphabetMismatch(tst *testing.T) {
	_, err := Add(Constant(4, 1), Constant(5, 1))
	assert.True(tst, errors.Is(err, ErrAlphabetMismatch))
	_, err = Mul(Constant(4, 1), Constant(2, 1))
	assert.True(tst, errors.Is(err, ErrAlphabetMismatch))
	_, err = Constant(4, 1).Evaluate([]float64{1, 2})
	assert.True(tst, errors.Is(err, ErrAlphabetMismatch))
	_, err = Normalize(4, []Term{{1, Exponent{1}}})
	assert.True(tst, errors.Is(err, ErrAlphabetMismatch))
}

func TestZeroDropped(tst *testing.T) {
	p := Monomial(4, 1, 0.5)
	q := Monomial(4, 1, -0.5)
	r, err := Add(p, q)
	require.NoError(tst, err)
	assert.True(tst, r.IsZero())
	assert.Equal(tst, "0", r.String())
}

func TestExponentOverflow(tst *testing.T) {
	p, err := Normalize(2, []Term{{1, Exponent{40000, 0}}})
	require.NoError(tst, err)
	_, err = Mul(p, p)
	assert.True(tst, errors.Is(err, ErrExponentOverflow), "got %v", err)

	// the largest power still fits
	q, err := Normalize(2, []Term{{0.5, Exponent{25535, 1}}})
	require.NoError(tst, err)
	pq, err := Mul(p, q)
	require.NoError(tst, err)
	assert.Equal(tst, Exponent{65535, 1}, pq.Terms()[0].Exponent)

	_, err = MulTruncate(Complete(p), Complete(p), 10)
	assert.True(tst, errors.Is(err, ErrExponentOverflow))

	top, err := Normalize(2, []Term{{1, Exponent{0, 65535}}})
	require.NoError(tst, err)
	_, err = top.Raise(1)
	assert.True(tst, errors.Is(err, ErrExponentOverflow))
	r, err := top.Raise(0)
	require.NoError(tst, err)
	assert.Equal(tst, Exponent{1, 65535}, r.Terms()[0].Exponent)
}
