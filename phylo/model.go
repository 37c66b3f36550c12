// Package phylo computes likelihoods of alignment columns on a
// phylogenetic tree. The likelihood of a column is represented as a
// polynomial over the stationary probabilities of the alphabet
// symbols, which allows to integrate them out later.
package phylo

import (
	"errors"
	"fmt"
	"math"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/phydpm/poly"
	"bitbucket.org/Davydov/phydpm/tree"
)

// log is the package logger.
var log = logging.MustGetLogger("phylo")

var (
	// ErrInvalidTree is returned for malformed trees and for leaves
	// without data.
	ErrInvalidTree = tree.ErrInvalidTree
	// ErrAlphabetMismatch is returned if model, alignment and
	// polynomials disagree on the alphabet size.
	ErrAlphabetMismatch = poly.ErrAlphabetMismatch
)

// Model is the Felsenstein 1981 substitution model. A mutation on a
// branch of length t happens with probability 1-exp(-Scale*t), the
// new symbol is drawn from Weights.
type Model struct {
	// Weights are the stationary symbol probabilities, they are
	// also used for the root state.
	Weights []float64
	// Scale multiplies all the branch lengths.
	Scale float64
}

// NewModel creates a model. Weights are normalized to sum to one.
func NewModel(weights []float64, scale float64) (*Model, error) {
	if len(weights) == 0 {
		return nil, errors.New("no stationary weights")
	}
	if scale <= 0 {
		return nil, fmt.Errorf("branch scale should be positive, got %v", scale)
	}
	s := 0.0
	for _, w := range weights {
		if w <= 0 {
			return nil, fmt.Errorf("stationary weights should be positive, got %v", weights)
		}
		s += w
	}
	m := &Model{Weights: make([]float64, len(weights)), Scale: scale}
	for i, w := range weights {
		m.Weights[i] = w / s
	}
	return m, nil
}

// UniformModel creates a model with equal weights and unit scale.
func UniformModel(alphabet int) *Model {
	w := make([]float64, alphabet)
	for i := range w {
		w[i] = 1 / float64(alphabet)
	}
	return &Model{Weights: w, Scale: 1}
}

// Alphabet returns the alphabet size.
func (m *Model) Alphabet() int {
	return len(m.Weights)
}

// NoMutation returns the probability of no mutation on a branch.
func (m *Model) NoMutation(t float64) float64 {
	return math.Exp(-m.Scale * t)
}

// Copy creates a copy of the model.
func (m *Model) Copy() *Model {
	w := make([]float64, len(m.Weights))
	copy(w, m.Weights)
	return &Model{Weights: w, Scale: m.Scale}
}

// Residual stores the discarded mass of an incomplete node
// likelihood, one value per state of the node.
type Residual []float64

// Max returns the largest residual.
func (r Residual) Max() (d float64) {
	for _, v := range r {
		d = math.Max(d, v)
	}
	return
}

// PropagateDiscarded moves the residual of a child across its branch.
// Without mutation the parent state inherits the residual of the same
// child state; with mutation the child state is arbitrary, so the
// largest residual bounds it.
func (m *Model) PropagateDiscarded(d Residual, t float64) Residual {
	nm := m.NoMutation(t)
	dmax := d.Max()
	r := make(Residual, len(d))
	for x, v := range d {
		r[x] = nm*v + (1-nm)*dmax
	}
	return r
}

// CombineDiscarded bounds the residual of the product of two child
// likelihoods transformed across branches of length t1 and t2.
func (m *Model) CombineDiscarded(d1, d2 Residual, t1, t2 float64) Residual {
	p1 := m.PropagateDiscarded(d1, t1)
	p2 := m.PropagateDiscarded(d2, t2)
	r := make(Residual, len(p1))
	for x := range r {
		r[x] = poly.CombineDiscarded(p1[x], p2[x])
	}
	return r
}
