package phylo

import (
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Davydov/phydpm/optimize"
)

func TestBackground(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	tr := parseTree(t, tree5)
	ali := randomAlignment(t, rng, 5, 40)
	e, err := NewEngine(tr, ali, UniformModel(4), 0)
	require.NoError(t, err)
	cols := make([]int, ali.Width())
	for i := range cols {
		cols[i] = i
	}

	b := NewBackground(e, cols)
	pars := b.GetFloatParameters()
	require.Len(t, pars, 4)
	assert.Equal(t, []string{"scale", "w1", "w2", "w3"}, pars.Names())

	l0 := b.Likelihood()
	exp, err := e.LogLikelihood(cols)
	require.NoError(t, err)
	assert.InDelta(t, exp, l0, 1e-9)

	c := b.Copy().(*Background)
	c.GetFloatParameters()[1].Set(1)
	assert.InDelta(t, 0.25, b.Model().Weights[1], 1e-12, "copy should be independent")
	s := 0.0
	for _, w := range c.Model().Weights {
		s += w
	}
	assert.InDelta(t, 1, s, 1e-12)
	assert.Greater(t, c.Model().Weights[1], c.Model().Weights[0])

	ds := optimize.NewDS()
	ds.Output = io.Discard
	ds.SetOptimizable(b)
	ds.Run(300)
	assert.GreaterOrEqual(t, b.Likelihood(), l0-1e-9)
	assert.InDelta(t, 0.25, e.Model().Weights[0], 1e-12, "engine model should not change")
}
