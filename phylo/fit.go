package phylo

import (
	"fmt"
	"math"

	"bitbucket.org/Davydov/phydpm/optimize"
)

// Background is the substitution model as an optimizable object. Its
// parameters are the branch scale and the log-ratios of the weights
// to the weight of the first symbol.
type Background struct {
	engine     *Engine
	pruner     *Pruner
	cols       []int
	logits     []float64
	parameters optimize.FloatParameters
}

// NewBackground creates an optimizable model for the columns. The
// engine model is copied, so the engine itself is not affected.
func NewBackground(e *Engine, cols []int) *Background {
	ne := *e
	ne.model = e.model.Copy()
	b := &Background{
		engine: &ne,
		cols:   cols,
		logits: make([]float64, ne.alphabet-1),
	}
	b.pruner = NewPruner(b.engine)
	w := ne.model.Weights
	for i := range b.logits {
		b.logits[i] = math.Log(w[i+1] / w[0])
	}
	b.setupParameters()
	return b
}

func (b *Background) setupParameters() {
	b.parameters = nil
	scale := optimize.NewBasicFloatParameter(&b.engine.model.Scale, "scale")
	scale.SetMin(1e-3)
	scale.SetMax(100)
	scale.SetOnChange(b.pruner.Reset)
	b.parameters.Append(scale)
	for i := range b.logits {
		par := optimize.NewBasicFloatParameter(&b.logits[i], fmt.Sprintf("w%d", i+1))
		par.SetMin(-10)
		par.SetMax(10)
		par.SetOnChange(b.updateWeights)
		b.parameters.Append(par)
	}
}

// updateWeights computes weights from the log-ratios.
func (b *Background) updateWeights() {
	w := b.engine.model.Weights
	w[0] = 1
	s := 1.0
	for i, l := range b.logits {
		w[i+1] = math.Exp(l)
		s += w[i+1]
	}
	for i := range w {
		w[i] /= s
	}
	b.pruner.Reset()
}

// Model returns the current model.
func (b *Background) Model() *Model {
	return b.engine.model
}

// GetFloatParameters returns the model parameters.
func (b *Background) GetFloatParameters() optimize.FloatParameters {
	return b.parameters
}

// Likelihood returns the log-likelihood of the columns.
func (b *Background) Likelihood() float64 {
	l, err := b.pruner.LogLikelihood(b.cols)
	if err != nil {
		log.Errorf("Error computing likelihood: %v", err)
		return math.Inf(-1)
	}
	return l
}

// Copy creates an independent copy of the model.
func (b *Background) Copy() optimize.Optimizable {
	nb := &Background{
		cols:   b.cols,
		logits: make([]float64, len(b.logits)),
	}
	ne := *b.engine
	ne.model = b.engine.model.Copy()
	nb.engine = &ne
	nb.pruner = NewPruner(nb.engine)
	copy(nb.logits, b.logits)
	nb.setupParameters()
	return nb
}
