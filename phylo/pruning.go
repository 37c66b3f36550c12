package phylo

import (
	"fmt"
	"math"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/phydpm/tree"
)

// RateMatrix returns the F81 rate matrix Q = 1 w^T - I.
func RateMatrix(weights []float64) *mat64.Dense {
	n := len(weights)
	q := mat64.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := weights[j]
			if i == j {
				v--
			}
			q.Set(i, j, v)
		}
	}
	return q
}

// TransitionMatrix computes exp(Q*scale*t) for the model.
func TransitionMatrix(m *Model, t float64) *mat64.Dense {
	q := RateMatrix(m.Weights)
	q.Scale(m.Scale*t, q)
	p := &mat64.Dense{}
	p.Exp(q)
	// Remove sligtly negative values
	p.Apply(func(r, c int, v float64) float64 {
		return math.Max(0, v)
	}, p)
	return p
}

// Pruner is the Felsenstein pruning algorithm with numeric
// probabilities. It computes the exact column likelihood for fixed
// weights and is used to check and to optimize the model.
type Pruner struct {
	engine *Engine
	// transition matrices indexed by node id
	p []*mat64.Dense
}

// NewPruner creates a pruner sharing the tree, the data and the model
// with the engine.
func NewPruner(e *Engine) *Pruner {
	return &Pruner{engine: e}
}

// Update recomputes the transition matrices. It should be called
// after the model has changed.
func (pr *Pruner) Update() {
	nodes := pr.engine.tree.Nodes()
	pr.p = make([]*mat64.Dense, len(nodes))
	for _, node := range nodes {
		if node.IsRoot() {
			continue
		}
		pr.p[node.Id] = TransitionMatrix(pr.engine.model, node.BranchLength)
	}
}

// Reset drops the transition matrices, they are recomputed on the
// next likelihood call.
func (pr *Pruner) Reset() {
	pr.p = nil
}

// Likelihood computes the column likelihood.
func (pr *Pruner) Likelihood(col int) (float64, error) {
	e := pr.engine
	if col < 0 || col >= e.width {
		return 0, fmt.Errorf("%w: no data for column %d (width %d)", ErrInvalidTree, col, e.width)
	}
	if pr.p == nil {
		pr.Update()
	}
	plh := make([][]float64, e.tree.NNodes())
	for _, node := range e.tree.Leaves() {
		l := make([]float64, e.alphabet)
		sym := e.rows[node.LeafId][col]
		for x := range l {
			if sym == e.gap || int(sym) == x {
				l[x] = 1
			}
		}
		plh[node.Id] = l
	}
	for _, node := range e.tree.NodeOrder() {
		l := make([]float64, e.alphabet)
		for x := range l {
			l[x] = 1
		}
		for _, child := range node.ChildNodes() {
			pr.step(l, plh[child.Id], child)
		}
		plh[node.Id] = l
	}
	res := 0.0
	for x, v := range plh[e.tree.Id] {
		res += e.model.Weights[x] * v
	}
	return res, nil
}

// step multiplies l by the child likelihood moved across the branch.
func (pr *Pruner) step(l, child []float64, node *tree.Node) {
	p := pr.p[node.Id]
	for x := range l {
		s := 0.0
		for y, v := range child {
			s += p.At(x, y) * v
		}
		l[x] *= s
	}
}

// LogLikelihood returns the sum of column log-likelihoods.
func (pr *Pruner) LogLikelihood(cols []int) (res float64, err error) {
	for _, col := range cols {
		l, err := pr.Likelihood(col)
		if err != nil {
			return 0, err
		}
		res += math.Log(l)
	}
	return
}
