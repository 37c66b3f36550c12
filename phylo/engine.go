package phylo

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"bitbucket.org/Davydov/phydpm/bio"
	"bitbucket.org/Davydov/phydpm/poly"
	"bitbucket.org/Davydov/phydpm/tree"
)

// Engine computes column likelihood polynomials. For every node and
// every node state x it keeps the probability of the data below the
// node given x. These probabilities are polynomials in the stationary
// weights, since every mutation draws a new symbol from them.
type Engine struct {
	tree     *tree.Tree
	model    *Model
	alphabet int
	gap      uint8
	budget   int
	// rows are coded sequences indexed by leaf id.
	rows  [][]uint8
	width int
}

// carry is the likelihood of a subtree conditional on the state of
// its root.
type carry struct {
	states   []*poly.Polynomial
	residual Residual
}

// NewEngine creates an engine for the tree and the alignment. Leaves
// are matched to the alignment rows by name. Budget limits the number
// of terms in every polynomial, budget <= 0 means no limit.
func NewEngine(t *tree.Tree, ali *bio.Alignment, model *Model, budget int) (*Engine, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if model.Alphabet() != ali.Alphabet.Size() {
		return nil, fmt.Errorf("%w: model has %d weights, alignment alphabet has %d symbols",
			ErrAlphabetMismatch, model.Alphabet(), ali.Alphabet.Size())
	}
	e := &Engine{
		tree:     t,
		model:    model,
		alphabet: ali.Alphabet.Size(),
		gap:      ali.Alphabet.Gap(),
		budget:   budget,
		rows:     make([][]uint8, t.NLeaves()),
		width:    ali.Width(),
	}
	for _, leaf := range t.Leaves() {
		row, ok := ali.Row(leaf.Name)
		if !ok {
			return nil, fmt.Errorf("%w: leaf %s has no sequence", ErrInvalidTree, leaf.Name)
		}
		e.rows[leaf.LeafId] = row
	}
	if t.NLeaves() != len(ali.Names) {
		log.Warningf("alignment has %d sequences, tree has %d leaves", len(ali.Names), t.NLeaves())
	}
	// warm up the node caches, so concurrent readers do not write
	t.NodeOrder()
	return e, nil
}

// Width returns the number of alignment columns.
func (e *Engine) Width() int {
	return e.width
}

// Alphabet returns the alphabet size.
func (e *Engine) Alphabet() int {
	return e.alphabet
}

// Model returns the substitution model.
func (e *Engine) Model() *Model {
	return e.model
}

// Tree returns the tree.
func (e *Engine) Tree() *tree.Tree {
	return e.tree
}

// Budget returns the maximum number of polynomial terms.
func (e *Engine) Budget() int {
	return e.budget
}

// Column computes the likelihood polynomial of an alignment column,
// i.e. the sum over root states x of theta_x times the probability of
// the data given x. The result is truncated to the budget, the
// discarded mass bounds the error.
func (e *Engine) Column(col int) (*poly.Incomplete, error) {
	if col < 0 || col >= e.width {
		return nil, fmt.Errorf("%w: no data for column %d (width %d)", ErrInvalidTree, col, e.width)
	}
	c, err := e.subtree(e.tree.Node, col)
	if err != nil {
		return nil, err
	}
	p, err := e.open(c)
	if err != nil {
		return nil, err
	}
	p, d := poly.Truncate(p, e.budget)
	res := &poly.Incomplete{
		Polynomial: p,
		Discarded:  c.residual.Max() + d,
	}
	if res.Discarded > 0 {
		log.Debugf("column %d: %d terms, discarded %g", col, p.Len(), res.Discarded)
	}
	return res, nil
}

// Likelihood returns the probability of a column under the model
// weights.
func (e *Engine) Likelihood(col int) (float64, error) {
	p, err := e.Column(col)
	if err != nil {
		return 0, err
	}
	return p.Evaluate(e.model.Weights)
}

// LogLikelihood returns the sum of column log-likelihoods.
func (e *Engine) LogLikelihood(cols []int) (res float64, err error) {
	for _, col := range cols {
		l, err := e.Likelihood(col)
		if err != nil {
			return 0, err
		}
		res += math.Log(l)
	}
	return
}

// ColumnPolynomials computes polynomials for all the columns using up
// to workers goroutines. Workers <= 0 uses all the processors.
func (e *Engine) ColumnPolynomials(ctx context.Context, workers int) ([]*poly.Incomplete, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	res := make([]*poly.Incomplete, e.width)
	p := pool.New().
		WithErrors().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(workers)
	for col := 0; col < e.width; col++ {
		col := col
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := e.Column(col)
			if err != nil {
				return err
			}
			res[col] = c
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// leaf returns the carry of a terminal node. An observed symbol y
// gives 1 for state y and 0 otherwise; missing data gives 1 for every
// state.
func (e *Engine) leaf(node *tree.Node, col int) (*carry, error) {
	row := e.rows[node.LeafId]
	if col >= len(row) {
		return nil, fmt.Errorf("%w: leaf %s has no symbol at column %d", ErrInvalidTree, node.Name, col)
	}
	sym := row[col]
	c := &carry{
		states:   make([]*poly.Polynomial, e.alphabet),
		residual: make(Residual, e.alphabet),
	}
	for x := range c.states {
		if sym == e.gap || int(sym) == x {
			c.states[x] = poly.Constant(e.alphabet, 1)
		} else {
			c.states[x] = poly.Zero(e.alphabet)
		}
	}
	return c, nil
}

// subtree computes the carry of a node by multiplying the children
// carries transformed across their branches.
func (e *Engine) subtree(node *tree.Node, col int) (*carry, error) {
	if node.IsTerminal() {
		return e.leaf(node, col)
	}
	acc := &carry{
		states:   make([]*poly.Polynomial, e.alphabet),
		residual: make(Residual, e.alphabet),
	}
	for x := range acc.states {
		acc.states[x] = poly.Constant(e.alphabet, 1)
	}
	for _, child := range node.ChildNodes() {
		c, err := e.subtree(child, col)
		if err != nil {
			return nil, err
		}
		tr, err := e.transition(c, child.BranchLength)
		if err != nil {
			return nil, err
		}
		// the accumulated carry is already at this node
		residual := e.model.CombineDiscarded(acc.residual, c.residual, 0, child.BranchLength)
		for x := range acc.states {
			p, err := poly.Mul(acc.states[x], tr[x])
			if err != nil {
				return nil, err
			}
			p, d := poly.Truncate(p, e.budget)
			acc.states[x] = p
			residual[x] += d
		}
		acc.residual = residual
	}
	return acc, nil
}

// open computes sum_x theta_x * L_x.
func (e *Engine) open(c *carry) (*poly.Polynomial, error) {
	res := poly.Zero(e.alphabet)
	for x, p := range c.states {
		r, err := p.Raise(x)
		if err != nil {
			return nil, err
		}
		res, err = poly.Add(res, r)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// transition moves a carry across a branch of length t:
// T_x = e^{-st} L_x + (1 - e^{-st}) sum_y theta_y L_y.
func (e *Engine) transition(c *carry, t float64) ([]*poly.Polynomial, error) {
	nm := e.model.NoMutation(t)
	res := make([]*poly.Polynomial, e.alphabet)
	if nm == 1 {
		copy(res, c.states)
		return res, nil
	}
	total, err := e.open(c)
	if err != nil {
		return nil, err
	}
	mut := total.Scale(1 - nm)
	for x, p := range c.states {
		res[x], err = poly.Add(p.Scale(nm), mut)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}
