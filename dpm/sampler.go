package dpm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"bitbucket.org/Davydov/phydpm/fastlog"
	"bitbucket.org/Davydov/phydpm/phylo"
	"bitbucket.org/Davydov/phydpm/poly"
)

// alphaSteps is the number of Metropolis-Hastings steps for the
// concentration after every sweep.
const alphaSteps = 10

// ErrNoAssignment is returned if all the assignments of an element
// have zero probability.
var ErrNoAssignment = errors.New("no possible assignment")

// cluster caches the products of the column polynomials of the
// members, one product per motif position.
type cluster struct {
	products []*poly.Incomplete
	logML    float64
}

// Sample is the sampler state after an iteration.
type Sample struct {
	Iteration int       `json:"iteration"`
	Alpha     float64   `json:"alpha"`
	NClusters int       `json:"n_clusters"`
	Sizes     []int     `json:"sizes"`
	Partition [][]Index `json:"partition"`
}

// Sampler is a collapsed Gibbs sampler for the Dirichlet process
// mixture of motifs.
type Sampler struct {
	cfg          Config
	rng          *rand.Rand
	logs         *fastlog.Table
	alphabet     int
	pseudocounts []float64
	// columns are indexed by alignment and column
	columns   [][]*poly.Incomplete
	partition *Partition
	clusters  map[int]*cluster
	singles   []*cluster
	alpha     float64
	conc      *Concentration
	iter      int
	repPeriod int
}

// NewSampler computes column polynomials for every engine and creates
// a sampler. Engine budgets are used for the column polynomials, the
// config budget for cluster products.
func NewSampler(ctx context.Context, cfg Config, engines []*phylo.Engine) (*Sampler, error) {
	if len(engines) == 0 {
		return nil, errors.New("no data")
	}
	columns := make([][]*poly.Incomplete, len(engines))
	for i, e := range engines {
		if e.Alphabet() != engines[0].Alphabet() {
			return nil, fmt.Errorf("%w: alignment %d has alphabet %d, expected %d",
				phylo.ErrAlphabetMismatch, i, e.Alphabet(), engines[0].Alphabet())
		}
		if err := cfg.Validate(e.Alphabet(), e.Width()); err != nil {
			return nil, err
		}
		cols, err := e.ColumnPolynomials(ctx, cfg.Workers)
		if err != nil {
			return nil, err
		}
		columns[i] = cols
	}
	return NewColumnSampler(cfg, columns)
}

// NewColumnSampler creates a sampler from precomputed column
// polynomials indexed by alignment and column.
func NewColumnSampler(cfg Config, columns [][]*poly.Incomplete) (*Sampler, error) {
	if len(columns) == 0 || len(columns[0]) == 0 {
		return nil, errors.New("no data")
	}
	alphabet := columns[0][0].Alphabet()
	widths := make([]int, len(columns))
	minWidth := len(columns[0])
	for i, cols := range columns {
		widths[i] = len(cols)
		if len(cols) < minWidth {
			minWidth = len(cols)
		}
		for _, p := range cols {
			if p.Alphabet() != alphabet {
				return nil, fmt.Errorf("%w: alignment %d", phylo.ErrAlphabetMismatch, i)
			}
		}
	}
	if err := cfg.Validate(alphabet, minWidth); err != nil {
		return nil, err
	}
	domain := Domain(widths, cfg.MotifLength)
	s := &Sampler{
		cfg:          cfg,
		rng:          rand.New(rand.NewSource(cfg.Seed)),
		logs:         fastlog.NewTable(len(domain) + 1),
		alphabet:     alphabet,
		pseudocounts: cfg.pseudocounts(alphabet),
		columns:      columns,
		alpha:        cfg.Alpha,
		repPeriod:    10,
	}
	if cfg.SampleAlpha {
		prior, sd := cfg.alphaPrior()
		s.conc = NewConcentration(cfg.Alpha, prior, sd, s.rng)
	}
	s.singles = make([]*cluster, len(domain))
	for e, idx := range domain {
		c, err := s.single(idx)
		if err != nil {
			return nil, err
		}
		s.singles[e] = c
	}
	s.partition = NewPartition(domain)
	if err := s.initPartition(); err != nil {
		return nil, err
	}
	log.Infof("%d elements of length %d, %d clusters", len(domain), cfg.MotifLength, s.partition.NClusters())
	return s, nil
}

func (s *Sampler) initPartition() error {
	switch s.cfg.Init {
	case InitSingle:
		id := s.partition.NewCluster()
		for e := range s.partition.Domain() {
			if err := s.partition.Assign(e, id); err != nil {
				return err
			}
		}
	default:
		for e := range s.partition.Domain() {
			if err := s.partition.Assign(e, s.partition.NewCluster()); err != nil {
				return err
			}
		}
	}
	return s.rebuildAll()
}

// rebuildAll recomputes all the cluster caches.
func (s *Sampler) rebuildAll() error {
	s.clusters = make(map[int]*cluster, s.partition.NClusters())
	for _, id := range s.partition.Clusters() {
		c, err := s.build(s.partition.Members(id))
		if err != nil {
			return err
		}
		s.clusters[id] = c
	}
	return nil
}

// single creates the cluster cache for one element.
func (s *Sampler) single(idx Index) (*cluster, error) {
	c := &cluster{products: make([]*poly.Incomplete, s.cfg.MotifLength)}
	for j := range c.products {
		col := s.columns[idx.Seq][idx.Pos+j]
		p, d := poly.Truncate(col.Polynomial, s.cfg.Budget)
		c.products[j] = &poly.Incomplete{Polynomial: p, Discarded: col.Discarded + d}
	}
	var err error
	c.logML, err = s.logML(c.products)
	return c, err
}

// build creates the cluster cache for members.
func (s *Sampler) build(members []int) (*cluster, error) {
	c := s.singles[members[0]]
	for _, e := range members[1:] {
		var err error
		c, err = s.extend(c, e)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

// extend returns the cache of a cluster with an additional element.
// The original cache is not modified.
func (s *Sampler) extend(c *cluster, elem int) (*cluster, error) {
	idx := s.partition.Index(elem)
	res := &cluster{products: make([]*poly.Incomplete, len(c.products))}
	for j, p := range c.products {
		q, err := poly.MulTruncate(p, s.columns[idx.Seq][idx.Pos+j], s.cfg.Budget)
		if err != nil {
			return nil, err
		}
		res.products[j] = q
	}
	var err error
	res.logML, err = s.logML(res.products)
	return res, err
}

// logML is the log marginal likelihood of a cluster: the product over
// motif positions of the column likelihoods integrated over the
// position symbol distribution.
func (s *Sampler) logML(products []*poly.Incomplete) (res float64, err error) {
	for _, p := range products {
		l, err := phylo.DirichletMarginal(p.Polynomial, s.pseudocounts)
		if err != nil {
			return 0, err
		}
		res += l
	}
	return
}

// Partition returns the current partition.
func (s *Sampler) Partition() *Partition {
	return s.partition
}

// Alpha returns the current concentration.
func (s *Sampler) Alpha() float64 {
	return s.alpha
}

// Iteration returns the number of finished sweeps.
func (s *Sampler) Iteration() int {
	return s.iter
}

// SetReportPeriod sets how often the progress is logged.
func (s *Sampler) SetReportPeriod(period int) {
	s.repPeriod = period
}

// Discarded returns the largest discarded mass of cluster products.
func (s *Sampler) Discarded() (d float64) {
	for _, id := range s.partition.Clusters() {
		for _, p := range s.clusters[id].products {
			d = math.Max(d, p.Discarded)
		}
	}
	return
}

// LogLikelihood returns the sum of cluster log marginal likelihoods.
func (s *Sampler) LogLikelihood() (l float64) {
	for _, id := range s.partition.Clusters() {
		l += s.clusters[id].logML
	}
	return
}

// Step removes an element from its cluster and draws a new
// assignment.
func (s *Sampler) Step(elem int) error {
	old, deleted := s.partition.Remove(elem)
	if deleted {
		delete(s.clusters, old)
	} else if old >= 0 {
		c, err := s.build(s.partition.Members(old))
		if err != nil {
			return err
		}
		s.clusters[old] = c
	}

	ids := s.partition.Clusters()
	scores := make([]float64, len(ids)+1)
	candidates := make([]*cluster, len(ids))
	for i, id := range ids {
		prev := s.clusters[id]
		c, err := s.extend(prev, elem)
		if err != nil {
			return err
		}
		candidates[i] = c
		scores[i] = s.logs.Log(s.partition.Size(id)) + c.logML - prev.logML
	}
	scores[len(ids)] = math.Log(s.alpha) + s.singles[elem].logML

	choice, err := s.draw(scores)
	if err != nil {
		return fmt.Errorf("element %v: %w", s.partition.Index(elem), err)
	}
	if choice == len(ids) {
		id := s.partition.NewCluster()
		s.clusters[id] = s.singles[elem]
		return s.partition.Assign(elem, id)
	}
	s.clusters[ids[choice]] = candidates[choice]
	return s.partition.Assign(elem, ids[choice])
}

// draw samples an option given unnormalized log-probabilities.
func (s *Sampler) draw(scores []float64) (int, error) {
	for i, v := range scores {
		if math.IsNaN(v) {
			scores[i] = math.Inf(-1)
		}
	}
	lse := floats.LogSumExp(scores)
	if math.IsInf(lse, -1) || math.IsNaN(lse) {
		return 0, ErrNoAssignment
	}
	u := s.rng.Float64()
	cum := 0.0
	last := 0
	for i, v := range scores {
		if math.IsInf(v, -1) {
			continue
		}
		cum += math.Exp(v - lse)
		last = i
		if u < cum {
			return i, nil
		}
	}
	// rounding
	return last, nil
}

// Sweep updates every element once in a random order.
func (s *Sampler) Sweep() error {
	for _, e := range s.rng.Perm(s.partition.Len()) {
		if err := s.Step(e); err != nil {
			return err
		}
	}
	if s.conc != nil {
		s.conc.Alpha = s.alpha
		s.alpha = s.conc.Update(s.partition.NClusters(), s.partition.Len(), alphaSteps)
	}
	s.iter++
	return nil
}

// Sample returns the current state.
func (s *Sampler) Sample() Sample {
	return Sample{
		Iteration: s.iter,
		Alpha:     s.alpha,
		NClusters: s.partition.NClusters(),
		Sizes:     s.partition.Sizes(),
		Partition: s.partition.Export(),
	}
}

// Run performs sweeps until the configured number of iterations is
// reached. The hook is called with every sample; a hook error stops
// the run.
func (s *Sampler) Run(ctx context.Context, hook func(Sample) error) error {
	for s.iter < s.cfg.Iterations {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Sweep(); err != nil {
			return err
		}
		if s.repPeriod > 0 && s.iter%s.repPeriod == 0 {
			log.Infof("%d: clusters=%d, alpha=%f, lnL=%f", s.iter, s.partition.NClusters(), s.alpha, s.LogLikelihood())
			log.Debugf("%d: max discarded mass %g", s.iter, s.Discarded())
		}
		if hook != nil {
			if err := hook(s.Sample()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Restore continues from a saved state. The random generator is
// reseeded with the seed plus the iteration.
func (s *Sampler) Restore(iter int, alpha float64, clusters [][]Index) error {
	p, err := ImportPartition(s.partition.Domain(), clusters)
	if err != nil {
		return err
	}
	if !(alpha > 0) {
		return configError("alpha", "should be positive, got %v", alpha)
	}
	s.partition = p
	if err := s.rebuildAll(); err != nil {
		return err
	}
	s.iter = iter
	s.alpha = alpha
	s.rng.Seed(s.cfg.Seed + int64(iter))
	log.Noticef("Restored iteration %d, %d clusters", iter, p.NClusters())
	return nil
}
