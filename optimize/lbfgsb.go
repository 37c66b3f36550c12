package optimize

import (
	"math"

	lbfgsb "github.com/idavydov/go-lbfgsb"
)

// LBFGSB is the limited-memory BFGS optimizer with box constraints.
// The gradient is computed with central finite differences.
type LBFGSB struct {
	BaseOptimizer
	dH      float64
	grad    []float64
	stopped bool
}

// NewLBFGSB creates a new optimizer.
func NewLBFGSB() *LBFGSB {
	return &LBFGSB{
		BaseOptimizer: BaseOptimizer{
			repPeriod: 10,
		},
		dH: 1e-6,
	}
}

// Logger is called after every iteration.
func (l *LBFGSB) Logger(info *lbfgsb.OptimizationIterationInformation) {
	l.i = info.Iteration
	l.l = -info.F
	l.PrintLine(l.parameters, l.l, l.repPeriod)
	if l.signaled() {
		l.stopped = true
	}
}

// EvaluateFunction returns the negative log-likelihood.
func (l *LBFGSB) EvaluateFunction(x []float64) float64 {
	if l.stopped || !l.parameters.ValuesInRange(x) {
		return math.Inf(+1)
	}
	l.parameters.SetValues(x)
	L := l.Likelihood()
	l.calls++
	if L > l.maxL {
		l.maxL = L
		l.maxLPar = l.parameters.Values(l.maxLPar)
	}
	return -L
}

// EvaluateGradient computes the gradient of the negative
// log-likelihood on copies of the model.
func (l *LBFGSB) EvaluateGradient(x []float64) []float64 {
	if l.grad == nil {
		l.grad = make([]float64, len(x))
	}
	for i := range x {
		no1 := l.Optimizable.Copy()
		par1 := no1.GetFloatParameters()
		par1.SetValues(x)
		par1[i].Set(x[i] - l.dH)
		l1 := -no1.Likelihood()

		no2 := no1.Copy()
		par2 := no2.GetFloatParameters()
		par2[i].Set(x[i] + l.dH)
		l2 := -no2.Likelihood()
		l.calls += 2

		l.grad[i] = (l2 - l1) / 2 / l.dH
	}
	return l.grad
}

// Run starts the optimization. The number of iterations is controlled
// by the tolerances.
func (l *LBFGSB) Run(iterations int) {
	l.maxL = math.Inf(-1)
	l.PrintHeader(l.parameters)
	bounds := make([][2]float64, len(l.parameters))
	for i, par := range l.parameters {
		bounds[i][0] = par.GetMin() + 1e-5
		bounds[i][1] = par.GetMax() - 1e-5
	}

	opt := new(lbfgsb.Lbfgsb)
	opt.SetApproximationSize(10)
	opt.SetFTolerance(1e-9)
	opt.SetGTolerance(1e-9)
	opt.SetBounds(bounds)
	opt.SetLogger(l.Logger)

	_, exitStatus := opt.Minimize(l, l.parameters.Values(nil))
	log.Info("Exit status: ", exitStatus)

	if l.maxLPar != nil {
		l.parameters.SetValues(l.maxLPar)
	}
	l.l = l.maxL
	log.Info("Finished LBFGSB")
	log.Noticef("Maximum likelihood: %v", l.maxL)
	log.Infof("Likelihood function calls: %v", l.calls)
	l.PrintFinal(l.parameters)
}
