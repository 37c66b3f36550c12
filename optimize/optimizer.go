// Package optimize implements likelihood maximization and
// Metropolis-Hastings sampling of real-valued parameters.
package optimize

import (
	"fmt"
	"io"
	"os"
	"os/signal"
)

// Optimizable is a model with parameters and a log-likelihood.
type Optimizable interface {
	GetFloatParameters() FloatParameters
	Likelihood() float64
	Copy() Optimizable
}

// Optimizer maximizes the likelihood of an Optimizable or samples
// its parameters.
type Optimizer interface {
	SetOptimizable(Optimizable)
	WatchSignals(...os.Signal)
	SetReportPeriod(period int)
	Run(iterations int)
	GetL() float64
	GetMaxL() float64
	GetMaxLParameters() []float64
}

// BaseOptimizer holds the state shared by all the optimizers.
type BaseOptimizer struct {
	Optimizable
	parameters FloatParameters
	i          int
	l          float64
	maxL       float64
	maxLPar    []float64
	calls      int
	repPeriod  int
	sig        chan os.Signal
	// Quiet disables the progress table.
	Quiet bool
	// Output receives the progress table, standard output by
	// default.
	Output io.Writer
}

// SetOptimizable sets the model to optimize.
func (o *BaseOptimizer) SetOptimizable(opt Optimizable) {
	o.Optimizable = opt
	o.parameters = opt.GetFloatParameters()
}

// WatchSignals stops the optimization on any of the signals.
func (o *BaseOptimizer) WatchSignals(sigs ...os.Signal) {
	o.sig = make(chan os.Signal, 1)
	signal.Notify(o.sig, sigs...)
}

// SetReportPeriod sets how often the progress is printed.
func (o *BaseOptimizer) SetReportPeriod(period int) {
	o.repPeriod = period
}

// signaled is true if a watched signal was received.
func (o *BaseOptimizer) signaled() bool {
	select {
	case s := <-o.sig:
		log.Warningf("Received signal %v, exiting.", s)
		return true
	default:
		return false
	}
}

func (o *BaseOptimizer) output() io.Writer {
	if o.Output == nil {
		return os.Stdout
	}
	return o.Output
}

// PrintHeader prints the progress table header.
func (o *BaseOptimizer) PrintHeader(par FloatParameters) {
	if !o.Quiet {
		fmt.Fprintf(o.output(), "iteration\tlikelihood\t%s\n", par.NamesString())
	}
}

// PrintLine prints the current state if the iteration is a multiple
// of the report period.
func (o *BaseOptimizer) PrintLine(par FloatParameters, l float64, repPeriod int) {
	if !o.Quiet && repPeriod > 0 && o.i%repPeriod == 0 {
		fmt.Fprintf(o.output(), "%d\t%f\t%s\n", o.i, l, par.ValuesString())
	}
}

// PrintFinal logs the final parameter values.
func (o *BaseOptimizer) PrintFinal(par FloatParameters) {
	for _, p := range par {
		log.Infof("%s=%v", p.Name(), p.Get())
	}
}

// GetL returns the last likelihood.
func (o *BaseOptimizer) GetL() float64 {
	return o.l
}

// GetMaxL returns the maximum likelihood found.
func (o *BaseOptimizer) GetMaxL() float64 {
	return o.maxL
}

// GetMaxLParameters returns parameter values of the maximum
// likelihood.
func (o *BaseOptimizer) GetMaxLParameters() []float64 {
	return o.maxLPar
}

// Calls returns the number of likelihood computations.
func (o *BaseOptimizer) Calls() int {
	return o.calls
}
