package optimize

import (
	"math"
)

const (
	tiny  = 1e-10
	small = 1e-6
)

// DS is the downhill simplex (Nelder-Mead) optimizer. It does not
// need gradients.
type DS struct {
	BaseOptimizer
	delta  float64
	ftol   float64
	repeat bool
	oldL   float64
	points []Optimizable
	pars   []FloatParameters
	ls     []float64
	psum   []float64
	newOpt Optimizable
	newPar FloatParameters
}

// NewDS creates a new downhill simplex optimizer.
func NewDS() *DS {
	return &DS{
		BaseOptimizer: BaseOptimizer{
			repPeriod: 10,
		},
		delta: 1,
		ftol:  tiny,
	}
}

// SetOptimizable creates the initial simplex around the model.
func (ds *DS) SetOptimizable(opt Optimizable) {
	ds.BaseOptimizer.SetOptimizable(opt)
	ds.createSimplex(opt)
}

func (ds *DS) likelihood(i int) float64 {
	if !ds.pars[i].InRange() {
		return math.Inf(-1)
	}
	ds.calls++
	return ds.points[i].Likelihood()
}

func (ds *DS) createSimplex(opt Optimizable) {
	n := len(opt.GetFloatParameters())
	ds.points = make([]Optimizable, n+1)
	ds.pars = make([]FloatParameters, n+1)
	ds.ls = make([]float64, n+1)
	ds.points[0] = opt
	ds.pars[0] = opt.GetFloatParameters()
	for i := 1; i <= n; i++ {
		ds.points[i] = opt.Copy()
		ds.pars[i] = ds.points[i].GetFloatParameters()
		par := ds.pars[i][i-1]
		v := par.Get() + ds.delta
		if !par.ValueInRange(v) {
			v = par.Get() - ds.delta
		}
		par.Set(v)
	}
	for i := range ds.points {
		ds.ls[i] = ds.likelihood(i)
	}
}

// try extrapolates by factor fac through the face of the simplex
// across from the worst point and replaces it if the new point is
// better.
func (ds *DS) try(ilo int, fac float64) float64 {
	if ds.newOpt == nil {
		ds.newOpt = ds.points[0].Copy()
		ds.newPar = ds.newOpt.GetFloatParameters()
	}
	ds.psum = make([]float64, len(ds.newPar))
	for j := range ds.psum {
		for _, par := range ds.pars {
			ds.psum[j] += par[j].Get()
		}
	}
	ndim := len(ds.newPar)
	fac1 := (1 - fac) / float64(ndim)
	fac2 := fac1 - fac
	for j := 0; j < ndim; j++ {
		ds.newPar[j].Set(ds.psum[j]*fac1 - ds.pars[ilo][j].Get()*fac2)
	}
	l := math.Inf(-1)
	if ds.newPar.InRange() {
		l = ds.newOpt.Likelihood()
		ds.calls++
	}
	if l > ds.ls[ilo] {
		ds.points[ilo], ds.newOpt = ds.newOpt, ds.points[ilo]
		ds.pars[ilo], ds.newPar = ds.newPar, ds.pars[ilo]
		ds.ls[ilo] = l
	}
	return l
}

// order returns the worst, the second worst and the best points.
func (ds *DS) order() (ilo, inlo, ihi int) {
	ilo, inlo, ihi = 0, 1, 1
	if ds.ls[0] >= ds.ls[1] {
		ilo, inlo, ihi = 1, 0, 0
	}
	for i := 2; i < len(ds.ls); i++ {
		switch {
		case ds.ls[i] >= ds.ls[ihi]:
			ihi = i
		}
		switch {
		case ds.ls[i] < ds.ls[ilo]:
			inlo, ilo = ilo, i
		case ds.ls[i] < ds.ls[inlo]:
			inlo = i
		}
	}
	return
}

// Run starts the optimization.
func (ds *DS) Run(iterations int) {
	ds.PrintHeader(ds.pars[0])
	ds.maxL = math.Inf(-1)
	var ihi int
	for ds.i = 1; ds.i <= iterations; ds.i++ {
		ilo, inlo, hi := ds.order()
		ihi = hi
		lhi, llo := ds.ls[ihi], ds.ls[ilo]
		if lhi > ds.maxL {
			ds.maxL = lhi
			ds.maxLPar = ds.pars[ihi].Values(ds.maxLPar)
		}
		ds.l = lhi
		ds.PrintLine(ds.pars[ihi], lhi, ds.repPeriod)

		rtol := 2 * math.Abs(lhi-llo) / (math.Abs(llo) + math.Abs(lhi) + tiny)
		if rtol < ds.ftol {
			if ds.repeat && math.Abs(ds.oldL-lhi) < small {
				break
			}
			ds.repeat = true
			ds.oldL = lhi
			log.Info("converged, restarting the simplex")
			ds.createSimplex(ds.points[ihi])
			continue
		}
		l := ds.try(ilo, -1)
		switch {
		case l >= lhi:
			ds.try(ilo, 2)
		case l <= ds.ls[inlo]:
			if ds.try(ilo, 0.5) <= llo {
				ds.shrink(ihi)
			}
		}
		if ds.signaled() {
			break
		}
	}
	if ds.i > iterations {
		log.Warningf("Iterations exceeded (%d)", iterations)
	}
	_, _, ihi = ds.order()
	if ds.ls[ihi] > ds.maxL {
		ds.maxL = ds.ls[ihi]
		ds.maxLPar = ds.pars[ihi].Values(ds.maxLPar)
	}
	ds.l = ds.maxL
	ds.Optimizable.GetFloatParameters().SetValues(ds.maxLPar)

	log.Info("Finished downhill simplex")
	log.Noticef("Maximum likelihood: %v", ds.maxL)
	ds.PrintFinal(ds.Optimizable.GetFloatParameters())
}

// shrink moves all the points towards the best one.
func (ds *DS) shrink(ihi int) {
	for i := range ds.points {
		if i == ihi {
			continue
		}
		for j := range ds.pars[i] {
			ds.pars[i][j].Set(0.5 * (ds.pars[i][j].Get() + ds.pars[ihi][j].Get()))
		}
		ds.ls[i] = ds.likelihood(i)
	}
}
