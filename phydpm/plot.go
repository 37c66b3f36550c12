package main

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"bitbucket.org/Davydov/phydpm/dpm"
)

// plotTrace plots the number of clusters and the concentration per
// iteration.
func plotTrace(samples []dpm.Sample, fn string) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "Sampler trace"
	p.X.Label.Text = "iteration"

	clusters := make(plotter.XYs, len(samples))
	alphas := make(plotter.XYs, len(samples))
	for i, s := range samples {
		clusters[i].X = float64(s.Iteration)
		clusters[i].Y = float64(s.NClusters)
		alphas[i].X = float64(s.Iteration)
		alphas[i].Y = s.Alpha
	}

	err = plotutil.AddLinePoints(p,
		"clusters", clusters,
		"alpha", alphas)
	if err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, fn)
}
