package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"syscall"

	"bitbucket.org/Davydov/phydpm/optimize"
	"bitbucket.org/Davydov/phydpm/phylo"
)

var (
	likelihoodCmd       = app.Command("likelihood", "compute column log-likelihoods")
	likelihoodAlignment = likelihoodCmd.Arg("alignment", "sequence alignment").Required().ExistingFile()
	likelihoodTree      = likelihoodCmd.Arg("tree", "phylogenetic tree").Required().ExistingFile()
	likelihoodBudget    = likelihoodCmd.Flag("budget", "maximum number of polynomial terms, 0 for no limit").Default("0").Int()
	likelihoodWeights   = likelihoodCmd.Flag("weights", "stationary symbol weights (empirical by default)").Float64List()
	likelihoodScale     = likelihoodCmd.Flag("scale", "branch length scale").Default("1").Float64()
	exact               = likelihoodCmd.Flag("exact", "also compute the likelihood with numeric pruning").Bool()

	fitCmd       = app.Command("fit", "fit stationary weights and branch scale")
	fitAlignment = fitCmd.Arg("alignment", "sequence alignment").Required().ExistingFile()
	fitTree      = fitCmd.Arg("tree", "phylogenetic tree").Required().ExistingFile()
	fitIter      = fitCmd.Flag("iter", "maximum number of iterations").Default("10000").Int()
	fitReport    = fitCmd.Flag("report", "report every N iterations").Default("10").Int()
	fitMethod    = fitCmd.Flag("method", "optimization method to use "+
		"(lbfgsb: limited-memory Broyden–Fletcher–Goldfarb–Shanno with bounding constraints, "+
		"simplex: downhill simplex, "+
		"none: just compute likelihood, no optimization"+
		")").Default("lbfgsb").Enum("lbfgsb", "simplex", "none")
	fitJSONF = fitCmd.Flag("json", "write json output to a file").String()
	fitStart = fitCmd.Flag("start", "read starting parameters from the json output of a previous fit").ExistingFile()
)

// getOptimizerFromString returns an optimizer from a string.
func getOptimizerFromString(method string) (optimize.Optimizer, error) {
	switch method {
	case "lbfgsb":
		return optimize.NewLBFGSB(), nil
	case "simplex":
		return optimize.NewDS(), nil
	case "none":
		return optimize.NewNone(), nil
	}
	return nil, fmt.Errorf("Unknown optimization method: %s", method)
}

// readStart sets parameter values from the parameters object of a
// fit summary.
func readStart(fn string, pars optimize.FloatParameters) error {
	b, err := os.ReadFile(fn)
	if err != nil {
		return err
	}
	var start struct {
		Parameters json.RawMessage `json:"parameters"`
	}
	if err := json.Unmarshal(b, &start); err != nil {
		return err
	}
	if start.Parameters == nil {
		return fmt.Errorf("%s has no parameters", fn)
	}
	return json.Unmarshal(start.Parameters, &pars)
}

func likelihood() {
	e := newEngine(*likelihoodAlignment, *likelihoodTree, *likelihoodWeights, *likelihoodScale, *likelihoodBudget)
	cols, err := e.ColumnPolynomials(context.Background(), *nThreads)
	if err != nil {
		log.Fatal(err)
	}
	var pr *phylo.Pruner
	if *exact {
		pr = phylo.NewPruner(e)
		fmt.Println("column\tlnL\tdiscarded\texact")
	} else {
		fmt.Println("column\tlnL\tdiscarded")
	}
	total := 0.0
	for col, p := range cols {
		l, err := p.Evaluate(e.Model().Weights)
		if err != nil {
			log.Fatal(err)
		}
		total += math.Log(l)
		if pr != nil {
			le, err := pr.Likelihood(col)
			if err != nil {
				log.Fatal(err)
			}
			fmt.Printf("%d\t%f\t%g\t%f\n", col+1, math.Log(l), p.Discarded, math.Log(le))
		} else {
			fmt.Printf("%d\t%f\t%g\n", col+1, math.Log(l), p.Discarded)
		}
		log.Debugf("column %d: %v", col+1, p)
	}
	log.Noticef("lnL=%f", total)
}

func fit() {
	e := newEngine(*fitAlignment, *fitTree, nil, 1, 0)
	cols := make([]int, e.Width())
	for i := range cols {
		cols[i] = i
	}
	b := phylo.NewBackground(e, cols)
	if *fitStart != "" {
		if err := readStart(*fitStart, b.GetFloatParameters()); err != nil {
			log.Fatal("Error reading starting parameters:", err)
		}
		log.Infof("Starting parameters: %s", b.GetFloatParameters().ValuesString())
	}

	opt, err := getOptimizerFromString(*fitMethod)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("Using %s optimization.", *fitMethod)
	opt.SetOptimizable(b)
	opt.SetReportPeriod(*fitReport)
	opt.WatchSignals(os.Interrupt, syscall.SIGTERM)
	opt.Run(*fitIter)

	m := b.Model()
	log.Noticef("lnL=%f", opt.GetMaxL())
	log.Noticef("weights=%v, scale=%v", m.Weights, m.Scale)
	writeJSON(*fitJSONF, &FitSummary{
		Version:       version,
		CommandLine:   os.Args,
		LogLikelihood: opt.GetMaxL(),
		Parameters:    b.GetFloatParameters(),
		Weights:       m.Weights,
		Scale:         m.Scale,
	})
}
