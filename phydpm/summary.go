package main

import (
	"encoding/json"
	"os"

	"bitbucket.org/Davydov/phydpm/dpm"
	"bitbucket.org/Davydov/phydpm/optimize"
)

// RunSummary is storing sampler run summary information.
type RunSummary struct {
	// Version stores phydpm version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Seed is the seed used for random number generation initialization.
	Seed int64 `json:"seed"`
	// RunID identifies the run, it is kept when a run is resumed.
	RunID string `json:"runId"`
	// Iterations is the number of finished iterations.
	Iterations int `json:"iterations"`
	// Alpha is the final concentration.
	Alpha float64 `json:"alpha"`
	// LogLikelihood is the final partition log marginal likelihood.
	LogLikelihood float64 `json:"lnL"`
	// Discarded is the largest discarded mass of the final cluster polynomials.
	Discarded float64 `json:"discarded"`
	// Summary is the representative partition.
	Summary *dpm.Summary `json:"summary,omitempty"`
	// Time is the computations time in seconds.
	Time float64 `json:"time"`
}

// FitSummary is storing background fit results.
type FitSummary struct {
	Version       string   `json:"version"`
	CommandLine   []string `json:"commandLine"`
	LogLikelihood float64  `json:"lnL"`
	// Parameters are the optimized values by name, they can be used
	// as the starting point of another fit.
	Parameters optimize.FloatParameters `json:"parameters"`
	Weights    []float64                `json:"weights"`
	Scale      float64                  `json:"scale"`
}

var (
	summaryCmd     = app.Command("summary", "summarize saved samples")
	summarySamples = summaryCmd.Arg("samples", "samples file").Required().ExistingFile()
	summaryLength  = summaryCmd.Flag("length", "motif length").Default("10").Int()
	summaryBurnin  = summaryCmd.Flag("burnin", "number of samples to skip").Default("0").Int()
	summaryHow     = summaryCmd.Flag("method", "summary method").Default(dpm.SummaryMean).Enum(dpm.SummaryMean, dpm.SummaryMedian)
)

// writeJSON writes a value to a file, nothing is done for an empty
// file name.
func writeJSON(fn string, v interface{}) {
	if fn == "" {
		return
	}
	j, err := json.Marshal(v)
	if err != nil {
		log.Error(err)
		return
	}
	log.Debug(string(j))
	f, err := os.Create(fn)
	if err != nil {
		log.Error("Error creating json output file:", err)
		return
	}
	defer f.Close()
	f.Write(j)
}

func summary() {
	f, err := os.Open(*summarySamples)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	samples, err := dpm.ReadSamples(f)
	if err != nil {
		log.Fatal(err)
	}
	if *summaryBurnin >= len(samples) {
		log.Fatalf("Burn-in %d leaves no samples out of %d", *summaryBurnin, len(samples))
	}
	s, err := dpm.Summarize(*summaryHow, samples[*summaryBurnin:], *summaryLength)
	if err != nil {
		log.Fatal(err)
	}
	log.Noticef("%s number of clusters: %v, coverage: %d", s.Method, s.Statistic, s.Coverage)
	j, err := json.Marshal(s)
	if err != nil {
		log.Fatal(err)
	}
	os.Stdout.Write(append(j, '\n'))
}
