package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/phydpm/checkpoint"
	"bitbucket.org/Davydov/phydpm/dpm"
	"bitbucket.org/Davydov/phydpm/phylo"
)

// checkpointKey is the bolt key of the sampler state.
var checkpointKey = []byte("sample")

var (
	sampleCmd = app.Command("sample", "run the motif sampler")

	// input tree and alignment
	sampleAlignment = sampleCmd.Arg("alignment", "sequence alignment").Required().ExistingFile()
	sampleTree      = sampleCmd.Arg("tree", "phylogenetic tree").Required().ExistingFile()

	// model parameters
	alpha       = sampleCmd.Flag("alpha", "Dirichlet process concentration").Default("1").Float64()
	budget      = sampleCmd.Flag("budget", "maximum number of polynomial terms").Default("100").Int()
	motifLength = sampleCmd.Flag("length", "motif length").Default("10").Int()
	pseudocount = sampleCmd.Flag("pseudocount", "Dirichlet prior pseudocounts, one per symbol (1 by default)").Float64List()
	weights     = sampleCmd.Flag("weights", "stationary symbol weights (empirical by default)").Float64List()
	scale       = sampleCmd.Flag("scale", "branch length scale").Default("1").Float64()

	// concentration sampling
	sampleAlpha = sampleCmd.Flag("sample-alpha", "sample the concentration").Bool()
	alphaPrior  = sampleCmd.Flag("alpha-prior", "concentration prior").Default(dpm.PriorGamma).Enum(dpm.PriorGamma, dpm.PriorExponential)
	alphaShape  = sampleCmd.Flag("alpha-shape", "shape of the concentration gamma prior").Default("1").Float64()
	alphaScale  = sampleCmd.Flag("alpha-scale", "scale of the concentration prior (the mean for exponential)").Default("1").Float64()

	// sampler parameters
	iterations = sampleCmd.Flag("iter", "number of iterations").Default("100").Int()
	seed       = sampleCmd.Flag("seed", "random generator seed, default time based").Default("-1").Int64()
	initState  = sampleCmd.Flag("init", "initial partition").Default(dpm.InitSingletons).Enum(dpm.InitSingletons, dpm.InitSingle)
	report     = sampleCmd.Flag("report", "report every N iterations").Default("10").Int()

	// input/output
	outF          = sampleCmd.Flag("out", "write samples to a file (JSON lines)").String()
	checkpointF   = sampleCmd.Flag("checkpoint", "checkpoint database").String()
	checkpointSec = sampleCmd.Flag("checkpoint-seconds", "save checkpoint every N seconds").Default("60").Float64()
	plotF         = sampleCmd.Flag("plot", "plot number of clusters to a PNG file").String()
	summaryMethod = sampleCmd.Flag("summary", "summary method").Default(dpm.SummaryMean).Enum(dpm.SummaryMean, dpm.SummaryMedian)
	jsonF         = sampleCmd.Flag("json", "write json output to a file").String()
)

// samplerConfig converts the command-line options.
func samplerConfig() dpm.Config {
	cfg := dpm.DefaultConfig()
	cfg.Alpha = *alpha
	cfg.Budget = *budget
	cfg.MotifLength = *motifLength
	cfg.Iterations = *iterations
	cfg.Seed = *seed
	cfg.Init = *initState
	if len(*pseudocount) > 0 {
		cfg.Pseudocounts = *pseudocount
	}
	cfg.SampleAlpha = *sampleAlpha
	cfg.AlphaPrior = *alphaPrior
	cfg.AlphaShape = *alphaShape
	cfg.AlphaScale = *alphaScale
	cfg.Workers = *nThreads
	return cfg
}

// resolveSeed chooses the random seed and decides whether the
// checkpoint is resumed. Seed -1 takes the checkpoint seed, or a time
// based seed if there is no checkpoint.
func resolveSeed(seed int64, data *checkpoint.Data) (int64, bool) {
	if data == nil {
		if seed == -1 {
			seed = time.Now().UnixNano()
			log.Debug("Random seed from time")
		}
		return seed, false
	}
	if seed == -1 {
		log.Infof("Using checkpoint seed %d", data.Seed)
		return data.Seed, true
	}
	if seed != data.Seed {
		log.Warningf("Checkpoint seed %d differs from %d, ignoring the checkpoint (use --seed %d or omit --seed to resume)",
			data.Seed, seed, data.Seed)
		return seed, false
	}
	return seed, true
}

// previousSamples reads samples up to the iteration from the output
// of an interrupted run. An unfinished run leaves its samples in the
// temporary file, which is preferred over the output file.
func previousSamples(fn string, iter int) ([]dpm.Sample, error) {
	f, err := os.Open(fn + ".tmp")
	if os.IsNotExist(err) {
		f, err = os.Open(fn)
	}
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	log.Infof("Reading previous samples from %s", f.Name())
	samples, err := dpm.ReadSamples(f)
	if err != nil {
		return nil, err
	}
	res := samples[:0]
	for _, s := range samples {
		if s.Iteration <= iter {
			res = append(res, s)
		}
	}
	return res, nil
}

func sample() {
	startTime := time.Now()
	runSummary := &RunSummary{
		Version:     version,
		CommandLine: os.Args,
		RunID:       uuid.New().String(),
	}

	var db *bolt.DB
	var err error
	if *checkpointF != "" {
		db, err = bolt.Open(*checkpointF, 0666, nil)
		if err != nil {
			log.Fatal("Error opening checkpoint database:", err)
		}
		defer db.Close()
	}
	cio := checkpoint.NewIO(db, checkpointKey, *checkpointSec)
	data, err := cio.Load()
	if err != nil {
		log.Error("Error loading checkpoint:", err)
	}
	var resume bool
	*seed, resume = resolveSeed(*seed, data)
	log.Infof("Random seed=%v", *seed)
	runSummary.Seed = *seed

	cfg := samplerConfig()
	e := newEngine(*sampleAlignment, *sampleTree, *weights, *scale, cfg.Budget)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sampler, err := dpm.NewSampler(ctx, cfg, []*phylo.Engine{e})
	if err != nil {
		log.Fatal(err)
	}
	sampler.SetReportPeriod(*report)

	var samples []dpm.Sample
	if resume {
		if err := sampler.Restore(data.Iter, data.Alpha, data.Partition); err != nil {
			log.Fatal("Error restoring checkpoint:", err)
		}
		runSummary.RunID = data.RunID
		if *outF != "" {
			samples, err = previousSamples(*outF, data.Iter)
			if err != nil {
				log.Fatal("Error reading previous samples:", err)
			}
			log.Infof("Kept %d previous samples", len(samples))
		}
	}
	log.Infof("Run id: %s", runSummary.RunID)

	// samples are written to a temporary file, which replaces the
	// output only if the run succeeds
	var out *os.File
	if *outF != "" {
		out, err = os.Create(*outF + ".tmp")
		if err != nil {
			log.Fatal("Error creating samples file:", err)
		}
		for _, s := range samples {
			if err := dpm.WriteSample(out, s); err != nil {
				log.Fatal(err)
			}
		}
	}

	save := func(final bool) {
		err := cio.Save(&checkpoint.Data{
			RunID:     runSummary.RunID,
			Seed:      *seed,
			Iter:      sampler.Iteration(),
			Alpha:     sampler.Alpha(),
			Partition: sampler.Partition().Export(),
			Final:     final,
		})
		if err != nil {
			log.Error("Error saving checkpoint:", err)
		}
	}

	err = sampler.Run(ctx, func(s dpm.Sample) error {
		samples = append(samples, s)
		if out != nil {
			if err := dpm.WriteSample(out, s); err != nil {
				return err
			}
		}
		if cio.Old() {
			save(false)
		}
		return nil
	})
	if err != nil {
		if out != nil {
			out.Close()
		}
		// keep the state for resuming
		if ctx.Err() != nil {
			save(false)
		}
		log.Fatal("Sampling failed: ", err)
	}
	save(true)

	if out != nil {
		if err := out.Close(); err != nil {
			log.Fatal(err)
		}
		if err := os.Rename(*outF+".tmp", *outF); err != nil {
			log.Fatal(err)
		}
	}

	if len(samples) > 0 {
		s, err := dpm.Summarize(*summaryMethod, samples, cfg.MotifLength)
		if err != nil {
			log.Fatal(err)
		}
		log.Noticef("%s number of clusters: %v, coverage: %d", s.Method, s.Statistic, s.Coverage)
		runSummary.Summary = s
		j, err := json.Marshal(s.Representative.Partition)
		if err != nil {
			log.Fatal(err)
		}
		os.Stdout.Write(append(j, '\n'))
	} else {
		log.Warning("No samples")
	}

	if *plotF != "" {
		if err := plotTrace(samples, *plotF); err != nil {
			log.Error("Error plotting:", err)
		}
	}

	runSummary.Alpha = sampler.Alpha()
	runSummary.Iterations = sampler.Iteration()
	runSummary.LogLikelihood = sampler.LogLikelihood()
	runSummary.Discarded = sampler.Discarded()
	deltaT := time.Since(startTime)
	log.Noticef("Running time: %v", deltaT)
	runSummary.Time = deltaT.Seconds()
	writeJSON(*jsonF, runSummary)
}
