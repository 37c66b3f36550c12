/*

Phydpm finds groups of alignment positions which share a motif, i.e.
transcription factor binding sites. Positions are clustered with a
Dirichlet process mixture; the likelihood of a cluster is computed on
the phylogenetic tree with the symbol distribution of every motif
position integrated out.

The basic usage looks like this:

	phydpm sample alignment.fst tree.nwk

, this will run the sampler with motifs of length 10 and print the
representative partition.

Other commands compute column likelihoods, fit the background model
and summarize saved samples:

	phydpm likelihood alignment.fst tree.nwk
	phydpm fit alignment.fst tree.nwk
	phydpm summary samples.json

To see all the options run:

	phydpm --help

*/
package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/op/go-logging"
	"gopkg.in/alecthomas/kingpin.v2"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("phydpm")
var formatter = logging.MustStringFormatter(`%{message}`)

// modules are the loggers configured by --loglevel.
var modules = []string{"phydpm", "dpm", "phylo", "poly", "optimize", "checkpoint"}

// command-line options
var (
	// application
	app = kingpin.New("phydpm", "phylogenetic Dirichlet process motif sampler").Version(version)

	// technical
	nThreads   = app.Flag("nt", "number of threads to use").Int()
	cpuProfile = app.Flag("cpuprofile", "write cpu profile to file").String()
	outLogF    = app.Flag("log", "write log to a file").String()
	logLevel   = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
)

// setupLogging sets the formatter, the backend and the level for all
// the modules. It returns a function closing the log file.
func setupLogging() func() {
	logging.SetFormatter(formatter)

	closer := func() {}
	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		closer = func() { f.Close() }
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	for _, module := range modules {
		logging.SetLevel(level, module)
	}
	return closer
}

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	closeLog := setupLogging()
	defer closeLog()

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *nThreads > 0 {
		runtime.GOMAXPROCS(*nThreads)
	}
	log.Infof("Using threads: %d.", runtime.GOMAXPROCS(0))

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal(err)
		}
		defer pprof.StopCPUProfile()
	}

	switch cmd {
	case sampleCmd.FullCommand():
		sample()
	case likelihoodCmd.FullCommand():
		likelihood()
	case fitCmd.FullCommand():
		fit()
	case summaryCmd.FullCommand():
		summary()
	}
}
