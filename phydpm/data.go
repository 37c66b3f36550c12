package main

import (
	"os"

	"bitbucket.org/Davydov/phydpm/bio"
	"bitbucket.org/Davydov/phydpm/phylo"
	"bitbucket.org/Davydov/phydpm/tree"
)

// readAlignment reads a FASTA alignment.
func readAlignment(fn string) *bio.Alignment {
	fastaFile, err := os.Open(fn)
	if err != nil {
		log.Fatal(err)
	}
	defer fastaFile.Close()

	seqs, err := bio.ParseFasta(fastaFile)
	if err != nil {
		log.Fatal(err)
	}
	ali, err := bio.NewAlignment(seqs, bio.DNA)
	if err != nil {
		log.Fatal(err)
	}
	if ali.Width() == 0 {
		log.Fatal("Zero length alignment")
	}
	log.Infof("Read alignment of %d sequences, %d columns, %d fixed positions", len(ali.Names), ali.Width(), ali.NFixed())
	return ali
}

// readTree reads a newick tree.
func readTree(fn string) *tree.Tree {
	treeFile, err := os.Open(fn)
	if err != nil {
		log.Fatal(err)
	}
	defer treeFile.Close()

	t, err := tree.ParseNewick(treeFile)
	if err != nil {
		log.Fatal(err)
	}
	log.Debugf("intree=%s", t)
	log.Debug(t.FullString())
	return t
}

// newEngine loads the data and creates the likelihood engine. Without
// weights the empirical symbol frequencies are used.
func newEngine(aliFn, treeFn string, weights []float64, scale float64, budget int) *phylo.Engine {
	ali := readAlignment(aliFn)
	t := readTree(treeFn)
	if len(weights) == 0 {
		weights = ali.Frequencies()
		log.Infof("Empirical frequencies: %v", weights)
	}
	model, err := phylo.NewModel(weights, scale)
	if err != nil {
		log.Fatal(err)
	}
	e, err := phylo.NewEngine(t, ali, model, budget)
	if err != nil {
		log.Fatal(err)
	}
	return e
}
