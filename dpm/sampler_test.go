package dpm

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Davydov/phydpm/bio"
	"bitbucket.org/Davydov/phydpm/phylo"
	"bitbucket.org/Davydov/phydpm/poly"
	"bitbucket.org/Davydov/phydpm/tree"
)

func engine(t *testing.T, newick string, seqs ...string) *phylo.Engine {
	tr, err := tree.ParseNewick(strings.NewReader(newick))
	require.NoError(t, err)
	var ss bio.Sequences
	for i, s := range seqs {
		ss = append(ss, bio.Sequence{Name: string(rune('a' + i)), Sequence: s})
	}
	ali, err := bio.NewAlignment(ss, bio.DNA)
	require.NoError(t, err)
	e, err := phylo.NewEngine(tr, ali, phylo.UniformModel(4), 0)
	require.NoError(t, err)
	return e
}

const tree3 = "((a:0.1,b:0.1):0.1,c:0.2);"

func randomEngine(t *testing.T, seed int64, width int) *phylo.Engine {
	rng := rand.New(rand.NewSource(seed))
	seqs := make([]string, 3)
	for i := range seqs {
		b := make([]byte, width)
		for j := range b {
			b[j] = "ACGT"[rng.Intn(4)]
		}
		seqs[i] = string(b)
	}
	return engine(t, tree3, seqs...)
}

func newSampler(t *testing.T, cfg Config, engines ...*phylo.Engine) *Sampler {
	s, err := NewSampler(context.Background(), cfg, engines)
	require.NoError(t, err)
	return s
}

func TestSamplerInvariant(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MotifLength = 2
	cfg.Budget = 10
	for _, init := range []string{InitSingletons, InitSingle} {
		cfg.Init = init
		s := newSampler(t, cfg, randomEngine(t, 1, 24), randomEngine(t, 2, 10))
		require.Equal(t, 17, s.Partition().Len())
		require.NoError(t, s.Partition().Validate())
		for i := 0; i < 5; i++ {
			for e := 0; e < s.Partition().Len(); e++ {
				require.NoError(t, s.Step(e))
				require.NoError(t, s.Partition().Validate())
			}
		}
	}
}

func twoIndexSampler(t *testing.T, alpha float64, seed int64) *Sampler {
	cfg := DefaultConfig()
	cfg.Alpha = alpha
	cfg.MotifLength = 1
	cfg.Iterations = 500
	cfg.Seed = seed
	return newSampler(t, cfg, engine(t, tree3, "AC", "AC", "AG"))
}

func clusterFraction(t *testing.T, s *Sampler, k int) float64 {
	n, total := 0, 0
	err := s.Run(context.Background(), func(sample Sample) error {
		total++
		if sample.NClusters == k {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return float64(n) / float64(total)
}

func TestConcentrationLimits(t *testing.T) {
	s := twoIndexSampler(t, 1e8, 1)
	assert.Greater(t, clusterFraction(t, s, 2), 0.99)

	s = twoIndexSampler(t, 1e-8, 1)
	assert.Greater(t, clusterFraction(t, s, 1), 0.99)
}

func runSamples(t *testing.T, cfg Config) []Sample {
	s := newSampler(t, cfg, randomEngine(t, 3, 30))
	var samples []Sample
	require.NoError(t, s.Run(context.Background(), func(sample Sample) error {
		samples = append(samples, sample)
		return nil
	}))
	return samples
}

func TestDeterminism(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MotifLength = 3
	cfg.Iterations = 20
	cfg.Seed = 42
	s1 := runSamples(t, cfg)
	s2 := runSamples(t, cfg)
	require.Len(t, s1, 20)
	assert.Equal(t, s1, s2)

	cfg.SampleAlpha = true
	s1 = runSamples(t, cfg)
	s2 = runSamples(t, cfg)
	assert.Equal(t, s1, s2)
	for _, s := range s1 {
		assert.Greater(t, s.Alpha, 0.0)
	}
}

func TestRestore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MotifLength = 3
	cfg.Iterations = 10
	samples := runSamples(t, cfg)
	state := samples[4]

	run := func() []Sample {
		s := newSampler(t, cfg, randomEngine(t, 3, 30))
		require.NoError(t, s.Restore(state.Iteration, state.Alpha, state.Partition))
		assert.Equal(t, state.Partition, s.Partition().Export())
		var res []Sample
		require.NoError(t, s.Run(context.Background(), func(sample Sample) error {
			res = append(res, sample)
			return nil
		}))
		return res
	}
	r1 := run()
	r2 := run()
	assert.Len(t, r1, cfg.Iterations-state.Iteration)
	assert.Equal(t, r1, r2)

	s := newSampler(t, cfg, randomEngine(t, 3, 30))
	err := s.Restore(1, 1, [][]Index{{{0, 0}}})
	assert.ErrorIs(t, err, ErrInvalidPartition)
}

func TestSamplerErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MotifLength = 5
	_, err := NewSampler(context.Background(), cfg, []*phylo.Engine{engine(t, tree3, "AC", "AC", "AG")})
	var ce *ConfigError
	assert.True(t, errors.As(err, &ce))

	// without mutations the second column is impossible
	cfg.MotifLength = 1
	cfg.Iterations = 1
	s := newSampler(t, cfg, engine(t, "(a:0,b:0,c:0);", "AC", "AC", "AG"))
	err = s.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoAssignment)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s = newSampler(t, cfg, engine(t, tree3, "AC", "AC", "AG"))
	assert.ErrorIs(t, s.Run(ctx, nil), context.Canceled)

	s = newSampler(t, cfg, engine(t, tree3, "AC", "AC", "AG"))
	stop := errors.New("stop")
	assert.ErrorIs(t, s.Run(context.Background(), func(Sample) error { return stop }), stop)
}

func TestExponentOverflowAborts(t *testing.T) {
	p, err := poly.Normalize(4, []poly.Term{{Coefficient: 1, Exponent: poly.Exponent{40000, 0, 0, 0}}})
	require.NoError(t, err)
	cols := [][]*poly.Incomplete{{poly.Complete(p), poly.Complete(p)}}
	cfg := DefaultConfig()
	cfg.MotifLength = 1
	cfg.Init = InitSingle
	_, err = NewColumnSampler(cfg, cols)
	assert.ErrorIs(t, err, poly.ErrExponentOverflow)

	cfg.Init = InitSingletons
	cfg.Alpha = 1e-8
	s, err := NewColumnSampler(cfg, cols)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Run(context.Background(), nil), poly.ErrExponentOverflow)
}
