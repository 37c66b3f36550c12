package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Davydov/phydpm/checkpoint"
	"bitbucket.org/Davydov/phydpm/dpm"
)

func writeSamples(t *testing.T, fn string, from, to int) {
	f, err := os.Create(fn)
	require.NoError(t, err)
	defer f.Close()
	for i := from; i <= to; i++ {
		require.NoError(t, dpm.WriteSample(f, dpm.Sample{Iteration: i, Alpha: 1, NClusters: 1}))
	}
}

func sampleIterations(samples []dpm.Sample) (res []int) {
	for _, s := range samples {
		res = append(res, s.Iteration)
	}
	return
}

func TestPreviousSamplesFromUnfinishedRun(t *testing.T) {
	out := filepath.Join(t.TempDir(), "samples.json")

	samples, err := previousSamples(out, 4)
	require.NoError(t, err)
	assert.Empty(t, samples)

	// interrupted at iteration 6, checkpoint at 4
	writeSamples(t, out+".tmp", 1, 6)
	samples, err = previousSamples(out, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, sampleIterations(samples))

	// a finished output of an older run is ignored while the
	// temporary file exists
	writeSamples(t, out, 1, 10)
	samples, err = previousSamples(out, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, sampleIterations(samples))

	require.NoError(t, os.Remove(out+".tmp"))
	samples, err = previousSamples(out, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, sampleIterations(samples))
}

func TestResolveSeed(t *testing.T) {
	seed, resume := resolveSeed(5, nil)
	assert.Equal(t, int64(5), seed)
	assert.False(t, resume)

	seed, resume = resolveSeed(-1, nil)
	assert.NotEqual(t, int64(-1), seed)
	assert.False(t, resume)

	data := &checkpoint.Data{Seed: 42, Iter: 3}
	seed, resume = resolveSeed(-1, data)
	assert.Equal(t, int64(42), seed)
	assert.True(t, resume)

	seed, resume = resolveSeed(42, data)
	assert.Equal(t, int64(42), seed)
	assert.True(t, resume)

	seed, resume = resolveSeed(7, data)
	assert.Equal(t, int64(7), seed)
	assert.False(t, resume)
}
