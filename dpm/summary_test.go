package dpm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(iter int, clusters ...[]Index) Sample {
	s := Sample{Iteration: iter, Alpha: 1, NClusters: len(clusters), Partition: clusters}
	for _, cl := range clusters {
		s.Sizes = append(s.Sizes, len(cl))
	}
	return s
}

var summarySamples = []Sample{
	sample(1, []Index{{0, 0}}, []Index{{0, 2}}, []Index{{0, 4}}, []Index{{0, 6}}),
	sample(2, []Index{{0, 0}, {0, 2}}, []Index{{0, 4}}, []Index{{0, 6}}),
	sample(3, []Index{{0, 0}, {0, 2}, {0, 4}, {0, 6}}),
	sample(4, []Index{{0, 0}, {0, 2}, {0, 4}}, []Index{{0, 6}}),
	sample(5, []Index{{0, 0}, {0, 4}}, []Index{{0, 2}, {0, 6}}),
}

func TestMean(t *testing.T) {
	// cluster counts 4 3 1 2 2, mean 2.4
	s, err := Mean(summarySamples, 2)
	require.NoError(t, err)
	assert.InDelta(t, 2.4, s.Statistic, 1e-12)
	assert.Equal(t, 4, s.Representative.Iteration)
	assert.Equal(t, 6, s.Coverage)
}

func TestMedian(t *testing.T) {
	s, err := Median(summarySamples, 2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.Statistic)
	// sorted by count: 3 4 5 2 1
	assert.Equal(t, 5, s.Representative.Iteration)
	assert.Equal(t, 8, s.Coverage)

	s, err = Median(summarySamples[:4], 2)
	require.NoError(t, err)
	assert.Equal(t, 2.5, s.Statistic)
	// sorted counts 1 2 3 4, the lower middle sample
	assert.Equal(t, 4, s.Representative.Iteration)
	assert.Equal(t, SummaryMedian, s.Method)
}

func TestSummaryErrors(t *testing.T) {
	_, err := Mean(nil, 1)
	assert.ErrorIs(t, err, ErrNoSamples)
	_, err = Median(nil, 1)
	assert.ErrorIs(t, err, ErrNoSamples)
	_, err = Summarize("mode", summarySamples, 1)
	assert.Error(t, err)
}

func TestReadSamples(t *testing.T) {
	var buf bytes.Buffer
	for _, s := range summarySamples[:2] {
		require.NoError(t, WriteSample(&buf, s))
	}
	samples, err := ReadSamples(&buf)
	require.NoError(t, err)
	assert.Equal(t, summarySamples[:2], samples)

	_, err = ReadSamples(bytes.NewBufferString("{\"iteration\":1}\nnot json\n"))
	assert.Error(t, err)
}
