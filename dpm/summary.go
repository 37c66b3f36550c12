package dpm

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// Summary methods.
const (
	SummaryMean   = "mean"
	SummaryMedian = "median"
)

// ErrNoSamples is returned when summarizing an empty sample list.
var ErrNoSamples = errors.New("no samples")

// Summary is a point estimate over sampled partitions. The statistic
// is computed over the number of clusters per sample, the
// representative is the sample matching the statistic.
type Summary struct {
	Method         string  `json:"method"`
	Statistic      float64 `json:"statistic"`
	Representative Sample  `json:"representative"`
	// Coverage is the number of columns in clusters with more than
	// one member.
	Coverage int `json:"coverage"`
}

func counts(samples []Sample) stats.Float64Data {
	data := make(stats.Float64Data, len(samples))
	for i, s := range samples {
		data[i] = float64(s.NClusters)
	}
	return data
}

// coverage counts columns of the elements in non-singleton clusters.
func coverage(s Sample, length int) (c int) {
	for _, cl := range s.Partition {
		if len(cl) > 1 {
			c += len(cl) * length
		}
	}
	return
}

// Mean returns the earliest sample whose cluster count is the
// closest to the average cluster count.
func Mean(samples []Sample, length int) (*Summary, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	data := counts(samples)
	mean, err := stats.Mean(data)
	if err != nil {
		return nil, err
	}
	best := 0
	for i, v := range data {
		if math.Abs(v-mean) < math.Abs(data[best]-mean) {
			best = i
		}
	}
	return &Summary{
		Method:         SummaryMean,
		Statistic:      mean,
		Representative: samples[best],
		Coverage:       coverage(samples[best], length),
	}, nil
}

// Median returns the middle sample when the samples are stably sorted
// by the cluster count; for an even number of samples the lower one
// is used.
func Median(samples []Sample, length int) (*Summary, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	median, err := stats.Median(counts(samples))
	if err != nil {
		return nil, err
	}
	order := make([]int, len(samples))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return samples[order[i]].NClusters < samples[order[j]].NClusters
	})
	rep := samples[order[(len(order)-1)/2]]
	return &Summary{
		Method:         SummaryMedian,
		Statistic:      median,
		Representative: rep,
		Coverage:       coverage(rep, length),
	}, nil
}

// Summarize computes the summary by the method name.
func Summarize(method string, samples []Sample, length int) (*Summary, error) {
	switch method {
	case SummaryMean:
		return Mean(samples, length)
	case SummaryMedian:
		return Median(samples, length)
	}
	return nil, fmt.Errorf("unknown summary method %q", method)
}

// WriteSample writes a sample as one JSON line.
func WriteSample(w io.Writer, s Sample) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// ReadSamples reads samples written by WriteSample.
func ReadSamples(rd io.Reader) ([]Sample, error) {
	var samples []Sample
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 64*1024), 1<<30)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var s Sample
		if err := json.Unmarshal(scanner.Bytes(), &s); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	return samples, scanner.Err()
}
