// Package dpm implements a Dirichlet process mixture sampler which
// groups alignment positions into clusters sharing a motif. Every
// cluster position has its own symbol distribution, which is
// integrated out with a Dirichlet prior.
package dpm

import (
	"fmt"

	"github.com/op/go-logging"
)

// log is the package logger.
var log = logging.MustGetLogger("dpm")

// Index is a motif start: alignment number and alignment column.
type Index struct {
	Seq int `json:"seq"`
	Pos int `json:"pos"`
}

func (idx Index) String() string {
	return fmt.Sprintf("%d:%d", idx.Seq, idx.Pos)
}

// Less orders indices by alignment, then by column.
func (idx Index) Less(o Index) bool {
	if idx.Seq != o.Seq {
		return idx.Seq < o.Seq
	}
	return idx.Pos < o.Pos
}

// Domain returns non-overlapping motif starts 0, L, 2L, ... for every
// alignment. Index (s, p) covers columns p..p+L-1 of alignment s.
func Domain(widths []int, length int) []Index {
	var domain []Index
	if length < 1 {
		return nil
	}
	for s, w := range widths {
		for p := 0; p+length <= w; p += length {
			domain = append(domain, Index{s, p})
		}
	}
	return domain
}
