package bio

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSymbol is returned for characters which are neither
// alphabet symbols nor gaps.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Alphabet maps sequence characters to codes 0..Size()-1. Gaps and
// unknown nucleotides are coded as Size().
type Alphabet struct {
	letters string
	codes   [256]int
}

// DNA is the nucleotide alphabet.
var DNA = NewAlphabet("ACGT", "-.NX?")

// NewAlphabet creates an alphabet from the symbol letters and the
// letters which denote missing data.
func NewAlphabet(letters, gaps string) *Alphabet {
	a := &Alphabet{letters: letters}
	for i := range a.codes {
		a.codes[i] = -1
	}
	for i := 0; i < len(letters); i++ {
		a.codes[letters[i]] = i
		a.codes[strings.ToLower(letters[i:i+1])[0]] = i
	}
	for i := 0; i < len(gaps); i++ {
		a.codes[gaps[i]] = len(letters)
	}
	return a
}

// Size is the number of symbols.
func (a *Alphabet) Size() int {
	return len(a.letters)
}

// Gap returns the code for missing data.
func (a *Alphabet) Gap() uint8 {
	return uint8(len(a.letters))
}

// Code converts a character into its code.
func (a *Alphabet) Code(c byte) (uint8, error) {
	code := a.codes[c]
	if code < 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSymbol, c)
	}
	return uint8(code), nil
}

// Letter converts a code back into a character.
func (a *Alphabet) Letter(code uint8) byte {
	if int(code) >= len(a.letters) {
		return '-'
	}
	return a.letters[code]
}

// Alignment is a coded multiple sequence alignment.
type Alignment struct {
	Alphabet *Alphabet
	Names    []string
	Codes    [][]uint8
}

// NewAlignment codes sequences. All the sequences should have the same
// length.
func NewAlignment(seqs Sequences, a *Alphabet) (*Alignment, error) {
	if len(seqs) == 0 {
		return nil, errors.New("empty alignment")
	}
	ali := &Alignment{
		Alphabet: a,
		Names:    make([]string, len(seqs)),
		Codes:    make([][]uint8, len(seqs)),
	}
	width := len(seqs[0].Sequence)
	for i, seq := range seqs {
		if len(seq.Sequence) != width {
			return nil, fmt.Errorf("sequence %s has length %d, expected %d", seq.Name, len(seq.Sequence), width)
		}
		ali.Names[i] = seq.Name
		ali.Codes[i] = make([]uint8, width)
		for j := 0; j < width; j++ {
			code, err := a.Code(seq.Sequence[j])
			if err != nil {
				return nil, fmt.Errorf("sequence %s, position %d: %w", seq.Name, j+1, err)
			}
			ali.Codes[i][j] = code
		}
	}
	return ali, nil
}

// Width is the number of alignment columns.
func (ali *Alignment) Width() int {
	if len(ali.Codes) == 0 {
		return 0
	}
	return len(ali.Codes[0])
}

// Row returns the coded sequence by name.
func (ali *Alignment) Row(name string) ([]uint8, bool) {
	for i, n := range ali.Names {
		if n == name {
			return ali.Codes[i], true
		}
	}
	return nil, false
}

// NFixed calculates number of constant positions in the alignment.
func (ali *Alignment) NFixed() (f int) {
	f = ali.Width()
	for pos := 0; pos < ali.Width(); pos++ {
		for i := 1; i < len(ali.Codes); i++ {
			if ali.Codes[i][pos] != ali.Codes[0][pos] {
				f--
				break
			}
		}
	}
	return
}

// Frequencies returns empirical symbol frequencies, gaps are ignored.
// Each symbol gets a pseudocount of one.
func (ali *Alignment) Frequencies() []float64 {
	n := ali.Alphabet.Size()
	f := make([]float64, n)
	total := 0.0
	for i := range f {
		f[i] = 1
		total++
	}
	for _, row := range ali.Codes {
		for _, c := range row {
			if int(c) < n {
				f[c]++
				total++
			}
		}
	}
	for i := range f {
		f[i] /= total
	}
	return f
}
