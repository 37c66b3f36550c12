// Package bio provides sequences, alphabets and alignments.
package bio

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Sequence is a type which is intended for storing nucleotide
// sequence with it's name.
type Sequence struct {
	Name     string
	Sequence string
}

// Sequences stores multiple sequences. E.g. a sequence alignment.
type Sequences []Sequence

// ParseFasta parses FASTA sequences from a reader.
func ParseFasta(rd io.Reader) (seqs Sequences, err error) {
	seqs = make(Sequences, 0, 10)
	scanner := bufio.NewScanner(rd)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line[0] == '>' {
			seq := Sequence{Name: strings.TrimSpace(line[1:])}
			seqs = append(seqs, seq)
		} else {
			if len(seqs) == 0 {
				return nil, errors.New("sequence w/o prefix")
			}
			line = strings.ToUpper(strings.Replace(line, " ", "", -1))
			seqs[len(seqs)-1].Sequence += line
		}
	}
	return seqs, scanner.Err()
}

// Wrap inputs a string and wraps it so string length is n characters
// or less.
func Wrap(seq string, n int) (s string) {
	for i := 0; i < len(seq); i += n {
		end := i + n
		if end > len(seq) {
			end = len(seq)
		}
		s += seq[i:end] + "\n"
	}
	return
}

// String returns a sequence in FASTA format.
func (seq Sequence) String() (s string) {
	s = ">" + seq.Name + "\n" + Wrap(seq.Sequence, 80)
	return
}

// String returns sequences in FASTA format.
func (seqs Sequences) String() (s string) {
	for _, seq := range seqs {
		s += seq.String()
	}
	if len(s) == 0 {
		return s
	}
	return s[:len(s)-1]
}
