package tree

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// IsSpecial is true for newick control characters.
func IsSpecial(c rune) bool {
	switch c {
	case '(', ')', ':', ';', ',':
		return true
	}
	return false
}

// NewickSplit is a bufio.SplitFunc splitting newick text into names,
// numbers and control characters.
func NewickSplit(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	// Skip leading spaces; and return 1-char tokens.
	for width := 0; start < len(data); start += width {
		var r rune
		r, width = utf8.DecodeRune(data[start:])
		if IsSpecial(r) {
			return start + width, data[start : start+width], nil
		}
		if !unicode.IsSpace(r) {
			break
		}
	}
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	// Scan until space or special character.
	for width, i := 0, start; i < len(data); i += width {
		var r rune
		r, width = utf8.DecodeRune(data[i:])
		if unicode.IsSpace(r) || IsSpecial(r) {
			return i, data[start:i], nil
		}
	}
	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	// Request more data.
	return 0, nil, nil
}

// ParseNewick reads a tree in the newick format. The returned tree is
// numbered with New and validated.
func ParseNewick(rd io.Reader) (*Tree, error) {
	scanner := bufio.NewScanner(rd)
	scanner.Split(NewickSplit)

	root := &Node{}
	node := root
	length := false

Scan:
	for scanner.Scan() {
		text := scanner.Text()
		switch text {
		case "(":
			subNode := &Node{}
			node.AddChild(subNode)
			node = subNode
		case ",":
			if node.Parent == nil {
				return nil, errors.New("top level comma mismatch")
			}
			subNode := &Node{}
			node.Parent.AddChild(subNode)
			node = subNode
		case ")":
			if node.Parent == nil {
				return nil, errors.New("brackets mismatch")
			}
			node = node.Parent
		case ":":
			length = true
		case ";":
			break Scan
		default:
			if length {
				l, err := strconv.ParseFloat(text, 64)
				if err != nil {
					return nil, err
				}
				node.BranchLength = l
				length = false
			} else {
				node.Name = text
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	t := New(root)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
