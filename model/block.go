package model

import (
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Region identifies one of the four contiguous parts of a converted document
type Region int

// Regions in document order
const (
	Preamble Region = iota
	Parameters
	TransformedParameters
	Epilogue
)

func (r Region) String() string {
	switch r {
	case Preamble:
		return "preamble"
	case Parameters:
		return "parameters"
	case TransformedParameters:
		return "transformed parameters"
	case Epilogue:
		return "epilogue"
	}
	return "unknown"
}

// BlockEnd is the line that closes a block in canonical source
const BlockEnd = "}"

// Partition is the three-way split of some lines around a named block.
// Before + Header + Body + BlockEnd + After reconstructs the input when the
// block was found. When the block is missing, Before and Body are empty and
// After holds every line.
type Partition struct {
	Block  string   // Block name that was searched for
	Found  bool     // True if the block header was present
	Line   int      // 1-based line number of the header (0 if not found)
	Before []string // Lines before the header
	Header string   // Header line exactly as found
	Body   []string // Lines strictly between the header and the closing brace
	After  []string // Lines after the closing brace
}

// BlockHeader returns the canonical header line for a block name
func BlockHeader(block string) string {
	return block + " {"
}

// IsBlockHeader returns true if ln opens the named block
func IsBlockHeader(ln string, block string) bool {
	return strings.HasPrefix(ln, BlockHeader(block))
}

// SplitBlock partitions a document around the named block
func SplitBlock(d *Document, block string) (*Partition, error) {
	return SplitLines(d.Lines, block)
}

// SplitLines partitions lines around the first occurrence of the named
// block. The block body ends at the next line that is exactly "}", so bodies
// can not contain a bare closing brace at column 0. The returned slices
// share storage with lines and must not be modified.
func SplitLines(lines []string, block string) (*Partition, error) {
	p := &Partition{Block: block}
	lr := NewLineReader(lines)

	before, headerLine, err := lr.ReadUntil(func(ln string) bool {
		return IsBlockHeader(ln, block)
	})
	if err == io.EOF {
		p.After = lines
		return p, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "Error searching for block %s", block)
	}

	p.Found = true
	p.Line = headerLine
	p.Before = before
	p.Header = lines[headerLine-1]

	body, _, err := lr.ReadUntil(func(ln string) bool {
		return ln == BlockEnd
	})
	if err == io.EOF {
		return nil, &MalformedBlockError{Block: block, Line: headerLine}
	} else if err != nil {
		return nil, errors.Wrapf(err, "Error reading block %s", block)
	}

	p.Body = body
	p.After = lr.Rest()

	return p, nil
}
