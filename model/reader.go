package model

import (
	"io"
	"strings"
)

// LineReader is just a simple sequential reader over the lines of a document.
type LineReader struct {
	Pos   int
	Lines []string
}

// NewLineReader constructs a new line reader around the given lines. The
// lines are not copied.
func NewLineReader(lines []string) *LineReader {
	return &LineReader{0, lines}
}

// Read returns the next line
func (lr *LineReader) Read() (string, error) {
	if lr.Pos >= len(lr.Lines) {
		return "", io.EOF
	}
	p := lr.Pos
	lr.Pos++
	return lr.Lines[p], nil
}

// ReadUntil consumes lines up to and including the first line matching
// match. It returns the lines before the match and the 1-based line number of
// the match. On io.EOF the returned lines are everything that was left.
func (lr *LineReader) ReadUntil(match func(string) bool) ([]string, int, error) {
	start := lr.Pos
	for {
		ln, err := lr.Read()
		if err != nil {
			return lr.Lines[start:lr.Pos], 0, err
		}
		if match(ln) {
			return lr.Lines[start : lr.Pos-1], lr.Pos, nil
		}
	}
}

// Rest returns all unread lines and advances to the end
func (lr *LineReader) Rest() []string {
	rest := lr.Lines[lr.Pos:]
	lr.Pos = len(lr.Lines)
	return rest
}

// splitLines is the inverse of Document.String. CRLF line endings are read
// as LF, so converted output always uses LF.
func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
