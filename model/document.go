package model

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Block header names - these match the Stan grammar
const (
	ParametersBlock            = "parameters"
	TransformedParametersBlock = "transformed parameters"
)

// Formatter implementors return the canonical text of a model file. The
// block splitter depends on canonical layout: block headers and their
// closing braces start at column 0.
type Formatter interface {
	Format(ctx context.Context, filename string) (string, error)
}

// Oracle implementors report the parameters declared by a model file. The
// result is treated as ground truth for which declarations get rewritten.
type Oracle interface {
	Names(ctx context.Context, filename string) (ParameterSet, error)
}

// Document is one model source file as an ordered list of lines. Documents
// are never modified in place: every transformation builds a new one.
type Document struct {
	Name  string   // Model name
	Lines []string // Source lines without trailing newlines
}

// NewDocument splits text into a named document
func NewDocument(name string, text string) *Document {
	return &Document{
		Name:  name,
		Lines: splitLines(text),
	}
}

// NewDocumentFromFile reads and canonicalizes the given file
func NewDocumentFromFile(ctx context.Context, f Formatter, filename string) (*Document, error) {
	text, err := f.Format(ctx, filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not FORMAT model from %s", filename)
	}

	// Name the model from the file
	base := filepath.Base(filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	return NewDocument(name, text), nil
}

// String returns the document text. Lines are joined with "\n" and there is
// no trailing newline.
func (d *Document) String() string {
	return strings.Join(d.Lines, "\n")
}

// Clone returns a copy of the document
func (d *Document) Clone() *Document {
	cp := &Document{
		Name:  d.Name,
		Lines: make([]string, len(d.Lines)),
	}
	copy(cp.Lines, d.Lines)
	return cp
}

// Check returns an error if the document can not be converted: it must have a
// closed parameters block, and a transformed parameters block (if any) must be
// closed too.
func (d *Document) Check() error {
	params, err := SplitBlock(d, ParametersBlock)
	if err != nil {
		return err
	}
	if !params.Found {
		return &MissingParametersBlockError{Name: d.Name}
	}

	_, err = SplitBlock(d, TransformedParametersBlock)
	return err
}
