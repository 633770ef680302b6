package model

import (
	"fmt"
	"strings"
)

// MalformedBlockError is returned when a block header is found but the block
// is never closed by a bare "}" line.
type MalformedBlockError struct {
	Block string // Block name, e.g. "parameters"
	Line  int    // 1-based line number of the block header
}

func (e *MalformedBlockError) Error() string {
	return fmt.Sprintf("block %q opened on line %d is never closed", e.Block, e.Line)
}

// MissingParametersBlockError is returned when a document has no parameters
// block at all. There is nothing to reparameterize in such a model.
type MissingParametersBlockError struct {
	Name string // Document name
}

func (e *MissingParametersBlockError) Error() string {
	return fmt.Sprintf("model %s has no parameters block", e.Name)
}

// ExtractionFailure wraps a failure of the parameter name oracle, or
// inconsistent data returned by it (e.g. a name that is never declared).
type ExtractionFailure struct {
	File  string
	Names []string // Offending names, if any
	Err   error
}

func (e *ExtractionFailure) Error() string {
	var b strings.Builder
	b.WriteString("parameter extraction failed")
	if e.File != "" {
		fmt.Fprintf(&b, " for %s", e.File)
	}
	if len(e.Names) > 0 {
		fmt.Fprintf(&b, " (names: %s)", strings.Join(e.Names, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *ExtractionFailure) Unwrap() error { return e.Err }

// Cause lets pkg/errors.Cause see through the failure
func (e *ExtractionFailure) Cause() error { return e.Err }

// UnsupportedDeclarationError is returned for a declaration of a tracked
// parameter that can not be rewritten line-by-line: more than one
// declaration on the line, or a compound (array) type. It is also returned
// when a generated unit name is already used somewhere in the model.
type UnsupportedDeclarationError struct {
	Region Region // Region holding the line
	Line   int    // 1-based line number within the region
	Text   string
	Reason string
}

func (e *UnsupportedDeclarationError) Error() string {
	return fmt.Sprintf("unsupported declaration on %s line %d (%s): %q", e.Region, e.Line, e.Reason, e.Text)
}

// AlreadyConvertedError is returned when the input already contains
// reconstruction statements generated by a previous run. Conversion is not
// idempotent, so we refuse rather than double-transform.
type AlreadyConvertedError struct {
	Name   string
	Symbol string
}

func (e *AlreadyConvertedError) Error() string {
	return fmt.Sprintf("model %s already calls %s in transformed parameters: refusing to convert twice", e.Name, e.Symbol)
}
