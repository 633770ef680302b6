// Package transpile rewrites a Stan model so that every sampled parameter
// lives on the unit interval. The physical parameters are rebuilt in the
// transformed parameters block by calling an inverse transform that the
// generated code leaves unresolved.
package transpile

import (
	"fmt"
	"regexp"

	"github.com/pkg/errors"
)

// Defaults for Symbols
const (
	DefaultInverseTransform = "INVERSE_TRANSFORM"
	DefaultUnitPrefix       = "unit_"
	DefaultLower            = "0"
	DefaultUpper            = "1"
	DefaultIndent           = "  "
)

// Symbols is the contract between the generated code and whatever resolves
// it: the inverse transform function name and the naming of unit variables.
type Symbols struct {
	InverseTransform string // Function called to rebuild a physical parameter
	UnitPrefix       string // Prefix for unit-space variables
	Lower            string // Lower bound of the unit domain
	Upper            string // Upper bound of the unit domain
	Indent           string // Indent of generated statements
	Declare          bool   // Declare physical parameters where they are rebuilt
}

// DefaultSymbols returns the standard symbol table
func DefaultSymbols() Symbols {
	return Symbols{
		InverseTransform: DefaultInverseTransform,
		UnitPrefix:       DefaultUnitPrefix,
		Lower:            DefaultLower,
		Upper:            DefaultUpper,
		Indent:           DefaultIndent,
		Declare:          true,
	}
}

var identRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Check returns an error if the symbols can not produce valid identifiers
func (s Symbols) Check() error {
	if !identRE.MatchString(s.InverseTransform) {
		return errors.Errorf("Invalid inverse transform name %q", s.InverseTransform)
	}
	if !identRE.MatchString(s.UnitPrefix) {
		return errors.Errorf("Invalid unit prefix %q", s.UnitPrefix)
	}
	if len(s.Lower) < 1 || len(s.Upper) < 1 {
		return errors.Errorf("Unit bounds must both be set (lower=%q, upper=%q)", s.Lower, s.Upper)
	}
	return nil
}

// Annotation is the bound annotation imposed on every unit variable
func (s Symbols) Annotation() string {
	return fmt.Sprintf("<lower=%s, upper=%s>", s.Lower, s.Upper)
}

// UnitName returns the unit-space name for a physical parameter
func (s Symbols) UnitName(name string) string {
	return s.UnitPrefix + name
}

// Call returns the inverse transform call for a physical parameter
func (s Symbols) Call(name string) string {
	return fmt.Sprintf("%s(%s)", s.InverseTransform, s.UnitName(name))
}

// Reconstruction returns the statement that rebuilds a physical parameter
func (s Symbols) Reconstruction(name string) string {
	return fmt.Sprintf("%s%s = %s;", s.Indent, name, s.Call(name))
}

// Definition returns the statement that declares a physical parameter with
// its original type and rebuilds it: "  vector[J] eta = F(unit_eta);"
func (s Symbols) Definition(typ string, name string) string {
	return fmt.Sprintf("%s%s %s = %s;", s.Indent, typ, name, s.Call(name))
}
