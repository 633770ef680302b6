package transpile

import (
	"strings"

	"github.com/CraigKelly/unitcube/model"
)

// Reconstruct returns one statement per declaration binding the physical name
// to the inverse transform of its unit variable. With sym.Declare the
// statement also declares the name with its original type, bounds and
// dimensions. Order follows decls.
func Reconstruct(decls []*model.Declaration, sym Symbols) []string {
	lines := make([]string, len(decls))
	for i, d := range decls {
		name := d.Names[0]
		if sym.Declare {
			lines[i] = sym.Definition(d.PhysicalType(), name)
		} else {
			lines[i] = sym.Reconstruction(name)
		}
	}
	return lines
}

// callsInverse returns true if any line already calls the inverse transform.
// That only happens when the input is the output of a previous conversion.
func callsInverse(lines []string, sym Symbols) bool {
	call := sym.InverseTransform + "("
	for _, ln := range lines {
		if strings.Contains(ln, call) {
			return true
		}
	}
	return false
}
