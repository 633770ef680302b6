package transpile

import (
	"fmt"
	"regexp"

	"github.com/pkg/errors"

	"github.com/CraigKelly/unitcube/model"
)

// Rewritten is the parameters block body after rewriting
type Rewritten struct {
	Lines   []string             // New body lines
	Tracked []string             // Rewritten parameter names in declaration order
	Decls   []*model.Declaration // Original declaration of each tracked name
}

// RewriteParameters rewrites every declaration of a tracked parameter in the
// parameters block body: the annotation is replaced by the unit bounds and the
// name gets the unit prefix. Other lines are copied unchanged.
func RewriteParameters(body []string, params model.ParameterSet, sym Symbols) (*Rewritten, error) {
	rw := &Rewritten{
		Lines:   make([]string, 0, len(body)),
		Tracked: make([]string, 0, len(params)),
		Decls:   make([]*model.Declaration, 0, len(params)),
	}
	seen := make(map[string]bool, len(params))
	units := unitNames(params, sym)
	inComment := false

	for i, ln := range body {
		unsupported := func(reason string, args ...interface{}) error {
			return &model.UnsupportedDeclarationError{
				Region: model.Parameters,
				Line:   i + 1,
				Text:   ln,
				Reason: fmt.Sprintf(reason, args...),
			}
		}

		var code string
		code, inComment = maskComments(ln, inComment)

		decls, err := model.ParseDeclarations(code)
		if err != nil {
			// Not something we understand: fine unless it names a parameter
			if name := mentionedParam(code, params); name != "" {
				return nil, unsupported("can not parse declaration of %s", name)
			}
		}
		if name := mentionedUnit(code, units); name != "" {
			return nil, unsupported("%s is already used", name)
		}
		if err != nil {
			rw.Lines = append(rw.Lines, ln)
			continue
		}

		// Masking keeps every byte offset, so the real line can go back in
		for _, d := range decls {
			d.Text = ln
		}

		tracked := trackedIn(decls, params)
		if len(tracked) < 1 {
			rw.Lines = append(rw.Lines, ln)
			continue
		}

		if len(decls) > 1 || len(decls[0].Names) > 1 {
			return nil, unsupported("multiple declarations on one line")
		}

		d := decls[0]
		name := d.Names[0]
		if d.IsArray {
			return nil, unsupported("array declaration of %s", name)
		}
		if !model.BoundableTypes[d.Type] {
			return nil, unsupported("type %s of %s can not take bounds", d.Type, name)
		}
		if seen[name] {
			return nil, unsupported("duplicate declaration of %s", name)
		}
		seen[name] = true

		newLn, err := d.Rewrite(sym.Annotation(), sym.UnitName(name))
		if err != nil {
			return nil, errors.Wrapf(err, "Could not rewrite parameters line %d", i+1)
		}

		rw.Lines = append(rw.Lines, newLn)
		rw.Tracked = append(rw.Tracked, name)
		rw.Decls = append(rw.Decls, d)
	}

	// Every name from the oracle must have been declared in the block
	if len(seen) != len(params) {
		var missing []string
		for _, n := range params.Names() {
			if !seen[n] {
				missing = append(missing, n)
			}
		}
		return nil, &model.ExtractionFailure{
			Names: missing,
			Err:   errors.New("parameters reported but never declared in the parameters block"),
		}
	}

	return rw, nil
}

// CheckUnitNames returns an UnsupportedDeclarationError if any line of a
// region outside the parameters block uses a generated unit name.
func CheckUnitNames(region model.Region, lines []string, params model.ParameterSet, sym Symbols) error {
	units := unitNames(params, sym)
	inComment := false

	for i, ln := range lines {
		var code string
		code, inComment = maskComments(ln, inComment)
		if name := mentionedUnit(code, units); name != "" {
			return &model.UnsupportedDeclarationError{
				Region: region,
				Line:   i + 1,
				Text:   ln,
				Reason: fmt.Sprintf("%s is already used", name),
			}
		}
	}
	return nil
}

// unitNames is the set of generated unit names. A tracked name that is also
// the unit name of another tracked name is an error caught by the caller.
func unitNames(params model.ParameterSet, sym Symbols) map[string]bool {
	units := make(map[string]bool, len(params))
	for n := range params {
		units[sym.UnitName(n)] = true
	}
	return units
}

// trackedIn returns every tracked name declared by decls
func trackedIn(decls []*model.Declaration, params model.ParameterSet) []string {
	var found []string
	for _, d := range decls {
		for _, n := range d.Names {
			if params.Has(n) {
				found = append(found, n)
			}
		}
	}
	return found
}

var wordRE = regexp.MustCompile(`[A-Za-z][A-Za-z0-9_]*`)

// mentionedParam returns the first tracked name used as a word in code, or
// "" if there is none. Comments must already be masked.
func mentionedParam(code string, params model.ParameterSet) string {
	for _, w := range wordRE.FindAllString(code, -1) {
		if params.Has(w) {
			return w
		}
	}
	return ""
}

// mentionedUnit is mentionedParam for the generated unit names
func mentionedUnit(code string, units map[string]bool) string {
	for _, w := range wordRE.FindAllString(code, -1) {
		if units[w] {
			return w
		}
	}
	return ""
}

// maskComments replaces comment text in ln with spaces, so byte offsets into
// the line stay valid. inComment is true if the line starts inside a /* */
// comment; the second result tells whether the next line does.
func maskComments(ln string, inComment bool) (string, bool) {
	b := []byte(ln)
	for i := 0; i < len(b); i++ {
		if inComment {
			if b[i] == '*' && i+1 < len(b) && b[i+1] == '/' {
				b[i], b[i+1] = ' ', ' '
				i++
				inComment = false
				continue
			}
			b[i] = ' '
			continue
		}

		if b[i] != '/' || i+1 >= len(b) {
			continue
		}
		switch b[i+1] {
		case '/':
			for j := i; j < len(b); j++ {
				b[j] = ' '
			}
			return string(b), false
		case '*':
			b[i], b[i+1] = ' ', ' '
			i++
			inComment = true
		}
	}
	return string(b), inComment
}
