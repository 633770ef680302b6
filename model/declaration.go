package model

import (
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// Declaration is one variable declaration statement found on a single line
// of a block body, e.g. "vector<lower=0>[N] theta;". All offsets are byte
// offsets into Text.
type Declaration struct {
	Text      string   // Full source line the declaration was parsed from
	ArrayDims string   // Raw array dimensions ("N" in "array[N] real x;"), empty if not an array
	IsArray   bool     // True for array declarations
	Type      string   // Base type token: real, vector, matrix...
	Bounds    string   // Raw text between < and >, empty if no annotation
	HasBounds bool     // True if an angle-bracket annotation was present
	Dims      string   // Raw dimensions after the type ("N" in "vector[N]")
	Names     []string // Declared identifiers: more than one for "real a, b;"

	typeStart int // start of the type token
	typeEnd   int // end of the type token
	boundsEnd int // end of the annotation (== typeEnd without one)
	nameStart int // start of the first identifier
	nameEnd   int // end of the first identifier
}

// BoundableTypes are the base types that accept a <lower, upper> annotation
var BoundableTypes = map[string]bool{
	"real":       true,
	"vector":     true,
	"row_vector": true,
	"matrix":     true,
}

// Rewrite returns Text with the annotation replaced by annotation (which
// should include the angle brackets) and the identifier renamed. Everything
// else on the line (indentation, dimensions, comments) is kept.
func (d *Declaration) Rewrite(annotation string, name string) (string, error) {
	if len(d.Names) != 1 {
		return "", errors.Errorf("Can only rewrite a single-name declaration, found %d names", len(d.Names))
	}

	var b strings.Builder
	b.Grow(len(d.Text) + len(annotation) + len(name))
	b.WriteString(d.Text[:d.typeEnd])
	b.WriteString(annotation)
	b.WriteString(d.Text[d.boundsEnd:d.nameStart])
	b.WriteString(name)
	b.WriteString(d.Text[d.nameEnd:])
	return b.String(), nil
}

// PhysicalType returns the declared type as written, without the name:
// "vector<lower=0>[N]" for "  vector<lower=0>[N] theta;". Bounds are kept
// unless they are an offset/multiplier annotation, which only applies to
// sampled parameters.
func (d *Declaration) PhysicalType() string {
	if affineRE.MatchString(d.Bounds) {
		return strings.TrimSpace(d.Text[d.typeStart:d.typeEnd] + d.Text[d.boundsEnd:d.nameStart])
	}
	return strings.TrimSpace(d.Text[d.typeStart:d.nameStart])
}

var affineRE = regexp.MustCompile(`\b(offset|multiplier)\s*=`)

// ParseDeclarations parses every declaration statement on a single line. A
// line with no statements (blank or comment only) returns an empty slice. A
// line that is not made of declarations returns an error.
func ParseDeclarations(line string) ([]*Declaration, error) {
	parsed, err := declParser.ParseString("", line)
	if err != nil {
		return nil, errors.Wrapf(err, "Not a declaration line: %q", line)
	}

	decls := make([]*Declaration, 0, len(parsed.Decls))
	for _, pd := range parsed.Decls {
		d := &Declaration{
			Text:      line,
			Type:      pd.Type.Name,
			typeStart: pd.Type.Pos.Offset,
			typeEnd:   pd.Type.EndPos.Offset,
			boundsEnd: pd.Type.EndPos.Offset,
			nameStart: pd.Names[0].Pos.Offset,
			nameEnd:   pd.Names[0].EndPos.Offset,
		}

		if pd.Array != nil {
			d.IsArray = true
			d.ArrayDims = pd.Array.inner(line)
		}
		if pd.Bounds != nil {
			d.HasBounds = true
			d.Bounds = pd.Bounds.inner(line)
			d.boundsEnd = pd.Bounds.EndPos.Offset
		}
		if pd.Dims != nil {
			d.Dims = pd.Dims.inner(line)
		}
		for _, n := range pd.Names {
			d.Names = append(d.Names, n.Name)
		}

		decls = append(decls, d)
	}

	return decls, nil
}

// declLine is the participle grammar for one line of a block body. It only
// knows about declarations: any other statement fails to parse, which
// callers treat as "not a declaration".
//
//nolint:govet // participle grammar tags are not standard struct tags
type declLine struct {
	Decls []*declNode `@@*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type declNode struct {
	Array  *bracketed   `( "array" @@ )?`
	Type   *identNode   `@@`
	Bounds *angled      `@@?`
	Dims   *bracketed   `@@?`
	Names  []*identNode `@@ ( "," @@ )* ";"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type identNode struct {
	Pos    lexer.Position
	Name   string `@Ident`
	EndPos lexer.Position
}

//nolint:govet // participle grammar tags are not standard struct tags
type angled struct {
	Pos    lexer.Position
	Inner  []string `"<" ( @~">" )* ">"`
	EndPos lexer.Position
}

func (a *angled) inner(line string) string {
	return innerText(line, a.Pos.Offset, a.EndPos.Offset)
}

//nolint:govet // participle grammar tags are not standard struct tags
type bracketed struct {
	Pos    lexer.Position
	Inner  []string `"[" ( @~"]" )* "]"`
	EndPos lexer.Position
}

func (b *bracketed) inner(line string) string {
	return innerText(line, b.Pos.Offset, b.EndPos.Offset)
}

// innerText strips the single-character delimiters from line[start:end]
func innerText(line string, start int, end int) string {
	if end-start < 2 {
		return ""
	}
	return strings.TrimSpace(line[start+1 : end-1])
}

// declLexer is deliberately loose: it only has to separate identifiers,
// numbers and punctuation well enough to find the type, the annotation, the
// dimensions and the names.
var declLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*.*?\*/|#[^\n]*`},
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Ident", Pattern: `[A-Za-z][A-Za-z0-9_]*`},
	{Name: "Number", Pattern: `(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{Name: "Operator", Pattern: `<=|>=|==|!=|&&|\|\||\.\*|\./|'`},
	{Name: "Punct", Pattern: `[-+*/^%!=<>,;:?\[\](){}|&.\\]`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
})

var declParser = participle.MustBuild[declLine](
	participle.Lexer(declLexer),
	participle.Elide("Whitespace", "Comment"),
)
