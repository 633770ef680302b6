package transpile

import (
	"github.com/CraigKelly/unitcube/model"
)

// Parts are the pieces of an output document, in output order
type Parts struct {
	Preamble              []string // Everything before the parameters block, verbatim
	Parameters            []string // Rewritten parameters body
	Between               []string // Lines between the two blocks in the input, verbatim
	Reconstruction        []string // Generated physical assignments
	TransformedParameters []string // Original transformed parameters body, verbatim
	Epilogue              []string // Everything after the last block, verbatim
}

// Assemble concatenates the parts into a new document. The transformed
// parameters block is always emitted, even if both of its parts are empty.
func Assemble(name string, p Parts) *model.Document {
	size := len(p.Preamble) + len(p.Parameters) + len(p.Between) +
		len(p.Reconstruction) + len(p.TransformedParameters) + len(p.Epilogue) + 4

	lines := make([]string, 0, size)
	lines = append(lines, p.Preamble...)
	lines = append(lines, model.BlockHeader(model.ParametersBlock))
	lines = append(lines, p.Parameters...)
	lines = append(lines, model.BlockEnd)
	lines = append(lines, p.Between...)
	lines = append(lines, model.BlockHeader(model.TransformedParametersBlock))
	lines = append(lines, p.Reconstruction...)
	lines = append(lines, p.TransformedParameters...)
	lines = append(lines, model.BlockEnd)
	lines = append(lines, p.Epilogue...)

	return &model.Document{
		Name:  name,
		Lines: lines,
	}
}
