// Package synth generates random, well-formed Stan models in canonical
// layout together with the parameter set an oracle would report for them.
package synth

import (
	"fmt"

	"github.com/CraigKelly/unitcube/model"
	"github.com/CraigKelly/unitcube/rand"
)

// Model is a generated document and its ground truth
type Model struct {
	Doc            *model.Document
	Params         model.ParameterSet
	HasTransformed bool // Input has its own transformed parameters block
}

// Generator builds random models from a seed
type Generator struct {
	MaxParams int // Upper limit on parameters per model (at least 1)
	rng       *rand.Generator
}

// New returns a generator for the given seed
func New(seed int64) *Generator {
	return &Generator{
		MaxParams: 6,
		rng:       rand.NewGenerator(seed),
	}
}

var stems = []string{"mu", "sigma", "tau", "alpha", "beta", "theta", "lambda", "kappa", "phi", "rho"}

var types = []string{"real", "vector", "row_vector", "matrix"}

var bounds = []string{
	"",
	"<lower=0>",
	"<upper=10>",
	"<lower=-1, upper=1>",
	"<offset=1, multiplier=2>",
	"<lower=0.5e-3>",
}

func dims(typ string) string {
	switch typ {
	case "vector", "row_vector":
		return "[N]"
	case "matrix":
		return "[N, 2]"
	}
	return ""
}

// Model generates the next random model
func (g *Generator) Model(name string) *Model {
	r := g.rng
	maxParams := g.MaxParams
	if maxParams < 1 {
		maxParams = 1
	}

	var lines []string
	if r.Chance(0.2) {
		lines = append(lines, "functions {", "  real twice(real x) {", "    return 2 * x;", "  }", "}")
	}
	lines = append(lines, "data {", "  int<lower=1> N;", "  vector[N] y;", "}")
	if r.Chance(0.3) {
		lines = append(lines, "transformed data {", "  real ybar = mean(y);", "}")
	}

	// Parameters, plus an occasional untracked-looking comment or blank line
	count := r.Between(1, maxParams)
	ps := make(model.ParameterSet, count)
	names := make([]string, 0, count)

	lines = append(lines, model.BlockHeader(model.ParametersBlock))
	for i := 0; i < count; i++ {
		typ := r.Pick(types)
		n := fmt.Sprintf("%s%d", r.Pick(stems), i+1)

		if r.Chance(0.15) {
			lines = append(lines, fmt.Sprintf("  // prior scale for %s", n))
		}
		if r.Chance(0.1) {
			lines = append(lines, "")
		}

		decl := fmt.Sprintf("  %s%s%s %s;", typ, r.Pick(bounds), dims(typ), n)
		if r.Chance(0.2) {
			decl += " // " + typ
		}
		lines = append(lines, decl)

		// Every generated name is unique so Add can not fail
		_ = ps.Add(model.Parameter{Name: n, Type: typ})
		names = append(names, n)
	}
	lines = append(lines, model.BlockEnd)

	hasTP := r.Chance(0.5)
	if hasTP {
		lines = append(lines, model.BlockHeader(model.TransformedParametersBlock))
		for i := r.Between(1, 3); i > 0; i-- {
			n := names[r.Intn(len(names))]
			lines = append(lines, fmt.Sprintf("  real t%d = sum(%s) * 2;", i, n))
		}
		lines = append(lines, model.BlockEnd)
	}

	lines = append(lines, "model {")
	for _, n := range names {
		lines = append(lines, fmt.Sprintf("  target += normal_lpdf(to_vector(%s) | 0, 1);", n))
	}
	lines = append(lines, "  y ~ normal(0, 1);", model.BlockEnd)

	if r.Chance(0.3) {
		lines = append(lines, "generated quantities {", "  real yrep = normal_rng(0, 1);", model.BlockEnd)
	}

	return &Model{
		Doc:            &model.Document{Name: name, Lines: lines},
		Params:         ps,
		HasTransformed: hasTP,
	}
}
