// Package verify checks a converted model against its input.
package verify

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/CraigKelly/unitcube/model"
	"github.com/CraigKelly/unitcube/transpile"
)

// regions is a document split into its four regions
type regions struct {
	preamble []string
	params   []string
	tparams  []string
	epilogue []string
}

func split(d *model.Document) (*regions, error) {
	pp, err := model.SplitBlock(d, model.ParametersBlock)
	if err != nil {
		return nil, err
	}
	if !pp.Found {
		return nil, &model.MissingParametersBlockError{Name: d.Name}
	}
	tp, err := model.SplitLines(pp.After, model.TransformedParametersBlock)
	if err != nil {
		return nil, err
	}

	return &regions{
		preamble: pp.Before,
		params:   pp.Body,
		tparams:  tp.Body,
		epilogue: tp.After,
	}, nil
}

// Check returns every violated invariant between an input document, the
// parameter set used to convert it, and the converted output. A nil return
// means the output is a valid conversion.
func Check(in *model.Document, params model.ParameterSet, out *model.Document, sym transpile.Symbols) error {
	src, err := split(in)
	if err != nil {
		return errors.Wrap(err, "Input is not convertible")
	}
	dst, err := split(out)
	if err != nil {
		return errors.Wrap(err, "Output is malformed")
	}

	return multierr.Combine(
		checkBlocks(out),
		checkBounds(dst, params, sym),
		checkReconstruction(src, dst, params, sym),
		checkPreserved(src, dst),
	)
}

// checkBlocks: exactly one parameters and one transformed parameters block
func checkBlocks(out *model.Document) error {
	var errs error
	for _, block := range []string{model.ParametersBlock, model.TransformedParametersBlock} {
		count := 0
		for _, ln := range out.Lines {
			if model.IsBlockHeader(ln, block) {
				count++
			}
		}
		if count != 1 {
			errs = multierr.Append(errs, errors.Errorf("Output has %d %q blocks, expected 1", count, block))
		}
	}
	return errs
}

// checkBounds: every tracked parameter has a unit declaration bounded by
// exactly the unit annotation
func checkBounds(dst *regions, params model.ParameterSet, sym transpile.Symbols) error {
	found := make(map[string]*model.Declaration)
	for _, ln := range dst.params {
		decls, err := model.ParseDeclarations(ln)
		if err != nil {
			continue
		}
		for _, d := range decls {
			for _, n := range d.Names {
				found[n] = d
			}
		}
	}

	var errs error
	for _, p := range params.Names() {
		unit := sym.UnitName(p)
		d, ok := found[unit]
		if !ok {
			errs = multierr.Append(errs, errors.Errorf("No declaration of %s in output parameters", unit))
			continue
		}
		if !d.HasBounds || "<"+d.Bounds+">" != sym.Annotation() {
			errs = multierr.Append(errs, errors.Errorf("Declaration of %s has bounds %q, expected %s", unit, d.Bounds, sym.Annotation()))
		}
		if _, still := found[p]; still {
			errs = multierr.Append(errs, errors.Errorf("Physical parameter %s is still declared in output parameters", p))
		}
	}
	return errs
}

// checkReconstruction: the transformed parameters block starts with one
// reconstruction per tracked parameter, followed by the original body.
// Reconstructions may or may not declare the physical parameter.
func checkReconstruction(src *regions, dst *regions, params model.ParameterSet, sym transpile.Symbols) error {
	n := len(params)
	if len(dst.tparams) != n+len(src.tparams) {
		return errors.Errorf("Output transformed parameters has %d lines, expected %d generated + %d original",
			len(dst.tparams), n, len(src.tparams))
	}

	var errs error
	want := make(map[string]bool, n)
	for _, p := range params.Names() {
		want[strings.TrimSpace(sym.Reconstruction(p))] = true
	}
	for i, ln := range dst.tparams[:n] {
		stmt := reconstructs(strings.TrimSpace(ln), want)
		if stmt == "" {
			errs = multierr.Append(errs, errors.Errorf("Transformed parameters line %d is not a reconstruction: %q", i+1, ln))
			continue
		}
		delete(want, stmt)
	}
	for stmt := range want {
		errs = multierr.Append(errs, errors.Errorf("Missing reconstruction %q", stmt))
	}

	for i, ln := range dst.tparams[n:] {
		if ln != src.tparams[i] {
			errs = multierr.Append(errs, errors.Errorf("Transformed parameters line %d changed: %q != %q", n+i+1, ln, src.tparams[i]))
		}
	}
	return errs
}

// reconstructs returns the statement in want that ln carries out, either bare
// ("p = F(unit_p);") or with a leading declaration ("real<lower=0> p = ...").
func reconstructs(ln string, want map[string]bool) string {
	if want[ln] {
		return ln
	}
	for stmt := range want {
		if strings.HasSuffix(ln, " "+stmt) {
			return stmt
		}
	}
	return ""
}

// checkPreserved: preamble and epilogue are copied byte for byte
func checkPreserved(src *regions, dst *regions) error {
	var errs error
	if strings.Join(src.preamble, "\n") != strings.Join(dst.preamble, "\n") {
		errs = multierr.Append(errs, errors.Errorf("Output %s was modified", model.Preamble))
	}
	if strings.Join(src.epilogue, "\n") != strings.Join(dst.epilogue, "\n") {
		errs = multierr.Append(errs, errors.Errorf("Output %s was modified", model.Epilogue))
	}
	return errs
}
