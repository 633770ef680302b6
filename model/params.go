package model

import (
	"sort"

	"github.com/pkg/errors"
)

// Parameter is one declared model parameter as reported by an oracle
type Parameter struct {
	Name       string // Identifier as declared
	Type       string // Declared base type (real, vector, ...): empty if the oracle doesn't report it
	Dimensions int    // Array dimensions reported by the oracle
}

// ParameterSet is the set of declared parameters keyed by name
type ParameterSet map[string]Parameter

// NewParameterSet builds a set from bare names
func NewParameterSet(names ...string) (ParameterSet, error) {
	ps := make(ParameterSet, len(names))
	for _, n := range names {
		if err := ps.Add(Parameter{Name: n}); err != nil {
			return nil, err
		}
	}
	return ps, nil
}

// Add inserts a parameter; duplicates and empty names are errors
func (ps ParameterSet) Add(p Parameter) error {
	if len(p.Name) < 1 {
		return errors.Errorf("Invalid empty parameter name")
	}
	if _, ok := ps[p.Name]; ok {
		return errors.Errorf("Duplicate parameter name %s", p.Name)
	}
	ps[p.Name] = p
	return nil
}

// Has returns true if name is tracked
func (ps ParameterSet) Has(name string) bool {
	_, ok := ps[name]
	return ok
}

// Names returns the tracked names in sorted order
func (ps ParameterSet) Names() []string {
	names := make([]string, 0, len(ps))
	for n := range ps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
