package transpile

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/CraigKelly/unitcube/model"
)

// PlainFormatter reads a model file as-is. It only trims surrounding white
// space, so the file must already be in canonical layout.
type PlainFormatter struct{}

// Format implements model.Formatter
func (PlainFormatter) Format(ctx context.Context, filename string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", errors.Wrapf(err, "Could not READ model from %s", filename)
	}
	return strings.TrimSpace(string(data)), nil
}

// StaticOracle reports the same parameter set for every file
type StaticOracle struct {
	Params model.ParameterSet
}

// NewStaticOracle builds an oracle from bare parameter names
func NewStaticOracle(names ...string) (*StaticOracle, error) {
	ps, err := model.NewParameterSet(names...)
	if err != nil {
		return nil, err
	}
	return &StaticOracle{Params: ps}, nil
}

// Names implements model.Oracle. The returned set is a copy.
func (o *StaticOracle) Names(ctx context.Context, filename string) (model.ParameterSet, error) {
	cp := make(model.ParameterSet, len(o.Params))
	for k, v := range o.Params {
		cp[k] = v
	}
	return cp, nil
}
