package transpile

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/CraigKelly/unitcube/model"
)

// Converter rewrites model files into their unit hypercube form. A Converter
// holds no per-file state and may be shared between goroutines as long as
// its Formatter and Oracle can.
type Converter struct {
	Formatter model.Formatter
	Oracle    model.Oracle
	Symbols   Symbols
	Logger    *zap.Logger
}

// NewConverter checks the symbols and returns a ready converter. A nil logger
// is replaced by a no-op logger.
func NewConverter(f model.Formatter, o model.Oracle, sym Symbols, logger *zap.Logger) (*Converter, error) {
	if f == nil {
		return nil, errors.New("A formatter is required")
	}
	if o == nil {
		return nil, errors.New("A parameter oracle is required")
	}
	if err := sym.Check(); err != nil {
		return nil, errors.Wrap(err, "Invalid symbols")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Converter{
		Formatter: f,
		Oracle:    o,
		Symbols:   sym,
		Logger:    logger,
	}, nil
}

// Convert reads, canonicalizes and converts one model file. Nothing is
// returned but the error on failure.
func (c *Converter) Convert(ctx context.Context, filename string) (*model.Document, error) {
	log := c.logger().With(zap.String("file", filename))

	doc, err := model.NewDocumentFromFile(ctx, c.Formatter, filename)
	if err != nil {
		return nil, err
	}
	log.Debug("Model formatted", zap.Int("lines", len(doc.Lines)))

	params, err := c.Oracle.Names(ctx, filename)
	if err != nil {
		var ef *model.ExtractionFailure
		if errors.As(err, &ef) {
			return nil, err
		}
		return nil, &model.ExtractionFailure{File: filename, Err: err}
	}
	log.Debug("Parameters extracted", zap.Strings("params", params.Names()))

	out, err := c.ConvertDocument(doc, params)
	if err != nil {
		var ef *model.ExtractionFailure
		if errors.As(err, &ef) && ef.File == "" {
			ef.File = filename
		}
		return nil, err
	}

	return out, nil
}

// ConvertDocument converts an already canonical document using the given
// parameter set. It performs no I/O.
func (c *Converter) ConvertDocument(doc *model.Document, params model.ParameterSet) (*model.Document, error) {
	pp, err := model.SplitBlock(doc, model.ParametersBlock)
	if err != nil {
		return nil, err
	}
	if !pp.Found {
		return nil, &model.MissingParametersBlockError{Name: doc.Name}
	}

	// The transformed parameters block (if any) follows the parameters block
	tp, err := model.SplitLines(pp.After, model.TransformedParametersBlock)
	if err != nil {
		return nil, err
	}

	parts := Parts{
		Preamble: pp.Before,
		Epilogue: tp.After,
	}
	if tp.Found {
		parts.Between = tp.Before
		parts.TransformedParameters = tp.Body
	}

	if callsInverse(parts.TransformedParameters, c.Symbols) {
		return nil, &model.AlreadyConvertedError{Name: doc.Name, Symbol: c.Symbols.InverseTransform}
	}

	rw, err := RewriteParameters(pp.Body, params, c.Symbols)
	if err != nil {
		return nil, err
	}

	// Generated unit names must not clash with anything else in the model.
	// Only comments can sit between the two blocks, so Between is skipped.
	for _, r := range []struct {
		region model.Region
		lines  []string
	}{
		{model.Preamble, parts.Preamble},
		{model.TransformedParameters, parts.TransformedParameters},
		{model.Epilogue, parts.Epilogue},
	} {
		if err := CheckUnitNames(r.region, r.lines, params, c.Symbols); err != nil {
			return nil, err
		}
	}

	parts.Parameters = rw.Lines
	parts.Reconstruction = Reconstruct(rw.Decls, c.Symbols)

	c.logger().Debug("Parameters rewritten",
		zap.String("model", doc.Name),
		zap.Strings("tracked", rw.Tracked),
		zap.Bool("synthesizedBlock", !tp.Found),
	)

	return Assemble(doc.Name, parts), nil
}

func (c *Converter) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
