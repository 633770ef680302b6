package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/CraigKelly/unitcube/model"
	"github.com/CraigKelly/unitcube/synth"
	"github.com/CraigKelly/unitcube/transpile"
	"github.com/CraigKelly/unitcube/verify"
)

type selfCheckParams struct {
	count     int
	seed      int64
	maxParams int
	show      bool
}

func newSelfCheckCmd(opts *options) *cobra.Command {
	sc := &selfCheckParams{}

	cmd := &cobra.Command{
		Use:   "selfcheck",
		Short: "Convert random models and verify the output",
		Long: `Synthesize random models, convert each one and check the result:

  - exactly one parameters and one transformed parameters block
  - every parameter is declared as a unit variable with unit bounds
  - every parameter is rebuilt at the top of transformed parameters
  - everything outside the two blocks is unchanged
  - converting the output again is refused

Model i is generated from seed+i, so a failure can be replayed alone
with --seed and --count 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rp, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer rp.log.Sync() //nolint:errcheck

			return SelfCheck(rp, sc)
		},
	}

	cmd.Flags().IntVarP(&sc.count, "count", "n", 100, "Number of models to check")
	cmd.Flags().Int64VarP(&sc.seed, "seed", "r", 1, "Random seed of the first model")
	cmd.Flags().IntVar(&sc.maxParams, "max-params", 6, "Most parameters in one model")
	cmd.Flags().BoolVar(&sc.show, "show", false, "Print failing models")

	return cmd
}

// SelfCheck converts sc.count synthesized models with the configured symbols
// and verifies each result. Parameter names come from the generator, so no
// compiler is needed.
func SelfCheck(rp *runParams, sc *selfCheckParams) error {
	if sc.count < 1 {
		return errors.Errorf("count must be at least 1, got %d", sc.count)
	}

	sym := rp.conv.Symbols
	failed := 0

	for i := 0; i < sc.count; i++ {
		seed := sc.seed + int64(i)
		gen := synth.New(seed)
		if sc.maxParams > 0 {
			gen.MaxParams = sc.maxParams
		}
		m := gen.Model(fmt.Sprintf("synth%d", seed))

		out, err := checkOne(m, sym)
		if err == nil {
			rp.log.Debug("Model OK", zap.Int64("seed", seed), zap.Int("params", len(m.Params)))
			continue
		}

		failed++
		rp.log.Error("Model FAILED", zap.Int64("seed", seed), zap.Error(err))
		if sc.show {
			fmt.Fprintf(rp.out, "---- seed %d input\n%s\n", seed, m.Doc.String())
			if out != nil {
				fmt.Fprintf(rp.out, "---- seed %d output\n%s\n", seed, out.String())
			}
		}
	}

	fmt.Fprintf(rp.out, "Checked %d models (seeds %d-%d): %d failed\n",
		sc.count, sc.seed, sc.seed+int64(sc.count)-1, failed)

	if failed > 0 {
		return errors.Errorf("%d of %d models failed self check", failed, sc.count)
	}
	return nil
}

// checkOne converts and verifies one model, then makes sure a second
// conversion of the output is refused
func checkOne(m *synth.Model, sym transpile.Symbols) (*model.Document, error) {
	conv, err := transpile.NewConverter(transpile.PlainFormatter{}, &transpile.StaticOracle{Params: m.Params}, sym, nil)
	if err != nil {
		return nil, err
	}

	out, err := conv.ConvertDocument(m.Doc, m.Params)
	if err != nil {
		return nil, errors.Wrap(err, "Conversion failed")
	}
	if err := verify.Check(m.Doc, m.Params, out, sym); err != nil {
		return out, err
	}

	// The second run sees the unit names
	units := make([]string, 0, len(m.Params))
	for _, n := range m.Params.Names() {
		units = append(units, sym.UnitName(n))
	}
	unitParams, err := model.NewParameterSet(units...)
	if err != nil {
		return out, err
	}

	_, err = conv.ConvertDocument(out, unitParams)
	var already *model.AlreadyConvertedError
	if !errors.As(err, &already) {
		return out, errors.Errorf("Second conversion was not refused (got %v)", err)
	}

	return out, nil
}
