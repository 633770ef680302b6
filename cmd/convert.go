package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newConvertCmd(opts *options) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "convert <model.stan>",
		Short: "Convert one model to unit hypercube form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rp, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer rp.log.Sync() //nolint:errcheck

			return runConvert(rp, args[0], outFile)
		},
	}
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file (default is stdout)")

	return cmd
}

// runConvert converts filename and writes the result to outFile, or to the
// command output if outFile is empty. Nothing is written on error.
func runConvert(rp *runParams, filename string, outFile string) error {
	doc, err := rp.conv.Convert(rp.ctx, filename)
	if err != nil {
		return errors.Wrapf(err, "Could not convert %s", filename)
	}

	if len(outFile) < 1 {
		_, err = fmt.Fprintln(rp.out, doc.String())
		return err
	}

	if err := writeAtomic(outFile, doc.String()+"\n"); err != nil {
		return err
	}
	rp.log.Info("Model converted", zap.String("file", filename), zap.String("output", outFile))
	return nil
}

// writeAtomic writes text to a temp file in the target directory and renames
// it into place, so readers never see a partial model.
func writeAtomic(filename string, text string) (err error) {
	dir, base := filepath.Split(filename)
	if len(dir) < 1 {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "Could not create output for %s", filename)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name()) //nolint:errcheck
		}
	}()

	if _, err = tmp.WriteString(text); err != nil {
		tmp.Close() //nolint:errcheck
		return errors.Wrapf(err, "Could not write %s", tmp.Name())
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "Could not close %s", tmp.Name())
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Wrapf(err, "Could not set mode on %s", tmp.Name())
	}
	if err = os.Rename(tmp.Name(), filename); err != nil {
		return errors.Wrapf(err, "Could not move output into place at %s", filename)
	}

	return nil
}
