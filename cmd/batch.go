package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type batchParams struct {
	outDir      string
	jobs        int
	monitorAddr string
}

func newBatchCmd(opts *options) *cobra.Command {
	bp := &batchParams{}

	cmd := &cobra.Command{
		Use:   "batch <model.stan>...",
		Short: "Convert many models in parallel",
		Long: `Convert every model file given into --out-dir, keeping the file names.

Files are converted independently: a failure is reported and the rest of
the batch still runs. The command fails if any file failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rp, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer rp.log.Sync() //nolint:errcheck

			if cmd.Flags().Changed("jobs") {
				rp.cfg.Jobs = bp.jobs
			}
			return BatchConvert(rp, bp, args)
		},
	}

	cmd.Flags().StringVarP(&bp.outDir, "out-dir", "d", "", "Directory for converted models")
	cmd.Flags().IntVarP(&bp.jobs, "jobs", "j", 0, "Files to convert at once (default from config)")
	cmd.Flags().StringVar(&bp.monitorAddr, "monitor", "", "Serve progress counters over HTTP on this address (e.g. :8000)")
	cmd.MarkFlagRequired("out-dir") //nolint:errcheck

	return cmd
}

// batchTarget pairs an input model with its output path
type batchTarget struct {
	input  string
	output string
}

// planBatch maps each input to a path in outDir. Two inputs with the same
// base name, or an output that would overwrite its input, are errors.
func planBatch(outDir string, files []string) ([]batchTarget, error) {
	targets := make([]batchTarget, 0, len(files))
	seen := make(map[string]string, len(files))

	for _, fn := range files {
		out := filepath.Join(outDir, filepath.Base(fn))
		if prev, dup := seen[out]; dup {
			return nil, errors.Errorf("Both %s and %s would be written to %s", prev, fn, out)
		}
		seen[out] = fn

		absIn, err := filepath.Abs(fn)
		if err != nil {
			return nil, errors.Wrapf(err, "Could not resolve %s", fn)
		}
		absOut, err := filepath.Abs(out)
		if err != nil {
			return nil, errors.Wrapf(err, "Could not resolve %s", out)
		}
		if absIn == absOut {
			return nil, errors.Errorf("Output for %s would overwrite the input", fn)
		}

		targets = append(targets, batchTarget{input: fn, output: out})
	}

	return targets, nil
}

// BatchConvert converts files into bp.outDir with at most cfg.Jobs
// conversions running at once.
func BatchConvert(rp *runParams, bp *batchParams, files []string) error {
	if rp.cfg.Jobs < 1 {
		return errors.Errorf("jobs must be at least 1, got %d", rp.cfg.Jobs)
	}

	targets, err := planBatch(bp.outDir, files)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(bp.outDir, 0o755); err != nil {
		return errors.Wrapf(err, "Could not create output directory %s", bp.outDir)
	}

	mon := newMonitor(rp.log)
	if len(bp.monitorAddr) > 0 {
		if err := mon.Serve(bp.monitorAddr); err != nil {
			return err
		}
	}
	defer mon.Stop()

	mon.FilesQueued.Set(int64(len(targets)))
	rp.log.Info("Batch starting", zap.Int("files", len(targets)), zap.Int("jobs", rp.cfg.Jobs))

	// One slot per file: workers never share an index
	failures := make([]error, len(targets))

	g, ctx := errgroup.WithContext(rp.ctx)
	g.SetLimit(rp.cfg.Jobs)

	for i, tgt := range targets {
		i, tgt := i, tgt
		g.Go(func() error {
			defer mon.Tick()

			doc, err := rp.conv.Convert(ctx, tgt.input)
			if err == nil {
				err = writeAtomic(tgt.output, doc.String()+"\n")
			}
			if err != nil {
				failures[i] = errors.Wrapf(err, "Could not convert %s", tgt.input)
				mon.FilesFailed.Add(1)
				rp.log.Warn("Model failed", zap.String("file", tgt.input), zap.Error(err))
				return nil
			}

			mon.FilesConverted.Add(1)
			mon.LinesWritten.Add(int64(len(doc.Lines)))
			rp.log.Debug("Model converted", zap.String("file", tgt.input), zap.String("output", tgt.output))
			return nil
		})
	}

	// Workers never return an error: failures are collected per file
	g.Wait() //nolint:errcheck

	converted := mon.FilesConverted.Value()
	fmt.Fprintf(rp.out, "Converted %d of %d models into %s\n", converted, len(targets), bp.outDir)

	if err := multierr.Combine(failures...); err != nil {
		return errors.Wrapf(err, "%d of %d models failed", len(targets)-int(converted), len(targets))
	}
	return nil
}
