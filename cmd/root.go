package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/CraigKelly/unitcube/config"
	"github.com/CraigKelly/unitcube/model"
	"github.com/CraigKelly/unitcube/stanc"
	"github.com/CraigKelly/unitcube/transpile"
)

// options are the persistent flags shared by every command
type options struct {
	cfgFile   string
	verbose   bool
	stancPath string
	includes  []string
	params    []string
	plain     bool
	transform string
	prefix    string
	bare      bool
}

// runParams is everything a command needs once flags and config are merged
type runParams struct {
	ctx  context.Context
	cfg  *config.Config
	log  *zap.Logger
	out  io.Writer
	conv *transpile.Converter
}

// newRootCmd builds the command tree. Each call returns a fresh tree so tests
// can run commands independently.
func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "unitcube",
		Short: "Reparameterize Stan models onto the unit hypercube",
		Long: `unitcube rewrites a Stan model so every parameter is sampled on [0, 1].

Each parameter p in the parameters block becomes unit_p with bounds
<lower=0, upper=1>, and the transformed parameters block declares and
rebuilds p with its original type:

  real<lower=0> p = INVERSE_TRANSFORM(unit_p);

With --bare only the assignment "p = INVERSE_TRANSFORM(unit_p);" is written.

INVERSE_TRANSFORM is left for a later pass to resolve.

Parameter names come from "stanc --info" unless given with --param. Models
are canonicalized with "stanc --auto-format" unless --plain is set.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.cfgFile, "config", "c", "", "config file (default is $HOME/"+config.DefaultName+")")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging (default is much more parsimonious)")
	pf.StringVar(&opts.stancPath, "stanc", "", "Path to the stanc compiler (default from config, then \"stanc\")")
	pf.StringSliceVarP(&opts.includes, "include", "I", nil, "Include paths passed to stanc")
	pf.StringSliceVarP(&opts.params, "param", "p", nil, "Parameter names to convert (skips stanc --info)")
	pf.BoolVar(&opts.plain, "plain", false, "Read models as-is instead of running stanc --auto-format")
	pf.StringVar(&opts.transform, "transform", "", "Name of the inverse transform function")
	pf.StringVar(&opts.prefix, "prefix", "", "Prefix for unit variables")
	pf.BoolVar(&opts.bare, "bare", false, "Rebuild parameters without declaring them")

	rootCmd.AddCommand(
		newConvertCmd(opts),
		newNamesCmd(opts),
		newBatchCmd(opts),
		newSelfCheckCmd(opts),
	)

	return rootCmd
}

// setup merges config and flags and builds the logger and converter
func (opts *options) setup(cmd *cobra.Command) (*runParams, error) {
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("stanc") {
		cfg.Stanc = opts.stancPath
	}
	if flags.Changed("include") {
		cfg.IncludePaths = opts.includes
	}
	if flags.Changed("transform") {
		cfg.InverseTransform = opts.transform
	}
	if flags.Changed("prefix") {
		cfg.UnitPrefix = opts.prefix
	}
	if flags.Changed("bare") {
		cfg.Declare = !opts.bare
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}

	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		level = zapcore.DebugLevel
	}
	log := newLogger(cmd.ErrOrStderr(), level)

	compiler := stanc.New(cfg.Stanc, cfg.IncludePaths, log.Named("stanc"))

	var formatter model.Formatter = compiler
	if opts.plain {
		formatter = transpile.PlainFormatter{}
	}

	var oracle model.Oracle = compiler
	if len(opts.params) > 0 {
		oracle, err = transpile.NewStaticOracle(opts.params...)
		if err != nil {
			return nil, err
		}
	}

	conv, err := transpile.NewConverter(formatter, oracle, cfg.Symbols(), log)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	log.Debug("Startup",
		zap.String("stanc", cfg.Stanc),
		zap.Bool("plain", opts.plain),
		zap.Strings("params", opts.params),
		zap.String("transform", cfg.InverseTransform),
	)

	return &runParams{
		ctx:  ctx,
		cfg:  cfg,
		log:  log,
		out:  cmd.OutOrStdout(),
		conv: conv,
	}, nil
}

// newLogger returns a console logger with the production encoder settings
func newLogger(w io.Writer, level zapcore.Level) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
