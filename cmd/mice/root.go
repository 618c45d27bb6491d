package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wdm0006/mice/pkg/config"
)

// app is the state shared by the subcommands of one invocation.
type app struct {
	cfgFile   string
	logLevel  string
	logFormat string

	cfg config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "mice",
		Short:         "Impute missing values with chained equations",
		Long:          "mice fills missing cells of CSV, JSONL, Parquet and XLSX tables with Multiple Imputation by Chained Equations, using cell-level, column-level or hybrid passes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (.json, .yaml, .yml or .toml)")
	pf.StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(newImputeCmd(a), newBenchmarkCmd(a), newProfileCmd(a), newVersionCmd())
	return root
}

// setup loads the config file, applies the global flags and builds the
// logger. Logs go to stderr so that tables can be written to stdout.
func (a *app) setup(cmd *cobra.Command) error {
	a.cfg = config.Default()
	if a.cfgFile != "" {
		c, err := config.Load(a.cfgFile)
		if err != nil {
			return err
		}
		a.cfg = c
	}
	f := cmd.Flags()
	if f.Changed("log-level") {
		a.cfg.Log.Level = a.logLevel
	}
	if f.Changed("log-format") {
		a.cfg.Log.Format = a.logFormat
	}
	level, err := config.ParseLevel(a.cfg.Log.Level)
	if err != nil {
		return err
	}
	a.log = newLogger(cmd.ErrOrStderr(), a.cfg.Log.Format, level)
	return nil
}

func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// imputerFlags are shared by impute and benchmark. Each overrides the
// config file only when set on the command line.
func addImputerFlags(cmd *cobra.Command, c *config.Imputer) {
	f := cmd.Flags()
	f.StringVar(&c.Strategy, "strategy", c.Strategy, "cell, column, slow-fast or fast-slow")
	f.IntVar(&c.MaxIter, "max-iter", c.MaxIter, "number of passes")
	f.Int64Var(&c.Seed, "seed", c.Seed, "random seed for the visiting order")
	f.StringVar(&c.Model, "model", c.Model, "model family: linear or golearn")
	f.Float64Var(&c.Alpha, "alpha", c.Alpha, "ridge penalty of the linear models")
	f.IntVar(&c.Neighbors, "neighbors", c.Neighbors, "k of the golearn nearest-neighbour classifier")
	f.StringVar(&c.Initial, "initial", c.Initial, "initial fill of numeric columns: mean or median")
	f.BoolVar(&c.ClipToObserved, "clip", c.ClipToObserved, "clip numeric predictions to the observed range")
	f.BoolVar(&c.Strict, "strict", c.Strict, "fail on rank-deficient designs instead of regularising")
}

// mergeImputerFlags copies the flags the user set from flagged onto the
// loaded config.
func mergeImputerFlags(cmd *cobra.Command, flagged config.Imputer, dst *config.Imputer) {
	f := cmd.Flags()
	set := func(name string, apply func()) {
		if f.Changed(name) {
			apply()
		}
	}
	set("strategy", func() { dst.Strategy = flagged.Strategy })
	set("max-iter", func() { dst.MaxIter = flagged.MaxIter })
	set("seed", func() { dst.Seed = flagged.Seed })
	set("model", func() { dst.Model = flagged.Model })
	set("alpha", func() { dst.Alpha = flagged.Alpha })
	set("neighbors", func() { dst.Neighbors = flagged.Neighbors })
	set("initial", func() { dst.Initial = flagged.Initial })
	set("clip", func() { dst.ClipToObserved = flagged.ClipToObserved })
	set("strict", func() { dst.Strict = flagged.Strict })
}

// ioFlags bind the table location flags of a command.
type ioFlags struct {
	format  string
	missing []string
	sheet   string
}

func (o *ioFlags) add(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.format, "format", "", "input format: csv, tsv, jsonl, parquet or xlsx (default from extension)")
	f.StringSliceVar(&o.missing, "missing", nil, "cell texts read as missing (default NA, N/A, NaN, null, None and empty)")
	f.StringVar(&o.sheet, "sheet", "", "xlsx sheet name")
}

func (o *ioFlags) merge(cmd *cobra.Command, dst *config.IO) {
	f := cmd.Flags()
	if f.Changed("format") {
		dst.Format = o.format
	}
	if f.Changed("missing") {
		dst.Missing = o.missing
	}
	if f.Changed("sheet") {
		dst.Sheet = o.sheet
	}
}
