package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wdm0006/mice/pkg/config"
	"github.com/wdm0006/mice/pkg/mice"
	"github.com/wdm0006/mice/pkg/synth"
	tb "github.com/wdm0006/mice/pkg/table"
)

type strategyReport struct {
	Strategy     string                 `json:"strategy"`
	Name         string                 `json:"name"`
	TotalSeconds float64                `json:"total_seconds"`
	FinalLoss    float64                `json:"final_loss"`
	Iterations   []mice.IterationResult `json:"iterations"`
}

type benchReport struct {
	RunID    string           `json:"run_id"`
	Original string           `json:"original"`
	Input    string           `json:"input,omitempty"`
	Rows     int              `json:"rows"`
	Cols     int              `json:"cols"`
	Missing  int              `json:"missing"`
	MaxIter  int              `json:"max_iter"`
	Results  []strategyReport `json:"results"`
}

func newBenchmarkCmd(a *app) *cobra.Command {
	var (
		flagged    = config.Default().Imputer
		in         ioFlags
		original   string
		strategies []string
		drop       []string
		ablate     float64
		noBaseline bool
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "benchmark [input]",
		Short: "Compare strategies against a complete reference table",
		Long: `benchmark imputes the input with every selected strategy and reports, per
pass, the elapsed time and the mean squared error against the original table
over its numeric columns. Without an input, --ablate knocks cells out of the
original instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &a.cfg
			mergeImputerFlags(cmd, flagged, &cfg.Imputer)
			in.merge(cmd, &cfg.Input)
			f := cmd.Flags()
			if len(args) == 1 {
				cfg.Input.Path = args[0]
			}
			if f.Changed("original") {
				cfg.Benchmark.Original = original
			}
			if f.Changed("strategies") {
				cfg.Benchmark.Strategies = strategies
			}
			if f.Changed("drop") {
				cfg.Benchmark.DropColumns = drop
			}
			if f.Changed("no-baseline") {
				cfg.Benchmark.Baseline = !noBaseline
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Benchmark.Original == "" {
				return errors.New("benchmark needs --original")
			}
			if cfg.Input.Path == "" && ablate <= 0 {
				return errors.New("benchmark needs an input table or --ablate")
			}

			full, err := readTable(config.IO{
				Path:     cfg.Benchmark.Original,
				Missing:  cfg.Input.Missing,
				Sheet:    cfg.Input.Sheet,
				NoHeader: cfg.Input.NoHeader,
			}, a.log)
			if err != nil {
				return err
			}
			var holes *tb.Table
			if cfg.Input.Path != "" {
				if holes, err = readTable(cfg.Input, a.log); err != nil {
					return err
				}
			} else {
				holes = synth.Ablate(rand.New(rand.NewSource(cfg.Imputer.Seed)), full, ablate)
			}

			list, err := strategyList(cfg.Benchmark.Strategies)
			if err != nil {
				return err
			}
			rep := benchReport{
				RunID:    uuid.NewString(),
				Original: cfg.Benchmark.Original,
				Input:    cfg.Input.Path,
				Rows:     holes.Rows(),
				Cols:     holes.Cols(),
				Missing:  tb.CountMissing(holes),
				MaxIter:  cfg.Imputer.MaxIter,
			}
			log := a.log.With(slog.String("run_id", rep.RunID))
			opt := mice.BenchmarkOptions{DropColumns: cfg.Benchmark.DropColumns}

			if cfg.Benchmark.Baseline {
				imp, err := cfg.Imputer.NewImputer(list[0].Name, log)
				if err != nil {
					return err
				}
				res, err := imp.BenchmarkMeanLoss(cmd.Context(), full, holes, opt)
				if err != nil {
					return err
				}
				rep.Results = append(rep.Results, summarize("mean", "Mean/Mode Imputation", res[:min(1, len(res))]))
			}
			for _, s := range list {
				imp, err := cfg.Imputer.NewImputer(s.Name, log)
				if err != nil {
					return err
				}
				res, err := imp.Benchmark(cmd.Context(), full, holes, opt)
				if err != nil {
					return fmt.Errorf("%s: %w", s.DisplayName, err)
				}
				r := summarize(s.Name, s.DisplayName, res)
				log.Info("strategy benchmarked",
					slog.String("strategy", s.DisplayName),
					slog.Float64("total_seconds", r.TotalSeconds),
					slog.Float64("final_loss", r.FinalLoss))
				rep.Results = append(rep.Results, r)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			return writeReport(cmd.OutOrStdout(), rep)
		},
	}
	addImputerFlags(cmd, &flagged)
	in.add(cmd)
	fl := cmd.Flags()
	fl.StringVar(&original, "original", "", "complete reference table")
	fl.StringSliceVar(&strategies, "strategies", nil, "strategies to run (default all)")
	fl.StringSliceVar(&drop, "drop", nil, "columns excluded from the loss")
	fl.Float64Var(&ablate, "ablate", 0, "without an input, the fraction of cells to remove from the original")
	fl.BoolVar(&noBaseline, "no-baseline", false, "skip the mean/mode baseline")
	fl.BoolVar(&asJSON, "json", false, "emit a JSON report")
	return cmd
}

func summarize(name, display string, res []mice.IterationResult) strategyReport {
	r := strategyReport{Strategy: name, Name: display, Iterations: res}
	for _, it := range res {
		r.TotalSeconds += it.Seconds
	}
	if len(res) > 0 {
		r.FinalLoss = res[len(res)-1].Loss
	}
	return r
}

func writeReport(w io.Writer, rep benchReport) error {
	fmt.Fprintf(w, "run %s: %d rows x %d cols, %d missing cells, %d passes\n",
		rep.RunID, rep.Rows, rep.Cols, rep.Missing, rep.MaxIter)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tTIME (s)\tFINAL LOSS")
	for _, r := range rep.Results {
		fmt.Fprintf(tw, "%s\t%.3f\t%.6g\n", r.Name, r.TotalSeconds, r.FinalLoss)
	}
	return tw.Flush()
}
