package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wdm0006/mice/pkg/config"
	"github.com/wdm0006/mice/pkg/io/tableio"
	"github.com/wdm0006/mice/pkg/mice"
	"github.com/wdm0006/mice/pkg/prepare"
	tb "github.com/wdm0006/mice/pkg/table"
)

func newImputeCmd(a *app) *cobra.Command {
	var (
		flagged   = config.Default().Imputer
		in        ioFlags
		output    string
		outFormat string
	)
	cmd := &cobra.Command{
		Use:   "impute [input]",
		Short: "Fill the missing cells of a table",
		Long:  "impute reads a table, fills every missing cell and writes the result. Input and output default to the config file, then to stdin and stdout as CSV.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &a.cfg
			mergeImputerFlags(cmd, flagged, &cfg.Imputer)
			in.merge(cmd, &cfg.Input)
			if len(args) == 1 {
				cfg.Input.Path = args[0]
			}
			if cmd.Flags().Changed("output") {
				cfg.Output.Path = output
			}
			if cmd.Flags().Changed("out-format") {
				cfg.Output.Format = outFormat
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := a.log.With(slog.String("run_id", uuid.NewString()))
			imp, err := cfg.Imputer.NewImputer("", log)
			if err != nil {
				return err
			}
			t, err := readTable(cfg.Input, log)
			if err != nil {
				return err
			}
			if len(cfg.Prepare) > 0 {
				p, err := prepare.Pipeline(cfg.Prepare)
				if err != nil {
					return err
				}
				before := tb.CountMissing(t)
				if t, err = p.Run(cmd.Context(), t); err != nil {
					return fmt.Errorf("prepare: %w", err)
				}
				log.Debug("table prepared",
					slog.Int("steps", p.Len()),
					slog.Int("masked", tb.CountMissing(t)-before))
			}
			missing := tb.CountMissing(t)
			log.Info("table loaded",
				slog.String("input", displayPath(cfg.Input.Path)),
				slog.Int("rows", t.Rows()),
				slog.Int("cols", t.Cols()),
				slog.Int("missing", missing))

			start := time.Now()
			out, err := imp.FillMissingValues(cmd.Context(), t)
			if err != nil {
				return err
			}
			log.Info("imputation complete",
				slog.String("strategy", imp.Strategy.DisplayName),
				slog.Int("cells", missing),
				slog.Duration("elapsed", time.Since(start)))

			if err := tableio.Write(cfg.Output.Path, out, cfg.Output.TableOptions()); err != nil {
				return fmt.Errorf("write %s: %w", displayPath(cfg.Output.Path), err)
			}
			return nil
		},
	}
	addImputerFlags(cmd, &flagged)
	in.add(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default stdout)")
	cmd.Flags().StringVar(&outFormat, "out-format", "", "output format (default from extension)")
	return cmd
}

// readTable loads s, reporting reader repairs to log.
func readTable(s config.IO, log *slog.Logger) (*tb.Table, error) {
	opt := s.TableOptions()
	opt.Logger = log.With(slog.String("input", displayPath(s.Path)))
	t, err := tableio.Read(s.Path, opt)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", displayPath(s.Path), err)
	}
	return t, nil
}

func displayPath(p string) string {
	if p == "" || p == "-" {
		return "stdio"
	}
	return p
}

// strategyList resolves names, defaulting to every built-in strategy.
func strategyList(names []string) ([]mice.Strategy, error) {
	if len(names) == 0 {
		return mice.Strategies(), nil
	}
	out := make([]mice.Strategy, 0, len(names))
	for _, n := range names {
		s, err := mice.ParseStrategy(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
