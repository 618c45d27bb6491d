package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wdm0006/mice/pkg/profile"
)

func newProfileCmd(a *app) *cobra.Command {
	var (
		in     ioFlags
		top    int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "profile [input]",
		Short: "Summarize the columns and missingness of a table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.merge(cmd, &a.cfg.Input)
			if len(args) == 1 {
				a.cfg.Input.Path = args[0]
			}
			t, err := readTable(a.cfg.Input, a.log)
			if err != nil {
				return err
			}
			p := profile.Collect(t, top)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), p.Text())
			return err
		},
	}
	in.add(cmd)
	cmd.Flags().IntVar(&top, "top", 5, "most frequent levels listed per categorical column")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}
