package main

import (
	"fmt"

	"github.com/cask-engine/cask/internal/host"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newOrderCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "order [plugin...]",
		Short: "Print the initialization order without running anything",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := flags.open(args)
			if err != nil {
				return err
			}
			defer s.log.Sync()

			h := host.New(s.cfg, s.log)
			defer func() { err = multierr.Append(err, h.Stop()) }()
			if err := h.Load(s.paths...); err != nil {
				return err
			}
			order, err := h.Order()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, m := range order {
				fmt.Fprintf(out, "%2d. %s\n", i+1, describe(m.Name, m.Defines, m.Requires))
			}
			return nil
		},
	}
}
