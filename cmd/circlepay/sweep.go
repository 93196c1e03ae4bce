package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AlenaMolokova/circlepay/internal/worker"
)

func sweepCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Mark old queued withdrawals stale and requeue expired claims once",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := worker.NewSweeper(a.ledger, a.settings, a.cfg.SweepInterval, a.log).RunOnce(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "stale: %d\nrequeued: %d\n", res.Stale, res.Requeued)
			return err
		},
	}
}
