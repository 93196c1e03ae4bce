package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func ensureSheetsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-sheets",
		Short: "Create missing sheets and header rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.ensureSheets(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sheets ready")
			return nil
		},
	}
}
