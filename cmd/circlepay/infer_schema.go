package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AlenaMolokova/circlepay/internal/constants"
	"github.com/AlenaMolokova/circlepay/internal/schema"
	"github.com/AlenaMolokova/circlepay/internal/sheets"
)

const inferSampleRows = 20

func inferSchemaCmd(opts *rootOptions) *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "infer-schema",
		Short: "Guess which columns of a sheet hold which withdrawal fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			rows, err := a.store.ReadRange(cmd.Context(), sheets.Whole(sheet))
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return fmt.Errorf("sheet %s is empty", sheet)
			}
			sample := rows[1:]
			if len(sample) > inferSampleRows {
				sample = sample[:inferSampleRows]
			}
			printMapping(cmd.OutOrStdout(), rows[0], schema.Infer(rows[0], sample))
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", constants.SheetWithdrawals, "sheet to inspect")
	return cmd
}

func printMapping(out io.Writer, headers []string, m schema.Mapping) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tCOLUMN\tHEADER")
	for _, role := range schema.Roles {
		col, ok := m.Index(role)
		if !ok {
			fmt.Fprintf(tw, "%s\t-\t\n", role)
			continue
		}
		name := ""
		if col < len(headers) {
			name = headers[col]
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", role, col+1, name)
	}
	tw.Flush()
	fmt.Fprintf(out, "confidence: %.0f%%\n", m.Confidence)
}
