package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent production and merge runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			jrnl, _, err := ctx.openJournal()
			if err != nil {
				return err
			}
			defer func() { _ = jrnl.Close() }()

			runs, err := jrnl.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No recorded runs.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				selection := run.Selection
				if selection == "" {
					selection = "-"
				}
				detail := run.Error
				if detail == "" {
					detail = fmt.Sprintf("%d segments (%d cached), %d merges",
						run.SegmentCount, run.CachedCount, run.MergedOutputs)
				}
				rows = append(rows, []string{
					run.StartedAt,
					run.Action,
					selection,
					run.Status,
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "Action", "Selection", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	return cmd
}
