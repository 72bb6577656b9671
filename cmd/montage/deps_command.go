package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"montage/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tool availability and directory access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.CheckAll(cfg)
			rows := make([][]string, 0, len(results))
			allPassed := true
			for _, result := range results {
				state := "ok"
				if !result.Passed {
					state = "MISSING"
					allPassed = false
				}
				rows = append(rows, []string{result.Name, state, result.Detail})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			if !allPassed {
				return fmt.Errorf("environment checks failed")
			}
			return nil
		},
	}
}
