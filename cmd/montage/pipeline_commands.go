package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Process every slot and merge, without the confirmation prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.buildEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			p, err := env.controller.BuildPlan()
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), p)

			output, err := env.controller.ProcessAll(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Final output: %s\n", output)
			return nil
		},
	}
}

func newRerenderCommand(ctx *commandContext) *cobra.Command {
	var rangeExpr string

	cmd := &cobra.Command{
		Use:   "rerender",
		Short: "Force selected slots to be rebuilt, ignoring the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.buildEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			p, err := env.controller.BuildPlan()
			if err != nil {
				return err
			}
			if err := env.controller.Rerender(cmd.Context(), p, rangeExpr); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Re-render complete. Run `montage merge` to produce a final output.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&rangeExpr, "range", "r", "", "Slots to re-render, e.g. 3-5 or 1,4,7- (empty for all)")
	return cmd
}

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var rangeExpr string

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Join selected slot artifacts into a final output",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.buildEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			p, err := env.controller.BuildPlan()
			if err != nil {
				return err
			}
			output, err := env.controller.MergeRange(cmd.Context(), p, rangeExpr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Final output: %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&rangeExpr, "range", "r", "", "Slots to merge, e.g. 1,3-5 (empty for all)")
	return cmd
}

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "organize",
		Short: "Sort the working directory into INPUT/OUTPUT/LOGS",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.buildEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			report, err := env.controller.Organize()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %d inputs, %d outputs, %d logs.\n",
				report.MovedInputs, report.MovedOutputs, report.MovedLogs)
			return nil
		},
	}
}
