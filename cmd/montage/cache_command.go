package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"montage/internal/segmentcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the temp segment cache",
	}
	cacheCmd.AddCommand(newCacheStatusCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List cached segment artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := segmentcache.List(cfg.TempDir())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Cache is empty.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				sidecar := "missing"
				if entry.HasSidecar {
					sidecar = "present"
				}
				rows = append(rows, []string{
					entry.Artifact,
					humanize.Bytes(uint64(entry.SizeBytes)),
					entry.Modified.Format("2006-01-02 15:04:05"),
					sidecar,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Artifact", "Size", "Modified", "Fingerprint"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all artifacts, fingerprints, and the concat manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.buildEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			removed, err := env.controller.ClearCache()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d files.\n", removed)
			return nil
		},
	}
}
