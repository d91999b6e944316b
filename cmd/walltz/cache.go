package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/genricoloni/walltz/internal/engine"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the image cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached images, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(cmd, func(e *engine.Engine) error {
			entries, err := e.Cache().List()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			now := time.Now()
			for _, entry := range entries {
				fmt.Fprintln(w, entry.Describe(now))
			}
			return w.Flush()
		})
	},
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove cached images older than seven days",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(cmd, func(e *engine.Engine) error {
			removed, err := e.Cache().Cleanup()
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached images\n", removed)
			return err
		})
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd, cacheCleanCmd)
	rootCmd.AddCommand(cacheCmd)
}
