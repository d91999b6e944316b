package main

import (
	"fmt"
	"io"

	"github.com/genricoloni/walltz/internal/engine"
	"github.com/spf13/cobra"
)

var fetchOpts engine.FetchOptions
var fetchSimple bool

// fetchCmd downloads an image from a supplier
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch a wallpaper from a supplier",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(cmd, func(e *engine.Engine) error {
			result, err := e.Fetch(cmd.Context(), fetchOpts)
			if result != nil {
				printResult(cmd, result, fetchSimple, "Fetched image")
			}
			return err
		})
	},
}

// setCmd applies an image path, URL or collection
var setCmd = &cobra.Command{
	Use:   "set <path|url|collection>",
	Short: "Set the wallpaper to an image or a random image of a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(cmd, func(e *engine.Engine) error {
			result, err := e.Set(cmd.Context(), args[0])
			if result != nil {
				printResult(cmd, result, false, "Set wallpaper to image")
			}
			return err
		})
	},
}

// getCmd prints the current wallpaper
var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the path of the current wallpaper",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(cmd, func(e *engine.Engine) error {
			img, err := e.Current()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), img.Path())
			return nil
		})
	},
}

// reapplyCmd applies the recorded wallpaper again, e.g. at login
var reapplyCmd = &cobra.Command{
	Use:   "reapply",
	Short: "Apply the current wallpaper again",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(cmd, func(e *engine.Engine) error {
			return e.Reapply(cmd.Context())
		})
	},
}

// printResult reports where the image went. Apply failures are printed, not returned.
func printResult(cmd *cobra.Command, result *engine.Result, simple bool, verb string) {
	out := cmd.OutOrStdout()
	if simple {
		fmt.Fprintln(out, result.Image.Path())
	} else {
		fmt.Fprintf(out, "%s: %s\n", verb, result.Image.Path())
	}
	if result.ApplyErr != nil {
		warn(cmd.ErrOrStderr(), "Failed to apply wallpaper: %v", result.ApplyErr)
	}
}

func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}

func init() {
	f := fetchCmd.Flags()
	f.BoolVarP(&fetchOpts.Assign, "assign", "a", false, "apply the wallpaper using the configured set_command")
	f.StringVarP(&fetchOpts.Output, "output", "o", "", "where to save the image, the cache is used if not set")
	f.StringVarP(&fetchOpts.Category, "category", "c", "", "predefined category to search in")
	f.StringVarP(&fetchOpts.Supplier, "supplier", "s", "", "supplier to use, picked at random if not set")
	f.StringSliceVarP(&fetchOpts.Tags, "tag", "t", nil, "additional tag, repeatable")
	f.StringSliceVar(&fetchOpts.AspectRatios, "aspect-ratio", nil, "aspect ratio to search for, repeatable")
	f.BoolVar(&fetchOpts.SkipCache, "skip-cache", false, "prefer results that are not cached yet")
	f.BoolVar(&fetchSimple, "simple", false, "only print the final image path, for use in scripts")

	rootCmd.AddCommand(fetchCmd, setCmd, getCmd, reapplyCmd)
}
