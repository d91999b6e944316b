package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/genricoloni/walltz/internal/engine"
	"github.com/spf13/cobra"
)

var (
	createRemote string
	deleteForce  bool
	syncMessage  string
	syncRemote   string
	fromName     string
)

var collectionsCmd = &cobra.Command{
	Use:     "collections",
	Aliases: []string{"collection", "col"},
	Short:   "Manage curated image collections",
}

var collectionsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(cmd, func(e *engine.Engine) error {
			if _, err := e.Collections().Create(args[0], createRemote); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully created the collection: %s\n", args[0])
			return nil
		})
	},
}

var collectionsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a collection and all of its images",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(cmd, func(e *engine.Engine) error {
			name := args[0]
			if _, err := e.Collections().Open(name); err != nil {
				return err
			}
			if !deleteForce {
				fmt.Fprintf(cmd.OutOrStdout(), "Are you sure you want to delete the collection %s and all its images? This cannot be undone [y/N]: ", name)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}
			if err := e.Collections().Delete(name); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Successfully deleted the collection")
			return nil
		})
	},
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(cmd, func(e *engine.Engine) error {
			names, err := e.Collections().List()
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		})
	},
}

var collectionsSaveCmd = &cobra.Command{
	Use:   "save <collection> [path|url]",
	Short: "Add an image to a collection, the current wallpaper if none is given",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var which string
		if len(args) == 2 {
			which = args[1]
		}
		return runWithEngine(cmd, func(e *engine.Engine) error {
			saved, err := e.SaveToCollection(cmd.Context(), args[0], which)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to collection: %s\n", saved.Path(), args[0])
			return nil
		})
	},
}

var collectionsUseCmd = &cobra.Command{
	Use:   "use <collection>",
	Short: "Set a random image of the collection as the wallpaper",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(cmd, func(e *engine.Engine) error {
			result, err := e.UseCollection(cmd.Context(), args[0])
			if result != nil {
				printResult(cmd, result, false, "Set wallpaper to image")
			}
			return err
		})
	},
}

var collectionsSyncCmd = &cobra.Command{
	Use:   "sync <collection>",
	Short: "Commit all images and synchronize with the git remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(cmd, func(e *engine.Engine) error {
			c, err := e.Collections().Open(args[0])
			if err != nil {
				return err
			}

			repo := c.Repository()
			if repo == nil {
				if syncRemote == "" {
					return errors.New("the collection has no git repository, pass --remote to initialize one")
				}
				if repo, err = c.InitRepository(syncRemote); err != nil {
					return err
				}
			} else if err := repo.CommitAll(syncMessage); err != nil {
				return err
			}

			if err := repo.Sync(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synchronized the collection with %s\n", repo.Remote())
			return nil
		})
	},
}

var collectionsFromCmd = &cobra.Command{
	Use:   "from <git-url>",
	Short: "Create a collection by cloning a git repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithEngine(cmd, func(e *engine.Engine) error {
			c, err := e.Collections().Clone(cmd.Context(), args[0], fromName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully created the collection: %s\n", c.Name())
			return nil
		})
	},
}

func init() {
	collectionsCreateCmd.Flags().StringVarP(&createRemote, "remote", "r", "", "git remote to initialize the collection with")
	collectionsDeleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "do not ask for confirmation")
	collectionsSyncCmd.Flags().StringVarP(&syncMessage, "message", "m", "Update collection", "commit message")
	collectionsSyncCmd.Flags().StringVarP(&syncRemote, "remote", "r", "", "git remote used when the collection has no repository yet")
	collectionsFromCmd.Flags().StringVarP(&fromName, "output-name", "o", "", "name of the new collection, derived from the url if not set")

	collectionsCmd.AddCommand(
		collectionsCreateCmd,
		collectionsDeleteCmd,
		collectionsListCmd,
		collectionsSaveCmd,
		collectionsUseCmd,
		collectionsSyncCmd,
		collectionsFromCmd,
	)
	rootCmd.AddCommand(collectionsCmd)
}
