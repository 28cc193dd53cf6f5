package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var pruneFlags struct {
	keepLast int
}

var pruneCmd = &cobra.Command{
	Use:   "prune <namespace> <key>",
	Short: "Prune old versions of a configuration key",
	Long: `Delete historical versions of a configuration key beyond the most
recent ones.

The current version is never pruned. Pruned versions are gone for good;
rollback targets beyond the kept window stop working.

Examples:
  # Keep the 10 most recent versions
  vesta prune payments db.host --keep 10`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := clientEnvironment()
		if err != nil {
			return err
		}
		return withApplication("prune", func(ctx context.Context, app *application) error {
			removed, err := app.manager.Prune(ctx, args[0], args[1], env, pruneFlags.keepLast, clientFlags.actor)
			if err != nil {
				return err
			}
			if clientFlags.output == "json" {
				return clientFormatter().FormatTo(os.Stdout, map[string]int64{"removed": removed})
			}
			fmt.Printf("removed %d version(s) of %s:%s@%s\n", removed, args[0], args[1], env)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)
	registerClientFlags(pruneCmd)

	pruneCmd.Flags().IntVar(&pruneFlags.keepLast, "keep", 10, "number of most recent versions to keep")
}
