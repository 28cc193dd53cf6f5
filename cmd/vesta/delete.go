package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <namespace> <key>",
	Short: "Delete a configuration key",
	Long: `Delete a configuration key in the target environment.

The delete writes a tombstone version; history stays intact and the key
can be restored with rollback. Deleting an environment override
re-exposes the base value to readers of that environment.

Examples:
  vesta delete payments db.host
  vesta delete payments db.host --environment production`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := clientEnvironment()
		if err != nil {
			return err
		}
		return withApplication("delete", func(ctx context.Context, app *application) error {
			deleted, err := app.manager.Delete(ctx, args[0], args[1], env, clientFlags.actor)
			if err != nil {
				return err
			}
			if clientFlags.output == "json" {
				return clientFormatter().FormatTo(os.Stdout, map[string]bool{"deleted": deleted})
			}
			if deleted {
				fmt.Printf("%s:%s@%s deleted\n", args[0], args[1], env)
			} else {
				fmt.Printf("%s:%s@%s was already deleted\n", args[0], args[1], env)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	registerClientFlags(deleteCmd)
}
