package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <namespace>",
	Short: "List the live keys in a namespace",
	Long: `List the current version of every live key in a namespace.

The listing shows the exact environment only; keys that would resolve
through base fallback are not included.

Examples:
  vesta list payments
  vesta list payments --environment production --output json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := clientEnvironment()
		if err != nil {
			return err
		}
		return withApplication("list", func(ctx context.Context, app *application) error {
			entries, err := app.manager.List(ctx, args[0], env, clientFlags.actor)
			if err != nil {
				return err
			}
			table := make(entryTable, 0, len(entries))
			for _, entry := range entries {
				table = append(table, toEntryRow(entry))
			}
			return clientFormatter().FormatTo(os.Stdout, table)
		})
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	registerClientFlags(listCmd)
}
