package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <namespace> <key>",
	Short: "Show the version history of a configuration key",
	Long: `Show the full version chain of a configuration key, newest first.

Tombstone versions from deletes appear in the history so the chain stays
gap-free.

Examples:
  vesta history payments db.host
  vesta history payments db.host --environment production --output json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := clientEnvironment()
		if err != nil {
			return err
		}
		return withApplication("history", func(ctx context.Context, app *application) error {
			entries, err := app.manager.History(ctx, args[0], args[1], env, clientFlags.actor)
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
	rootCmd.AddCommand(historyCmd)
	registerClientFlags(historyCmd)
}
