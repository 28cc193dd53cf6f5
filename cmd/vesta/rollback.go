package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <namespace> <key> <version>",
	Short: "Roll a configuration key back to an earlier version",
	Long: `Roll a configuration key back to an earlier version.

Rollback appends a new version carrying the old value; nothing is
rewritten or removed. Rolling back to a tombstone version re-deletes
the key.

Examples:
  vesta rollback payments db.host 2
  vesta rollback payments db.host 2 --environment production`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := clientEnvironment()
		if err != nil {
			return err
		}
		version, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil || version == 0 {
			return fmt.Errorf("version must be a positive integer, got %q", args[2])
		}
		return withApplication("rollback", func(ctx context.Context, app *application) error {
			entry, err := app.manager.Rollback(ctx, args[0], args[1], env, version, clientFlags.actor)
			if err != nil {
				return err
			}
			if clientFlags.output == "json" {
				return clientFormatter().FormatTo(os.Stdout, toEntryRow(entry))
			}
			fmt.Printf("%s:%s@%s rolled back to version %d as version %d\n",
				entry.Namespace, entry.Key, entry.Environment, version, entry.Version)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
	registerClientFlags(rollbackCmd)
}
