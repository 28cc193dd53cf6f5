package main

import (
	"context"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <namespace> <key>",
	Short: "Read the current value of a configuration key",
	Long: `Read the current value of a configuration key.

When the requested environment has no value of its own, the base value is
returned. Secrets are decrypted before printing; the read is recorded in
the audit trail as a secret access.

Examples:
  # Read the base value
  vesta get payments db.host

  # Read the production value (or its base fallback)
  vesta get payments db.host --environment production

  # Full record as JSON
  vesta get payments db.host --output json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := clientEnvironment()
		if err != nil {
			return err
		}
		return withApplication("get", func(ctx context.Context, app *application) error {
			entry, err := app.manager.Get(ctx, args[0], args[1], env, clientFlags.actor)
			if err != nil {
				return err
			}
			return printEntry(entry)
		})
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	registerClientFlags(getCmd)
}
