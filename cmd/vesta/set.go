package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/vesta/pkg/store/manager"
)

var setFlags struct {
	secret      bool
	description string
	tags        []string
	fromStdin   bool
}

var setCmd = &cobra.Command{
	Use:   "set <namespace> <key> [value]",
	Short: "Write a new version of a configuration key",
	Long: `Write a new version of a configuration key.

Every write appends a version; history is never overwritten. Values
flagged as secret are envelope-encrypted before they reach storage.

Examples:
  # Write a plain value
  vesta set payments db.host db.internal

  # Write a production override
  vesta set payments db.host db.prod.internal --environment production

  # Write an encrypted secret, reading the value from stdin
  vesta set payments db.password --secret --stdin < password.txt

  # Annotate the version
  vesta set payments db.host db.internal --description "migrate to new cluster" --tag infra`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := clientEnvironment()
		if err != nil {
			return err
		}

		var value []byte
		switch {
		case setFlags.fromStdin:
			value, err = io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read value from stdin: %w", err)
			}
		case len(args) == 3:
			value = []byte(args[2])
		default:
			return fmt.Errorf("a value argument or --stdin is required")
		}

		return withApplication("set", func(ctx context.Context, app *application) error {
			entry, err := app.manager.Set(ctx, args[0], args[1], env, value, manager.SetOptions{
				Secret:      setFlags.secret,
				Description: setFlags.description,
				Tags:        setFlags.tags,
			}, clientFlags.actor)
			if err != nil {
				return err
			}
			if clientFlags.output == "json" {
				return clientFormatter().FormatTo(os.Stdout, toEntryRow(entry))
			}
			fmt.Printf("%s:%s@%s version %d written\n", entry.Namespace, entry.Key, entry.Environment, entry.Version)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
	registerClientFlags(setCmd)

	setCmd.Flags().BoolVar(&setFlags.secret, "secret", false, "envelope-encrypt the value at rest")
	setCmd.Flags().StringVar(&setFlags.description, "description", "", "free-text description of the change")
	setCmd.Flags().StringArrayVar(&setFlags.tags, "tag", nil, "tag for the new version (repeatable)")
	setCmd.Flags().BoolVar(&setFlags.fromStdin, "stdin", false, "read the value from standard input")
}
