package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vesta",
	Short: "Vesta - versioned, encrypted configuration store",
	Long: `Vesta is a configuration store that keeps every value as an immutable
version chain, layered across deployment environments.

It provides:
  - Per-key version history with rollback and pruning
  - Environment layering with fallback to base values
  - AES-256-GCM envelope encryption for secrets
  - Role-based access control with hot-reloaded policy files
  - A gap-free audit trail of every operation

The run command starts the REST API server; the remaining commands
operate directly against the configured storage backend.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.CompletionOptions.DisableDefaultCmd = false
}
